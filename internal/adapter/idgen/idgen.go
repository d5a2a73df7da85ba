// Package idgen produces opaque link identifiers.
package idgen

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// MinLength keeps at least 72 bits of entropy with the 64-symbol nanoid alphabet.
	MinLength = 12
	// DefaultLength gives 84 bits of entropy.
	DefaultLength = 14
)

// NanoID generates URL-safe identifiers backed by crypto/rand.
// It is safe for concurrent use.
type NanoID struct {
	length int
}

// NewNanoID returns a generator for identifiers of the given length.
// Lengths below MinLength are raised to MinLength.
func NewNanoID(length int) *NanoID {
	if length < MinLength {
		length = MinLength
	}
	return &NanoID{length: length}
}

func (g *NanoID) Generate() (string, error) {
	const op = "idgen.NanoID.Generate"

	id, err := gonanoid.New(g.length)
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate id: %w", op, err)
	}

	return id, nil
}
