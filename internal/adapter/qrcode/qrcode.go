// Package qrcode renders link aliases as PNG QR codes.
package qrcode

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

const (
	DefaultSize = 256
	minSize     = 64
)

type Encoder struct {
	size  int
	level qrcode.RecoveryLevel
}

func NewEncoder(size int) *Encoder {
	if size < minSize {
		size = DefaultSize
	}
	return &Encoder{size: size, level: qrcode.Medium}
}

// Encode returns a PNG image of content. The output depends only on content.
func (e *Encoder) Encode(content string) ([]byte, error) {
	const op = "adapter.qrcode.Encoder.Encode"

	png, err := qrcode.Encode(content, e.level, e.size)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to encode qr code: %w", op, err)
	}

	return png, nil
}
