// Package entity defines the entities and errors used in the application.
// It includes the Link struct, which maps an opaque identifier to a destination
// URL together with its scannable artifacts and engagement statistics.
package entity

import (
	"encoding/base64"
	"errors"
	"time"
)

var (
	// ErrLinkIDExists is returned when attempting to save a link with an identifier that already exists.
	ErrLinkIDExists = errors.New("link id exists")
	// ErrLinkNotFound is returned when a link with the specified identifier cannot be found
	// or is not owned by the acting identity.
	ErrLinkNotFound = errors.New("link not found")
	// ErrInvalidURL is returned when a destination URL is empty or malformed.
	ErrInvalidURL = errors.New("invalid destination url")
	// ErrInvalidOwner is returned when an operation is attempted without an owner identity.
	ErrInvalidOwner = errors.New("invalid owner")
	// ErrShortenerUnavailable is returned by shortening providers that failed to produce an alias.
	ErrShortenerUnavailable = errors.New("shortener unavailable")
)

// Link represents a tracked redirect owned by a single identity.
type Link struct {
	ID             string    // ID is the opaque identifier used as the redirect path segment.
	OwnerID        string    // OwnerID is the identity that created the link.
	DestinationURL string    // DestinationURL is where visitors are redirected to.
	InternalURL    string    // InternalURL is the service's own redirect endpoint for the link.
	PublicAlias    string    // PublicAlias is the externally shortened form of InternalURL.
	EncodedImage   []byte    // EncodedImage is a PNG QR code of PublicAlias.
	LinkStats                // LinkStats contains engagement statistics of the link.
	CreatedAt      time.Time // CreatedAt is the timestamp when the link was created.
	UpdatedAt      time.Time // UpdatedAt is the timestamp when the destination was last changed.
}

// LinkStats contains statistics related to a link.
type LinkStats struct {
	ScanCount  int64      // ScanCount is the number of successful redirects.
	LastScanAt *time.Time // LastScanAt is the time of the most recent redirect, nil if never scanned.
}

// ImageDataURI returns EncodedImage as a data URI suitable for embedding in a page.
func (l *Link) ImageDataURI() string {
	if len(l.EncodedImage) == 0 {
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(l.EncodedImage)
}

// OwnedBy reports whether the link belongs to ownerID.
func (l *Link) OwnedBy(ownerID string) bool {
	return ownerID != "" && l.OwnerID == ownerID
}

// Clone returns a deep copy of the link.
func (l *Link) Clone() *Link {
	c := *l
	if l.EncodedImage != nil {
		c.EncodedImage = append([]byte(nil), l.EncodedImage...)
	}
	if l.LastScanAt != nil {
		t := *l.LastScanAt
		c.LastScanAt = &t
	}
	return &c
}
