// Package memory provides a LinkRepository kept in process memory.
// It is intended for development and tests; data does not survive a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vadimbarashkov/qr-links/internal/entity"
)

// LinkRepository guards every read-modify-write with a single mutex so that
// RecordScan is linearizable per link. Stored records are never handed out;
// callers get copies.
type LinkRepository struct {
	mu    sync.RWMutex
	links map[string]*entity.Link
	now   func() time.Time
}

type Option func(*LinkRepository)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *LinkRepository) {
		r.now = now
	}
}

func NewLinkRepository(opts ...Option) *LinkRepository {
	r := &LinkRepository{
		links: make(map[string]*entity.Link),
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *LinkRepository) Save(_ context.Context, link *entity.Link) (*entity.Link, error) {
	const op = "adapter.repository.memory.LinkRepository.Save"

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.links[link.ID]; ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkIDExists)
	}

	stored := link.Clone()
	stored.ScanCount = 0
	stored.LastScanAt = nil
	stored.CreatedAt = r.now()
	stored.UpdatedAt = stored.CreatedAt

	r.links[stored.ID] = stored

	return stored.Clone(), nil
}

func (r *LinkRepository) RetrieveByID(_ context.Context, id string) (*entity.Link, error) {
	const op = "adapter.repository.memory.LinkRepository.RetrieveByID"

	r.mu.RLock()
	defer r.mu.RUnlock()

	link, ok := r.links[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	return link.Clone(), nil
}

func (r *LinkRepository) RetrieveByOwner(_ context.Context, ownerID string) ([]*entity.Link, error) {
	r.mu.RLock()
	links := make([]*entity.Link, 0)
	for _, link := range r.links {
		if link.OwnerID == ownerID {
			links = append(links, link.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(links, func(i, j int) bool {
		if links[i].CreatedAt.Equal(links[j].CreatedAt) {
			return links[i].ID < links[j].ID
		}
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})

	return links, nil
}

func (r *LinkRepository) UpdateDestination(_ context.Context, id, ownerID, destinationURL string) (*entity.Link, error) {
	const op = "adapter.repository.memory.LinkRepository.UpdateDestination"

	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.links[id]
	if !ok || !link.OwnedBy(ownerID) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	link.DestinationURL = destinationURL
	link.UpdatedAt = r.now()

	return link.Clone(), nil
}

func (r *LinkRepository) RecordScan(_ context.Context, id string) (*entity.Link, error) {
	const op = "adapter.repository.memory.LinkRepository.RecordScan"

	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.links[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	scannedAt := r.now()
	if scannedAt.Before(link.CreatedAt) {
		scannedAt = link.CreatedAt
	}
	if link.LastScanAt != nil && scannedAt.Before(*link.LastScanAt) {
		scannedAt = *link.LastScanAt
	}

	link.ScanCount++
	link.LastScanAt = &scannedAt

	return link.Clone(), nil
}

func (r *LinkRepository) Remove(_ context.Context, id, ownerID string) error {
	const op = "adapter.repository.memory.LinkRepository.Remove"

	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.links[id]
	if !ok || !link.OwnedBy(ownerID) {
		return fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	delete(r.links, id)

	return nil
}
