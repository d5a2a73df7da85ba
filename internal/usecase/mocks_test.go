package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/qr-links/internal/entity"
)

type mockLinkRepository struct {
	mock.Mock
}

func (r *mockLinkRepository) Save(ctx context.Context, link *entity.Link) (*entity.Link, error) {
	args := r.Called(ctx, link)
	if fn, ok := args.Get(0).(func(*entity.Link) *entity.Link); ok {
		return fn(link), args.Error(1)
	}
	saved, _ := args.Get(0).(*entity.Link)
	return saved, args.Error(1)
}

func (r *mockLinkRepository) RetrieveByID(ctx context.Context, id string) (*entity.Link, error) {
	args := r.Called(ctx, id)
	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}

func (r *mockLinkRepository) RetrieveByOwner(ctx context.Context, ownerID string) ([]*entity.Link, error) {
	args := r.Called(ctx, ownerID)
	links, _ := args.Get(0).([]*entity.Link)
	return links, args.Error(1)
}

func (r *mockLinkRepository) UpdateDestination(ctx context.Context, id, ownerID, destinationURL string) (*entity.Link, error) {
	args := r.Called(ctx, id, ownerID, destinationURL)
	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}

func (r *mockLinkRepository) Remove(ctx context.Context, id, ownerID string) error {
	args := r.Called(ctx, id, ownerID)
	return args.Error(0)
}

type mockIDGenerator struct {
	mock.Mock
}

func (g *mockIDGenerator) Generate() (string, error) {
	args := g.Called()
	return args.String(0), args.Error(1)
}

type mockShortener struct {
	mock.Mock
}

func (s *mockShortener) Shorten(ctx context.Context, longURL string) (string, error) {
	args := s.Called(ctx, longURL)
	return args.String(0), args.Error(1)
}

type mockImageEncoder struct {
	mock.Mock
}

func (e *mockImageEncoder) Encode(content string) ([]byte, error) {
	args := e.Called(content)
	image, _ := args.Get(0).([]byte)
	return image, args.Error(1)
}

type mockOwnerNotifier struct {
	mock.Mock
}

func (n *mockOwnerNotifier) LinkCreated(ctx context.Context, ownerID string) error {
	args := n.Called(ctx, ownerID)
	return args.Error(0)
}

func (n *mockOwnerNotifier) LinkRemoved(ctx context.Context, ownerID string) error {
	args := n.Called(ctx, ownerID)
	return args.Error(0)
}
