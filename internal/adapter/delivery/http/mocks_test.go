package http

import (
	"context"
	"errors"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/qr-links/internal/entity"
)

type mockLinkUseCase struct {
	mock.Mock
}

func (m *mockLinkUseCase) CreateLink(ctx context.Context, ownerID, rawURL string) (*entity.Link, error) {
	args := m.Called(ctx, ownerID, rawURL)
	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}

func (m *mockLinkUseCase) GetLink(ctx context.Context, ownerID, id string) (*entity.Link, error) {
	args := m.Called(ctx, ownerID, id)
	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}

func (m *mockLinkUseCase) ListLinks(ctx context.Context, ownerID string) ([]*entity.Link, error) {
	args := m.Called(ctx, ownerID)
	links, _ := args.Get(0).([]*entity.Link)
	return links, args.Error(1)
}

func (m *mockLinkUseCase) ModifyLink(ctx context.Context, ownerID, id, rawURL string) (*entity.Link, error) {
	args := m.Called(ctx, ownerID, id, rawURL)
	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}

func (m *mockLinkUseCase) RemoveLink(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

type mockScanRecorder struct {
	mock.Mock
}

func (m *mockScanRecorder) RecordScan(ctx context.Context, id string) (*entity.Link, error) {
	args := m.Called(ctx, id)
	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}

// staticTokens accepts a fixed set of tokens, each bound to an owner.
type staticTokens map[string]string

func (t staticTokens) Verify(token string) (string, error) {
	ownerID, ok := t[token]
	if !ok {
		return "", errors.New("invalid token")
	}
	return ownerID, nil
}
