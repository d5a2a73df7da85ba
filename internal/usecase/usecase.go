package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vadimbarashkov/qr-links/internal/entity"
)

const maxRetries = 5

var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating link id")

type linkRepository interface {
	Save(ctx context.Context, link *entity.Link) (*entity.Link, error)
	RetrieveByID(ctx context.Context, id string) (*entity.Link, error)
	RetrieveByOwner(ctx context.Context, ownerID string) ([]*entity.Link, error)
	UpdateDestination(ctx context.Context, id, ownerID, destinationURL string) (*entity.Link, error)
	Remove(ctx context.Context, id, ownerID string) error
}

type idGenerator interface {
	Generate() (string, error)
}

type shortener interface {
	Shorten(ctx context.Context, longURL string) (string, error)
}

type imageEncoder interface {
	Encode(content string) ([]byte, error)
}

// OwnerNotifier receives per-owner lifecycle events, e.g. to keep a link counter
// on the user record. Failures are logged and never fail the operation.
type OwnerNotifier interface {
	LinkCreated(ctx context.Context, ownerID string) error
	LinkRemoved(ctx context.Context, ownerID string) error
}

type nopNotifier struct{}

func (nopNotifier) LinkCreated(context.Context, string) error { return nil }
func (nopNotifier) LinkRemoved(context.Context, string) error { return nil }

type Option func(*LinkUseCase)

func WithLogger(logger *slog.Logger) Option {
	return func(uc *LinkUseCase) {
		uc.logger = logger
	}
}

func WithOwnerNotifier(n OwnerNotifier) Option {
	return func(uc *LinkUseCase) {
		uc.notifier = n
	}
}

type LinkUseCase struct {
	redirectBaseURL string
	linkRepo        linkRepository
	ids             idGenerator
	shortener       shortener
	encoder         imageEncoder
	notifier        OwnerNotifier
	logger          *slog.Logger
}

func New(
	redirectBaseURL string,
	linkRepo linkRepository,
	ids idGenerator,
	shortener shortener,
	encoder imageEncoder,
	opts ...Option,
) *LinkUseCase {
	uc := &LinkUseCase{
		redirectBaseURL: strings.TrimRight(redirectBaseURL, "/"),
		linkRepo:        linkRepo,
		ids:             ids,
		shortener:       shortener,
		encoder:         encoder,
		notifier:        nopNotifier{},
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

func (uc *LinkUseCase) CreateLink(ctx context.Context, ownerID, rawURL string) (*entity.Link, error) {
	const op = "usecase.LinkUseCase.CreateLink"

	if ownerID == "" {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidOwner)
	}

	destinationURL, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i := 0; i < maxRetries; i++ {
		id, err := uc.ids.Generate()
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate link id: %w", op, err)
		}

		internalURL := uc.redirectBaseURL + "/" + id
		publicAlias := uc.publicAlias(ctx, internalURL)

		image, err := uc.encoder.Encode(publicAlias)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to encode image: %w", op, err)
		}

		link, err := uc.linkRepo.Save(ctx, &entity.Link{
			ID:             id,
			OwnerID:        ownerID,
			DestinationURL: destinationURL,
			InternalURL:    internalURL,
			PublicAlias:    publicAlias,
			EncodedImage:   image,
		})
		if err != nil {
			if errors.Is(err, entity.ErrLinkIDExists) {
				continue
			}

			return nil, fmt.Errorf("%s: failed to save link: %w", op, err)
		}

		uc.notify(ctx, op, ownerID, uc.notifier.LinkCreated)

		return link, nil
	}

	uc.logger.ErrorContext(ctx, "link id retry budget exhausted",
		slog.String("op", op),
		slog.String("owner_id", ownerID),
		slog.Int("attempts", maxRetries),
	)

	return nil, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

// publicAlias asks the shortener for an alias and falls back to internalURL on any failure.
func (uc *LinkUseCase) publicAlias(ctx context.Context, internalURL string) string {
	alias, err := uc.shortener.Shorten(ctx, internalURL)
	if err != nil || alias == "" {
		uc.logger.WarnContext(ctx, "shortener failed, using internal url as alias",
			slog.String("internal_url", internalURL),
			slog.Any("err", err),
		)
		return internalURL
	}

	return alias
}

func (uc *LinkUseCase) notify(ctx context.Context, op, ownerID string, fn func(context.Context, string) error) {
	if err := fn(ctx, ownerID); err != nil {
		uc.logger.WarnContext(ctx, "owner notification failed",
			slog.String("op", op),
			slog.String("owner_id", ownerID),
			slog.Any("err", err),
		)
	}
}

func (uc *LinkUseCase) GetLink(ctx context.Context, ownerID, id string) (*entity.Link, error) {
	const op = "usecase.LinkUseCase.GetLink"

	link, err := uc.linkRepo.RetrieveByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get link: %w", op, err)
	}

	if !link.OwnedBy(ownerID) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	return link, nil
}

func (uc *LinkUseCase) ListLinks(ctx context.Context, ownerID string) ([]*entity.Link, error) {
	const op = "usecase.LinkUseCase.ListLinks"

	if ownerID == "" {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidOwner)
	}

	links, err := uc.linkRepo.RetrieveByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list links: %w", op, err)
	}

	return links, nil
}

// ModifyLink changes the destination only; the alias and image stay stable so that
// codes already printed or shared keep working.
func (uc *LinkUseCase) ModifyLink(ctx context.Context, ownerID, id, rawURL string) (*entity.Link, error) {
	const op = "usecase.LinkUseCase.ModifyLink"

	if ownerID == "" {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidOwner)
	}

	destinationURL, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	link, err := uc.linkRepo.UpdateDestination(ctx, id, ownerID, destinationURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to modify link: %w", op, err)
	}

	return link, nil
}

func (uc *LinkUseCase) RemoveLink(ctx context.Context, ownerID, id string) error {
	const op = "usecase.LinkUseCase.RemoveLink"

	if ownerID == "" {
		return fmt.Errorf("%s: %w", op, entity.ErrInvalidOwner)
	}

	if err := uc.linkRepo.Remove(ctx, id, ownerID); err != nil {
		return fmt.Errorf("%s: failed to remove link: %w", op, err)
	}

	uc.notify(ctx, op, ownerID, uc.notifier.LinkRemoved)

	return nil
}
