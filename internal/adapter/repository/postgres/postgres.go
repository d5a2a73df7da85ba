package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/qr-links/internal/entity"
)

const uniqueViolationErrCode = "23505"

func isUniqueViolationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == uniqueViolationErrCode
}

type linkDB struct {
	ID             string       `db:"id"`
	OwnerID        string       `db:"owner_id"`
	DestinationURL string       `db:"destination_url"`
	InternalURL    string       `db:"internal_url"`
	PublicAlias    string       `db:"public_alias"`
	EncodedImage   []byte       `db:"encoded_image"`
	ScanCount      int64        `db:"scan_count"`
	LastScanAt     sql.NullTime `db:"last_scan_at"`
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at"`
}

func (l *linkDB) toEntity() *entity.Link {
	link := &entity.Link{
		ID:             l.ID,
		OwnerID:        l.OwnerID,
		DestinationURL: l.DestinationURL,
		InternalURL:    l.InternalURL,
		PublicAlias:    l.PublicAlias,
		EncodedImage:   l.EncodedImage,
		LinkStats: entity.LinkStats{
			ScanCount: l.ScanCount,
		},
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}

	if l.LastScanAt.Valid {
		t := l.LastScanAt.Time
		link.LastScanAt = &t
	}

	return link
}

type LinkRepository struct {
	db *sqlx.DB
}

func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// Save relies on the primary key of links.id to reject duplicates atomically.
func (r *LinkRepository) Save(ctx context.Context, link *entity.Link) (*entity.Link, error) {
	const op = "adapter.repository.postgres.LinkRepository.Save"
	const query = `INSERT INTO links(id, owner_id, destination_url, internal_url, public_alias, encoded_image)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *`

	var l linkDB

	err := r.db.GetContext(ctx, &l, query,
		link.ID, link.OwnerID, link.DestinationURL, link.InternalURL, link.PublicAlias, link.EncodedImage)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkIDExists)
		}

		return nil, fmt.Errorf("%s: failed to insert into links table: %w", op, err)
	}

	return l.toEntity(), nil
}

func (r *LinkRepository) RetrieveByID(ctx context.Context, id string) (*entity.Link, error) {
	const op = "adapter.repository.postgres.LinkRepository.RetrieveByID"
	const query = `SELECT * FROM links WHERE id = $1`

	var l linkDB

	if err := r.db.GetContext(ctx, &l, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from links table: %w", op, err)
	}

	return l.toEntity(), nil
}

func (r *LinkRepository) RetrieveByOwner(ctx context.Context, ownerID string) ([]*entity.Link, error) {
	const op = "adapter.repository.postgres.LinkRepository.RetrieveByOwner"
	const query = `SELECT * FROM links WHERE owner_id = $1 ORDER BY created_at DESC, id`

	var rows []linkDB

	if err := r.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, fmt.Errorf("%s: failed to select rows from links table: %w", op, err)
	}

	links := make([]*entity.Link, 0, len(rows))
	for i := range rows {
		links = append(links, rows[i].toEntity())
	}

	return links, nil
}

func (r *LinkRepository) UpdateDestination(ctx context.Context, id, ownerID, destinationURL string) (*entity.Link, error) {
	const op = "adapter.repository.postgres.LinkRepository.UpdateDestination"
	const query = `UPDATE links SET destination_url = $1, updated_at = now()
		WHERE id = $2 AND owner_id = $3
		RETURNING *`

	var l linkDB

	if err := r.db.GetContext(ctx, &l, query, destinationURL, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to update links table row: %w", op, err)
	}

	return l.toEntity(), nil
}

// RecordScan increments the counter and returns the row in one statement, so the
// destination is the one visible under the row lock. clock_timestamp is read after
// the lock is taken and GREATEST keeps last_scan_at from moving backwards.
func (r *LinkRepository) RecordScan(ctx context.Context, id string) (*entity.Link, error) {
	const op = "adapter.repository.postgres.LinkRepository.RecordScan"
	const query = `UPDATE links
		SET scan_count = scan_count + 1,
			last_scan_at = GREATEST(COALESCE(last_scan_at, created_at), clock_timestamp())
		WHERE id = $1
		RETURNING *`

	var l linkDB

	if err := r.db.GetContext(ctx, &l, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to record scan in links table: %w", op, err)
	}

	return l.toEntity(), nil
}

func (r *LinkRepository) Remove(ctx context.Context, id, ownerID string) error {
	const op = "adapter.repository.postgres.LinkRepository.Remove"
	const query = `DELETE FROM links WHERE id = $1 AND owner_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("%s: failed to delete from links table: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get number of affected rows: %w", op, err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	return nil
}
