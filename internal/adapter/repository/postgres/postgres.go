package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/tinylink/internal/entity"
)

const uniqueViolationErrCode = "23505"

const linkColumns = `id, code, target, clicks, last_clicked, created_at`

func isUniqueViolationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == uniqueViolationErrCode
}

// storeError hides the driver error behind entity.ErrStoreUnavailable.
// The driver message is kept for logs but is not reachable through errors.Is.
func storeError(op, msg string, err error) error {
	return fmt.Errorf("%s: %s: %w: %v", op, msg, entity.ErrStoreUnavailable, err)
}

type linkDB struct {
	ID          int64        `db:"id"`
	Code        string       `db:"code"`
	Target      string       `db:"target"`
	Clicks      int64        `db:"clicks"`
	LastClicked sql.NullTime `db:"last_clicked"`
	CreatedAt   time.Time    `db:"created_at"`
}

func (l *linkDB) toEntity() *entity.Link {
	link := &entity.Link{
		ID:        l.ID,
		Code:      l.Code,
		Target:    l.Target,
		Clicks:    l.Clicks,
		CreatedAt: l.CreatedAt,
	}

	if l.LastClicked.Valid {
		lastClicked := l.LastClicked.Time
		link.LastClicked = &lastClicked
	}

	return link
}

type LinkRepository struct {
	db *sqlx.DB
}

func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

func (r *LinkRepository) Save(ctx context.Context, code, target string) (*entity.Link, error) {
	const op = "adapter.repository.postgres.LinkRepository.Save"
	const query = `INSERT INTO links(code, target) VALUES ($1, $2) RETURNING ` + linkColumns

	var link linkDB

	if err := r.db.GetContext(ctx, &link, query, code, target); err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrCodeExists)
		}

		return nil, storeError(op, "failed to insert into links table", err)
	}

	return link.toEntity(), nil
}

func (r *LinkRepository) RetrieveByCode(ctx context.Context, code string) (*entity.Link, error) {
	const op = "adapter.repository.postgres.LinkRepository.RetrieveByCode"
	const query = `SELECT ` + linkColumns + ` FROM links WHERE code = $1`

	var link linkDB

	if err := r.db.GetContext(ctx, &link, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return nil, storeError(op, "failed to get row from links table", err)
	}

	return link.toEntity(), nil
}

// RetrieveAll returns every link, newest first.
func (r *LinkRepository) RetrieveAll(ctx context.Context) ([]entity.Link, error) {
	const op = "adapter.repository.postgres.LinkRepository.RetrieveAll"
	const query = `SELECT ` + linkColumns + ` FROM links ORDER BY created_at DESC, id DESC`

	var rows []linkDB

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, storeError(op, "failed to select rows from links table", err)
	}

	links := make([]entity.Link, 0, len(rows))
	for i := range rows {
		links = append(links, *rows[i].toEntity())
	}

	return links, nil
}

func (r *LinkRepository) Remove(ctx context.Context, code string) error {
	const op = "adapter.repository.postgres.LinkRepository.Remove"
	const query = `DELETE FROM links WHERE code = $1`

	res, err := r.db.ExecContext(ctx, query, code)
	if err != nil {
		return storeError(op, "failed to delete from links table", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return storeError(op, "failed to get number of affected rows", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	return nil
}

// IncrementClicks records one click in a single statement, so concurrent
// callers never lose an update.
func (r *LinkRepository) IncrementClicks(ctx context.Context, id int64) (*entity.Link, error) {
	const op = "adapter.repository.postgres.LinkRepository.IncrementClicks"
	const query = `UPDATE links SET clicks = clicks + 1, last_clicked = now() WHERE id = $1 RETURNING ` + linkColumns

	var link linkDB

	if err := r.db.GetContext(ctx, &link, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return nil, storeError(op, "failed to update clicks in links table", err)
	}

	return link.toEntity(), nil
}
