package postgres

import (
	"context"
	"errors"
	"fmt"

	"portfolio-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes
const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// dbExecutor is the subset of *pgxpool.Pool the repository needs.
type dbExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

type contactRepo struct {
	db dbExecutor
}

func NewContactRepository(db dbExecutor) domain.SubmissionRepository {
	return &contactRepo{db: db}
}

// Insert appends one submission. There is no update or delete path.
func (r *contactRepo) Insert(ctx context.Context, record *domain.SubmissionRecord) error {
	query := `INSERT INTO contact_submissions (id, name, email, message, locale, created_at)
              VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Exec(ctx, query,
		record.ID, record.Name, record.Email, record.Message, record.Locale, record.CreatedAt,
	)
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("contact submission %s already exists: %w", record.ID, err)
		case pgCheckViolation:
			return fmt.Errorf("contact submission violates %s: %w", pgErr.ConstraintName, err)
		}
		return fmt.Errorf("insert contact submission: %w", err)
	}
	return fmt.Errorf("%w: insert contact submission: %w", domain.ErrStoreUnavailable, err)
}

func (r *contactRepo) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}
