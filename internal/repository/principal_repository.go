package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"frotadocs/internal/domain"
)

type PrincipalRepository struct {
	db *sqlx.DB
}

func NewPrincipalRepository(db *sqlx.DB) *PrincipalRepository {
	return &PrincipalRepository{db: db}
}

func (r *PrincipalRepository) Create(ctx context.Context, p *domain.Principal) error {
	query := `
        INSERT INTO principals (id, name, credential_kind, credential, password_hash, roles, companies)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING created_at`

	err := r.db.QueryRowContext(
		ctx,
		query,
		p.ID,
		p.Name,
		p.CredentialKind,
		p.Credential,
		p.PasswordHash,
		p.Roles,
		p.Companies,
	).Scan(&p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create principal: %w", err)
	}

	return nil
}

func (r *PrincipalRepository) GetByCredential(ctx context.Context, kind domain.CredentialKind, credential string) (*domain.Principal, error) {
	var p domain.Principal
	query := `SELECT * FROM principals WHERE credential_kind = $1 AND credential = $2`

	err := r.db.GetContext(ctx, &p, query, kind, credential)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get principal: %w", err)
	}

	return &p, nil
}

func (r *PrincipalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Principal, error) {
	var p domain.Principal
	query := `SELECT * FROM principals WHERE id = $1`

	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get principal: %w", err)
	}

	return &p, nil
}

// GetBySessionToken находит принципала, у которого сохранен именно этот токен.
func (r *PrincipalRepository) GetBySessionToken(ctx context.Context, token string) (*domain.Principal, error) {
	var p domain.Principal
	query := `SELECT * FROM principals WHERE session_token = $1`

	err := r.db.GetContext(ctx, &p, query, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get principal by token: %w", err)
	}

	return &p, nil
}

// SetSessionToken записывает или сбрасывает (nil) сессионный токен.
func (r *PrincipalRepository) SetSessionToken(ctx context.Context, id uuid.UUID, token *string) error {
	query := `UPDATE principals SET session_token = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, token, id)
	if err != nil {
		return fmt.Errorf("failed to set session token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *PrincipalRepository) Delete(ctx context.Context, kind domain.CredentialKind, credential string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM principals WHERE credential_kind = $1 AND credential = $2`,
		kind, credential)
	if err != nil {
		return fmt.Errorf("failed to delete principal: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
