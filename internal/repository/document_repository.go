package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"frotadocs/internal/domain"
)

type DocumentRepository struct {
	db *sqlx.DB
}

func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, d *domain.Document) error {
	query := `
        INSERT INTO documents (id, version, name, mime_type, size_bytes, s3_key, roles, companies)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(
		ctx,
		query,
		d.ID,
		d.Version,
		d.Name,
		d.MIMEType,
		d.SizeBytes,
		d.S3Key,
		d.Roles,
		d.Companies,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	var d domain.Document
	query := `SELECT * FROM documents WHERE id = $1`

	err := r.db.GetContext(ctx, &d, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return &d, nil
}

func (r *DocumentRepository) GetByVersion(ctx context.Context, version string) (*domain.Document, error) {
	var d domain.Document
	query := `SELECT * FROM documents WHERE version = $1`

	err := r.db.GetContext(ctx, &d, query, version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document by version: %w", err)
	}

	return &d, nil
}

// ListVisible возвращает идентифицирующие поля документов, видимых носителю
// данных ролей и компаний. Предикат видимости уходит в SQL: пересечение
// массивов вместо полного прохода по таблице. matchAllCompanies отключает
// измерение компаний (старый режим фильтрации или роль adm).
func (r *DocumentRepository) ListVisible(ctx context.Context, roles, companies []string, matchAllCompanies bool) ([]domain.DocumentListItem, error) {
	items := []domain.DocumentListItem{}
	query := `
        SELECT id, version, companies FROM documents
        WHERE roles && $1 AND ($2 OR companies && $3)
        ORDER BY version::bigint`

	err := r.db.SelectContext(ctx, &items, query,
		pq.StringArray(roles), matchAllCompanies, pq.StringArray(companies))
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	return items, nil
}

// Replace перезаписывает содержимое документа под новой версией. Прежний
// номер версии нигде не сохраняется — история не ведется.
func (r *DocumentRepository) Replace(ctx context.Context, id string, d *domain.Document) error {
	query := `
        UPDATE documents
        SET version = $1,
            name = $2,
            mime_type = $3,
            size_bytes = $4,
            s3_key = $5,
            updated_at = CURRENT_TIMESTAMP
        WHERE id = $6
        RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		d.Version,
		d.Name,
		d.MIMEType,
		d.SizeBytes,
		d.S3Key,
		id,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to replace document: %w", err)
	}

	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
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

// AllVersions отдает все сохраненные номера версий как есть, текстом.
// Разбор и отсев мусорных значений — дело аллокатора.
func (r *DocumentRepository) AllVersions(ctx context.Context) ([]string, error) {
	var versions []string
	err := r.db.SelectContext(ctx, &versions, `SELECT version FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("failed to read versions: %w", err)
	}
	return versions, nil
}

// Increment атомарно увеличивает счетчик версий и возвращает новое значение.
// Один UPDATE, никакого чтения-потом-записи: два конкурентных вызова не могут
// получить одинаковый номер.
func (r *DocumentRepository) Increment(ctx context.Context) (int64, error) {
	var value int64
	query := `UPDATE version_counter SET value = value + 1 WHERE id = 1 RETURNING value`

	err := r.db.QueryRowContext(ctx, query).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("failed to increment version counter: %w", err)
	}

	return value, nil
}

// RaiseTo поднимает счетчик минимум до указанного значения, не опуская его.
func (r *DocumentRepository) RaiseTo(ctx context.Context, value int64) error {
	query := `UPDATE version_counter SET value = GREATEST(value, $1) WHERE id = 1`

	_, err := r.db.ExecContext(ctx, query, value)
	if err != nil {
		return fmt.Errorf("failed to raise version counter: %w", err)
	}

	return nil
}
