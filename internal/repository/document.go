package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharsanguruparan/RagDrop/internal/apperr"
	"github.com/dharsanguruparan/RagDrop/internal/model"
)

const selectColumns = `id, name, type, size_bytes, storage_path, public_url,
	gemini_file_search_store_name, gemini_document_name, gemini_operation_name,
	summary, keywords, created_at, updated_at`

// DocumentRepository stores file records in PostgreSQL.
type DocumentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository constructs a repository.
func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

// Create inserts doc; the database assigns id, created_at and updated_at.
func (r *DocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	keywords := doc.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO files (name, type, size_bytes, storage_path, public_url,
			gemini_file_search_store_name, gemini_document_name, gemini_operation_name,
			summary, keywords)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id, created_at, updated_at
	`, doc.Name, string(doc.Type), doc.SizeBytes, doc.StoragePath, doc.PublicURL,
		doc.StoreName, doc.DocumentName, doc.OperationName, doc.Summary, keywords)
	if err := row.Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return apperr.Wrap(apperr.StoreUnavailable, "save metadata", err)
	}
	return nil
}

// Get returns a record by id.
func (r *DocumentRepository) Get(ctx context.Context, id string) (*model.Document, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM files WHERE id=$1`, id)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "file not found")
		}
		return nil, apperr.Wrap(apperr.StoreUnavailable, "load metadata", err)
	}
	return doc, nil
}

// List returns one page of records, newest first, and the total count.
func (r *DocumentRepository) List(ctx context.Context, page, pageSize int) ([]model.Document, int64, error) {
	offset, limit, ok := model.Window(page, pageSize)
	if !ok {
		total, err := r.Count(ctx)
		return []model.Document{}, total, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+selectColumns+`
		FROM files
		ORDER BY created_at DESC, id DESC
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.StoreUnavailable, "list metadata", err)
	}
	defer rows.Close()
	docs := []model.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, apperr.Wrap(apperr.StoreUnavailable, "scan metadata", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Wrap(apperr.StoreUnavailable, "list metadata", err)
	}
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// Count returns the number of records.
func (r *DocumentRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM files`).Scan(&total); err != nil {
		return 0, apperr.Wrap(apperr.StoreUnavailable, "count metadata", err)
	}
	return total, nil
}

// Delete removes a record by id.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM files WHERE id=$1`, id)
	if err != nil {
		return apperr.Wrap(apperr.StoreUnavailable, "delete metadata", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "file not found")
	}
	return nil
}

func scanDocument(row pgx.Row) (*model.Document, error) {
	var (
		doc           model.Document
		fileType      string
		publicURL     sql.NullString
		documentName  sql.NullString
		operationName sql.NullString
		summary       sql.NullString
	)
	if err := row.Scan(&doc.ID, &doc.Name, &fileType, &doc.SizeBytes, &doc.StoragePath, &publicURL,
		&doc.StoreName, &documentName, &operationName, &summary, &doc.Keywords,
		&doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	doc.Type = model.FileType(fileType)
	doc.PublicURL = nullable(publicURL)
	doc.DocumentName = nullable(documentName)
	doc.OperationName = nullable(operationName)
	doc.Summary = nullable(summary)
	if doc.Keywords == nil {
		doc.Keywords = []string{}
	}
	return &doc, nil
}

func nullable(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
