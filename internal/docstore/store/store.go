package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/spendly/internal/docstore"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Expected column order: collection, owner, id, body, created_at, updated_at
func scanDocument(s scanner) (*docstore.Document, error) {
	var (
		doc  docstore.Document
		body []byte
	)

	if err := s.Scan(&doc.Collection, &doc.Owner, &doc.ID, &body, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}

	doc.Body = json.RawMessage(body)

	return &doc, nil
}

const selectDocumentColumns = `collection, owner, id, body, created_at, updated_at`

func (s *Store) InsertDocument(ctx context.Context, doc *docstore.Document) error {
	query := `
		INSERT INTO documents (collection, owner, id, body, created_at)
		VALUES ($1, $2, $3, $4::jsonb, NOW())
		RETURNING created_at
	`

	err := s.db.QueryRowContext(ctx, query, doc.Collection, doc.Owner, doc.ID, string(doc.Body)).Scan(&doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}

	return nil
}

// ListDocuments orders by id; ids are UUIDv7, so this is insertion order.
func (s *Store) ListDocuments(ctx context.Context, collection, owner string) ([]*docstore.Document, error) {
	query := `SELECT ` + selectDocumentColumns + `
		FROM documents
		WHERE collection = $1 AND owner = $2
		ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, collection, owner)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []*docstore.Document

	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}

		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

func (s *Store) MergeDocument(ctx context.Context, collection, owner, id string, patch json.RawMessage) (*docstore.Document, error) {
	query := `
		UPDATE documents
		SET body = body || $4::jsonb, updated_at = NOW()
		WHERE collection = $1 AND owner = $2 AND id = $3
		RETURNING ` + selectDocumentColumns

	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, collection, owner, id, string(patch)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, docstore.ErrNotFound
		}

		return nil, fmt.Errorf("merging document: %w", err)
	}

	return doc, nil
}

func (s *Store) DeleteDocument(ctx context.Context, collection, owner, id string) error {
	query := `DELETE FROM documents WHERE collection = $1 AND owner = $2 AND id = $3`

	if _, err := s.db.ExecContext(ctx, query, collection, owner, id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	return nil
}
