package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=docstore
type Repository interface {
	InsertDocument(ctx context.Context, doc *Document) error
	ListDocuments(ctx context.Context, collection, owner string) ([]*Document, error)
	MergeDocument(ctx context.Context, collection, owner, id string, patch json.RawMessage) (*Document, error)
	DeleteDocument(ctx context.Context, collection, owner, id string) error
}

type Service struct {
	repo  Repository
	newID func() (uuid.UUID, error)
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, newID: uuid.NewV7}
}

// Push stores body under a new time-ordered id and returns the id.
func (s *Service) Push(ctx context.Context, collection, owner string, body json.RawMessage) (string, error) {
	if err := checkObject(body); err != nil {
		return "", err
	}

	id, err := s.newID()
	if err != nil {
		return "", fmt.Errorf("generating id: %w", err)
	}

	doc := &Document{
		Collection: collection,
		Owner:      owner,
		ID:         id.String(),
		Body:       body,
	}

	if err := s.repo.InsertDocument(ctx, doc); err != nil {
		return "", fmt.Errorf("inserting document: %w", err)
	}

	return doc.ID, nil
}

// List returns the owner's documents in insertion order.
func (s *Service) List(ctx context.Context, collection, owner string) ([]*Document, error) {
	docs, err := s.repo.ListDocuments(ctx, collection, owner)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	return docs, nil
}

// Merge writes the top-level fields of patch over the stored document.
func (s *Service) Merge(ctx context.Context, collection, owner, id string, patch json.RawMessage) (*Document, error) {
	if err := checkObject(patch); err != nil {
		return nil, err
	}

	doc, err := s.repo.MergeDocument(ctx, collection, owner, id, patch)
	if err != nil {
		return nil, fmt.Errorf("merging document %s: %w", id, err)
	}

	return doc, nil
}

// Delete removes a document. Deleting a missing document succeeds.
func (s *Service) Delete(ctx context.Context, collection, owner, id string) error {
	if err := s.repo.DeleteDocument(ctx, collection, owner, id); err != nil {
		return fmt.Errorf("deleting document %s: %w", id, err)
	}

	return nil
}

func checkObject(body json.RawMessage) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return ErrInvalidBody
	}

	return nil
}
