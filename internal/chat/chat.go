// Package chat answers questions about one document through its index store.
package chat

import (
	"context"
	"strings"

	"github.com/dharsanguruparan/RagDrop/internal/apperr"
	"github.com/dharsanguruparan/RagDrop/internal/logger"
	"github.com/dharsanguruparan/RagDrop/internal/ports"
)

// Answerer runs a retrieval-grounded generation against a store.
type Answerer interface {
	Chat(ctx context.Context, storeName, message string) (string, error)
}

// Service resolves a document to its store and delegates the question.
type Service struct {
	meta  ports.MetadataStore
	index Answerer
	log   *logger.Logger
}

// New builds a Service.
func New(meta ports.MetadataStore, index Answerer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{meta: meta, index: index, log: log.With("component", "chat")}
}

// Ask answers message about the document with the given id.
func (s *Service) Ask(ctx context.Context, documentID, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", apperr.New(apperr.InvalidInput, "message must not be empty")
	}
	doc, err := s.meta.Get(ctx, documentID)
	if err != nil {
		return "", err
	}
	if !doc.Indexed() {
		return "", apperr.New(apperr.NotIndexed, "file is not yet linked to a File Search store")
	}
	answer, err := s.index.Chat(ctx, doc.StoreName, message)
	if err != nil {
		s.log.Warn("Chat failed", "id", documentID, "store", doc.StoreName, "error", err)
		switch apperr.KindOf(err) {
		case apperr.GenerationFailed, apperr.EmptyResponse:
			return "", apperr.Wrap(apperr.KindOf(err), "chat failed", err)
		}
		return "", err
	}
	return answer, nil
}
