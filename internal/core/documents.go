package core

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"kennelcore/internal/blob"
	"kennelcore/pkg/domain"
)

// MaxDocumentSize bounds the content accepted by AttachDocumentContent.
const MaxDocumentSize = 32 << 20

var (
	// ErrNoBlobStore is returned by content operations on a service built
	// without WithBlobStore.
	ErrNoBlobStore = errors.New("no blob store configured")
	// ErrNoDocumentContent is returned when a document has no stored content.
	ErrNoDocumentContent = errors.New("document has no stored content")
)

// ListDocuments returns hydrated documents ordered by title.
func (s *Service) ListDocuments(ctx context.Context, filter DocumentFilter) []domain.DocumentDetail {
	var out []domain.DocumentDetail
	s.view(ctx, func(v domain.TransactionView) {
		allowed := linkedDocuments(v, filter)
		out = listDetails(v.Documents().List(), func(d domain.Document) bool {
			if allowed != nil {
				if _, ok := allowed[d.ID]; !ok {
					return false
				}
			}
			if filter.Type != "" && d.DocumentType != filter.Type {
				return false
			}
			if filter.Search == "" {
				return true
			}
			return containsFold(d.Title, filter.Search) || containsFold(d.FileName, filter.Search) || containsFold(d.Notes, filter.Search)
		}, func(a, b domain.Document) bool { return foldLess(a.Title, b.Title) },
			func(d domain.Document) domain.DocumentDetail { return hydrateDocument(v, d) })
	})
	return nonNil(out)
}

// linkedDocuments intersects the link-based filters. nil means unrestricted.
func linkedDocuments(v domain.TransactionView, f DocumentFilter) map[string]struct{} {
	var allowed map[string]struct{}
	narrow := func(ids []string) {
		next := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			if allowed == nil {
				next[id] = struct{}{}
			} else if _, ok := allowed[id]; ok {
				next[id] = struct{}{}
			}
		}
		allowed = next
	}
	if f.TagID != "" {
		var ids []string
		for _, l := range v.DocumentTagLinks().ListBy(domain.ByTag, f.TagID) {
			ids = append(ids, l.DocumentID)
		}
		narrow(ids)
	}
	if f.DogID != "" {
		var ids []string
		for _, l := range v.DogDocuments().ListBy(domain.ByDog, f.DogID) {
			ids = append(ids, l.DocumentID)
		}
		narrow(ids)
	}
	if f.LitterID != "" {
		var ids []string
		for _, l := range v.LitterDocuments().ListBy(domain.ByLitter, f.LitterID) {
			ids = append(ids, l.DocumentID)
		}
		narrow(ids)
	}
	if f.ExpenseID != "" {
		var ids []string
		for _, l := range v.ExpenseDocuments().ListBy(domain.ByExpense, f.ExpenseID) {
			ids = append(ids, l.DocumentID)
		}
		narrow(ids)
	}
	return allowed
}

// GetDocument returns a document with its tags and linked records.
func (s *Service) GetDocument(ctx context.Context, id string) (domain.DocumentDetail, bool) {
	return getDetail(ctx, s, domain.TransactionView.Documents, id, hydrateDocument)
}

func (s *Service) CreateDocument(ctx context.Context, d domain.Document) (domain.Document, Result, error) {
	return mutate(ctx, s, opName("create", domain.EntityDocument), func(tx Transaction) (domain.Document, error) {
		return tx.CreateDocument(d)
	})
}

func (s *Service) UpdateDocument(ctx context.Context, id string, mutator func(*domain.Document) error) (domain.Document, Result, error) {
	return mutate(ctx, s, opName("update", domain.EntityDocument), func(tx Transaction) (domain.Document, error) {
		return tx.UpdateDocument(id, mutator)
	})
}

// DeleteDocument removes a document with its tag and entity links. Stored
// content is deleted once the transaction has committed.
func (s *Service) DeleteDocument(ctx context.Context, id string) (bool, Result, error) {
	var key string
	found, res, err := s.remove(ctx, opName("delete", domain.EntityDocument), id, func(tx Transaction) error {
		if doc, ok := tx.Snapshot().Documents().Find(id); ok {
			key = doc.StorageKey
		}
		return tx.DeleteDocument(id)
	})
	if err == nil && found && key != "" {
		s.deleteBlob(ctx, key)
	}
	return found, res, err
}

// ListDocumentTags returns tags ordered by name.
func (s *Service) ListDocumentTags(ctx context.Context) []domain.DocumentTag {
	return listAll(ctx, s, all(domain.TransactionView.DocumentTags), nil,
		func(a, b domain.DocumentTag) bool { return foldLess(a.Name, b.Name) },
		func(_ domain.TransactionView, t domain.DocumentTag) domain.DocumentTag { return t })
}

func (s *Service) GetDocumentTag(ctx context.Context, id string) (domain.DocumentTag, bool) {
	return getDetail(ctx, s, domain.TransactionView.DocumentTags, id,
		func(_ domain.TransactionView, t domain.DocumentTag) domain.DocumentTag { return t })
}

// CreateDocumentTag stores a tag. Names are unique ignoring case.
func (s *Service) CreateDocumentTag(ctx context.Context, t domain.DocumentTag) (domain.DocumentTag, Result, error) {
	return mutate(ctx, s, opName("create", domain.EntityDocumentTag), func(tx Transaction) (domain.DocumentTag, error) {
		return tx.CreateDocumentTag(t)
	})
}

func (s *Service) UpdateDocumentTag(ctx context.Context, id string, mutator func(*domain.DocumentTag) error) (domain.DocumentTag, Result, error) {
	return mutate(ctx, s, opName("update", domain.EntityDocumentTag), func(tx Transaction) (domain.DocumentTag, error) {
		return tx.UpdateDocumentTag(id, mutator)
	})
}

// DeleteDocumentTag removes a tag from every document and deletes it.
func (s *Service) DeleteDocumentTag(ctx context.Context, id string) (bool, Result, error) {
	return s.remove(ctx, opName("delete", domain.EntityDocumentTag), id, func(tx Transaction) error {
		return tx.DeleteDocumentTag(id)
	})
}

// TagDocument applies a tag; tagging twice is a no-op returning the existing
// link.
func (s *Service) TagDocument(ctx context.Context, documentID, tagID string) (domain.DocumentTagLink, Result, error) {
	return mutate(ctx, s, "tag_document", func(tx Transaction) (domain.DocumentTagLink, error) {
		return tx.TagDocument(documentID, tagID)
	})
}

// UntagDocument removes a tag and reports whether the document carried it.
func (s *Service) UntagDocument(ctx context.Context, documentID, tagID string) (bool, Result, error) {
	return s.remove(ctx, "untag_document", documentID, func(tx Transaction) error {
		return tx.UntagDocument(documentID, tagID)
	})
}

// LinkDocument attaches a document to a dog, litter or expense and returns the
// link id.
func (s *Service) LinkDocument(ctx context.Context, documentID string, entity domain.EntityType, entityID string) (string, Result, error) {
	var linkID string
	res, err := s.transact(ctx, "link_document", documentID, func(tx Transaction) error {
		var err error
		linkID, err = tx.LinkDocument(documentID, entity, entityID)
		return err
	})
	return linkID, res, err
}

// UnlinkDocument detaches a document and reports whether the link existed.
func (s *Service) UnlinkDocument(ctx context.Context, documentID string, entity domain.EntityType, entityID string) (bool, Result, error) {
	return s.remove(ctx, "unlink_document", documentID, func(tx Transaction) error {
		return tx.UnlinkDocument(documentID, entity, entityID)
	})
}

// AttachDocumentContent stores content for a document in the blob store under
// documents/<id>/ and records its key, size, MIME type and SHA-256 checksum.
// Content previously attached is removed after the update commits. An empty
// contentType is inferred from the file name, then from the content.
func (s *Service) AttachDocumentContent(ctx context.Context, documentID, fileName, contentType string, r io.Reader) (domain.Document, error) {
	if s.blobs == nil {
		return domain.Document{}, ErrNoBlobStore
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentSize+1))
	if err != nil {
		return domain.Document{}, fmt.Errorf("read document content: %w", err)
	}
	if len(data) > MaxDocumentSize {
		return domain.Document{}, domain.NewValidationError(domain.EntityDocument, "size", "content exceeds %d bytes", MaxDocumentSize)
	}
	name := cleanFileName(fileName)
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(name))
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	sum := sha256.Sum256(data)
	checksum := hex.EncodeToString(sum[:])
	key := path.Join("documents", documentID, checksum[:12], name)

	if _, ok := s.GetDocument(ctx, documentID); !ok {
		return domain.Document{}, domain.NotFound(domain.EntityDocument, documentID)
	}
	created := true
	_, err = s.blobs.Put(ctx, key, bytes.NewReader(data), blob.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"document-id": documentID, "sha256": checksum},
	})
	switch {
	case errors.Is(err, blob.ErrExists):
		created = false
	case err != nil:
		return domain.Document{}, fmt.Errorf("store document content: %w", err)
	}

	var previous string
	doc, _, err := mutate(ctx, s, "attach_document", func(tx Transaction) (domain.Document, error) {
		return tx.UpdateDocument(documentID, func(d *domain.Document) error {
			previous = d.StorageKey
			d.StorageKey = key
			d.FileName = name
			d.FilePath = key
			d.MimeType = contentType
			d.Size = int64(len(data))
			d.Checksum = checksum
			return nil
		})
	})
	if err != nil {
		if created {
			s.deleteBlob(ctx, key)
		}
		return domain.Document{}, err
	}
	if previous != "" && previous != key {
		s.deleteBlob(ctx, previous)
	}
	return doc, nil
}

// OpenDocumentContent streams a document's stored content. The caller closes
// the reader.
func (s *Service) OpenDocumentContent(ctx context.Context, documentID string) (domain.Document, io.ReadCloser, error) {
	doc, err := s.contentDocument(ctx, documentID)
	if err != nil {
		return domain.Document{}, nil, err
	}
	_, rc, err := s.blobs.Get(ctx, doc.StorageKey)
	if err != nil {
		return domain.Document{}, nil, fmt.Errorf("open document %s: %w", documentID, err)
	}
	return doc, rc, nil
}

// DocumentContentURL returns a time-limited download URL when the blob
// driver supports pre-signing.
func (s *Service) DocumentContentURL(ctx context.Context, documentID string, expiry time.Duration) (string, error) {
	doc, err := s.contentDocument(ctx, documentID)
	if err != nil {
		return "", err
	}
	return s.blobs.PresignURL(ctx, doc.StorageKey, blob.SignedURLOptions{Expiry: expiry})
}

func (s *Service) contentDocument(ctx context.Context, documentID string) (domain.Document, error) {
	if s.blobs == nil {
		return domain.Document{}, ErrNoBlobStore
	}
	detail, ok := s.GetDocument(ctx, documentID)
	if !ok {
		return domain.Document{}, domain.NotFound(domain.EntityDocument, documentID)
	}
	if detail.StorageKey == "" {
		return domain.Document{}, fmt.Errorf("document %s: %w", documentID, ErrNoDocumentContent)
	}
	return detail.Document, nil
}

func (s *Service) deleteBlob(ctx context.Context, key string) {
	if s.blobs == nil {
		return
	}
	if _, err := s.blobs.Delete(ctx, key); err != nil {
		s.logger.Warn("delete document content failed", "key", key, "error", err)
	}
}

// cleanFileName reduces a client-supplied name to a safe base name.
func cleanFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f, r == '/', r == ':':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	switch {
	case name == "" || name == "." || name == "..":
		return "content"
	case strings.HasSuffix(name, ".meta"):
		return name + "_"
	}
	return name
}
