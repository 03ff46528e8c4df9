package core_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"testing"

	"kennelcore/internal/blob"
	"kennelcore/internal/core"
	"kennelcore/pkg/domain"
)

func TestAttachAndOpenDocumentContent(t *testing.T) {
	store := blob.NewMemory()
	svc := newTestService(t, core.WithBlobStore(store))
	ctx := context.Background()
	doc := must[domain.Document](t)(svc.CreateDocument(ctx, domain.Document{Title: "Contract", DocumentType: domain.DocumentContract}))

	body := "puppy contract v1"
	updated, err := svc.AttachDocumentContent(ctx, doc.ID, "../contracts/contract.txt", "", strings.NewReader(body))
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	sum := sha256.Sum256([]byte(body))
	if updated.Checksum != hex.EncodeToString(sum[:]) || updated.Size != int64(len(body)) {
		t.Fatalf("unexpected checksum or size %+v", updated)
	}
	if updated.FileName != "contract.txt" || !strings.HasPrefix(updated.MimeType, "text/plain") {
		t.Fatalf("unexpected name or type %q %q", updated.FileName, updated.MimeType)
	}
	if !strings.HasPrefix(updated.StorageKey, "documents/"+doc.ID+"/") {
		t.Fatalf("unexpected key %q", updated.StorageKey)
	}

	_, rc, err := svc.OpenDocumentContent(ctx, doc.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	got, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(got) != body {
		t.Fatalf("expected %q, got %q", body, got)
	}

	// replacing the content removes the previous blob
	first := updated.StorageKey
	if _, err := svc.AttachDocumentContent(ctx, doc.ID, "contract.txt", "text/plain", strings.NewReader("puppy contract v2")); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if _, err := store.Head(ctx, first); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected previous content removed, got %v", err)
	}
}

func TestDeleteDocumentRemovesContent(t *testing.T) {
	store := blob.NewMemory()
	svc := newTestService(t, core.WithBlobStore(store))
	ctx := context.Background()
	dog := mustDog(t, svc, domain.Dog{Name: "Maple", Sex: domain.SexFemale})
	doc := must[domain.Document](t)(svc.CreateDocument(ctx, domain.Document{Title: "Hips", DocumentType: domain.DocumentHealthCertificate}))
	if _, _, err := svc.LinkDocument(ctx, doc.ID, domain.EntityDog, dog.ID); err != nil {
		t.Fatalf("link: %v", err)
	}
	attached, err := svc.AttachDocumentContent(ctx, doc.ID, "hips.pdf", "application/pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("attach: %v", err)
	}

	if found, _, err := svc.DeleteDocument(ctx, doc.ID); err != nil || !found {
		t.Fatalf("delete: found=%v err=%v", found, err)
	}
	if _, err := store.Head(ctx, attached.StorageKey); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected content removed, got %v", err)
	}
	if counts, _ := svc.DatasetCounts(ctx); counts[domain.EntityDogDocument] != 0 {
		t.Fatalf("expected dog link removed, got %d", counts[domain.EntityDogDocument])
	}
}

func TestDocumentContentNeedsBlobStore(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	doc := must[domain.Document](t)(svc.CreateDocument(ctx, domain.Document{Title: "Receipt", DocumentType: domain.DocumentReceipt}))

	if _, err := svc.AttachDocumentContent(ctx, doc.ID, "r.txt", "", strings.NewReader("x")); !errors.Is(err, core.ErrNoBlobStore) {
		t.Fatalf("expected ErrNoBlobStore, got %v", err)
	}
	if _, _, err := svc.OpenDocumentContent(ctx, doc.ID); !errors.Is(err, core.ErrNoBlobStore) {
		t.Fatalf("expected ErrNoBlobStore, got %v", err)
	}
}

func TestOpenDocumentWithoutContent(t *testing.T) {
	svc := newTestService(t, core.WithBlobStore(blob.NewMemory()))
	ctx := context.Background()
	doc := must[domain.Document](t)(svc.CreateDocument(ctx, domain.Document{Title: "Empty", DocumentType: domain.DocumentOther}))

	if _, _, err := svc.OpenDocumentContent(ctx, doc.ID); !errors.Is(err, core.ErrNoDocumentContent) {
		t.Fatalf("expected ErrNoDocumentContent, got %v", err)
	}
	if _, _, err := svc.OpenDocumentContent(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTagAndFilterDocuments(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	tag := must[domain.DocumentTag](t)(svc.CreateDocumentTag(ctx, domain.DocumentTag{Name: "Vet"}))
	if _, _, err := svc.CreateDocumentTag(ctx, domain.DocumentTag{Name: "vet"}); !domain.IsValidation(err) {
		t.Fatalf("expected duplicate tag name rejected, got %v", err)
	}
	a := must[domain.Document](t)(svc.CreateDocument(ctx, domain.Document{Title: "A", DocumentType: domain.DocumentOther}))
	must[domain.Document](t)(svc.CreateDocument(ctx, domain.Document{Title: "B", DocumentType: domain.DocumentOther}))

	first := must[domain.DocumentTagLink](t)(svc.TagDocument(ctx, a.ID, tag.ID))
	again := must[domain.DocumentTagLink](t)(svc.TagDocument(ctx, a.ID, tag.ID))
	if first.ID != again.ID {
		t.Fatalf("tagging twice should return the existing link")
	}
	docs := svc.ListDocuments(ctx, core.DocumentFilter{TagID: tag.ID})
	if len(docs) != 1 || docs[0].ID != a.ID || len(docs[0].Tags) != 1 {
		t.Fatalf("expected tagged document only, got %+v", docs)
	}

	if found, _, err := svc.UntagDocument(ctx, a.ID, tag.ID); err != nil || !found {
		t.Fatalf("untag: found=%v err=%v", found, err)
	}
	if found, _, _ := svc.UntagDocument(ctx, a.ID, tag.ID); found {
		t.Fatalf("second untag should report false")
	}
}
