package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/casedesk/caseintake/internal/domain"
	"github.com/casedesk/caseintake/internal/integrity"
	"github.com/casedesk/caseintake/internal/storage"
	"gorm.io/gorm"
)

type fakeObjectStorage struct {
	objects      map[string][]byte
	contentTypes map[string]string
}

func newFakeObjectStorage() *fakeObjectStorage {
	return &fakeObjectStorage{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

func (f *fakeObjectStorage) EnsureBucket(_ context.Context) error { return nil }

func (f *fakeObjectStorage) Upload(_ context.Context, key string, reader io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	f.objects[key] = data
	f.contentTypes[key] = contentType
	return nil
}

func (f *fakeObjectStorage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeObjectStorage) GetMetadata(_ context.Context, key string) (*storage.ObjectMetadata, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	return &storage.ObjectMetadata{
		Size:        int64(len(data)),
		ContentType: f.contentTypes[key],
	}, nil
}

func (f *fakeObjectStorage) Exists(_ context.Context, key string) (bool, error) {
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeObjectStorage) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeObjectStorage) PresignPut(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://storage.example.com/put/" + key, nil
}

func (f *fakeObjectStorage) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://storage.example.com/get/" + key, nil
}

func newUploadFixture() (*UploadService, *fakeDocumentStore, *fakeObjectStorage, *fakeAuditSink) {
	docs := newFakeDocumentStore()
	store := newFakeObjectStorage()
	audit := &fakeAuditSink{}
	svc := NewUploadService(docs, store, audit, nil, &UploadConfig{
		MaxFileSize: 1024,
		PresignTTL:  10 * time.Minute,
	})
	return svc, docs, store, audit
}

func TestRequestUpload(t *testing.T) {
	svc, _, _, _ := newUploadFixture()

	grant, err := svc.RequestUpload(context.Background(), &UploadRequest{
		FileName: "contract.pdf",
		MimeType: "application/pdf",
		FileSize: 512,
	})
	if err != nil {
		t.Fatalf("RequestUpload failed: %v", err)
	}

	if grant.DocumentID == "" {
		t.Error("grant has no document ID")
	}
	if want := grant.DocumentID + "/contract.pdf"; grant.StorageKey != want {
		t.Errorf("storage key = %q, want %q", grant.StorageKey, want)
	}
	if grant.UploadURL == "" {
		t.Error("grant has no upload URL")
	}
	if !grant.ExpiresAt.After(time.Now()) {
		t.Error("grant already expired")
	}
}

func TestRequestUploadValidation(t *testing.T) {
	svc, _, _, _ := newUploadFixture()

	testCases := []struct {
		name    string
		req     UploadRequest
		wantErr error
	}{
		{
			name:    "empty file name",
			req:     UploadRequest{FileName: "", MimeType: "text/plain", FileSize: 10},
			wantErr: ErrInvalidFileName,
		},
		{
			name:    "path traversal",
			req:     UploadRequest{FileName: "../secrets.txt", MimeType: "text/plain", FileSize: 10},
			wantErr: ErrInvalidFileName,
		},
		{
			name:    "separator in name",
			req:     UploadRequest{FileName: "a/b.txt", MimeType: "text/plain", FileSize: 10},
			wantErr: ErrInvalidFileName,
		},
		{
			name:    "zero size",
			req:     UploadRequest{FileName: "empty.txt", MimeType: "text/plain", FileSize: 0},
			wantErr: ErrFileTooLarge,
		},
		{
			name:    "over limit",
			req:     UploadRequest{FileName: "big.bin", MimeType: "application/octet-stream", FileSize: 4096},
			wantErr: ErrFileTooLarge,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RequestUpload(context.Background(), &tc.req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestCompleteUpload(t *testing.T) {
	svc, docs, store, audit := newUploadFixture()

	data := []byte("signed affidavit")
	store.objects["doc-1/affidavit.pdf"] = data

	doc, err := svc.CompleteUpload(context.Background(), &CompleteUploadRequest{
		DocumentID: "doc-1",
		FileName:   "affidavit.pdf",
		MimeType:   "application/pdf",
		UploaderID: "user-7",
	})
	if err != nil {
		t.Fatalf("CompleteUpload failed: %v", err)
	}

	if doc.Status != domain.DocumentStatusPending {
		t.Errorf("status = %s, want %s", doc.Status, domain.DocumentStatusPending)
	}
	if want := integrity.Hash(data); doc.ContentHash != want {
		t.Errorf("content hash = %s, want %s", doc.ContentHash, want)
	}
	if doc.EvidenceSignature == "" {
		t.Error("evidence signature not set")
	}
	if doc.FileSize != int64(len(data)) {
		t.Errorf("file size = %d, want %d", doc.FileSize, len(data))
	}

	if _, ok := docs.docs["doc-1"]; !ok {
		t.Error("document record not persisted")
	}

	actions := audit.actions()
	if len(actions) != 1 || actions[0] != domain.AuditActionDocumentUploaded {
		t.Errorf("audit actions = %v, want [document_uploaded]", actions)
	}
}

func TestCompleteUploadDuplicateContent(t *testing.T) {
	svc, _, store, audit := newUploadFixture()

	data := []byte("identical bytes")
	store.objects["doc-1/first.pdf"] = data
	store.objects["doc-2/second.pdf"] = data

	if _, err := svc.CompleteUpload(context.Background(), &CompleteUploadRequest{
		DocumentID: "doc-1",
		FileName:   "first.pdf",
		MimeType:   "application/pdf",
		UploaderID: "user-7",
	}); err != nil {
		t.Fatalf("first CompleteUpload failed: %v", err)
	}

	_, err := svc.CompleteUpload(context.Background(), &CompleteUploadRequest{
		DocumentID: "doc-2",
		FileName:   "second.pdf",
		MimeType:   "application/pdf",
		UploaderID: "user-8",
	})
	if !errors.Is(err, ErrDuplicateContent) {
		t.Errorf("error = %v, want ErrDuplicateContent", err)
	}
	if !strings.Contains(err.Error(), "doc-1") {
		t.Errorf("error should name the existing document, got %v", err)
	}

	// Only the first upload is audited.
	if actions := audit.actions(); len(actions) != 1 {
		t.Errorf("audit actions = %v, want exactly one document_uploaded", actions)
	}
}

func TestDownloadURL(t *testing.T) {
	svc, docs, store, _ := newUploadFixture()

	data := []byte("stored content")
	store.objects["doc-1/exhibit.pdf"] = data
	docs.docs["doc-1"] = &domain.Document{
		ID:         "doc-1",
		StorageKey: "doc-1/exhibit.pdf",
	}

	grant, err := svc.DownloadURL(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("DownloadURL failed: %v", err)
	}
	if want := "https://storage.example.com/get/doc-1/exhibit.pdf"; grant.DownloadURL != want {
		t.Errorf("download URL = %q, want %q", grant.DownloadURL, want)
	}
	if !grant.ExpiresAt.After(time.Now()) {
		t.Error("grant already expired")
	}

	if _, err := svc.DownloadURL(context.Background(), "no-such-doc"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("error = %v, want gorm.ErrRecordNotFound", err)
	}
}

func TestCompleteUploadMissingObject(t *testing.T) {
	svc, _, _, _ := newUploadFixture()

	_, err := svc.CompleteUpload(context.Background(), &CompleteUploadRequest{
		DocumentID: "doc-1",
		FileName:   "never-uploaded.pdf",
		MimeType:   "application/pdf",
		UploaderID: "user-7",
	})
	if !errors.Is(err, ErrUploadNotFound) {
		t.Errorf("error = %v, want ErrUploadNotFound", err)
	}
}

func TestVerifyDocument(t *testing.T) {
	svc, _, store, _ := newUploadFixture()

	data := []byte("original content")
	store.objects["doc-1/exhibit.txt"] = data

	doc := &domain.Document{
		ID:          "doc-1",
		StorageKey:  "doc-1/exhibit.txt",
		ContentHash: integrity.Hash(data),
	}

	ok, err := svc.VerifyDocument(context.Background(), doc)
	if err != nil {
		t.Fatalf("VerifyDocument failed: %v", err)
	}
	if !ok {
		t.Error("unmodified content should verify")
	}

	store.objects["doc-1/exhibit.txt"] = []byte("tampered content")
	ok, err = svc.VerifyDocument(context.Background(), doc)
	if err != nil {
		t.Fatalf("VerifyDocument failed: %v", err)
	}
	if ok {
		t.Error("tampered content should not verify")
	}
}
