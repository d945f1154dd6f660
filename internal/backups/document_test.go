package backups

import (
	"context"
	"errors"
	"testing"
)

const importYAML = `
kind: s3
name: Nova S3 Backup
backupsToRetain: 3
bucket: stackrox
region: us-west-2
useIam: true
---
kind: gcs
name: " "
backupsToRetain: 0
bucket: stackrox
serviceAccount: "{"
---
kind: azure
name: unsupported
`

func TestDecodeDocumentsAndImport(t *testing.T) {
	t.Parallel()

	docs, err := DecodeDocuments([]byte(importYAML))
	if err != nil {
		t.Fatalf("DecodeDocuments() error = %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("len(docs) = %d, want 3", len(docs))
	}
	if got := docs[0].Form().BackupsToRetain; got != "3" {
		t.Fatalf("BackupsToRetain = %q, want 3", got)
	}

	svc, store, _ := newTestService(func(context.Context, Config) error { return nil })
	results := svc.ImportDocuments(context.Background(), docs)
	if len(results) != 3 {
		t.Fatalf("len(results) = %d", len(results))
	}

	if results[0].Err != nil || results[0].Integration.Config.BackupsToRetain != 3 {
		t.Fatalf("results[0] = %+v", results[0])
	}

	var fieldErrs FieldErrors
	if !errors.As(results[1].Err, &fieldErrs) {
		t.Fatalf("results[1].Err = %v, want FieldErrors", results[1].Err)
	}
	if fieldErrs[FieldName] != MsgNameRequired || fieldErrs[FieldBackupsToRetain] != MsgRetainMin || fieldErrs[FieldServiceAccount] != MsgServiceAccountJSON {
		t.Fatalf("field errors = %v", fieldErrs)
	}

	if !errors.Is(results[2].Err, ErrUnknownKind) {
		t.Fatalf("results[2].Err = %v, want ErrUnknownKind", results[2].Err)
	}

	items, _ := store.List(context.Background())
	if len(items) != 1 {
		t.Fatalf("stored %d integrations, want 1", len(items))
	}
}

func TestDecodeDocuments_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := DecodeDocuments([]byte("kind: [")); err == nil {
		t.Fatal("DecodeDocuments() error = nil, want YAML error")
	}
	docs, err := DecodeDocuments(nil)
	if err != nil || len(docs) != 0 {
		t.Fatalf("DecodeDocuments(nil) = %v, %v", docs, err)
	}
}
