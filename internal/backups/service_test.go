package backups

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func newTestService(check func(context.Context, Config) error) (*Service, *MemoryStore, *recordingPublisher) {
	store := NewMemoryStore()
	pub := &recordingPublisher{}
	tester := NewTester(map[string]Checker{
		KindS3:  CheckerFunc(check),
		KindGCS: CheckerFunc(check),
	}, time.Second)
	return NewService(store, tester, ServiceOptions{Publisher: pub}), store, pub
}

func validS3Form() Form {
	return Form{
		Name:            "Nova S3 Backup",
		BackupsToRetain: "1",
		Bucket:          "stackrox",
		ObjectPrefix:    "acs-",
		Region:          "us-west-2",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "secret",
	}
}

func TestService_SaveRequiresTestedFingerprint(t *testing.T) {
	t.Parallel()

	svc, _, pub := newTestService(func(context.Context, Config) error { return nil })
	ctx := context.Background()

	if _, err := svc.Save(ctx, KindS3, "", validS3Form(), ""); !errors.Is(err, ErrNotTested) {
		t.Fatalf("Save() untested error = %v, want ErrNotTested", err)
	}

	fingerprint, err := svc.Test(ctx, KindS3, validS3Form(), nil)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}

	changed := validS3Form()
	changed.Region = "eu-west-1"
	if _, err := svc.Save(ctx, KindS3, "", changed, fingerprint); !errors.Is(err, ErrNotTested) {
		t.Fatalf("Save() changed form error = %v, want ErrNotTested", err)
	}

	saved, err := svc.Save(ctx, KindS3, "", validS3Form(), fingerprint)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.ID == "" || saved.Kind != KindS3 || saved.Config.Name != "Nova S3 Backup" {
		t.Fatalf("Save() = %+v", saved)
	}
	if len(pub.events) != 1 || pub.events[0].Action != EventCreated || pub.events[0].ID != saved.ID {
		t.Fatalf("events = %+v", pub.events)
	}
}

func TestService_TestReturnsFieldErrorsAndCheckerErrors(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(func(context.Context, Config) error { return errors.New("access denied") })
	ctx := context.Background()

	_, err := svc.Test(ctx, KindS3, Form{}, nil)
	var fieldErrs FieldErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		t.Fatalf("Test() blank form error = %v, want FieldErrors", err)
	}

	if _, err := svc.Test(ctx, KindS3, validS3Form(), nil); err == nil || err.Error() != "access denied" {
		t.Fatalf("Test() error = %v, want checker error", err)
	}
}

func TestService_EditKeepsStoredSecrets(t *testing.T) {
	t.Parallel()

	var checked Config
	svc, _, pub := newTestService(func(_ context.Context, cfg Config) error {
		checked = cfg
		return nil
	})
	ctx := context.Background()

	fp, err := svc.Test(ctx, KindS3, validS3Form(), nil)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	created, err := svc.Save(ctx, KindS3, "", validS3Form(), fp)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	stored, err := svc.Stored(ctx, KindS3, created.ID)
	if err != nil {
		t.Fatalf("Stored() error = %v", err)
	}
	edit := FormFromConfig(*stored)
	edit.Name = "Renamed"
	if edit.SecretAccessKey != "" {
		t.Fatal("edit form exposed the stored secret")
	}

	fp, err = svc.Test(ctx, KindS3, edit, stored)
	if err != nil {
		t.Fatalf("Test() edit error = %v", err)
	}
	if checked.SecretAccessKey != "secret" {
		t.Fatalf("checker saw secret %q, want stored secret", checked.SecretAccessKey)
	}

	updated, err := svc.Save(ctx, KindS3, created.ID, edit, fp)
	if err != nil {
		t.Fatalf("Save() edit error = %v", err)
	}
	if updated.Config.Name != "Renamed" || updated.Config.SecretAccessKey != "secret" {
		t.Fatalf("updated = %+v", updated.Config)
	}
	if got := pub.events[len(pub.events)-1].Action; got != EventUpdated {
		t.Fatalf("last event = %q, want %q", got, EventUpdated)
	}

	if _, err := svc.Stored(ctx, KindGCS, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Stored() with the wrong kind error = %v, want ErrNotFound", err)
	}
}

func TestService_DeletePublishesEvent(t *testing.T) {
	t.Parallel()

	svc, store, pub := newTestService(func(context.Context, Config) error { return nil })
	ctx := context.Background()

	created, err := svc.Import(ctx, KindGCS, Config{Name: "gcs", Bucket: "b", BackupsToRetain: 1, UseWorkloadID: true})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() after delete error = %v", err)
	}
	if got := pub.events[len(pub.events)-1]; got.Action != EventDeleted || got.Kind != KindGCS {
		t.Fatalf("last event = %+v", got)
	}
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestService_PublishFailureDoesNotFailSave(t *testing.T) {
	t.Parallel()

	svc, _, pub := newTestService(func(context.Context, Config) error { return nil })
	pub.err = errors.New("nats down")

	if _, err := svc.Import(context.Background(), KindS3, Config{Name: "n", Bucket: "b", Region: "r", UseIAM: true, BackupsToRetain: 1}); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
}

func TestTester_UnknownKindAndTimeout(t *testing.T) {
	t.Parallel()

	tester := NewTester(map[string]Checker{
		KindS3: CheckerFunc(func(ctx context.Context, _ Config) error {
			<-ctx.Done()
			return ctx.Err()
		}),
	}, 10*time.Millisecond)

	if err := tester.Test(context.Background(), "azure", Config{}); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("Test(azure) error = %v, want ErrUnknownKind", err)
	}
	if err := tester.Test(context.Background(), KindS3, Config{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Test(s3) error = %v, want deadline exceeded", err)
	}
}

func TestMemoryStore_ListSorted(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	for _, in := range []Integration{
		{Kind: KindS3, Config: Config{Name: "zeta"}},
		{Kind: KindGCS, Config: Config{Name: "beta"}},
		{Kind: KindS3, Config: Config{Name: "Alpha"}},
	} {
		if _, err := store.Create(ctx, in); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	items, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var names []string
	for _, item := range items {
		names = append(names, item.Config.Name)
	}
	if len(names) != 3 || names[0] != "beta" || names[1] != "Alpha" || names[2] != "zeta" {
		t.Fatalf("List() names = %v", names)
	}

	if _, err := store.Update(ctx, Integration{ID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update(missing) error = %v", err)
	}
}
