package resumes

import (
	"context"
	"errors"
	"testing"

	"resumind/internal/kv"
)

func TestTransferMovesRecordBetweenOwners(t *testing.T) {
	base := &Service{KV: kv.NewMemoryStore()}
	guest := base.ForOwner("guest:g1")
	user := base.ForOwner("google:u1")
	ctx := context.Background()

	value := `{"id":"abc","resumePath":"/r/abc.pdf","imagePath":"/r/abc.png","companyName":"Acme","jobTitle":"","jobDescription":"","feedback":""}`
	if err := guest.KV.Set(ctx, RecordKey("abc"), value); err != nil {
		t.Fatalf("seed: %v", err)
	}
	item, err := guest.Item(ctx, "abc")
	if err != nil {
		t.Fatalf("item: %v", err)
	}

	if err := guest.Transfer(ctx, user, item); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if _, err := guest.Record(ctx, "abc"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected record gone from guest namespace, got %v", err)
	}
	moved, err := user.Record(ctx, "abc")
	if err != nil {
		t.Fatalf("record in user namespace: %v", err)
	}
	if moved.ResumePath != "/r/abc.pdf" || moved.CompanyName != "Acme" {
		t.Fatalf("record changed during transfer: %+v", moved)
	}
}

func TestTransferMissingRecord(t *testing.T) {
	base := &Service{KV: kv.NewMemoryStore()}
	err := base.ForOwner("a").Transfer(context.Background(), base.ForOwner("b"), Item{Record: Record{ID: "nope"}})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTransferBlockedByDelete(t *testing.T) {
	base := &Service{Owner: "a", KV: kv.NewMemoryStore()}
	guard := "a\x00" + RecordKey("busy")
	if !deletes.acquire(guard) {
		t.Fatalf("guard already held")
	}
	defer deletes.release(guard)

	err := base.Transfer(context.Background(), base.ForOwner("b"), Item{Record: Record{ID: "busy"}})
	if !errors.Is(err, ErrDeleteInProgress) {
		t.Fatalf("expected ErrDeleteInProgress, got %v", err)
	}
}
