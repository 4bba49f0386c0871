package vaultbank

import (
	"errors"
	"testing"
)

func TestAppendJournalReportsFullBuffer(t *testing.T) {
	b := &Bank{journalBuffer: make(chan any, 2)}

	if err := b.appendJournal("first"); err != nil {
		t.Fatalf("appendJournal: %v", err)
	}
	if err := b.appendJournal("second"); err != nil {
		t.Fatalf("appendJournal: %v", err)
	}

	// The buffer is full; the append must surface the condition instead
	// of blocking the operation that already committed.
	err := b.appendJournal("third")
	if !errors.Is(err, ErrJournalBufferFull) {
		t.Fatalf("expected ErrJournalBufferFull, got %v", err)
	}
	if !IsRetryable(err) {
		t.Error("a full journal buffer should classify as retryable")
	}
}
