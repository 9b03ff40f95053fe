package attempts_test

import (
	"context"
	"errors"
	"testing"

	"github.com/vietspeak-ai/vietspeak/internal/attempts"
	"github.com/vietspeak-ai/vietspeak/internal/score"
)

func TestMemStoreSaveAssignsIDs(t *testing.T) {
	t.Parallel()

	s := attempts.NewMemStore()
	ctx := context.Background()

	a1, err := s.Save(ctx, attempts.Attempt{LearnerID: "linh", ReferenceText: "hello world"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	a2, err := s.Save(ctx, attempts.Attempt{LearnerID: "linh", ReferenceText: "hello world"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if a1.ID == "" || a1.ID == a2.ID {
		t.Errorf("expected distinct non-empty IDs, got %q and %q", a1.ID, a2.ID)
	}
	if a1.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestMemStoreRecentNewestFirst(t *testing.T) {
	t.Parallel()

	s := attempts.NewMemStore()
	ctx := context.Background()
	for _, ref := range []string{"first", "second", "third"} {
		if _, err := s.Save(ctx, attempts.Attempt{LearnerID: "linh", ReferenceText: ref}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	if _, err := s.Save(ctx, attempts.Attempt{LearnerID: "minh", ReferenceText: "other"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Recent(ctx, "linh", 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(got))
	}
	if got[0].ReferenceText != "third" || got[1].ReferenceText != "second" {
		t.Errorf("expected newest first, got %q then %q", got[0].ReferenceText, got[1].ReferenceText)
	}
}

func TestMemStoreLastForReference(t *testing.T) {
	t.Parallel()

	s := attempts.NewMemStore()
	ctx := context.Background()

	if _, err := s.LastForReference(ctx, "linh", "hello"); !errors.Is(err, attempts.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if _, err := s.Save(ctx, attempts.Attempt{
		LearnerID:     "linh",
		ReferenceText: "hello",
		Score:         score.PronunciationScore{Overall: 61.5},
	}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := s.Save(ctx, attempts.Attempt{
		LearnerID:     "linh",
		ReferenceText: "hello",
		Score:         score.PronunciationScore{Overall: 78.0},
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.LastForReference(ctx, "linh", "hello")
	if err != nil {
		t.Fatalf("last for reference: %v", err)
	}
	if got.Score.Overall != 78.0 {
		t.Errorf("expected most recent attempt, got overall %.1f", got.Score.Overall)
	}
}
