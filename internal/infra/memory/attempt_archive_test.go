package memory

import (
	"context"
	"testing"

	"github.com/sreenu926/50cube-staging/internal/domain"
)

func TestAttemptArchiveRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	archive := NewAttemptArchive()
	sub := domain.Submission{SessionID: "s1", UserID: "u1", Answers: []int{1, 2}, AccuracyPercent: 50}

	receipt, err := archive.Submit(ctx, "league-1", sub)
	if err != nil || !receipt.Accepted {
		t.Fatalf("expected accepted, got %+v err=%v", receipt, err)
	}
	receipt, err = archive.Submit(ctx, "league-1", sub)
	if err != nil || receipt.Accepted {
		t.Fatalf("expected duplicate rejected, got %+v err=%v", receipt, err)
	}
	if n := len(archive.Attempts("league-1")); n != 1 {
		t.Fatalf("expected 1 archived attempt, got %d", n)
	}
}

func TestAttemptArchiveStandingsKeepBest(t *testing.T) {
	ctx := context.Background()
	archive := NewAttemptArchive()
	_, _ = archive.Submit(ctx, "league-1", domain.Submission{SessionID: "s1", UserID: "u1", AccuracyPercent: 60, ElapsedSeconds: 100})
	_, _ = archive.Submit(ctx, "league-1", domain.Submission{SessionID: "s2", UserID: "u1", AccuracyPercent: 80, ElapsedSeconds: 200})
	_, _ = archive.Submit(ctx, "league-1", domain.Submission{SessionID: "s3", UserID: "u2", AccuracyPercent: 40, ElapsedSeconds: 50})

	rows, err := archive.Standings(ctx, "league-1")
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].UserID != "u1" || rows[0].Accuracy != 0.8 {
		t.Fatalf("expected u1's best attempt, got %+v", rows[0])
	}
}

func TestAttemptArchiveStandingsCarryDisplayName(t *testing.T) {
	ctx := context.Background()
	archive := NewAttemptArchive()
	_, _ = archive.Submit(ctx, "league-1", domain.Submission{SessionID: "s1", UserID: "u1", DisplayName: "Alice", AccuracyPercent: 60})
	_, _ = archive.Submit(ctx, "league-1", domain.Submission{SessionID: "s2", UserID: "u2", AccuracyPercent: 40})

	rows, err := archive.Standings(ctx, "league-1")
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Username != "Alice" {
		t.Fatalf("expected display name, got %q", rows[0].Username)
	}
	if rows[1].Username != "u2" {
		t.Fatalf("expected user id when no display name, got %q", rows[1].Username)
	}
}
