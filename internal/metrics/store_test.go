package metrics

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"family-meal-planner/internal/database"
	"family-meal-planner/internal/shared"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "metrics.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db.SQL)
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	t.Run("RecordMetaSkipsEmptyUsage", func(t *testing.T) {
		if err := store.RecordMeta(ctx, shared.AgentMeta{AgentName: "RecipeGenerator"}); err != nil {
			t.Fatalf("RecordMeta failed: %v", err)
		}
		usage, err := store.GetDailyUsage(ctx, 1)
		if err != nil {
			t.Fatalf("GetDailyUsage failed: %v", err)
		}
		if len(usage) != 0 {
			t.Errorf("Expected no usage rows, got %d", len(usage))
		}
	})

	t.Run("DailyUsage", func(t *testing.T) {
		meta := shared.AgentMeta{
			AgentName: "RecipeGenerator",
			Usage:     shared.TokenUsage{PromptTokens: 100, CompletionTokens: 40, Model: "m"},
			Latency:   1200 * time.Millisecond,
		}
		for i := 0; i < 2; i++ {
			if err := store.RecordMeta(ctx, meta); err != nil {
				t.Fatalf("RecordMeta failed: %v", err)
			}
		}
		old := ExecutionMetric{AgentName: "Clipper", PromptTokens: 5, Timestamp: time.Now().AddDate(0, 0, -40)}
		if err := store.Record(ctx, old); err != nil {
			t.Fatalf("Record failed: %v", err)
		}

		usage, err := store.GetDailyUsage(ctx, 7)
		if err != nil {
			t.Fatalf("GetDailyUsage failed: %v", err)
		}
		if len(usage) != 1 {
			t.Fatalf("Expected 1 day of usage, got %d", len(usage))
		}
		if usage[0].TotalExecution != 2 || usage[0].TotalPrompt != 200 || usage[0].TotalCompletion != 80 {
			t.Errorf("Unexpected usage %+v", usage[0])
		}
	})

	t.Run("Cleanup", func(t *testing.T) {
		affected, err := store.Cleanup(ctx, 30)
		if err != nil {
			t.Fatalf("Cleanup failed: %v", err)
		}
		if affected != 1 {
			t.Errorf("Expected 1 removed record, got %d", affected)
		}
	})
}

func TestMapUsage(t *testing.T) {
	m := MapUsage("Clipper", shared.TokenUsage{PromptTokens: 3, CompletionTokens: 4, Model: "x"}, 2*time.Second)
	if m.AgentName != "Clipper" || m.Model != "x" || m.PromptTokens != 3 || m.CompletionTokens != 4 || m.LatencyMS != 2000 {
		t.Errorf("Unexpected metric %+v", m)
	}
}
