package metrics

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetSysHealth(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "meal-planner.db"), make([]byte, 2048), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	health := GetSysHealth(dir)
	if health.DataDiskSize != "2.0 KB" {
		t.Errorf("Expected 2.0 KB, got %s", health.DataDiskSize)
	}
	if health.Goroutines < 1 {
		t.Errorf("Expected at least one goroutine, got %d", health.Goroutines)
	}

	if got := GetSysHealth(filepath.Join(dir, "missing")).DataDiskSize; got != "0 B" {
		t.Errorf("Expected 0 B for a missing directory, got %s", got)
	}
}
