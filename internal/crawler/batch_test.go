package crawler

import (
	"context"
	"testing"

	"github.com/0khacha/web-scraper/internal/model"
	"github.com/0khacha/web-scraper/internal/state"
)

func TestRunBatch(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{pages: map[string]string{
		"https://e.com/a": listPage(1, 2, ""),
		"https://e.com/b": listPage(2, 3, ""),
		// /c is missing and will fail.
	}}
	ctrl := newTestController(t, f, productSite)

	urls := []string{"https://e.com/a", "https://e.com/b", "https://e.com/c"}
	summary, err := ctrl.RunBatch(context.Background(), urls, 2)
	if err != nil {
		t.Fatalf("RunBatch() error = %v", err)
	}

	if len(summary.Results) != 3 {
		t.Fatalf("len(Results) = %d, want 3", len(summary.Results))
	}

	// Results keep input order regardless of completion order.
	for i, url := range urls {
		if summary.Results[i].URL != url {
			t.Errorf("Results[%d].URL = %q, want %q", i, summary.Results[i].URL, url)
		}
	}

	if summary.Succeeded() != 2 || summary.Failed() != 1 || summary.Skipped() != 0 {
		t.Errorf("succeeded/failed/skipped = %d/%d/%d, want 2/1/0",
			summary.Succeeded(), summary.Failed(), summary.Skipped())
	}

	if got := len(summary.Items()); got != 5 {
		t.Errorf("len(Items()) = %d, want 5", got)
	}
	if summary.Results[2].Status != model.StatusFailed {
		t.Errorf("Results[2].Status = %q, want failed", summary.Results[2].Status)
	}
}

func TestRunBatchSharedSession(t *testing.T) {
	t.Parallel()

	store, err := state.Open(t.TempDir(), state.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	f := &fakeFetcher{pages: map[string]string{
		"https://e.com/a": listPage(1, 1, ""),
		"https://e.com/b": listPage(2, 1, ""),
	}}
	ctrl := newTestController(t, f, productSite, WithStore(store))

	ctx := context.Background()
	summary, err := ctrl.RunBatch(ctx, []string{"https://e.com/a", "https://e.com/b"}, 2)
	if err != nil {
		t.Fatalf("RunBatch() error = %v", err)
	}
	if summary.SessionID == "" {
		t.Fatal("SessionID is empty with a store configured")
	}

	sess, err := store.GetSession(ctx, summary.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Status != model.SessionCompleted {
		t.Errorf("session status = %q, want completed", sess.Status)
	}
	if got := sess.Metadata["total_urls"]; got != float64(2) {
		t.Errorf("Metadata[total_urls] = %v, want 2", got)
	}

	count, err := store.VisitedCount(ctx, summary.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("VisitedCount = %d, want 2 (one session shared by the batch)", count)
	}
}

func TestRunBatchSkipsVisited(t *testing.T) {
	t.Parallel()

	store, err := state.Open(t.TempDir(), state.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()
	earlier, err := store.StartSession(ctx, "https://e.com/a", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.MarkVisited(ctx, "https://e.com/a", earlier, model.StatusSuccess); err != nil {
		t.Fatal(err)
	}

	f := &fakeFetcher{pages: map[string]string{
		"https://e.com/a": listPage(1, 1, ""),
		"https://e.com/b": listPage(2, 1, ""),
	}}
	ctrl := newTestController(t, f, productSite, WithStore(store))

	summary, err := ctrl.RunBatch(ctx, []string{"https://e.com/a", "https://e.com/b"}, 2)
	if err != nil {
		t.Fatalf("RunBatch() error = %v", err)
	}
	if summary.Skipped() != 1 || summary.Succeeded() != 1 {
		t.Errorf("skipped/succeeded = %d/%d, want 1/1", summary.Skipped(), summary.Succeeded())
	}

	// Only the unvisited URL was fetched.
	if f.fetchCount() != 1 {
		t.Errorf("fetch count = %d, want 1: %v", f.fetchCount(), f.calls)
	}
}

func TestRunBatchConcurrencyFloor(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{pages: map[string]string{
		"https://e.com/a": listPage(1, 1, ""),
	}}
	ctrl := newTestController(t, f, productSite)

	// Zero concurrency is clamped to one rather than deadlocking.
	summary, err := ctrl.RunBatch(context.Background(), []string{"https://e.com/a"}, 0)
	if err != nil {
		t.Fatalf("RunBatch() error = %v", err)
	}
	if summary.Succeeded() != 1 {
		t.Errorf("Succeeded() = %d, want 1", summary.Succeeded())
	}
}
