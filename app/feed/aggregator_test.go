package feed

import (
	"testing"
	"time"
)

func testItem(guid, sourceID, title string, published time.Time) Item {
	item := Item{
		GUID:        guid,
		SourceID:    sourceID,
		Title:       title,
		Link:        "https://example.com/" + guid,
		Summary:     title + " summary",
		PublishedAt: published,
	}
	item.ContentHash = generateContentHash(item)
	return item
}

func guids(snapshot *Snapshot) []string {
	out := make([]string, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		out = append(out, item.GUID)
	}
	return out
}

func TestMergeOrdering(t *testing.T) {
	setupTestConfig()
	agg := NewAggregator(2)

	base := time.Now().UTC().Add(-time.Hour)
	refreshed := map[string][]Item{
		"a": {
			testItem("a-1", "a", "Oldest", base),
			testItem("a-2", "a", "Newest", base.Add(30*time.Minute)),
		},
		"b": {
			testItem("b-1", "b", "Middle", base.Add(15*time.Minute)),
		},
	}

	snapshot := agg.Merge(nil, refreshed)

	want := []string{"a-2", "b-1", "a-1"}
	got := guids(snapshot)
	if len(got) != len(want) {
		t.Fatalf("Expected %d items, got: %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected item %d to be %s, got: %s", i, want[i], got[i])
		}
	}

	if snapshot.SourceCount != 2 {
		t.Errorf("Expected source count 2, got: %d", snapshot.SourceCount)
	}
}

func TestMergeTieBreakByGUID(t *testing.T) {
	setupTestConfig()
	agg := NewAggregator(1)

	published := time.Now().UTC().Add(-time.Hour)
	refreshed := map[string][]Item{
		"a": {
			testItem("zzz", "a", "Z", published),
			testItem("aaa", "a", "A", published),
			testItem("mmm", "a", "M", published),
		},
	}

	// Same map merged repeatedly must produce the same order every time
	// regardless of map iteration order.
	first := guids(agg.Merge(nil, refreshed))
	for i := 0; i < 10; i++ {
		again := guids(agg.Merge(nil, refreshed))
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("Expected deterministic ordering, run %d differs at index %d", i, j)
			}
		}
	}

	if first[0] != "aaa" || first[1] != "mmm" || first[2] != "zzz" {
		t.Errorf("Expected GUID-ascending tie break, got: %v", first)
	}
}

func TestMergeDedupIdempotence(t *testing.T) {
	setupTestConfig()
	agg := NewAggregator(1)

	base := time.Now().UTC().Add(-time.Hour)
	refreshed := map[string][]Item{
		"a": {
			testItem("a-1", "a", "One", base),
			testItem("a-2", "a", "Two", base.Add(time.Minute)),
		},
	}

	first := agg.Merge(nil, refreshed)
	second := agg.Merge(first, refreshed)

	if len(second.Items) != len(first.Items) {
		t.Fatalf("Expected unchanged item count %d, got: %d", len(first.Items), len(second.Items))
	}
	for i := range first.Items {
		if second.Items[i].GUID != first.Items[i].GUID {
			t.Errorf("Expected item %d unchanged, got %s vs %s", i, second.Items[i].GUID, first.Items[i].GUID)
		}
	}
}

func TestMergeStaleOverEmpty(t *testing.T) {
	setupTestConfig()
	agg := NewAggregator(2)

	base := time.Now().UTC().Add(-time.Hour)

	// Cycle N-1: both sources succeed
	previous := agg.Merge(nil, map[string][]Item{
		"a": {testItem("a-1", "a", "A one", base)},
		"b": {testItem("b-1", "b", "B one", base.Add(time.Minute))},
	})

	// Cycle N: source a fails, only b is refreshed
	snapshot := agg.Merge(previous, map[string][]Item{
		"b": {
			testItem("b-1", "b", "B one", base.Add(time.Minute)),
			testItem("b-2", "b", "B two", base.Add(2*time.Minute)),
		},
	})

	found := false
	for _, item := range snapshot.Items {
		if item.GUID == "a-1" {
			found = true
		}
	}
	if !found {
		t.Error("Expected failed source's previous items to be retained")
	}
	if len(snapshot.Items) != 3 {
		t.Errorf("Expected 3 items, got: %d", len(snapshot.Items))
	}
	if snapshot.SourceCount != 2 {
		t.Errorf("Expected source count 2 regardless of fetch outcome, got: %d", snapshot.SourceCount)
	}
}

func TestMergeReplacesSourceContribution(t *testing.T) {
	setupTestConfig()
	agg := NewAggregator(1)

	base := time.Now().UTC().Add(-time.Hour)

	previous := agg.Merge(nil, map[string][]Item{
		"a": {
			testItem("a-1", "a", "One", base),
			testItem("a-2", "a", "Two", base.Add(time.Minute)),
		},
	})

	// Upstream removed a-1; the new payload is authoritative.
	snapshot := agg.Merge(previous, map[string][]Item{
		"a": {testItem("a-2", "a", "Two", base.Add(time.Minute))},
	})

	for _, item := range snapshot.Items {
		if item.GUID == "a-1" {
			t.Error("Expected removed upstream item to drop out of the snapshot")
		}
	}
	if len(snapshot.Items) != 1 {
		t.Errorf("Expected 1 item, got: %d", len(snapshot.Items))
	}
}

func TestMergeCrossSourceDedup(t *testing.T) {
	setupTestConfig()
	agg := NewAggregator(2)

	earlier := time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)
	later := time.Date(2023, 7, 3, 10, 5, 0, 0, time.UTC)

	a := testItem("shared-guid", "a", "X", earlier)
	b := testItem("shared-guid", "b", "X-dup", later)

	snapshot := agg.Merge(nil, map[string][]Item{
		"a": {a},
		"b": {b},
	})

	if len(snapshot.Items) != 1 {
		t.Fatalf("Expected exactly 1 item for shared GUID, got: %d", len(snapshot.Items))
	}
	if !snapshot.Items[0].PublishedAt.Equal(later) {
		t.Errorf("Expected the later item to win, got published at: %s", snapshot.Items[0].PublishedAt)
	}
	if snapshot.Items[0].Title != "X-dup" {
		t.Errorf("Expected the later item's title, got: %s", snapshot.Items[0].Title)
	}
}

func TestMergeDedupSummaryTieBreak(t *testing.T) {
	setupTestConfig()
	agg := NewAggregator(2)

	published := time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)

	withSummary := testItem("shared", "a", "Has summary", published)
	withoutSummary := Item{
		GUID:        "shared",
		SourceID:    "b",
		Title:       "No summary",
		Link:        "https://example.com/shared",
		PublishedAt: published,
	}

	snapshot := agg.Merge(nil, map[string][]Item{
		"a": {withSummary},
		"b": {withoutSummary},
	})

	if len(snapshot.Items) != 1 {
		t.Fatalf("Expected 1 item, got: %d", len(snapshot.Items))
	}
	if snapshot.Items[0].Summary == "" {
		t.Error("Expected the item with a summary to win the tie")
	}
}

func TestMergeRetentionBound(t *testing.T) {
	setupTestConfig()
	agg := NewAggregator(1)
	agg.retention = 24 * time.Hour

	now := time.Now().UTC()
	refreshed := map[string][]Item{
		"a": {
			testItem("fresh", "a", "Fresh", now.Add(-time.Hour)),
			testItem("ancient", "a", "Ancient", now.Add(-48*time.Hour)),
		},
	}

	snapshot := agg.Merge(nil, refreshed)

	if len(snapshot.Items) != 1 {
		t.Fatalf("Expected 1 item after retention pruning, got: %d", len(snapshot.Items))
	}
	if snapshot.Items[0].GUID != "fresh" {
		t.Errorf("Expected only the fresh item to survive, got: %s", snapshot.Items[0].GUID)
	}
}

func TestMergeMaxItemsBound(t *testing.T) {
	setupTestConfig()
	agg := NewAggregator(1)
	agg.maxItems = 2

	base := time.Now().UTC().Add(-time.Hour)
	refreshed := map[string][]Item{
		"a": {
			testItem("a-1", "a", "Oldest", base),
			testItem("a-2", "a", "Middle", base.Add(time.Minute)),
			testItem("a-3", "a", "Newest", base.Add(2*time.Minute)),
		},
	}

	snapshot := agg.Merge(nil, refreshed)

	if len(snapshot.Items) != 2 {
		t.Fatalf("Expected 2 items after count bound, got: %d", len(snapshot.Items))
	}
	// The oldest items drop first
	if snapshot.Items[0].GUID != "a-3" || snapshot.Items[1].GUID != "a-2" {
		t.Errorf("Expected newest two items, got: %v", guids(snapshot))
	}
}

func TestMergeNotRefreshedEqualsNotModified(t *testing.T) {
	setupTestConfig()
	agg := NewAggregator(1)

	base := time.Now().UTC().Add(-time.Hour)
	previous := agg.Merge(nil, map[string][]Item{
		"a": {testItem("a-1", "a", "One", base)},
	})

	// A not-modified source is simply excluded from the refreshed map.
	snapshot := agg.Merge(previous, map[string][]Item{})

	if len(snapshot.Items) != len(previous.Items) {
		t.Fatalf("Expected unchanged item count, got %d vs %d", len(snapshot.Items), len(previous.Items))
	}
	for i := range previous.Items {
		if snapshot.Items[i].GUID != previous.Items[i].GUID {
			t.Errorf("Expected no item churn at index %d", i)
		}
	}
}
