package report

import (
	"testing"
)

func sampleTable() *Table {
	return &Table{
		Columns: []string{ColUID, ColDisplayName, ColRunType, ColPlan, ColBillingStatus, ColRunCountTotal},
		Rows: [][]string{
			{"u1", "One", "Feed Run", "feed", "active", "8"},
			{"u2", "Two", "Feed Run", "reel", "cancelled", "3"},
			{"u3", "Three", "Feed Run", "None", "None", "0"},
			{"u4", "Four", "Feed Run", "feed", "pending", "2"},
		},
	}
}

func TestApplyFilter_EmptyAllowListsPassEverything(t *testing.T) {
	table := sampleTable()
	filtered := ApplyFilter(table, nil, nil)
	if filtered != table {
		t.Fatal("expected the table to pass through unchanged")
	}
	filtered = ApplyFilter(table, []string{}, []string{})
	if len(filtered.Rows) != len(table.Rows) {
		t.Fatalf("expected %d rows, got %d", len(table.Rows), len(filtered.Rows))
	}
}

func TestApplyFilter_PlanAllowList(t *testing.T) {
	filtered := ApplyFilter(sampleTable(), []string{"feed"}, nil)
	if len(filtered.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(filtered.Rows))
	}
	for _, row := range filtered.Rows {
		if row[3] != "feed" {
			t.Errorf("unexpected plan %q", row[3])
		}
	}
}

func TestApplyFilter_PlanAndStatusIntersect(t *testing.T) {
	filtered := ApplyFilter(sampleTable(), []string{"feed"}, []string{"active"})
	if len(filtered.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(filtered.Rows))
	}
	if filtered.Rows[0][0] != "u1" {
		t.Fatalf("expected u1, got %s", filtered.Rows[0][0])
	}
}

func TestApplyFilter_SentinelNoneIsFilterable(t *testing.T) {
	filtered := ApplyFilter(sampleTable(), []string{"None"}, []string{"None"})
	if len(filtered.Rows) != 1 || filtered.Rows[0][0] != "u3" {
		t.Fatalf("expected only u3, got %v", filtered.Rows)
	}
}

func TestApplyFilter_NoMatches(t *testing.T) {
	filtered := ApplyFilter(sampleTable(), []string{"enterprise"}, nil)
	if len(filtered.Rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(filtered.Rows))
	}
}

func TestApplyFilter_PreservesDiagnostics(t *testing.T) {
	table := sampleTable()
	table.Diagnostics = []string{"billing lookup failed for user u3: timeout"}
	filtered := ApplyFilter(table, []string{"feed"}, nil)
	if len(filtered.Diagnostics) != 1 {
		t.Fatalf("expected diagnostics preserved, got %v", filtered.Diagnostics)
	}
}

func TestDenseSeries_DefaultsAndUpsert(t *testing.T) {
	keys := []string{"2024-06-01", "2024-06-02", "2024-06-03"}
	series := NewDenseSeries(keys, 0)

	if series.Len() != 3 {
		t.Fatalf("expected 3 keys, got %d", series.Len())
	}
	for _, key := range keys {
		if got := series.Get(key); got != 0 {
			t.Errorf("expected zero default for %s, got %d", key, got)
		}
	}

	if ok := series.Set("2024-06-02", 7); !ok {
		t.Fatal("expected in-range upsert to succeed")
	}
	if ok := series.Set("2024-07-01", 9); ok {
		t.Fatal("expected out-of-range upsert to be dropped")
	}
	if got := series.Total(); got != 7 {
		t.Fatalf("expected total 7, got %d", got)
	}
}
