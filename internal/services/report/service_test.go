package report

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/opslens/runboard/internal/billing"
	"github.com/opslens/runboard/internal/store"
)

type fakeStore struct {
	users       []store.UserProfile
	performance map[string][]store.PerformanceDoc
	perfErr     map[string]error
	usersErr    error
}

func (f *fakeStore) ListUsers(ctx context.Context) ([]store.UserProfile, error) {
	if f.usersErr != nil {
		return nil, f.usersErr
	}
	return f.users, nil
}

func (f *fakeStore) ListPerformance(ctx context.Context, userID string) ([]store.PerformanceDoc, error) {
	if err := f.perfErr[userID]; err != nil {
		return nil, err
	}
	return f.performance[userID], nil
}

func (f *fakeStore) ListUserIndex(ctx context.Context, userID string) ([]store.IndexEntry, error) {
	return nil, nil
}

type fakeBilling struct {
	results map[string]billing.ListResult
}

func (f *fakeBilling) ListBilling(ctx context.Context, userID string) billing.ListResult {
	if result, ok := f.results[userID]; ok {
		return result
	}
	return billing.ListResult{Status: billing.StatusSuccess}
}

func paymentTime(value string) *time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return &t
}

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func billingRecord(plan, status string, paymentDate *time.Time) billing.Record {
	return billing.Record{ID: uuid.New(), Plan: plan, Status: status, PaymentDate: paymentDate}
}

func findRow(t *testing.T, table *Table, uid, runType string) []string {
	t.Helper()
	uidIdx := table.columnIndex(ColUID)
	typeIdx := table.columnIndex(ColRunType)
	for _, row := range table.Rows {
		if row[uidIdx] == uid && row[typeIdx] == runType {
			return row
		}
	}
	t.Fatalf("no row for uid=%s run type=%s", uid, runType)
	return nil
}

func TestBuildCalendarReport_FillsMissingDatesWithZeros(t *testing.T) {
	st := &fakeStore{
		users: []store.UserProfile{{ID: "u1", DisplayName: "User One", CreatedAt: day("2024-01-01")}},
		performance: map[string][]store.PerformanceDoc{
			"u1": {
				{DateKey: "2024-06-01", Counts: store.RunCounts{FeedRun: 3}},
				{DateKey: "2024-06-03", Counts: store.RunCounts{FeedRun: 5}},
			},
		},
	}
	svc := NewService(st, &fakeBilling{}, nil)

	table, err := svc.BuildCalendarReport(context.Background(), day("2024-06-01"), day("2024-06-03"))
	require.NoError(t, err)
	require.Len(t, table.Rows, len(store.RunTypes))

	row := findRow(t, table, "u1", "Feed Run")
	start := table.columnIndex("2024-06-01")
	require.GreaterOrEqual(t, start, 0)
	require.Equal(t, []string{"3", "0", "5"}, row[start:start+3])
	require.Equal(t, "8", row[table.columnIndex(ColRunCountTotal)])
}

func TestBuildCalendarReport_ZeroHistoryUser(t *testing.T) {
	st := &fakeStore{
		users: []store.UserProfile{{ID: "u1", DisplayName: "User One"}},
	}
	svc := NewService(st, &fakeBilling{}, nil)

	table, err := svc.BuildCalendarReport(context.Background(), day("2024-06-01"), day("2024-06-03"))
	require.NoError(t, err)

	totalIdx := table.columnIndex(ColRunCountTotal)
	for _, row := range table.Rows {
		require.Equal(t, "0", row[totalIdx])
		for _, key := range []string{"2024-06-01", "2024-06-02", "2024-06-03"} {
			require.Equal(t, "0", row[table.columnIndex(key)])
		}
	}
}

func TestBuildCalendarReport_SkipsMalformedAndOutOfRangeKeys(t *testing.T) {
	st := &fakeStore{
		users: []store.UserProfile{{ID: "u1"}},
		performance: map[string][]store.PerformanceDoc{
			"u1": {
				{DateKey: "settings", Counts: store.RunCounts{FeedRun: 99}},
				{DateKey: "2024-05-20", Counts: store.RunCounts{FeedRun: 7}},
				{DateKey: "2024-06-02", Counts: store.RunCounts{FeedRun: 4}},
			},
		},
	}
	svc := NewService(st, &fakeBilling{}, nil)

	table, err := svc.BuildCalendarReport(context.Background(), day("2024-06-01"), day("2024-06-03"))
	require.NoError(t, err)

	row := findRow(t, table, "u1", "Feed Run")
	require.Equal(t, "4", row[table.columnIndex("2024-06-02")])
	require.Equal(t, "4", row[table.columnIndex(ColRunCountTotal)])
	require.Empty(t, table.Diagnostics)
}

func TestBuildCalendarReport_LatestBillingWins(t *testing.T) {
	st := &fakeStore{users: []store.UserProfile{{ID: "u1"}}}
	bl := &fakeBilling{results: map[string]billing.ListResult{
		"u1": {Status: billing.StatusSuccess, BillingList: []billing.Record{
			billingRecord("reel", "cancelled", nil),
			billingRecord("feed", "active", paymentTime("2024-01-01T00:00:00Z")),
		}},
	}}
	svc := NewService(st, bl, nil)

	table, err := svc.BuildCalendarReport(context.Background(), day("2024-06-01"), day("2024-06-01"))
	require.NoError(t, err)

	row := findRow(t, table, "u1", "Feed Run")
	require.Equal(t, "feed", row[table.columnIndex(ColPlan)])
	require.Equal(t, "active", row[table.columnIndex(ColBillingStatus)])
}

func TestBuildCalendarReport_BillingFailureYieldsSentinel(t *testing.T) {
	st := &fakeStore{users: []store.UserProfile{{ID: "u1"}}}
	bl := &fakeBilling{results: map[string]billing.ListResult{
		"u1": {Status: billing.StatusError, Message: "billing backend unavailable"},
	}}
	svc := NewService(st, bl, nil)

	table, err := svc.BuildCalendarReport(context.Background(), day("2024-06-01"), day("2024-06-01"))
	require.NoError(t, err)
	require.Len(t, table.Rows, len(store.RunTypes))

	row := findRow(t, table, "u1", "Feed Run")
	require.Equal(t, billing.PlanNone, row[table.columnIndex(ColPlan)])
	require.Equal(t, billing.StatusNone, row[table.columnIndex(ColBillingStatus)])
	require.Len(t, table.Diagnostics, 1)
	require.Contains(t, table.Diagnostics[0], "u1")
}

func TestBuildCalendarReport_EmptyBillingHistoryYieldsSentinel(t *testing.T) {
	st := &fakeStore{users: []store.UserProfile{{ID: "u1"}}}
	svc := NewService(st, &fakeBilling{}, nil)

	table, err := svc.BuildCalendarReport(context.Background(), day("2024-06-01"), day("2024-06-01"))
	require.NoError(t, err)

	row := findRow(t, table, "u1", "Feed Run")
	require.Equal(t, billing.PlanNone, row[table.columnIndex(ColPlan)])
	require.Equal(t, billing.StatusNone, row[table.columnIndex(ColBillingStatus)])
	require.Empty(t, table.Diagnostics)
}

func TestBuildCalendarReport_EmptyRangeYieldsEmptyReport(t *testing.T) {
	st := &fakeStore{users: []store.UserProfile{{ID: "u1"}}}
	svc := NewService(st, &fakeBilling{}, nil)

	table, err := svc.BuildCalendarReport(context.Background(), day("2024-06-10"), day("2024-06-01"))
	require.NoError(t, err)
	require.True(t, table.Empty())
}

func TestBuildCalendarReport_FetchFailureIsolatedPerUser(t *testing.T) {
	st := &fakeStore{
		users: []store.UserProfile{{ID: "u1"}, {ID: "u2"}},
		performance: map[string][]store.PerformanceDoc{
			"u2": {{DateKey: "2024-06-01", Counts: store.RunCounts{ReelRun: 2}}},
		},
		perfErr: map[string]error{"u1": errors.New("cursor timeout")},
	}
	svc := NewService(st, &fakeBilling{}, nil)

	table, err := svc.BuildCalendarReport(context.Background(), day("2024-06-01"), day("2024-06-01"))
	require.NoError(t, err)
	require.Len(t, table.Rows, 2*len(store.RunTypes))

	// The failing user is emitted with zeros, the healthy user keeps data.
	failed := findRow(t, table, "u1", "Reel Run")
	require.Equal(t, "0", failed[table.columnIndex(ColRunCountTotal)])
	healthy := findRow(t, table, "u2", "Reel Run")
	require.Equal(t, "2", healthy[table.columnIndex(ColRunCountTotal)])
	require.Len(t, table.Diagnostics, 1)
}

func TestBuildCalendarReport_OutputSortedByUserID(t *testing.T) {
	st := &fakeStore{
		users: []store.UserProfile{{ID: "zeta"}, {ID: "alpha"}, {ID: "mid"}},
	}
	svc := NewService(st, &fakeBilling{}, nil)

	table, err := svc.BuildCalendarReport(context.Background(), day("2024-06-01"), day("2024-06-01"))
	require.NoError(t, err)

	uidIdx := table.columnIndex(ColUID)
	var seen []string
	for _, row := range table.Rows {
		if len(seen) == 0 || seen[len(seen)-1] != row[uidIdx] {
			seen = append(seen, row[uidIdx])
		}
	}
	require.Equal(t, []string{"alpha", "mid", "zeta"}, seen)
}

func TestBuildCalendarReport_Idempotent(t *testing.T) {
	st := &fakeStore{
		users: []store.UserProfile{{ID: "u2"}, {ID: "u1"}},
		performance: map[string][]store.PerformanceDoc{
			"u1": {{DateKey: "2024-06-01", Counts: store.RunCounts{FeedRun: 1, DataAnalysisRun: 9}}},
			"u2": {{DateKey: "2024-06-02", Counts: store.RunCounts{ReelThemeRun: 3}}},
		},
	}
	bl := &fakeBilling{results: map[string]billing.ListResult{
		"u1": {Status: billing.StatusSuccess, BillingList: []billing.Record{
			billingRecord("feed", "active", paymentTime("2024-05-01T00:00:00Z")),
		}},
	}}
	svc := NewService(st, bl, nil)

	first, err := svc.BuildCalendarReport(context.Background(), day("2024-06-01"), day("2024-06-03"))
	require.NoError(t, err)
	second, err := svc.BuildCalendarReport(context.Background(), day("2024-06-01"), day("2024-06-03"))
	require.NoError(t, err)
	require.True(t, reflect.DeepEqual(first, second))
}

func TestBuildPaymentReport_SumsWindowInclusiveExclusive(t *testing.T) {
	st := &fakeStore{
		users: []store.UserProfile{{ID: "u2", DisplayName: "User Two"}},
		performance: map[string][]store.PerformanceDoc{
			"u2": {
				{DateKey: "2024-05-01", Counts: store.RunCounts{FeedRun: 2}},
				{DateKey: "2024-05-07", Counts: store.RunCounts{FeedRun: 3}},
				{DateKey: "2024-05-08", Counts: store.RunCounts{FeedRun: 4}}, // outside [05-01, 05-08)
			},
		},
	}
	bl := &fakeBilling{results: map[string]billing.ListResult{
		"u2": {Status: billing.StatusSuccess, BillingList: []billing.Record{
			billingRecord("feed", "active", paymentTime("2024-05-01T00:00:00Z")),
		}},
	}}
	svc := NewService(st, bl, nil)

	table, err := svc.BuildPaymentReport(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)

	row := table.Rows[0]
	require.Equal(t, "u2", row[table.columnIndex(ColUID)])
	require.Equal(t, "2024-05-01", row[table.columnIndex(ColPaymentDate)])
	require.Equal(t, "5", row[table.columnIndex("Feed Run")])
	require.Equal(t, "5", row[table.columnIndex(ColRunCountTotal)])
}

func TestBuildPaymentReport_ExcludesUsersWithoutBilling(t *testing.T) {
	st := &fakeStore{users: []store.UserProfile{{ID: "u1"}, {ID: "u2"}}}
	bl := &fakeBilling{results: map[string]billing.ListResult{
		"u2": {Status: billing.StatusSuccess, BillingList: []billing.Record{
			billingRecord("reel", "active", paymentTime("2024-05-01T00:00:00Z")),
		}},
	}}
	svc := NewService(st, bl, nil)

	for _, nDays := range []int{1, 30, 365} {
		table, err := svc.BuildPaymentReport(context.Background(), nDays)
		require.NoError(t, err)
		require.Len(t, table.Rows, 1, "n=%d", nDays)
		require.Equal(t, "u2", table.Rows[0][table.columnIndex(ColUID)])
	}
}

func TestBuildPaymentReport_ExcludesRecordsWithoutPaymentDate(t *testing.T) {
	st := &fakeStore{users: []store.UserProfile{{ID: "u1"}}}
	bl := &fakeBilling{results: map[string]billing.ListResult{
		"u1": {Status: billing.StatusSuccess, BillingList: []billing.Record{
			billingRecord("feed", "pending", nil),
		}},
	}}
	svc := NewService(st, bl, nil)

	table, err := svc.BuildPaymentReport(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, table.Empty())
	require.Empty(t, table.Diagnostics)
}

func TestBuildPaymentReport_LookupFailureSkipsWithDiagnostic(t *testing.T) {
	st := &fakeStore{users: []store.UserProfile{{ID: "u1"}, {ID: "u2"}}}
	bl := &fakeBilling{results: map[string]billing.ListResult{
		"u1": {Status: billing.StatusError, Message: "timeout"},
		"u2": {Status: billing.StatusSuccess, BillingList: []billing.Record{
			billingRecord("both", "active", paymentTime("2024-05-01T00:00:00Z")),
		}},
	}}
	svc := NewService(st, bl, nil)

	table, err := svc.BuildPaymentReport(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	require.Equal(t, "u2", table.Rows[0][table.columnIndex(ColUID)])
	require.Len(t, table.Diagnostics, 1)
	require.Contains(t, table.Diagnostics[0], "u1")
}

func TestBuildPaymentReport_InvalidWindow(t *testing.T) {
	svc := NewService(&fakeStore{}, &fakeBilling{}, nil)
	for _, nDays := range []int{0, -1, 366} {
		_, err := svc.BuildPaymentReport(context.Background(), nDays)
		require.ErrorIs(t, err, ErrInvalidWindow, "n=%d", nDays)
	}
}

func TestBuildPaymentReport_NormalizesPaymentDateToUTC(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	// 2024-05-02 08:00 JST is 2024-05-01 23:00 UTC, so the window anchors on 05-01.
	local := time.Date(2024, time.May, 2, 8, 0, 0, 0, tokyo)

	st := &fakeStore{
		users: []store.UserProfile{{ID: "u1"}},
		performance: map[string][]store.PerformanceDoc{
			"u1": {{DateKey: "2024-05-01", Counts: store.RunCounts{DataAnalysisRun: 6}}},
		},
	}
	bl := &fakeBilling{results: map[string]billing.ListResult{
		"u1": {Status: billing.StatusSuccess, BillingList: []billing.Record{
			{ID: uuid.New(), Plan: "internal", Status: "active", PaymentDate: &local},
		}},
	}}
	svc := NewService(st, bl, nil)

	table, err := svc.BuildPaymentReport(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	row := table.Rows[0]
	require.Equal(t, "2024-05-01", row[table.columnIndex(ColPaymentDate)])
	require.Equal(t, "6", row[table.columnIndex("Data Analysis Run")])
}
