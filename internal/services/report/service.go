package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/opslens/runboard/internal/billing"
	"github.com/opslens/runboard/internal/store"
	"github.com/opslens/runboard/internal/timeutil"
)

var (
	// ErrInvalidWindow rejects payment-mode lookback windows outside [1, 365].
	ErrInvalidWindow = errors.New("lookback window out of range")
	// ErrInvalidRange rejects malformed or inverted calendar date ranges at
	// the request boundary. An inverted range that reaches BuildCalendarReport
	// still produces an empty report rather than an error.
	ErrInvalidRange = errors.New("calendar range invalid")
)

const (
	MinLookbackDays = 1
	MaxLookbackDays = 365
)

// Service joins per-user run activity with billing state into tabular
// reports. All intermediate state lives inside a single build call; nothing
// is cached across requests.
type Service struct {
	store   store.Reader
	billing billing.Lookup
	logger  *slog.Logger
}

func NewService(storeReader store.Reader, billingLookup billing.Lookup, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: storeReader, billing: billingLookup, logger: logger}
}

// BuildCalendarReport aggregates every user's run counts over the fixed
// [start, end] range and joins each with their latest billing record. Users
// whose billing lookup fails are retained with sentinel plan/status and a
// diagnostic; a start after end yields an empty report.
func (s *Service) BuildCalendarReport(ctx context.Context, start, end time.Time) (*Table, error) {
	dateKeys := timeutil.DateRange(start, end)

	users, err := s.listUsersSorted(ctx)
	if err != nil {
		return nil, err
	}

	if len(dateKeys) == 0 {
		return &Table{Columns: calendarColumns(nil), Rows: [][]string{}}, nil
	}

	var diagnostics []string
	aggregated := make([]calendarUserData, 0, len(users))
	for _, user := range users {
		series, err := s.fetchUserMetrics(ctx, user.ID, dateKeys)
		if err != nil {
			// A single user's fetch failure must not abort the report;
			// the user is emitted with zero-filled series.
			diagnostics = append(diagnostics, fmt.Sprintf("performance fetch failed for user %s: %v", user.ID, err))
			s.logger.Warn("performance fetch failed", "user_id", user.ID, "error", err)
			series = newMetricSeries(dateKeys)
		}

		latest, _, lookupErr := s.latestBilling(ctx, user.ID)
		if lookupErr != "" {
			diagnostics = append(diagnostics, fmt.Sprintf("billing lookup failed for user %s: %s", user.ID, lookupErr))
			s.logger.Warn("billing lookup failed", "user_id", user.ID, "message", lookupErr)
		}

		aggregated = append(aggregated, calendarUserData{
			Profile: normalizeProfile(user),
			Plan:    planOrNone(latest.Plan),
			Status:  statusOrNone(latest.Status),
			Series:  series,
		})
	}

	table := projectCalendar(dateKeys, aggregated)
	table.Diagnostics = diagnostics
	return table, nil
}

// BuildPaymentReport aggregates each user's run counts over the window
// [payment_date, payment_date+nDays) anchored to that user's latest payment.
// Users with no billing record or no payment timestamp are excluded; so are
// users whose billing lookup fails, with a diagnostic.
func (s *Service) BuildPaymentReport(ctx context.Context, nDays int) (*Table, error) {
	if nDays < MinLookbackDays || nDays > MaxLookbackDays {
		return nil, ErrInvalidWindow
	}

	users, err := s.listUsersSorted(ctx)
	if err != nil {
		return nil, err
	}

	var diagnostics []string
	aggregated := make([]paymentUserData, 0, len(users))
	for _, user := range users {
		latest, ok, lookupErr := s.latestBilling(ctx, user.ID)
		if lookupErr != "" {
			diagnostics = append(diagnostics, fmt.Sprintf("billing lookup failed for user %s: %s", user.ID, lookupErr))
			s.logger.Warn("billing lookup failed", "user_id", user.ID, "message", lookupErr)
			continue
		}
		if !ok || latest.PaymentDate == nil {
			// No billing history or no payment anchor: filtered out, not an error.
			continue
		}

		paymentDate := timeutil.NormalizeUTC(*latest.PaymentDate)
		windowKeys := timeutil.DateRangeFrom(paymentDate, nDays)
		series, err := s.fetchUserMetrics(ctx, user.ID, windowKeys)
		if err != nil {
			diagnostics = append(diagnostics, fmt.Sprintf("performance fetch failed for user %s: %v", user.ID, err))
			s.logger.Warn("performance fetch failed", "user_id", user.ID, "error", err)
			continue
		}

		totals := make(map[string]int64, len(store.RunTypes))
		var total int64
		for _, rt := range store.RunTypes {
			metricTotal := series[rt.Key].Total()
			totals[rt.Key] = metricTotal
			total += metricTotal
		}

		aggregated = append(aggregated, paymentUserData{
			Profile:     normalizeProfile(user),
			PaymentDate: paymentDate,
			Plan:        planOrNone(latest.Plan),
			Status:      statusOrNone(latest.Status),
			Totals:      totals,
			Total:       total,
		})
	}

	table := projectPayment(aggregated)
	table.Diagnostics = diagnostics
	return table, nil
}

// fetchUserMetrics produces one dense series per run type over dateKeys.
// Malformed document date keys are skipped; documents outside the range are
// ignored via the series key check.
func (s *Service) fetchUserMetrics(ctx context.Context, userID string, dateKeys []string) (map[string]*DenseSeries, error) {
	series := newMetricSeries(dateKeys)

	docs, err := s.store.ListPerformance(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, doc := range docs {
		day, err := timeutil.ParseDateKey(doc.DateKey)
		if err != nil {
			// Sparse stores carry non-date housekeeping documents.
			continue
		}
		key := timeutil.FormatDateKey(day)
		for _, rt := range store.RunTypes {
			series[rt.Key].Set(key, doc.Counts.Get(rt.Key))
		}
	}
	return series, nil
}

func newMetricSeries(dateKeys []string) map[string]*DenseSeries {
	series := make(map[string]*DenseSeries, len(store.RunTypes))
	for _, rt := range store.RunTypes {
		series[rt.Key] = NewDenseSeries(dateKeys, 0)
	}
	return series
}

// latestBilling resolves the user's latest billing record. The third return
// carries the lookup failure message; resolution itself never errors.
func (s *Service) latestBilling(ctx context.Context, userID string) (billing.Record, bool, string) {
	result := s.billing.ListBilling(ctx, userID)
	if result.Status != billing.StatusSuccess {
		msg := result.Message
		if msg == "" {
			msg = "billing lookup reported an error"
		}
		return billing.Record{}, false, msg
	}
	latest, ok := billing.Latest(result.BillingList)
	return latest, ok, ""
}

// listUsersSorted enumerates users ordered by id so report output does not
// depend on store enumeration order.
func (s *Service) listUsersSorted(ctx context.Context) ([]store.UserProfile, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func normalizeProfile(user store.UserProfile) store.UserProfile {
	if user.DisplayName == "" {
		user.DisplayName = "Unknown User"
	}
	return user
}

func planOrNone(plan string) string {
	if plan == "" {
		return billing.PlanNone
	}
	return plan
}

func statusOrNone(status string) string {
	if status == "" {
		return billing.StatusNone
	}
	return status
}
