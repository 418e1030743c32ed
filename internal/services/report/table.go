package report

import (
	"strconv"
	"time"

	"github.com/opslens/runboard/internal/store"
	"github.com/opslens/runboard/internal/timeutil"
)

// Fixed column headers shared by both report modes.
const (
	ColUID           = "UID"
	ColDisplayName   = "Display Name"
	ColCreatedAt     = "Created At"
	ColRunType       = "Run Type"
	ColPlan          = "Plan"
	ColBillingStatus = "Billing Status"
	ColPaymentDate   = "Payment Date"
	ColRunCountTotal = "Run Count Total"
)

// Table is the row-oriented report shape handed to presentation and export.
// Every cell is rendered as a string so JSON and CSV output are identical.
type Table struct {
	Columns     []string   `json:"columns"`
	Rows        [][]string `json:"rows"`
	Diagnostics []string   `json:"diagnostics,omitempty"`
}

// Empty reports whether the table carries no data rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

func (t *Table) columnIndex(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// calendarUserData is one aggregated calendar-mode record: a user joined
// with their resolved billing state and five dense date series.
type calendarUserData struct {
	Profile store.UserProfile
	Plan    string
	Status  string
	Series  map[string]*DenseSeries
}

// paymentUserData is one aggregated payment-mode record with per-metric
// totals over the user's lookback window.
type paymentUserData struct {
	Profile     store.UserProfile
	PaymentDate time.Time
	Plan        string
	Status      string
	Totals      map[string]int64
	Total       int64
}

func calendarColumns(dateKeys []string) []string {
	columns := make([]string, 0, 6+len(dateKeys)+1)
	columns = append(columns, ColUID, ColDisplayName, ColCreatedAt, ColRunType, ColPlan, ColBillingStatus)
	columns = append(columns, dateKeys...)
	columns = append(columns, ColRunCountTotal)
	return columns
}

func paymentColumns() []string {
	columns := make([]string, 0, 5+len(store.RunTypes)+1)
	columns = append(columns, ColUID, ColDisplayName, ColPaymentDate, ColPlan, ColBillingStatus)
	for _, rt := range store.RunTypes {
		columns = append(columns, rt.Label)
	}
	columns = append(columns, ColRunCountTotal)
	return columns
}

// projectCalendar flattens aggregated calendar records into one row per
// (user, run type) pair, one column per date plus the period total.
func projectCalendar(dateKeys []string, users []calendarUserData) *Table {
	table := &Table{Columns: calendarColumns(dateKeys), Rows: make([][]string, 0, len(users)*len(store.RunTypes))}
	for _, user := range users {
		for _, rt := range store.RunTypes {
			series := user.Series[rt.Key]
			row := make([]string, 0, len(table.Columns))
			row = append(row,
				user.Profile.ID,
				user.Profile.DisplayName,
				timeutil.NormalizeUTC(user.Profile.CreatedAt).Format(time.RFC3339),
				rt.Label,
				user.Plan,
				user.Status,
			)
			for _, key := range dateKeys {
				row = append(row, strconv.FormatInt(series.Get(key), 10))
			}
			row = append(row, strconv.FormatInt(series.Total(), 10))
			table.Rows = append(table.Rows, row)
		}
	}
	return table
}

// projectPayment flattens aggregated payment records into one row per user.
func projectPayment(users []paymentUserData) *Table {
	table := &Table{Columns: paymentColumns(), Rows: make([][]string, 0, len(users))}
	for _, user := range users {
		row := make([]string, 0, len(table.Columns))
		row = append(row,
			user.Profile.ID,
			user.Profile.DisplayName,
			timeutil.FormatDateKey(user.PaymentDate),
			user.Plan,
			user.Status,
		)
		for _, rt := range store.RunTypes {
			row = append(row, strconv.FormatInt(user.Totals[rt.Key], 10))
		}
		row = append(row, strconv.FormatInt(user.Total, 10))
		table.Rows = append(table.Rows, row)
	}
	return table
}

// ApplyFilter keeps the rows whose Plan is in plans AND whose Billing
// Status is in statuses. An empty or nil allow-list passes everything; the
// permissive default is deliberate and must not be read as exclude-all.
func ApplyFilter(table *Table, plans, statuses []string) *Table {
	if table == nil {
		return nil
	}
	if len(plans) == 0 && len(statuses) == 0 {
		return table
	}

	planIdx := table.columnIndex(ColPlan)
	statusIdx := table.columnIndex(ColBillingStatus)

	planSet := toSet(plans)
	statusSet := toSet(statuses)

	filtered := &Table{
		Columns:     table.Columns,
		Rows:        make([][]string, 0, len(table.Rows)),
		Diagnostics: table.Diagnostics,
	}
	for _, row := range table.Rows {
		if len(planSet) > 0 && planIdx >= 0 {
			if _, ok := planSet[row[planIdx]]; !ok {
				continue
			}
		}
		if len(statusSet) > 0 && statusIdx >= 0 {
			if _, ok := statusSet[row[statusIdx]]; !ok {
				continue
			}
		}
		filtered.Rows = append(filtered.Rows, row)
	}
	return filtered
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
