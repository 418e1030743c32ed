package billing

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opslens/runboard/internal/timeutil"
)

const (
	// PlanNone and StatusNone are the sentinel values reported when a user
	// has no billing history or the lookup fails.
	PlanNone   = "None"
	StatusNone = "None"

	// StatusSuccess and StatusError label the lookup result envelope.
	StatusSuccess = "success"
	StatusError   = "error"
)

// Record is one historical billing entry for a user. PaymentDate is
// optional: legacy records imported without a payment timestamp carry nil.
type Record struct {
	ID          uuid.UUID       `json:"id"`
	UserID      string          `json:"user_id"`
	Plan        string          `json:"plan"`
	Status      string          `json:"status"`
	PaymentDate *time.Time      `json:"payment_date,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ListResult is the lookup envelope. A Status of StatusError carries a
// Message and an empty BillingList; callers must treat it as non-fatal.
type ListResult struct {
	Status      string   `json:"status"`
	BillingList []Record `json:"billing_list"`
	Message     string   `json:"message,omitempty"`
}

// Lookup is the billing collaborator surface the report core consumes.
type Lookup interface {
	ListBilling(ctx context.Context, userID string) ListResult
}

// Latest selects the most recent billing record. Records with a payment
// timestamp always outrank records without one; among timestamped records
// the later UTC instant wins; exact ties are broken by record id descending
// so the winner is deterministic regardless of storage-layer ordering.
// Returns ok=false for an empty list.
func Latest(records []Record) (Record, bool) {
	if len(records) == 0 {
		return Record{}, false
	}
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return moreRecent(sorted[i], sorted[j])
	})
	return sorted[0], true
}

// moreRecent is the total order used by Latest: (has timestamp, UTC
// timestamp, record id) descending.
func moreRecent(a, b Record) bool {
	switch {
	case a.PaymentDate != nil && b.PaymentDate == nil:
		return true
	case a.PaymentDate == nil && b.PaymentDate != nil:
		return false
	case a.PaymentDate != nil && b.PaymentDate != nil:
		at := timeutil.NormalizeUTC(*a.PaymentDate)
		bt := timeutil.NormalizeUTC(*b.PaymentDate)
		if !at.Equal(bt) {
			return at.After(bt)
		}
	}
	return a.ID.String() > b.ID.String()
}
