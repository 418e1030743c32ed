package billing

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const listBillingQuery = `
SELECT id, user_id, plan, status, payment_date, amount, currency, created_at
FROM billing_records
WHERE user_id = $1
`

// Service looks up billing history from the Postgres billing database.
type Service struct {
	pool *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// ListBilling returns the unordered billing history for one user. Failures
// are reported through the envelope status rather than an error so a single
// user's billing outage cannot abort a whole report.
func (s *Service) ListBilling(ctx context.Context, userID string) ListResult {
	if s == nil || s.pool == nil {
		return ListResult{Status: StatusError, Message: "billing lookup not initialized"}
	}

	rows, err := s.pool.Query(ctx, listBillingQuery, userID)
	if err != nil {
		return ListResult{Status: StatusError, Message: fmt.Sprintf("query billing for %s: %v", userID, err)}
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.Plan,
			&rec.Status,
			&rec.PaymentDate,
			&rec.Amount,
			&rec.Currency,
			&rec.CreatedAt,
		); err != nil {
			return ListResult{Status: StatusError, Message: fmt.Sprintf("scan billing for %s: %v", userID, err)}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return ListResult{Status: StatusError, Message: fmt.Sprintf("read billing for %s: %v", userID, err)}
	}

	return ListResult{Status: StatusSuccess, BillingList: records}
}
