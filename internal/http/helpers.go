package http

import (
	"time"

	"github.com/shopspring/decimal"

	"ecobank/internal/core"
	"ecobank/internal/services"
	"ecobank/internal/session"
)

type sessionResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Account   core.Account  `json:"account"`
	State     session.State `json:"state"`
}

type stateResponse struct {
	State session.State `json:"state"`
}

type meResponse struct {
	Account core.Account  `json:"account"`
	State   session.State `json:"state"`
}

// summaryResponse carries amounts as JSON numbers plus the balance as the
// dashboards print it.
type summaryResponse struct {
	Earned         float64 `json:"earned"`
	Spent          float64 `json:"spent"`
	Given          float64 `json:"given"`
	Received       float64 `json:"received"`
	Balance        float64 `json:"balance"`
	BalanceDisplay string  `json:"balance_display"`
}

type dayTotalResponse struct {
	Day    string  `json:"day"`
	Amount float64 `json:"amount"`
}

type userTotalResponse struct {
	Username string  `json:"username"`
	Amount   float64 `json:"amount"`
}

type statsResponse struct {
	Summary summaryResponse    `json:"summary"`
	ByDay   []dayTotalResponse `json:"by_day"`
	Count   int                `json:"count"`
}

type transactionsResponse struct {
	Transactions []core.Transaction `json:"transactions"`
	Count        int                `json:"count"`
}

type appendResponse struct {
	Transaction core.Transaction `json:"transaction"`
	Summary     summaryResponse  `json:"summary"`
	State       session.State    `json:"state"`
}

type entryResponse struct {
	Username    string         `json:"username"`
	Type        core.Kind      `json:"type"`
	Amount      float64        `json:"amount"`
	Description string         `json:"description"`
	Timestamp   core.Timestamp `json:"timestamp"`
}

type entriesResponse struct {
	Transactions []entryResponse `json:"transactions"`
	Count        int             `json:"count"`
}

type rollupResponse struct {
	Totals  summaryResponse     `json:"totals"`
	PerUser []userTotalResponse `json:"per_user"`
	ByDay   []dayTotalResponse  `json:"by_day"`
	Count   int                 `json:"count"`
}

type accountsResponse struct {
	Users []core.Account `json:"users"`
	Count int            `json:"count"`
}

func toFloat(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func newSummaryResponse(s core.Summary) summaryResponse {
	return summaryResponse{
		Earned:         toFloat(s.Earned),
		Spent:          toFloat(s.Spent),
		Given:          toFloat(s.Given),
		Received:       toFloat(s.Received),
		Balance:        toFloat(s.Balance),
		BalanceDisplay: core.FormatAmount(s.Balance),
	}
}

func newDayTotals(days []core.DayTotal) []dayTotalResponse {
	out := make([]dayTotalResponse, len(days))
	for i, d := range days {
		out[i] = dayTotalResponse{Day: d.Day, Amount: toFloat(d.Amount)}
	}
	return out
}

func newStatsResponse(st services.Stats) statsResponse {
	return statsResponse{
		Summary: newSummaryResponse(st.Summary),
		ByDay:   newDayTotals(st.ByDay),
		Count:   st.Count,
	}
}

func newEntriesResponse(entries []core.Entry) entriesResponse {
	out := make([]entryResponse, len(entries))
	for i, e := range entries {
		out[i] = entryResponse{
			Username:    e.Username,
			Type:        e.Kind,
			Amount:      e.Amount,
			Description: e.Description,
			Timestamp:   e.Timestamp,
		}
	}
	return entriesResponse{Transactions: out, Count: len(out)}
}

func newRollupResponse(r core.Rollup) rollupResponse {
	perUser := make([]userTotalResponse, len(r.PerUser))
	for i, ut := range r.PerUser {
		perUser[i] = userTotalResponse{Username: ut.Username, Amount: toFloat(ut.Amount)}
	}
	return rollupResponse{
		Totals:  newSummaryResponse(r.Totals),
		PerUser: perUser,
		ByDay:   newDayTotals(r.ByDay),
		Count:   r.Count,
	}
}
