package visit

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Visit is one tracked request, recorded off the hot path.
type Visit struct {
	ID        string      `json:"id"`
	Path      string      `json:"path"`
	Method    string      `json:"method"`
	UserID    null.String `json:"user_id,omitempty"`
	IP        string      `json:"ip,omitempty"`
	UserAgent string      `json:"user_agent,omitempty"`
	CreatedAt time.Time   `json:"created_at"` // UTC
}

type DayCount struct {
	Date  string `json:"date"` // 2006-01-02
	Count int    `json:"count"`
}

type Stats struct {
	Total  int        `json:"total"`
	PerDay []DayCount `json:"per_day"`
}

type StatsFilter struct {
	From time.Time `query:"from"`
	To   time.Time `query:"to"`
}
