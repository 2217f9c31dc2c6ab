package models

import "time"

// GoldRow is one row of the aggregated analytics table: an hourly rate
// observation joined to its calendar day's news aggregate. Only dates
// present on both sides of the join produce rows.
type GoldRow struct {
	FullDate         time.Time `json:"full_date"`
	Price            float64   `json:"price"`
	NewsCount        int       `json:"news_count"`
	AvgConflictScore float64   `json:"avg_conflict_score"`
}

// RiskScore is the dashboard's derived metric: event volume times average
// conflict intensity. Computed at query time, never persisted.
func (g GoldRow) RiskScore() float64 {
	return float64(g.NewsCount) * g.AvgConflictScore
}
