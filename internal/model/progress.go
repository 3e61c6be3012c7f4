// internal/model/progress.go
package model

import "math"

// Progress is the campaign-level aggregate derived from recipient
// statuses. It is always recomputed from the recipient collection,
// never stored on the campaign row.
type Progress struct {
	Sent       int `json:"sent_count"`
	Total      int `json:"total_count"`
	Percentage int `json:"progress_percentage"`
}

// NewProgress builds a Progress from counts. A zero total yields 0%
// rather than dividing by zero.
func NewProgress(sent, total int) Progress {
	p := Progress{Sent: sent, Total: total}
	if total > 0 {
		p.Percentage = int(math.Round(float64(sent) / float64(total) * 100))
	}
	return p
}

// ProgressOf aggregates over a loaded recipient collection.
func ProgressOf(recipients []Recipient) Progress {
	sent := 0
	for _, r := range recipients {
		if r.Status == RecipientSent {
			sent++
		}
	}
	return NewProgress(sent, len(recipients))
}
