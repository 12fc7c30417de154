package board

import (
	"time"

	"github.com/tOgg1/leadboard/internal/models"
)

// ObservationLog drives the inline observation list on the detail panel: one
// capped fetch, then client-side reveal in increments. No further requests
// are made while expanding.
type ObservationLog struct {
	entries   []models.Observation
	displayed int
}

// Reveal sizing for the inline list.
const (
	InitialReveal = 5
	RevealStep    = 10
)

// NewObservationLog wraps a fetched batch, newest first, showing the initial
// window.
func NewObservationLog(entries []models.Observation) *ObservationLog {
	log := &ObservationLog{entries: entries}
	log.displayed = min(InitialReveal, len(entries))
	return log
}

// Visible returns the currently revealed entries.
func (l *ObservationLog) Visible() []models.Observation {
	return l.entries[:l.displayed]
}

// Total returns the number of fetched entries.
func (l *ObservationLog) Total() int {
	return len(l.entries)
}

// Hidden returns how many fetched entries are not yet revealed.
func (l *ObservationLog) Hidden() int {
	return len(l.entries) - l.displayed
}

// ShowMore reveals the next batch. Returns false when everything fetched is
// already visible.
func (l *ObservationLog) ShowMore() bool {
	if l.displayed >= len(l.entries) {
		return false
	}
	l.displayed = min(l.displayed+RevealStep, len(l.entries))
	return true
}

// Prepend inserts a freshly created observation at the top and keeps it
// visible.
func (l *ObservationLog) Prepend(obs models.Observation) {
	l.entries = append([]models.Observation{obs}, l.entries...)
	l.displayed++
}

// Remove drops a deleted observation from the log.
func (l *ObservationLog) Remove(id string) {
	for i, obs := range l.entries {
		if obs.ID == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			if l.displayed > len(l.entries) {
				l.displayed = len(l.entries)
			}
			return
		}
	}
}

// HistoryFilter narrows the full observation history by type and date range.
// A zero From or To leaves that bound open.
type HistoryFilter struct {
	Type models.ObservationType
	From time.Time
	To   time.Time
}

// IsEmpty reports whether the filter passes everything through.
func (f HistoryFilter) IsEmpty() bool {
	return f.Type == "" && f.From.IsZero() && f.To.IsZero()
}

// Matches applies the filter to one entry. The To bound is inclusive of the
// named day: entries strictly before midnight of the following day pass.
func (f HistoryFilter) Matches(obs models.Observation) bool {
	if f.Type != "" && obs.Type != f.Type {
		return false
	}
	if !f.From.IsZero() && obs.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() {
		end := f.To.AddDate(0, 0, 1)
		if !obs.CreatedAt.Before(end) {
			return false
		}
	}
	return true
}

// FilterObservations returns the entries passing the filter, preserving
// order.
func FilterObservations(entries []models.Observation, filter HistoryFilter) []models.Observation {
	if filter.IsEmpty() {
		return entries
	}
	out := make([]models.Observation, 0, len(entries))
	for _, obs := range entries {
		if filter.Matches(obs) {
			out = append(out, obs)
		}
	}
	return out
}
