package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// HistoryCapacity is how many sessions a ledger entry remembers.
const HistoryCapacity = 10

// SessionSummary is one exercise's outcome within one session.
type SessionSummary struct {
	Date         time.Time `json:"date"`
	TopSetWeight float64   `json:"top_set_weight"`
	TopSetReps   int       `json:"top_set_reps"`
	TotalSets    int       `json:"total_sets"`
	SessionID    uuid.UUID `json:"session_id"`
}

// SessionHistory is a fixed-size ring of summaries. Pushing onto a full
// history overwrites the oldest slot. It encodes to JSON as an array,
// most recent first.
type SessionHistory struct {
	buf  [HistoryCapacity]SessionSummary
	head int
	n    int
}

// Push records s as the most recent summary.
func (h *SessionHistory) Push(s SessionSummary) {
	if h.n > 0 {
		h.head = (h.head + HistoryCapacity - 1) % HistoryCapacity
	}
	h.buf[h.head] = s
	if h.n < HistoryCapacity {
		h.n++
	}
}

func (h *SessionHistory) Len() int { return h.n }

// At returns the i-th most recent summary, 0 being the latest.
func (h *SessionHistory) At(i int) SessionSummary {
	if i < 0 || i >= h.n {
		panic("session history index out of range")
	}
	return h.buf[(h.head+i)%HistoryCapacity]
}

func (h *SessionHistory) Latest() (SessionSummary, bool) {
	if h.n == 0 {
		return SessionSummary{}, false
	}
	return h.At(0), true
}

// Items returns the summaries most recent first.
func (h *SessionHistory) Items() []SessionSummary {
	out := make([]SessionSummary, h.n)
	for i := range out {
		out[i] = h.At(i)
	}
	return out
}

func (h SessionHistory) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Items())
}

func (h *SessionHistory) UnmarshalJSON(data []byte) error {
	var items []SessionSummary
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*h = SessionHistory{}
	if len(items) > HistoryCapacity {
		items = items[:HistoryCapacity]
	}
	for i := len(items) - 1; i >= 0; i-- {
		h.Push(items[i])
	}
	return nil
}
