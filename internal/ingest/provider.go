// Package ingest holds what importers of external workout history share.
package ingest

// Result holds the outcome of an import.
type Result struct {
	SessionsReceived int `json:"sessions_received"`
	SessionsCreated  int `json:"sessions_created"`
	SessionsSkipped  int `json:"sessions_skipped"`
	SessionsRejected int `json:"sessions_rejected"`

	SetsReceived  int `json:"sets_received"`
	LedgerUpdated int `json:"ledger_updated"`
	LedgerSkipped int `json:"ledger_skipped"`

	Message string `json:"message,omitempty"`
}
