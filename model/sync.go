package model

import "time"

// SyncRequest asks for one account to be discovered and reconciled. An empty
// Categories list means AllCategories.
type SyncRequest struct {
	AccountID  string     `json:"account_id" validate:"required"`
	Categories []Category `json:"categories,omitempty" validate:"omitempty,unique,dive,oneof=compute storage database network"`
}

// SyncResult reports one sync. It is returned even when the sync fails so
// callers always see what was discovered and changed.
type SyncResult struct {
	AccountID  string        `json:"account_id"`
	Provider   Provider      `json:"provider"`
	Discovered int           `json:"discovered"`
	Inserted   int           `json:"inserted"`
	Updated    int           `json:"updated"`
	Deleted    int           `json:"deleted"`
	Skipped    int           `json:"skipped"`
	Swept      bool          `json:"swept"`
	Partial    bool          `json:"partial"`
	Status     AccountStatus `json:"status"`
	Errors     []string      `json:"errors"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}
