package model

import "time"

// AccountStatus is the connection state recorded after each sync attempt
type AccountStatus string

const (
	AccountConnected    AccountStatus = "connected"
	AccountDisconnected AccountStatus = "disconnected"
	AccountError        AccountStatus = "error"
)

// CloudAccount is owned by the account-management collaborator. The core only
// reads ID/Provider/Credentials and writes Status/LastSyncedAt/ErrorMessage.
type CloudAccount struct {
	ID           string        `json:"id"`
	Provider     Provider      `json:"provider"`
	Credentials  Credentials   `json:"credentials"`
	Status       AccountStatus `json:"status"`
	LastSyncedAt *time.Time    `json:"last_synced_at,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
}
