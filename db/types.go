package db

import "time"

// DefaultBlockReason is stored when an operator blocks an address without a reason.
const DefaultBlockReason = "Blocked by admin"

// Visit is a single recorded page load.
// Timestamp is assigned by the server at record time, in UTC.
type Visit struct {
	ID        int64     `json:"id"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	Timestamp time.Time `json:"timestamp"`
}

// BlockedIp is an entry of the blocklist. Address is the primary key.
type BlockedIp struct {
	Address   string    `json:"address"`
	Reason    string    `json:"reason"`
	BlockedAt time.Time `json:"blocked_at"`
}

// Log is a row of the logs table written by the batch logger.
type Log struct {
	Level    int64
	Message  string
	JsonData string
	Created  string
}
