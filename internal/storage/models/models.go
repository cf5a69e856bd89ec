package models

import (
	"database/sql"
	"time"
)

// Student is one row of the Students table. Optional text columns are
// empty strings when unset; CGPA and BatchYear are NULL when unknown.
type Student struct {
	RegisterNumber string
	FullName       string
	CGPA           sql.NullFloat64
	BatchYear      sql.NullInt64
	Certifications string
	Skills         string
	Projects       string
	Address        string
	Attendance     string
	Department     string
	DateOfBirth    string
}

type QueryRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	QueryText string    `json:"query"`
	Intent    string    `json:"intent"`
	Response  string    `json:"response"`
	CacheHit  bool      `json:"cached"`
	LatencyMS int       `json:"latency_ms"`
	CreatedAt time.Time `json:"created_at"`
}
