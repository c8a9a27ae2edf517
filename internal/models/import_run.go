package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ImportStatus captures the outcome of one CSV import.
type ImportStatus string

const (
	ImportStatusCompleted ImportStatus = "completed"
	ImportStatusPartial   ImportStatus = "partial"
	ImportStatusFailed    ImportStatus = "failed"
)

// ImportErrors stores row messages as JSONB.
type ImportErrors []string

// Value implements driver.Valuer.
func (e ImportErrors) Value() (driver.Value, error) {
	if e == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(e))
}

// Scan implements sql.Scanner.
func (e *ImportErrors) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*e = nil
		return nil
	case []byte:
		return json.Unmarshal(v, (*[]string)(e))
	case string:
		return json.Unmarshal([]byte(v), (*[]string)(e))
	default:
		return fmt.Errorf("unsupported import errors type %T", src)
	}
}

// ImportRun is the audit record written after each import.
type ImportRun struct {
	ID           int64        `db:"id" json:"id"`
	EntityType   string       `db:"entity_type" json:"entity_type"`
	Filename     string       `db:"filename" json:"filename"`
	ActorID      string       `db:"actor_id" json:"actor_id"`
	TotalRows    int          `db:"total_rows" json:"total_rows"`
	SuccessCount int          `db:"success_count" json:"success_count"`
	ErrorCount   int          `db:"error_count" json:"error_count"`
	Errors       ImportErrors `db:"errors" json:"errors"`
	Status       ImportStatus `db:"status" json:"status"`
	StartedAt    time.Time    `db:"started_at" json:"started_at"`
	FinishedAt   time.Time    `db:"finished_at" json:"finished_at"`
}

// ImportResult is the per-request summary returned to the uploader.
type ImportResult struct {
	EntityType   string   `json:"-"`
	Label        string   `json:"-"`
	TotalRows    int      `json:"totalRows"`
	SuccessCount int      `json:"successCount"`
	ErrorCount   int      `json:"errorCount"`
	Errors       []string `json:"errors"`
}

// Message renders the human summary for the upload response.
func (r *ImportResult) Message() string {
	return fmt.Sprintf("Successfully imported %d %s", r.SuccessCount, r.Label)
}

// Status derives the audit status from the counters.
func (r *ImportResult) Status() ImportStatus {
	if r.ErrorCount > 0 {
		return ImportStatusPartial
	}
	return ImportStatusCompleted
}

// UploadStats holds the dashboard counters. Subjects is the course count.
type UploadStats struct {
	Departments int `db:"departments" json:"departments"`
	Subjects    int `db:"subjects" json:"subjects"`
	Students    int `db:"students" json:"students"`
	Faculty     int `db:"faculty" json:"faculty"`
	Classrooms  int `db:"classrooms" json:"classrooms"`
}
