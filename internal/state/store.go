// Package state records validation and resolution runs in a SQLite
// database so a project keeps a history of how its mapping document fared
// against the live database.
package state

import (
	"context"
	"time"
)

// RunStatus is the outcome of a recorded run.
type RunStatus string

// Run statuses.
const (
	// RunStatusPassed means the document had no discrepancies.
	RunStatusPassed RunStatus = "passed"
	// RunStatusFailed means the document had at least one discrepancy.
	RunStatusFailed RunStatus = "failed"
	// RunStatusErrored means the run could not be carried out.
	RunStatusErrored RunStatus = "errored"
)

// Run is one recorded pass over a mapping document.
type Run struct {
	ID          string    `json:"id" yaml:"id"`
	Command     string    `json:"command" yaml:"command"`
	Document    string    `json:"document" yaml:"document"`
	Environment string    `json:"environment" yaml:"environment"`
	Status      RunStatus `json:"status" yaml:"status"`
	StartedAt   time.Time `json:"started_at" yaml:"started_at"`
	CompletedAt time.Time `json:"completed_at" yaml:"completed_at"`
	Error       string    `json:"error,omitempty" yaml:"error,omitempty"`
	// Discrepancies are loaded by GetRun only.
	Discrepancies []RunDiscrepancy `json:"discrepancies,omitempty" yaml:"discrepancies,omitempty"`
	// DiscrepancyCount is set by every read.
	DiscrepancyCount int `json:"discrepancy_count" yaml:"discrepancy_count"`
}

// RunDiscrepancy is a discrepancy as stored with its run.
type RunDiscrepancy struct {
	Code    string `json:"code" yaml:"code"`
	Table   string `json:"table,omitempty" yaml:"table,omitempty"`
	Message string `json:"message" yaml:"message"`
}

// Store persists run history.
type Store interface {
	RecordRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	GetLatestRun(ctx context.Context, document string) (*Run, error)
	Close() error
}

var _ Store = (*SQLiteStore)(nil)
