// Package sagalog records every transition of an order placement saga.
//
// The log is an audit trail: each row carries the trace and span ids of the
// span that wrote it, so a row can be joined to its distributed trace, and
// the latest row per saga shows where a placement stopped.
package sagalog

import "time"

// Status is the lifecycle state of a saga execution.
type Status string

const (
	StatusStarted      Status = "STARTED"
	StatusStepDone     Status = "STEP_DONE"
	StatusCompleted    Status = "COMPLETED"
	StatusCompensating Status = "COMPENSATING"
	StatusFailed       Status = "FAILED"
)

// SagaLog is a single row of the saga_logs table.
type SagaLog struct {
	// SagaID is the order id, so the log joins with order data.
	SagaID      string
	Status      Status
	CurrentStep string
	// Payload is the JSON order that started the saga; only set on STARTED.
	Payload string
	// ErrorMessages is a JSON array with one entry per failure.
	ErrorMessages string
	TraceID       string
	SpanID        string
	UpdatedAt     time.Time
}
