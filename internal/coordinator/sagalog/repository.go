package sagalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jcmexdev/grocery-storefront/internal/pkg/telemetry"
)

// Repository persists log entries. Save always appends.
type Repository interface {
	Save(ctx context.Context, entry *SagaLog) error
	Latest(ctx context.Context, sagaID string) (*SagaLog, error)
}

// NewEntry builds an entry stamped with the span active in ctx.
func NewEntry(ctx context.Context, sagaID string, status Status, currentStep, payload string, errs []string) *SagaLog {
	ti := telemetry.TraceInfoFromContext(ctx)

	errJSON := "[]"
	if len(errs) > 0 {
		if b, err := json.Marshal(errs); err == nil {
			errJSON = string(b)
		}
	}

	return &SagaLog{
		SagaID:        sagaID,
		Status:        status,
		CurrentStep:   currentStep,
		Payload:       payload,
		ErrorMessages: errJSON,
		TraceID:       ti.TraceID,
		SpanID:        ti.SpanID,
		UpdatedAt:     time.Now().UTC(),
	}
}
