package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jcmexdev/grocery-storefront/internal/coordinator/sagalog"
)

// SagaLogRepository implements sagalog.Repository on the saga_logs table.
type SagaLogRepository struct {
	db *sqlx.DB
}

var ErrSagaNotFound = errors.New("saga not found")

type sagaLogRow struct {
	SagaID        string         `db:"saga_id"`
	Status        string         `db:"status"`
	CurrentStep   string         `db:"current_step"`
	Payload       sql.NullString `db:"payload"`
	ErrorMessages string         `db:"error_messages"`
	TraceID       string         `db:"trace_id"`
	SpanID        string         `db:"span_id"`
	UpdatedAt     string         `db:"updated_at"`
}

func (r *SagaLogRepository) Save(ctx context.Context, entry *sagalog.SagaLog) error {
	const q = `
		INSERT INTO saga_logs
			(saga_id, status, current_step, payload, error_messages, trace_id, span_id, updated_at)
		VALUES
			(:saga_id, :status, :current_step, :payload, :error_messages, :trace_id, :span_id, :updated_at)`

	_, err := r.db.NamedExecContext(ctx, q, sagaLogRow{
		SagaID:        entry.SagaID,
		Status:        string(entry.Status),
		CurrentStep:   entry.CurrentStep,
		Payload:       sql.NullString{String: entry.Payload, Valid: entry.Payload != ""},
		ErrorMessages: entry.ErrorMessages,
		TraceID:       entry.TraceID,
		SpanID:        entry.SpanID,
		UpdatedAt:     formatTime(entry.UpdatedAt),
	})
	if err != nil {
		return fmt.Errorf("sqlite: save saga log for %q: %w", entry.SagaID, err)
	}
	return nil
}

// Latest returns the most recent entry for sagaID.
func (r *SagaLogRepository) Latest(ctx context.Context, sagaID string) (*sagalog.SagaLog, error) {
	const q = `
		SELECT saga_id, status, current_step, payload, error_messages, trace_id, span_id, updated_at
		FROM   saga_logs
		WHERE  saga_id = ?
		ORDER  BY id DESC
		LIMIT  1`

	var row sagaLogRow
	err := r.db.GetContext(ctx, &row, q, sagaID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: saga %q: %w", sagaID, ErrSagaNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: latest saga log for %q: %w", sagaID, err)
	}

	updatedAt, err := parseTime(row.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sagalog.SagaLog{
		SagaID:        row.SagaID,
		Status:        sagalog.Status(row.Status),
		CurrentStep:   row.CurrentStep,
		Payload:       row.Payload.String,
		ErrorMessages: row.ErrorMessages,
		TraceID:       row.TraceID,
		SpanID:        row.SpanID,
		UpdatedAt:     updatedAt,
	}, nil
}
