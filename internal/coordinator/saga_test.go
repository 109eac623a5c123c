package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/grocery-storefront/internal/coordinator/sagalog"
	"github.com/jcmexdev/grocery-storefront/internal/order"
	"github.com/jcmexdev/grocery-storefront/internal/pkg/money"
)

type memLog struct {
	mu      sync.Mutex
	entries []*sagalog.SagaLog
}

func (m *memLog) Save(_ context.Context, e *sagalog.SagaLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memLog) Latest(_ context.Context, id string) (*sagalog.SagaLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].SagaID == id {
			return m.entries[i], nil
		}
	}
	return nil, errors.New("not found")
}

func (m *memLog) statuses() []sagalog.Status {
	var out []sagalog.Status
	for _, e := range m.entries {
		out = append(out, e.Status)
	}
	return out
}

type recorder struct {
	calls      []string
	saveErr    error
	publishErr error
}

func (r *recorder) SaveOrder(_ context.Context, c order.Confirmation) error {
	r.calls = append(r.calls, "save "+c.OrderID)
	return r.saveErr
}

func (r *recorder) DeleteOrder(_ context.Context, id string) error {
	r.calls = append(r.calls, "delete "+id)
	return nil
}

func (r *recorder) PublishPlaced(_ context.Context, c order.Confirmation) error {
	r.calls = append(r.calls, "publish "+c.OrderID)
	return r.publishErr
}

func (r *recorder) PublishCancelled(_ context.Context, id, _ string) error {
	r.calls = append(r.calls, "cancel "+id)
	return nil
}

func (r *recorder) Put(_ context.Context, c order.Confirmation) {
	r.calls = append(r.calls, "cache "+c.OrderID)
}

func (r *recorder) Invalidate(_ context.Context, id string) error {
	r.calls = append(r.calls, "evict "+id)
	return nil
}

func testOrder() order.Confirmation {
	return order.Confirmation{
		OrderID:        "ORD-S1",
		Status:         order.StatusProcessing,
		Subtotal:       money.New(100),
		DeliveryCharge: money.New(60),
		TotalPayable:   money.New(160),
	}
}

func TestPlacementSuccess(t *testing.T) {
	r := &recorder{}
	log := &memLog{}

	require.NoError(t, NewPlacement(r, r, r, log).Place(context.Background(), testOrder()))

	assert.Equal(t, []string{"save ORD-S1", "publish ORD-S1", "cache ORD-S1"}, r.calls)
	assert.Equal(t, []sagalog.Status{
		sagalog.StatusStarted,
		sagalog.StatusStepDone, sagalog.StatusStepDone, sagalog.StatusStepDone,
		sagalog.StatusCompleted,
	}, log.statuses())
	assert.Contains(t, log.entries[0].Payload, `"orderId":"ORD-S1"`)
}

func TestPlacementCompensatesInReverse(t *testing.T) {
	boom := errors.New("broker down")
	r := &recorder{publishErr: boom}
	log := &memLog{}

	err := NewPlacement(r, r, r, log).Place(context.Background(), testOrder())
	require.ErrorIs(t, err, boom)

	assert.Equal(t, []string{"save ORD-S1", "publish ORD-S1", "delete ORD-S1"}, r.calls)
	latest, err := log.Latest(context.Background(), "ORD-S1")
	require.NoError(t, err)
	assert.Equal(t, sagalog.StatusFailed, latest.Status)
	assert.Equal(t, "Publish_Order_Step", latest.CurrentStep)
	assert.Contains(t, latest.ErrorMessages, "broker down")
}

func TestPlacementFirstStepFailureCompensatesNothing(t *testing.T) {
	r := &recorder{saveErr: errors.New("disk full")}

	err := NewPlacement(r, r, r, nil).Place(context.Background(), testOrder())
	require.Error(t, err)
	assert.Equal(t, []string{"save ORD-S1"}, r.calls)
}

func TestPlacementSkipsOptionalSteps(t *testing.T) {
	r := &recorder{}
	require.NoError(t, NewPlacement(r, nil, nil, nil).Place(context.Background(), testOrder()))
	assert.Equal(t, []string{"save ORD-S1"}, r.calls)
}

func TestPlacementEncodeFailureRunsNothing(t *testing.T) {
	r := &recorder{}
	log := &memLog{}
	p := NewPlacement(r, r, r, log)
	p.encode = func(any) ([]byte, error) { return nil, errors.New("unsupported value") }

	err := p.Place(context.Background(), testOrder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported value")
	assert.Empty(t, r.calls)
	assert.Empty(t, log.entries)
}

type failingStep struct{ compensated *[]string }

func (failingStep) Name() string                       { return "Failing_Step" }
func (failingStep) Execute(context.Context) error      { return errors.New("nope") }
func (f failingStep) Compensate(context.Context) error { *f.compensated = append(*f.compensated, "failing"); return nil }

type okStep struct {
	name        string
	compensated *[]string
}

func (s okStep) Name() string                    { return s.name }
func (okStep) Execute(context.Context) error     { return nil }
func (s okStep) Compensate(context.Context) error { *s.compensated = append(*s.compensated, s.name); return nil }

func TestOrchestratorRollbackIsLIFO(t *testing.T) {
	var compensated []string
	steps := []Step{
		okStep{name: "a", compensated: &compensated},
		okStep{name: "b", compensated: &compensated},
		okStep{name: "c", compensated: &compensated},
		failingStep{compensated: &compensated},
	}

	err := NewOrchestrator("saga-1", steps, nil).Start(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, compensated)
}
