package order

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/grocery-storefront/internal/cart"
	"github.com/jcmexdev/grocery-storefront/internal/catalog"
	"github.com/jcmexdev/grocery-storefront/internal/pkg/money"
)

func sample() Confirmation {
	return Confirmation{
		OrderID:           "ORD-1",
		Status:            StatusProcessing,
		CustomerName:      "Rahim",
		Phone:             "01700000000",
		ShippingAddress:   "Dhaka",
		EstimatedDelivery: DefaultEstimatedDelivery,
		Items: []cart.Item{{
			Product:  catalog.Product{ID: "prod-001", Price: money.New(80)},
			Quantity: 2,
		}},
		Subtotal:       money.New(160),
		DeliveryCharge: money.New(60),
		DiscountAmount: money.New(50),
		TotalPayable:   money.New(170),
		PaymentMethod:  PaymentCashOnDelivery,
		PlacedAt:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestNewEnforcesTotal(t *testing.T) {
	c, err := New(sample())
	require.NoError(t, err)
	assert.Equal(t, "৳170", c.DisplayTotal())

	bad := sample()
	bad.TotalPayable = money.New(220)
	_, err = New(bad)
	assert.ErrorIs(t, err, ErrTotalMismatch)
}

func TestNewRejectsMissingIDAndStatus(t *testing.T) {
	noID := sample()
	noID.OrderID = " "
	_, err := New(noID)
	assert.ErrorIs(t, err, ErrInvalidOrder)

	badStatus := sample()
	badStatus.Status = "Shipped"
	_, err = New(badStatus)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestNewCopiesItems(t *testing.T) {
	in := sample()
	c, err := New(in)
	require.NoError(t, err)

	in.Items[0].Quantity = 9
	assert.Equal(t, 2, c.Items[0].Quantity)
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusTaken, StatusPacked, true},
		{StatusTaken, StatusDone, true},
		{StatusPacked, StatusProcessing, true},
		{StatusProcessing, StatusDone, true},
		{StatusProcessing, StatusPacked, false},
		{StatusProcessing, StatusProcessing, false},
		{StatusTaken, StatusCancelled, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusDone, StatusCancelled, false},
		{StatusCancelled, StatusTaken, false},
		{StatusDone, StatusTaken, false},
		{Status("Lost"), StatusDone, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestWithStatus(t *testing.T) {
	c := sample()
	done, err := c.WithStatus(StatusDone)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, done.Status)
	assert.Equal(t, StatusProcessing, c.Status)

	_, err = done.WithStatus(StatusCancelled)
	assert.ErrorIs(t, err, ErrIllegalTransit)
}

func TestProgressIndex(t *testing.T) {
	assert.Equal(t, 0, StatusTaken.ProgressIndex())
	assert.Equal(t, 2, StatusProcessing.ProgressIndex())
	assert.Equal(t, 3, StatusDone.ProgressIndex())
	assert.Equal(t, -1, StatusCancelled.ProgressIndex())
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(" packed ")
	require.NoError(t, err)
	assert.Equal(t, StatusPacked, st)

	_, err = ParseStatus("shipped")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestNewIDFormat(t *testing.T) {
	re := regexp.MustCompile(`^ORD-[0-9A-F]{12}$`)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := RandomIDs.NewID()
		assert.Regexp(t, re, id)
		assert.False(t, seen[id])
		seen[id] = true
	}
}
