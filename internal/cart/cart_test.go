package cart

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/grocery-storefront/internal/catalog"
	"github.com/jcmexdev/grocery-storefront/internal/pkg/money"
)

func product(id, price string) catalog.Product {
	p := money.MustParse(price)
	return catalog.Product{
		ID:      id,
		Title:   "Product " + id,
		Price:   p,
		Options: []catalog.ProductOption{{Unit: "1", Price: p}},
	}
}

func TestAddSameProductAccumulates(t *testing.T) {
	p := product("prod-001", "৳80")
	quantities := []int{1, 3, 2, 7}

	var c Cart
	var err error
	for _, q := range quantities {
		c, err = c.Add(p, q)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 13, c.Quantity("prod-001"))
}

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	var c Cart
	_, err := c.Add(product("p", "10"), 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = c.Add(product("p", "10"), -2)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestAddIsImmutable(t *testing.T) {
	var empty Cart
	one, err := empty.Add(product("a", "10"), 1)
	require.NoError(t, err)
	two, err := one.Add(product("a", "10"), 1)
	require.NoError(t, err)

	assert.True(t, empty.IsEmpty())
	assert.Equal(t, 1, one.Quantity("a"))
	assert.Equal(t, 2, two.Quantity("a"))
}

func TestUpdateQuantityFloorsAtOne(t *testing.T) {
	c, err := New(Item{Product: product("a", "10"), Quantity: 3})
	require.NoError(t, err)

	for _, delta := range []int{-1, -5, -100, 0, 2, -3} {
		c, err = c.UpdateQuantity("a", delta)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, c.Quantity("a"), 1, "delta %d", delta)
	}
	assert.Equal(t, 1, c.Len())
}

func TestUpdateQuantityUnknownItem(t *testing.T) {
	c, err := New(Item{Product: product("a", "10"), Quantity: 1})
	require.NoError(t, err)

	same, err := c.UpdateQuantity("missing", 1)
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.Equal(t, 1, same.Quantity("a"))
}

func TestRemove(t *testing.T) {
	c, err := New(
		Item{Product: product("a", "10"), Quantity: 1},
		Item{Product: product("b", "20"), Quantity: 1},
	)
	require.NoError(t, err)

	c = c.Remove("a")
	assert.Equal(t, 0, c.Quantity("a"))
	assert.Equal(t, 1, c.Len())

	c = c.Remove("missing")
	assert.Equal(t, 1, c.Len())
}

func TestInsertionOrderIsStable(t *testing.T) {
	var c Cart
	var err error
	for _, id := range []string{"c", "a", "b", "a"} {
		c, err = c.Add(product(id, "1"), 1)
		require.NoError(t, err)
	}
	c, err = c.UpdateQuantity("c", 4)
	require.NoError(t, err)

	var ids []string
	for _, it := range c.Items() {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestSubtotal(t *testing.T) {
	c, err := New(
		Item{Product: product("prod-001", "৳80"), Quantity: 2},
		Item{Product: product("prod-002", "৳40"), Quantity: 1},
	)
	require.NoError(t, err)

	assert.True(t, money.New(200).Equal(c.Subtotal()), c.Subtotal().String())

	fromDisplay, err := SubtotalFromDisplay(c.Items())
	require.NoError(t, err)
	assert.True(t, c.Subtotal().Equal(fromDisplay))
}

func TestItemsReturnsCopy(t *testing.T) {
	c, err := New(Item{Product: product("a", "10"), Quantity: 1})
	require.NoError(t, err)

	items := c.Items()
	items[0].Quantity = 99
	assert.Equal(t, 1, c.Quantity("a"))
}

func TestSummarize(t *testing.T) {
	items := []Item{{Product: product("a", "100"), Quantity: 2}}
	s := Summarize(items)
	assert.Equal(t, "200", s.Subtotal.String())
	assert.Equal(t, "10", s.Tax.String())
	assert.Equal(t, "60", s.Shipping.String())
	assert.Equal(t, "270", s.Total.String())

	empty := Summarize(nil)
	assert.True(t, empty.Total.IsZero())
	assert.True(t, empty.Shipping.IsZero())
}

func TestMarshalJSON(t *testing.T) {
	b, err := json.Marshal(Cart{})
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(b))

	c, err := New(Item{Product: product("a", "10"), Quantity: 2})
	require.NoError(t, err)
	b, err = json.Marshal(c)
	require.NoError(t, err)

	var decoded []Item
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "a", decoded[0].ID)
	assert.Equal(t, 2, decoded[0].Quantity)
}
