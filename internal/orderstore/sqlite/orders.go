package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jcmexdev/grocery-storefront/internal/cart"
	"github.com/jcmexdev/grocery-storefront/internal/catalog"
	"github.com/jcmexdev/grocery-storefront/internal/order"
	"github.com/jcmexdev/grocery-storefront/internal/orderstore"
	"github.com/jcmexdev/grocery-storefront/internal/pkg/money"
)

type orderRow struct {
	ID                string `db:"id"`
	CustomerName      string `db:"customer_name"`
	Phone             string `db:"phone"`
	Address           string `db:"address"`
	Status            string `db:"status"`
	TotalAmount       int64  `db:"total_amount"`
	DeliveryCharge    int64  `db:"delivery_charge"`
	DiscountAmount    int64  `db:"discount_amount"`
	Subtotal          int64  `db:"subtotal"`
	EstimatedDelivery string `db:"estimated_delivery"`
	PaymentMethod     string `db:"payment_method"`
	CouponCode        string `db:"coupon_code"`
	CreatedAt         string `db:"created_at"`
}

type itemRow struct {
	ID              int64  `db:"id"`
	OrderID         string `db:"order_id"`
	ProductID       string `db:"product_id"`
	Title           string `db:"title"`
	Unit            string `db:"unit"`
	Quantity        int    `db:"quantity"`
	PriceAtPurchase int64  `db:"price_at_purchase"`
}

type eventRow struct {
	ID        int64  `db:"id"`
	OrderID   string `db:"order_id"`
	Status    string `db:"status"`
	Source    string `db:"source"`
	Note      string `db:"note"`
	TraceID   string `db:"trace_id"`
	SpanID    string `db:"span_id"`
	CreatedAt string `db:"created_at"`
}

func (s *Store) SaveOrder(ctx context.Context, c order.Confirmation) (err error) {
	ctx, span := startSpan(ctx, "SaveOrder", attribute.String("order.id", c.OrderID))
	defer func() { endSpan(span, err) }()

	if err := c.Validate(); err != nil {
		return fmt.Errorf("sqlite: save order: %w", err)
	}

	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		var exists int
		if err := tx.GetContext(ctx, &exists, `SELECT COUNT(1) FROM orders WHERE id = ?`, c.OrderID); err != nil {
			return fmt.Errorf("sqlite: check order %q: %w", c.OrderID, err)
		}
		if exists > 0 {
			return fmt.Errorf("sqlite: save order %q: %w", c.OrderID, orderstore.ErrDuplicateOrder)
		}

		const insertOrder = `
			INSERT INTO orders
				(id, customer_name, phone, address, status, total_amount, delivery_charge,
				 discount_amount, subtotal, estimated_delivery, payment_method, coupon_code, created_at)
			VALUES
				(:id, :customer_name, :phone, :address, :status, :total_amount, :delivery_charge,
				 :discount_amount, :subtotal, :estimated_delivery, :payment_method, :coupon_code, :created_at)`
		if _, err := tx.NamedExecContext(ctx, insertOrder, toOrderRow(c)); err != nil {
			return fmt.Errorf("sqlite: insert order %q: %w", c.OrderID, err)
		}

		const insertItem = `
			INSERT INTO order_items (order_id, product_id, title, unit, quantity, price_at_purchase)
			VALUES (:order_id, :product_id, :title, :unit, :quantity, :price_at_purchase)`
		for _, it := range c.Items {
			if _, err := tx.NamedExecContext(ctx, insertItem, toItemRow(c.OrderID, it)); err != nil {
				return fmt.Errorf("sqlite: insert item %q of order %q: %w", it.ID, c.OrderID, err)
			}
		}

		return insertEvent(ctx, tx, orderstore.NewEvent(ctx, c.OrderID, c.Status, orderstore.SourceCheckout, "order placed"))
	})
}

func (s *Store) FindOrder(ctx context.Context, id string) (c order.Confirmation, err error) {
	ctx, span := startSpan(ctx, "FindOrder", attribute.String("order.id", id))
	defer func() { endSpan(span, err) }()

	var row orderRow
	err = s.db.GetContext(ctx, &row, `SELECT * FROM orders WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return order.Confirmation{}, fmt.Errorf("sqlite: find order %q: %w", id, orderstore.ErrOrderNotFound)
	}
	if err != nil {
		return order.Confirmation{}, fmt.Errorf("sqlite: find order %q: %w", id, err)
	}

	var items []itemRow
	if err := s.db.SelectContext(ctx, &items, `SELECT * FROM order_items WHERE order_id = ? ORDER BY id`, id); err != nil {
		return order.Confirmation{}, fmt.Errorf("sqlite: items of order %q: %w", id, err)
	}
	return fromRows(row, items)
}

func (s *Store) UpdateStatus(ctx context.Context, id string, next order.Status, source, note string) (c order.Confirmation, err error) {
	ctx, span := startSpan(ctx, "UpdateStatus",
		attribute.String("order.id", id), attribute.String("order.status", next.String()))
	defer func() { endSpan(span, err) }()

	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		var current string
		err := tx.GetContext(ctx, &current, `SELECT status FROM orders WHERE id = ?`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("sqlite: update order %q: %w", id, orderstore.ErrOrderNotFound)
		}
		if err != nil {
			return fmt.Errorf("sqlite: read status of %q: %w", id, err)
		}
		if !order.Status(current).CanTransitionTo(next) {
			return fmt.Errorf("sqlite: order %q %s -> %s: %w", id, current, next, order.ErrIllegalTransit)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, string(next), id); err != nil {
			return fmt.Errorf("sqlite: update status of %q: %w", id, err)
		}
		return insertEvent(ctx, tx, orderstore.NewEvent(ctx, id, next, source, note))
	})
	if err != nil {
		return order.Confirmation{}, err
	}
	return s.FindOrder(ctx, id)
}

func (s *Store) DeleteOrder(ctx context.Context, id string) (err error) {
	ctx, span := startSpan(ctx, "DeleteOrder", attribute.String("order.id", id))
	defer func() { endSpan(span, err) }()

	res, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete order %q: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("sqlite: delete order %q: %w", id, orderstore.ErrOrderNotFound)
	}
	return nil
}

func (s *Store) OrderEvents(ctx context.Context, id string) ([]orderstore.Event, error) {
	var rows []eventRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM order_events WHERE order_id = ? ORDER BY id`, id); err != nil {
		return nil, fmt.Errorf("sqlite: events of order %q: %w", id, err)
	}
	out := make([]orderstore.Event, 0, len(rows))
	for _, r := range rows {
		createdAt, err := parseTime(r.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, orderstore.Event{
			ID:        r.ID,
			OrderID:   r.OrderID,
			Status:    order.Status(r.Status),
			Source:    r.Source,
			Note:      r.Note,
			TraceID:   r.TraceID,
			SpanID:    r.SpanID,
			CreatedAt: createdAt,
		})
	}
	return out, nil
}

func insertEvent(ctx context.Context, tx *sqlx.Tx, e orderstore.Event) error {
	const q = `
		INSERT INTO order_events (order_id, status, source, note, trace_id, span_id, created_at)
		VALUES (:order_id, :status, :source, :note, :trace_id, :span_id, :created_at)`
	_, err := tx.NamedExecContext(ctx, q, eventRow{
		OrderID:   e.OrderID,
		Status:    string(e.Status),
		Source:    e.Source,
		Note:      e.Note,
		TraceID:   e.TraceID,
		SpanID:    e.SpanID,
		CreatedAt: formatTime(e.CreatedAt),
	})
	if err != nil {
		return fmt.Errorf("sqlite: insert event for %q: %w", e.OrderID, err)
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

func toOrderRow(c order.Confirmation) orderRow {
	placedAt := c.PlacedAt
	if placedAt.IsZero() {
		placedAt = time.Now()
	}
	return orderRow{
		ID:                c.OrderID,
		CustomerName:      c.CustomerName,
		Phone:             c.Phone,
		Address:           c.ShippingAddress,
		Status:            string(c.Status),
		TotalAmount:       money.ToMinor(c.TotalPayable),
		DeliveryCharge:    money.ToMinor(c.DeliveryCharge),
		DiscountAmount:    money.ToMinor(c.DiscountAmount),
		Subtotal:          money.ToMinor(c.Subtotal),
		EstimatedDelivery: c.EstimatedDelivery,
		PaymentMethod:     c.PaymentMethod,
		CouponCode:        c.CouponCode,
		CreatedAt:         formatTime(placedAt),
	}
}

func toItemRow(orderID string, it cart.Item) itemRow {
	var unit string
	if len(it.Options) > 0 {
		unit = it.DefaultOption().Unit
	}
	return itemRow{
		OrderID:         orderID,
		ProductID:       it.ID,
		Title:           it.Title,
		Unit:            unit,
		Quantity:        it.Quantity,
		PriceAtPurchase: money.ToMinor(it.Price),
	}
}

func fromRows(row orderRow, items []itemRow) (order.Confirmation, error) {
	placedAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return order.Confirmation{}, err
	}
	c := order.Confirmation{
		OrderID:           row.ID,
		Status:            order.Status(row.Status),
		CustomerName:      row.CustomerName,
		Phone:             row.Phone,
		ShippingAddress:   row.Address,
		EstimatedDelivery: row.EstimatedDelivery,
		Items:             make([]cart.Item, 0, len(items)),
		Subtotal:          money.FromMinor(row.Subtotal),
		DeliveryCharge:    money.FromMinor(row.DeliveryCharge),
		DiscountAmount:    money.FromMinor(row.DiscountAmount),
		TotalPayable:      money.FromMinor(row.TotalAmount),
		PaymentMethod:     row.PaymentMethod,
		CouponCode:        row.CouponCode,
		PlacedAt:          placedAt,
	}
	for _, it := range items {
		price := money.FromMinor(it.PriceAtPurchase)
		c.Items = append(c.Items, cart.Item{
			Product: catalog.Product{
				ID:      it.ProductID,
				Title:   it.Title,
				Price:   price,
				Options: []catalog.ProductOption{{Unit: it.Unit, Price: price}},
			},
			Quantity: it.Quantity,
		})
	}
	return order.New(c)
}
