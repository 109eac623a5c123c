package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jcmexdev/grocery-storefront/internal/catalog"
	"github.com/jcmexdev/grocery-storefront/internal/pkg/money"
)

type productRow struct {
	ID            string        `db:"id"`
	Title         string        `db:"title"`
	TitleBn       string        `db:"title_bn"`
	Description   string        `db:"description"`
	Price         int64         `db:"price"`
	OriginalPrice sql.NullInt64 `db:"original_price"`
	ImageSrc      string        `db:"image_src"`
	ImageAlt      string        `db:"image_alt"`
	DiscountText  string        `db:"discount_text"`
	Stock         int           `db:"stock"`
	Category      string        `db:"category"`
	Features      string        `db:"features"`
	CreatedAt     string        `db:"created_at"`
}

// UpsertProducts inserts or refreshes catalog rows. Stock is never reset.
func (s *Store) UpsertProducts(ctx context.Context, products []catalog.Product) (err error) {
	ctx, span := startSpan(ctx, "UpsertProducts", attribute.Int("products.count", len(products)))
	defer func() { endSpan(span, err) }()

	const q = `
		INSERT INTO products
			(id, title, title_bn, description, price, original_price, image_src, image_alt,
			 discount_text, category, features, created_at)
		VALUES
			(:id, :title, :title_bn, :description, :price, :original_price, :image_src, :image_alt,
			 :discount_text, :category, :features, :created_at)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			title_bn = excluded.title_bn,
			description = excluded.description,
			price = excluded.price,
			original_price = excluded.original_price,
			image_src = excluded.image_src,
			image_alt = excluded.image_alt,
			discount_text = excluded.discount_text,
			category = excluded.category,
			features = excluded.features`

	now := formatTime(time.Now())
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, p := range products {
		row, err := toProductRow(p, now)
		if err != nil {
			return err
		}
		if _, err := tx.NamedExecContext(ctx, q, row); err != nil {
			return fmt.Errorf("sqlite: upsert product %q: %w", p.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit products: %w", err)
	}
	return nil
}

// ProductPrice returns the stored price of a product.
func (s *Store) ProductPrice(ctx context.Context, id string) (int64, error) {
	var price int64
	if err := s.db.GetContext(ctx, &price, `SELECT price FROM products WHERE id = ?`, id); err != nil {
		return 0, fmt.Errorf("sqlite: price of %q: %w", id, err)
	}
	return price, nil
}

func toProductRow(p catalog.Product, createdAt string) (productRow, error) {
	features, err := json.Marshal(p.Features)
	if err != nil {
		return productRow{}, fmt.Errorf("sqlite: encode features of %q: %w", p.ID, err)
	}
	if p.Features == nil {
		features = []byte("[]")
	}
	row := productRow{
		ID:           p.ID,
		Title:        p.Title,
		TitleBn:      p.TitleBn,
		Description:  p.Description,
		Price:        money.ToMinor(p.Price),
		ImageSrc:     p.ImageSrc,
		ImageAlt:     p.ImageAlt,
		DiscountText: p.DiscountText,
		Category:     p.Category,
		Features:     string(features),
		CreatedAt:    createdAt,
	}
	if p.OriginalPrice != nil {
		row.OriginalPrice = sql.NullInt64{Int64: money.ToMinor(*p.OriginalPrice), Valid: true}
	}
	return row, nil
}
