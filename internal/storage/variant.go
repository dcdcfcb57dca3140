package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/linemk/storefront/internal/domain/models"
)

var (
	ErrVariantNotFound   = errors.New("product variant not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrReferenceNotFound - товар, размер или категория, на которые ссылается запись, не существуют
	ErrReferenceNotFound = errors.New("referenced record not found")
)

// VariantStorage описывает работу с остатками (таблица product_sizes).
type VariantStorage interface {
	// FindVariant ищет вариант по (товар, размер, цвет).
	FindVariant(ctx context.Context, productID, sizeID int64, color string) (*models.ProductVariant, error)
	// ListVariantsByProduct возвращает все варианты товара с названием размера.
	ListVariantsByProduct(ctx context.Context, productID int64) ([]models.ProductVariant, error)
	// DecrementVariantQuantity списывает остаток, только если его хватает; возвращает новый остаток.
	DecrementVariantQuantity(ctx context.Context, tx *sql.Tx, variantID int64, amount int) (int, error)
	// IncrementVariantQuantity возвращает остаток на склад.
	IncrementVariantQuantity(ctx context.Context, tx *sql.Tx, variantID int64, amount int) error
	// UpsertVariant создаёт вариант или добавляет количество к существующему.
	UpsertVariant(ctx context.Context, v *models.ProductVariant) (*models.ProductVariant, error)
}

type variantRepository struct {
	db *sql.DB
}

func NewVariantRepository(db *sql.DB) VariantStorage {
	return &variantRepository{db: db}
}

func (r *variantRepository) FindVariant(ctx context.Context, productID, sizeID int64, color string) (*models.ProductVariant, error) {
	v := &models.ProductVariant{}
	row := r.db.QueryRowContext(ctx,
		"SELECT id, product_id, size_id, color, quantity FROM product_sizes WHERE product_id = $1 AND size_id = $2 AND color = $3",
		productID, sizeID, color)
	if err := row.Scan(&v.ID, &v.ProductID, &v.SizeID, &v.Color, &v.Quantity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVariantNotFound
		}
		return nil, err
	}
	return v, nil
}

func (r *variantRepository) ListVariantsByProduct(ctx context.Context, productID int64) ([]models.ProductVariant, error) {
	query := `
		SELECT ps.id, ps.product_id, ps.size_id, s.type, ps.color, ps.quantity
		FROM product_sizes ps
		JOIN sizes s ON s.id = ps.size_id
		WHERE ps.product_id = $1
		ORDER BY ps.id`
	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query variants: %w", err)
	}
	defer rows.Close()

	variants := []models.ProductVariant{}
	for rows.Next() {
		var v models.ProductVariant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.SizeID, &v.SizeType, &v.Color, &v.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		variants = append(variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return variants, nil
}

// DecrementVariantQuantity - проверка остатка и списание одним UPDATE,
// параллельные заказы на тот же вариант сериализуются на блокировке строки.
func (r *variantRepository) DecrementVariantQuantity(ctx context.Context, tx *sql.Tx, variantID int64, amount int) (int, error) {
	var left int
	err := tx.QueryRowContext(ctx,
		"UPDATE product_sizes SET quantity = quantity - $1 WHERE id = $2 AND quantity >= $1 RETURNING quantity",
		amount, variantID,
	).Scan(&left)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrInsufficientStock
		}
		return 0, fmt.Errorf("failed to decrement variant quantity: %w", err)
	}
	return left, nil
}

func (r *variantRepository) IncrementVariantQuantity(ctx context.Context, tx *sql.Tx, variantID int64, amount int) error {
	res, err := tx.ExecContext(ctx, "UPDATE product_sizes SET quantity = quantity + $1 WHERE id = $2", amount, variantID)
	if err != nil {
		return fmt.Errorf("failed to increment variant quantity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrVariantNotFound
	}
	return nil
}

func (r *variantRepository) UpsertVariant(ctx context.Context, v *models.ProductVariant) (*models.ProductVariant, error) {
	query := `
		INSERT INTO product_sizes (product_id, size_id, color, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id, size_id, color)
		DO UPDATE SET quantity = product_sizes.quantity + EXCLUDED.quantity
		RETURNING id, product_id, size_id, color, quantity`
	out := &models.ProductVariant{}
	err := r.db.QueryRowContext(ctx, query, v.ProductID, v.SizeID, v.Color, v.Quantity).
		Scan(&out.ID, &out.ProductID, &out.SizeID, &out.Color, &out.Quantity)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			return nil, ErrReferenceNotFound
		}
		return nil, fmt.Errorf("failed to upsert variant: %w", err)
	}
	return out, nil
}
