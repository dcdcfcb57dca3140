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
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderItemNotFound = errors.New("order item not found")
)

// OrderStorage описывает методы для работы с заказами и их позициями.
type OrderStorage interface {
	// CreateOrder вставляет шапку заказа, заполняет ID и метки времени.
	CreateOrder(ctx context.Context, tx *sql.Tx, order *models.Order) error
	// CreateOrderItem вставляет позицию заказа с ценой на момент покупки, заполняет ID.
	CreateOrderItem(ctx context.Context, tx *sql.Tx, item *models.OrderItem) error
	// LockOrderStatus блокирует строку заказа до конца транзакции и возвращает его текущий статус.
	LockOrderStatus(ctx context.Context, tx *sql.Tx, id int64) (models.OrderStatus, error)
	// DeleteOrderItem удаляет позицию; если её уже нет - ErrOrderItemNotFound.
	DeleteOrderItem(ctx context.Context, tx *sql.Tx, id int64) error
	// DeleteOrder удаляет шапку заказа; если её уже нет - ErrOrderNotFound.
	DeleteOrder(ctx context.Context, tx *sql.Tx, id int64) error
	// GetOrder возвращает заказ с позициями. Если ownerID != nil, ищет только среди заказов этого пользователя.
	GetOrder(ctx context.Context, id int64, ownerID *int64) (*models.Order, error)
	GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error)
	GetAllOrders(ctx context.Context) ([]*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error)
}

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

const orderSelect = `
	SELECT o.id, o.user_id, u.email, o.shipping_address, o.total_amount, o.status, o.created_at, o.updated_at
	FROM orders o
	JOIN users u ON u.id = o.user_id`

func scanOrder(row rowScanner) (*models.Order, error) {
	o := &models.Order{}
	if err := row.Scan(&o.ID, &o.UserID, &o.UserEmail, &o.ShippingAddress, &o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *orderRepository) CreateOrder(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	query := `INSERT INTO orders (user_id, shipping_address, total_amount, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, NOW(), NOW()) RETURNING id, created_at, updated_at`
	err := tx.QueryRowContext(ctx, query, order.UserID, order.ShippingAddress, order.TotalAmount, order.Status).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *orderRepository) CreateOrderItem(ctx context.Context, tx *sql.Tx, item *models.OrderItem) error {
	query := `INSERT INTO order_items (order_id, product_size_id, quantity, price, subtotal)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := tx.QueryRowContext(ctx, query, item.OrderID, item.ProductVariantID, item.Quantity, item.UnitPrice, item.Subtotal).
		Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("failed to create order item: %w", err)
	}
	return nil
}

func (r *orderRepository) LockOrderStatus(ctx context.Context, tx *sql.Tx, id int64) (models.OrderStatus, error) {
	var status models.OrderStatus
	err := tx.QueryRowContext(ctx, "SELECT status FROM orders WHERE id = $1 FOR UPDATE", id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrOrderNotFound
		}
		return "", fmt.Errorf("failed to lock order: %w", err)
	}
	return status, nil
}

func deleteByID(ctx context.Context, tx *sql.Tx, query string, id int64, notFound error) error {
	res, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

func (r *orderRepository) DeleteOrderItem(ctx context.Context, tx *sql.Tx, id int64) error {
	if err := deleteByID(ctx, tx, "DELETE FROM order_items WHERE id = $1", id, ErrOrderItemNotFound); err != nil {
		return fmt.Errorf("failed to delete order item: %w", err)
	}
	return nil
}

func (r *orderRepository) DeleteOrder(ctx context.Context, tx *sql.Tx, id int64) error {
	if err := deleteByID(ctx, tx, "DELETE FROM orders WHERE id = $1", id, ErrOrderNotFound); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

func (r *orderRepository) GetOrder(ctx context.Context, id int64, ownerID *int64) (*models.Order, error) {
	query := orderSelect + " WHERE o.id = $1"
	args := []any{id}
	if ownerID != nil {
		query += " AND o.user_id = $2"
		args = append(args, *ownerID)
	}

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if err := r.attachItems(ctx, []*models.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	return r.listOrders(ctx, orderSelect+" WHERE o.user_id = $1 ORDER BY o.created_at DESC", userID)
}

func (r *orderRepository) GetAllOrders(ctx context.Context) ([]*models.Order, error) {
	return r.listOrders(ctx, orderSelect+" ORDER BY o.created_at DESC")
}

func (r *orderRepository) UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2", status, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrOrderNotFound
	}
	return r.GetOrder(ctx, id, nil)
}

func (r *orderRepository) listOrders(ctx context.Context, query string, args ...any) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems одним запросом подтягивает позиции для всех заказов вместе с вариантом и товаром.
// Цена берётся из позиции, текущая цена товара на старые заказы не влияет.
func (r *orderRepository) attachItems(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[int64]*models.Order, len(orders))
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	query := `
		SELECT oi.id, oi.order_id, oi.product_size_id, oi.quantity, oi.subtotal, oi.price,
		       p.id, p.name, s.type, ps.color
		FROM order_items oi
		JOIN product_sizes ps ON ps.id = oi.product_size_id
		JOIN products p ON p.id = ps.product_id
		JOIN sizes s ON s.id = ps.size_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductVariantID, &it.Quantity, &it.Subtotal, &it.UnitPrice,
			&it.ProductID, &it.ProductName, &it.SizeType, &it.Color); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if o, ok := byID[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}
