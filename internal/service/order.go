package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/storage"
)

// OrderService - жизненный цикл заказа: оформление, просмотр, смена статуса, отмена.
type OrderService interface {
	PlaceOrder(ctx context.Context, userID int64, addr models.ShippingAddress, lines []models.Line) (*models.Order, error)
	GetMyOrders(ctx context.Context, userID int64) ([]*models.Order, error)
	GetAllOrders(ctx context.Context) ([]*models.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status string) (*models.Order, error)
	CancelOrder(ctx context.Context, orderID int64, who models.Identity) error
}

type orderService struct {
	log         *slog.Logger
	tx          storage.TxRunner
	orderRepo   storage.OrderStorage
	variantRepo storage.VariantStorage
	stock       *StockValidator
}

func NewOrderService(
	log *slog.Logger,
	tx storage.TxRunner,
	orderRepo storage.OrderStorage,
	variantRepo storage.VariantStorage,
	productRepo storage.ProductStorage,
) OrderService {
	return &orderService{
		log:         log,
		tx:          tx,
		orderRepo:   orderRepo,
		variantRepo: variantRepo,
		stock:       NewStockValidator(variantRepo, productRepo),
	}
}

// PlaceOrder проверяет остатки, считает суммы и в одной транзакции создаёт заказ,
// его позиции и списывает остатки. При любой ошибке внутри транзакции откатывается всё.
func (s *orderService) PlaceOrder(ctx context.Context, userID int64, addr models.ShippingAddress, lines []models.Line) (*models.Order, error) {
	const op = "service.OrderService.PlaceOrder"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int("lines", len(lines)))
	logger.Info("placing order")

	lines, err := normalizeLines(lines)
	if err != nil {
		logger.Warn("malformed order lines", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	validated, err := s.stock.Validate(ctx, lines)
	if err != nil {
		logger.Warn("stock validation failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	priced, total := PriceLines(validated)

	order := &models.Order{
		UserID:          userID,
		ShippingAddress: addr.String(),
		TotalAmount:     total,
		Status:          models.StatusPending,
	}

	err = s.tx.RunInTx(ctx, func(tx *sql.Tx) error {
		if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(priced))
		for _, line := range priced {
			item := models.OrderItem{
				OrderID:          order.ID,
				ProductVariantID: line.VariantID,
				Quantity:         line.Quantity,
				Subtotal:         line.Subtotal,
				ProductID:        line.ProductID,
				UnitPrice:        line.UnitPrice,
				Color:            line.Color,
			}
			if err := s.orderRepo.CreateOrderItem(ctx, tx, &item); err != nil {
				return err
			}
			items = append(items, item)
		}

		// остаток мог измениться после проверки, поэтому списание условное
		for _, line := range priced {
			if _, err := s.variantRepo.DecrementVariantQuantity(ctx, tx, line.VariantID, line.Quantity); err != nil {
				return fmt.Errorf("variant %d: %w", line.VariantID, err)
			}
		}

		order.Items = items
		return nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrInsufficientStock) {
			logger.Warn("stock changed before write", slog.Any("error", err))
			return nil, fmt.Errorf("%s: %w: %w", op, ErrInsufficientStock, err)
		}
		logger.Error("failed to write order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
	}

	logger.Info("order placed", slog.Int64("orderID", order.ID), slog.String("total", order.TotalAmount.StringFixed(2)))
	return order, nil
}

// normalizeLines проверяет форму позиций до обращения к БД и возвращает копию
// с обрезанными пробелами в цвете: варианты хранятся с уже обрезанным цветом.
func normalizeLines(lines []models.Line) ([]models.Line, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: at least one product is required", ErrValidation)
	}
	out := make([]models.Line, len(lines))
	for i, l := range lines {
		l.Color = strings.TrimSpace(l.Color)
		switch {
		case l.ProductID <= 0:
			return nil, fmt.Errorf("%w: line %d: product id is required", ErrValidation, i)
		case l.SizeID <= 0:
			return nil, fmt.Errorf("%w: line %d: size id is required", ErrValidation, i)
		case l.Color == "":
			return nil, fmt.Errorf("%w: line %d: color is required", ErrValidation, i)
		case l.Quantity <= 0:
			return nil, fmt.Errorf("%w: line %d: quantity must be a positive integer", ErrValidation, i)
		}
		out[i] = l
	}
	return out, nil
}

func (s *orderService) GetMyOrders(ctx context.Context, userID int64) ([]*models.Order, error) {
	const op = "service.OrderService.GetMyOrders"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	orders, err := s.orderRepo.GetOrdersByUserID(ctx, userID)
	if err != nil {
		logger.Error("failed to get orders", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("%s: %w: no orders found for the user", op, ErrNotFound)
	}
	return orders, nil
}

func (s *orderService) GetAllOrders(ctx context.Context) ([]*models.Order, error) {
	const op = "service.OrderService.GetAllOrders"

	orders, err := s.orderRepo.GetAllOrders(ctx)
	if err != nil {
		s.log.Error("failed to get all orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	return orders, nil
}

// UpdateStatus ставит любой статус из списка; таблицы допустимых переходов нет.
func (s *orderService) UpdateStatus(ctx context.Context, orderID int64, status string) (*models.Order, error) {
	const op = "service.OrderService.UpdateStatus"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", orderID), slog.String("status", status))

	next, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, fmt.Errorf("%s: %w: unknown order status %q", op, ErrValidation, status)
	}

	current, err := s.orderRepo.GetOrder(ctx, orderID, nil)
	if err != nil {
		return nil, s.lookupError(logger, op, err)
	}
	if current.Status.IsTerminal() && current.Status != next {
		logger.Warn("order leaves terminal status", slog.String("from", string(current.Status)))
	}

	order, err := s.orderRepo.UpdateOrderStatus(ctx, orderID, next)
	if err != nil {
		return nil, s.lookupError(logger, op, err)
	}

	logger.Info("order status updated")
	return order, nil
}

// CancelOrder возвращает остатки на склад и удаляет позиции и сам заказ одной транзакцией.
// Пользователь видит только свои заказы, отправленный заказ может отменить только администратор.
func (s *orderService) CancelOrder(ctx context.Context, orderID int64, who models.Identity) error {
	const op = "service.OrderService.CancelOrder"
	logger := s.log.With(
		slog.String("op", op),
		slog.Int64("orderID", orderID),
		slog.Int64("userID", who.UserID),
		slog.Bool("admin", who.IsAdmin),
	)
	logger.Info("canceling order")

	var ownerID *int64
	if !who.IsAdmin {
		ownerID = &who.UserID
	}

	order, err := s.orderRepo.GetOrder(ctx, orderID, ownerID)
	if err != nil {
		return s.lookupError(logger, op, err)
	}
	if len(order.Items) == 0 {
		return fmt.Errorf("%s: %w: order has no items", op, ErrNotFound)
	}

	if !order.Status.CanBeCanceledBy(who.IsAdmin) {
		logger.Warn("non-admin tried to cancel shipped order")
		return fmt.Errorf("%s: %w: cannot cancel a shipped order", op, ErrForbidden)
	}

	err = s.tx.RunInTx(ctx, func(tx *sql.Tx) error {
		// статус мог смениться после чтения заказа, перечитываем под блокировкой строки
		status, err := s.orderRepo.LockOrderStatus(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if !status.CanBeCanceledBy(who.IsAdmin) {
			return fmt.Errorf("%w: cannot cancel a shipped order", ErrForbidden)
		}

		for _, item := range order.Items {
			if err := s.variantRepo.IncrementVariantQuantity(ctx, tx, item.ProductVariantID, item.Quantity); err != nil {
				return fmt.Errorf("restock variant %d: %w", item.ProductVariantID, err)
			}
			// удаление - точка сериализации: параллельная отмена увидит 0 строк и откатится
			if err := s.orderRepo.DeleteOrderItem(ctx, tx, item.ID); err != nil {
				return err
			}
		}
		return s.orderRepo.DeleteOrder(ctx, tx, order.ID)
	})
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			logger.Warn("order was shipped before cancellation")
			return fmt.Errorf("%s: %w", op, err)
		}
		if errors.Is(err, storage.ErrOrderItemNotFound) || errors.Is(err, storage.ErrOrderNotFound) {
			logger.Warn("order disappeared during cancellation", slog.Any("error", err))
			return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
		}
		logger.Error("failed to cancel order", slog.Any("error", err))
		return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
	}

	logger.Info("order canceled")
	return nil
}

func (s *orderService) lookupError(logger *slog.Logger, op string, err error) error {
	if errors.Is(err, storage.ErrOrderNotFound) {
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	}
	logger.Error("failed to get order", slog.Any("error", err))
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
