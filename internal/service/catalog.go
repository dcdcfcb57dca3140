package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/storage"
)

type CatalogService interface {
	ListProducts(ctx context.Context) ([]*models.Product, error)
	ListFeaturedProducts(ctx context.Context) ([]*models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.ProductWithVariants, error)
	CreateProduct(ctx context.Context, p models.Product) (*models.Product, error)
	AddVariantStock(ctx context.Context, v models.ProductVariant) (*models.ProductVariant, error)
	ListSizes(ctx context.Context) ([]models.Size, error)
	CreateSize(ctx context.Context, sizeType string) (*models.Size, error)
}

type catalogService struct {
	log         *slog.Logger
	productRepo storage.ProductStorage
	variantRepo storage.VariantStorage
	sizeRepo    storage.SizeStorage
}

func NewCatalogService(
	log *slog.Logger,
	productRepo storage.ProductStorage,
	variantRepo storage.VariantStorage,
	sizeRepo storage.SizeStorage,
) CatalogService {
	return &catalogService{
		log:         log,
		productRepo: productRepo,
		variantRepo: variantRepo,
		sizeRepo:    sizeRepo,
	}
}

func (s *catalogService) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return s.listProducts(ctx, "service.CatalogService.ListProducts", s.productRepo.ListProducts)
}

func (s *catalogService) ListFeaturedProducts(ctx context.Context) ([]*models.Product, error) {
	return s.listProducts(ctx, "service.CatalogService.ListFeaturedProducts", s.productRepo.ListFeaturedProducts)
}

func (s *catalogService) listProducts(
	ctx context.Context,
	op string,
	list func(context.Context) ([]*models.Product, error),
) ([]*models.Product, error) {
	products, err := list(ctx)
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
	}
	if products == nil {
		products = []*models.Product{}
	}
	return products, nil
}

// GetProduct возвращает товар со всеми вариантами и названиями размеров.
func (s *catalogService) GetProduct(ctx context.Context, id int64) (*models.ProductWithVariants, error) {
	const op = "service.CatalogService.GetProduct"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", id))

	product, err := s.productRepo.FindProduct(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
	}

	variants, err := s.variantRepo.ListVariantsByProduct(ctx, id)
	if err != nil {
		logger.Error("failed to list variants", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
	}
	if variants == nil {
		variants = []models.ProductVariant{}
	}

	return &models.ProductWithVariants{Product: *product, Variants: variants}, nil
}

// AddVariantStock создаёт вариант (товар, размер, цвет) или увеличивает его остаток.
func (s *catalogService) AddVariantStock(ctx context.Context, v models.ProductVariant) (*models.ProductVariant, error) {
	const op = "service.CatalogService.AddVariantStock"
	v.Color = strings.TrimSpace(v.Color)
	logger := s.log.With(
		slog.String("op", op),
		slog.Int64("productID", v.ProductID),
		slog.Int64("sizeID", v.SizeID),
		slog.String("color", v.Color),
		slog.Int("quantity", v.Quantity),
	)

	if v.Quantity <= 0 {
		return nil, fmt.Errorf("%s: %w: quantity must be a positive integer", op, ErrValidation)
	}
	if v.Color == "" {
		return nil, fmt.Errorf("%s: %w: color is required", op, ErrValidation)
	}

	out, err := s.variantRepo.UpsertVariant(ctx, &v)
	if err != nil {
		if errors.Is(err, storage.ErrReferenceNotFound) {
			return nil, fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
		}
		logger.Error("failed to upsert variant", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
	}

	logger.Info("variant stock updated", slog.Int64("variantID", out.ID), slog.Int("stock", out.Quantity))
	return out, nil
}

// CreateProduct заводит карточку товара. Остатков у нового товара нет, их добавляет AddVariantStock.
func (s *catalogService) CreateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	const op = "service.CatalogService.CreateProduct"
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	logger := s.log.With(slog.String("op", op), slog.String("name", p.Name))

	if p.Name == "" {
		return nil, fmt.Errorf("%s: %w: name is required", op, ErrValidation)
	}
	if p.Price.IsNegative() {
		return nil, fmt.Errorf("%s: %w: price must not be negative", op, ErrValidation)
	}
	p.Price = p.Price.Round(2)

	out, err := s.productRepo.CreateProduct(ctx, &p)
	if err != nil {
		if errors.Is(err, storage.ErrReferenceNotFound) {
			return nil, fmt.Errorf("%s: %w: category: %w", op, ErrNotFound, err)
		}
		logger.Error("failed to create product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
	}

	logger.Info("product created", slog.Int64("productID", out.ID))
	return out, nil
}

func (s *catalogService) ListSizes(ctx context.Context) ([]models.Size, error) {
	const op = "service.CatalogService.ListSizes"

	sizes, err := s.sizeRepo.ListSizes(ctx)
	if err != nil {
		s.log.Error("failed to list sizes", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
	}
	if sizes == nil {
		sizes = []models.Size{}
	}
	return sizes, nil
}

// CreateSize добавляет размер в справочник; повтор того же названия - ErrConflict.
func (s *catalogService) CreateSize(ctx context.Context, sizeType string) (*models.Size, error) {
	const op = "service.CatalogService.CreateSize"
	sizeType = strings.TrimSpace(sizeType)
	logger := s.log.With(slog.String("op", op), slog.String("size", sizeType))

	if sizeType == "" {
		return nil, fmt.Errorf("%s: %w: size type is required", op, ErrValidation)
	}

	size, err := s.sizeRepo.CreateSize(ctx, &models.Size{Type: sizeType})
	if err != nil {
		if errors.Is(err, storage.ErrSizeExists) {
			logger.Warn("size already exists")
			return nil, fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
		}
		logger.Error("failed to create size", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
	}

	logger.Info("size created", slog.Int64("sizeID", size.ID))
	return size, nil
}
