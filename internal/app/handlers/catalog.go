package handlers

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/service"
)

type AddVariantRequest struct {
	SizeID   int64  `json:"size_id" validate:"required,gt=0"`
	Color    string `json:"color" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

// CreateProductRequest - тело POST /api/products, цена с копейками
type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	IsFeatured  bool            `json:"is_featured"`
	CategoryID  *int64          `json:"category_id" validate:"omitempty,gt=0"`
}

type CreateSizeRequest struct {
	Type string `json:"type" validate:"required,max=50"`
}

func ListProductsHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListProductsHandler"
		logger := log.With(slog.String("op", op))

		products, err := catalog.ListProducts(r.Context())
		if err != nil {
			logger.Error("failed to list products", slog.Any("error", err))
			writeError(logger, w, statusFor(err), "failed to list products", err)
			return
		}
		writeJSON(logger, w, http.StatusOK, products)
	}
}

func GetProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetProductHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(r, "id")
		if !ok {
			writeError(logger, w, http.StatusBadRequest, "invalid product id", nil)
			return
		}

		product, err := catalog.GetProduct(r.Context(), id)
		if err != nil {
			status := statusFor(err)
			if status == http.StatusNotFound {
				writeError(logger, w, status, "product not found", nil)
				return
			}
			logger.Error("failed to get product", slog.Any("error", err))
			writeError(logger, w, status, "failed to get product", err)
			return
		}
		writeJSON(logger, w, http.StatusOK, product)
	}
}

// AddVariantHandler - POST /api/products/{id}/variants: завести вариант или пополнить остаток
func AddVariantHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddVariantHandler"
		logger := log.With(slog.String("op", op))

		productID, ok := idParam(r, "id")
		if !ok {
			writeError(logger, w, http.StatusBadRequest, "invalid product id", nil)
			return
		}

		var req AddVariantRequest
		if err := decodeBody(r, &req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(logger, w, http.StatusBadRequest, "invalid request", err)
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(logger, w, http.StatusUnprocessableEntity, "validation error", err)
			return
		}

		variant, err := catalog.AddVariantStock(r.Context(), models.ProductVariant{
			ProductID: productID,
			SizeID:    req.SizeID,
			Color:     req.Color,
			Quantity:  req.Quantity,
		})
		if err != nil {
			status := statusFor(err)
			if status == http.StatusNotFound {
				writeError(logger, w, status, "product or size not found", nil)
				return
			}
			logger.Error("failed to add variant stock", slog.Any("error", err))
			writeError(logger, w, status, "failed to add variant stock", err)
			return
		}
		writeJSON(logger, w, http.StatusOK, variant)
	}
}

func ListFeaturedProductsHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListFeaturedProductsHandler"
		logger := log.With(slog.String("op", op))

		products, err := catalog.ListFeaturedProducts(r.Context())
		if err != nil {
			logger.Error("failed to list featured products", slog.Any("error", err))
			writeError(logger, w, statusFor(err), "failed to list featured products", err)
			return
		}
		writeJSON(logger, w, http.StatusOK, products)
	}
}

// CreateProductHandler - POST /api/products, только для администратора
func CreateProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateProductHandler"
		logger := log.With(slog.String("op", op))

		var req CreateProductRequest
		if err := decodeBody(r, &req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(logger, w, http.StatusBadRequest, "invalid request", err)
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(logger, w, http.StatusUnprocessableEntity, "validation error", err)
			return
		}

		product, err := catalog.CreateProduct(r.Context(), models.Product{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			IsFeatured:  req.IsFeatured,
			CategoryID:  req.CategoryID,
		})
		if err != nil {
			status := statusFor(err)
			if status == http.StatusNotFound {
				writeError(logger, w, status, "category not found", nil)
				return
			}
			logger.Error("failed to create product", slog.Any("error", err))
			writeError(logger, w, status, "failed to create product", err)
			return
		}
		writeJSON(logger, w, http.StatusCreated, product)
	}
}

func ListSizesHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListSizesHandler"
		logger := log.With(slog.String("op", op))

		sizes, err := catalog.ListSizes(r.Context())
		if err != nil {
			logger.Error("failed to list sizes", slog.Any("error", err))
			writeError(logger, w, statusFor(err), "failed to list sizes", err)
			return
		}
		writeJSON(logger, w, http.StatusOK, sizes)
	}
}

// CreateSizeHandler - POST /api/sizes, только для администратора
func CreateSizeHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateSizeHandler"
		logger := log.With(slog.String("op", op))

		var req CreateSizeRequest
		if err := decodeBody(r, &req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(logger, w, http.StatusBadRequest, "invalid request", err)
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(logger, w, http.StatusUnprocessableEntity, "validation error", err)
			return
		}

		size, err := catalog.CreateSize(r.Context(), req.Type)
		if err != nil {
			status := statusFor(err)
			if status == http.StatusConflict {
				writeError(logger, w, status, "size already exists", nil)
				return
			}
			logger.Error("failed to create size", slog.Any("error", err))
			writeError(logger, w, status, "failed to create size", err)
			return
		}
		writeJSON(logger, w, http.StatusCreated, size)
	}
}
