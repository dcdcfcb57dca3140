package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/linemk/storefront/internal/domain/models"
)

var ErrSizeExists = errors.New("size already exists")

// SizeStorage - справочник размеров, общий для всех товаров
type SizeStorage interface {
	CreateSize(ctx context.Context, size *models.Size) (*models.Size, error)
	ListSizes(ctx context.Context) ([]models.Size, error)
}

type sizeRepository struct {
	db *sql.DB
}

func NewSizeRepository(db *sql.DB) SizeStorage {
	return &sizeRepository{db: db}
}

func (r *sizeRepository) CreateSize(ctx context.Context, size *models.Size) (*models.Size, error) {
	err := r.db.QueryRowContext(ctx, "INSERT INTO sizes (type) VALUES ($1) RETURNING id", size.Type).Scan(&size.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return nil, ErrSizeExists
		}
		return nil, fmt.Errorf("failed to create size: %w", err)
	}
	return size, nil
}

func (r *sizeRepository) ListSizes(ctx context.Context) ([]models.Size, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, type FROM sizes ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query sizes: %w", err)
	}
	defer rows.Close()

	var sizes []models.Size
	for rows.Next() {
		var s models.Size
		if err := rows.Scan(&s.ID, &s.Type); err != nil {
			return nil, fmt.Errorf("failed to scan size: %w", err)
		}
		sizes = append(sizes, s)
	}
	return sizes, rows.Err()
}
