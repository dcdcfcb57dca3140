package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	_ "github.com/lib/pq"

	"github.com/linemk/storefront/internal/config"
	"github.com/linemk/storefront/internal/service"
	"github.com/linemk/storefront/internal/storage"
)

type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	DB       *sql.DB
	Services Services
}

// DSN собирает строку подключения к PostgreSQL из конфига
func DSN(db config.DatabaseConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(db.User, db.Password),
		Host:     fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:     db.Name,
		RawQuery: "sslmode=" + db.SSLMode,
	}
	return u.String()
}

// NewApp подключается к БД и собирает репозитории и сервисы
func NewApp(log *slog.Logger, cfg *config.Config) (*App, error) {
	db, err := sql.Open("postgres", DSN(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &App{
		Config:   cfg,
		Logger:   log,
		DB:       db,
		Services: NewServices(log, db, cfg.JWT),
	}, nil
}

// NewServices - репозитории поверх db и сервисы поверх репозиториев
func NewServices(log *slog.Logger, db *sql.DB, jwtCfg config.JWTConfig) Services {
	userRepo := storage.NewUserRepository(db)
	productRepo := storage.NewProductRepository(db)
	variantRepo := storage.NewVariantRepository(db)
	orderRepo := storage.NewOrderRepository(db)
	sizeRepo := storage.NewSizeRepository(db)
	txRunner := storage.NewTxRunner(db)

	return Services{
		Auth:    service.NewAuthService(log, userRepo, jwtCfg.TTL(), jwtCfg.Secret),
		Orders:  service.NewOrderService(log, txRunner, orderRepo, variantRepo, productRepo),
		Catalog: service.NewCatalogService(log, productRepo, variantRepo, sizeRepo),
	}
}
