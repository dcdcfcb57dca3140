package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/linemk/storefront/internal/domain/models"
	security "github.com/linemk/storefront/internal/jwt-new"
	"github.com/linemk/storefront/internal/storage"
)

type AuthServiceInterface interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	SetAdmin(ctx context.Context, userID int64, isAdmin bool) (*models.User, error)
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type AuthService struct {
	log      *slog.Logger
	userRepo storage.UserStorage
	tokenTTL time.Duration
	secret   string
}

func NewAuthService(log *slog.Logger, userRepo storage.UserStorage, tokenTTL time.Duration, secret string) *AuthService {
	return &AuthService{
		log:      log,
		userRepo: userRepo,
		tokenTTL: tokenTTL,
		secret:   secret,
	}
}

// Register создаёт обычного пользователя. Пароль хэшируется bcrypt (соль добавляется автоматически).
func (a *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	const op = "service.AuthService.Register"
	email := strings.ToLower(strings.TrimSpace(in.Email))
	logger := a.log.With(slog.String("op", op), slog.String("email", email))
	logger.Info("registering user")

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			logger.Warn("password is too long")
			return nil, fmt.Errorf("%s: %w: %w", op, ErrValidation, err)
		}
		logger.Error("failed to hash password", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	user, err := a.userRepo.CreateUser(ctx, &models.User{
		Email:     email,
		PassHash:  passHash,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			logger.Warn("email already taken")
			return nil, fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
		}
		logger.Error("failed to create user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
	}

	logger.Info("user registered", slog.Int64("userID", user.ID))
	return user, nil
}

// Login сверяет пароль с хэшем и выдаёт JWT-токен.
// Неизвестный email и неверный пароль неразличимы для клиента.
func (a *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	const op = "service.AuthService.Login"
	email = strings.ToLower(strings.TrimSpace(email))
	logger := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)
	logger.Info("checking user")

	user, err := a.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Warn("user not found")
			return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return "", fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		logger.Warn("invalid password")
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := security.NewToken(ctx, user, a.tokenTTL, a.secret)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("user logged in successfully", slog.Int64("userID", user.ID), slog.Bool("admin", user.IsAdmin))
	return token, nil
}

// SetAdmin выдаёт или снимает права администратора. В уже выданных токенах
// claim admin не меняется, новые права действуют после следующего входа.
func (a *AuthService) SetAdmin(ctx context.Context, userID int64, isAdmin bool) (*models.User, error) {
	const op = "service.AuthService.SetAdmin"
	logger := a.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Bool("admin", isAdmin))

	user, err := a.userRepo.SetAdmin(ctx, userID, isAdmin)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
		}
		logger.Error("failed to update user role", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
	}

	logger.Info("user role updated")
	return user, nil
}
