package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/service"
)

// SetAdminRequest: is_admin обязателен, false снимает права
type SetAdminRequest struct {
	IsAdmin *bool `json:"is_admin" validate:"required"`
}

type SetAdminResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

// SetAdminHandler - PATCH /api/users/{id}/admin, только для администратора
func SetAdminHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.SetAdminHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := idParam(r, "id")
		if !ok {
			writeError(logger, w, http.StatusBadRequest, "invalid user id", nil)
			return
		}

		var req SetAdminRequest
		if err := decodeBody(r, &req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(logger, w, http.StatusBadRequest, "invalid request", err)
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(logger, w, http.StatusBadRequest, "is_admin must be a boolean", err)
			return
		}

		user, err := authService.SetAdmin(r.Context(), userID, *req.IsAdmin)
		if err != nil {
			status := statusFor(err)
			if status == http.StatusNotFound {
				writeError(logger, w, status, "user not found", nil)
				return
			}
			logger.Error("failed to update user role", slog.Any("error", err))
			writeError(logger, w, status, "failed to update user role", err)
			return
		}
		writeJSON(logger, w, http.StatusOK, SetAdminResponse{Message: "user updated successfully", User: user})
	}
}
