package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/developia-II/feedback-analyzer-backend/internal/apperr"
	"github.com/developia-II/feedback-analyzer-backend/internal/auth"
	"github.com/developia-II/feedback-analyzer-backend/internal/database"
	"github.com/developia-II/feedback-analyzer-backend/internal/models"
)

// AdminService authenticates the administrator and manages its password.
type AdminService struct {
	store  database.AdminStore
	tokens *auth.TokenService
	logger *slog.Logger
}

func NewAdminService(store database.AdminStore, tokens *auth.TokenService, logger *slog.Logger) *AdminService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminService{store: store, tokens: tokens, logger: logger}
}

// Login exchanges admin credentials for a bearer token.
func (s *AdminService) Login(ctx context.Context, username, password string) (*models.TokenResponse, error) {
	admin, err := s.store.GetAdminByUsername(ctx, username)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.New(apperr.KindUnauthorized, "Incorrect username or password")
	}
	if err != nil {
		return nil, storeFailure(err, "load admin")
	}
	if !auth.CheckPassword(admin.PasswordHash, password) {
		s.logger.Warn("failed admin login", "username", username)
		return nil, apperr.New(apperr.KindUnauthorized, "Incorrect username or password")
	}

	token, err := s.tokens.IssueDefault(admin.Username, models.RoleAdmin)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "Failed to generate token")
	}
	return &models.TokenResponse{AccessToken: token, TokenType: "bearer"}, nil
}

func (s *AdminService) ChangePassword(ctx context.Context, username string, req models.ChangePasswordRequest) error {
	admin, err := s.store.GetAdminByUsername(ctx, username)
	if errors.Is(err, database.ErrNotFound) {
		return apperr.New(apperr.KindBadRequest, "Admin not initialized")
	}
	if err != nil {
		return storeFailure(err, "load admin")
	}
	if !auth.CheckPassword(admin.PasswordHash, req.CurrentPassword) {
		return apperr.New(apperr.KindBadRequest, "Current password is incorrect")
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return apperr.Wrap(apperr.KindBadRequest, err,
			fmt.Sprintf("new_password must be at most %d bytes", auth.MaxPasswordBytes))
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "Failed to hash password")
	}
	if err := s.store.UpdateAdminPassword(ctx, admin.Username, hash); err != nil {
		return storeFailure(err, "update admin password")
	}
	s.logger.Info("admin password changed", "username", admin.Username)
	return nil
}
