package services

import (
	"context"
	"fmt"

	"github.com/nutritracker/client/internal/models"
	"go.uber.org/zap"
)

// AdminRepository is the interface that wraps methods for user administration
type AdminRepository interface {
	// Method ListUsers retrieves all users.
	//
	// "admin" parameter is the session of the acting administrator.
	ListUsers(ctx context.Context, admin *models.Session) ([]models.UserListItem, error)
	// Method DeleteUser deletes a user with all of their records.
	//
	// If no user with "userID" exists, an error matching models.IsNotFound will be returned.
	DeleteUser(ctx context.Context, admin *models.Session, userID int) error
	// Method UpdateUser applies the non-nil fields of "req" to a user.
	//
	// Renaming to a taken username returns a *models.DuplicateUserError (local storage)
	// or the backend rejection (remote storage).
	UpdateUser(ctx context.Context, admin *models.Session, userID int, req *models.UpdateUserRequest) error
}

type adminService struct {
	repo   AdminRepository
	logger *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(repo AdminRepository, logger *zap.Logger) *adminService {
	return &adminService{
		repo:   repo,
		logger: logger,
	}
}

// requireAdmin gates admin operations on the session flag
func requireAdmin(session *models.Session) error {
	if session == nil {
		return models.ErrNotAuthenticated
	}
	if !session.IsAdmin {
		return &models.ForbiddenError{}
	}
	return nil
}

// Users retrieves the user list for the admin dashboard
func (s *adminService) Users(ctx context.Context, session *models.Session) ([]models.UserListItem, error) {
	if err := requireAdmin(session); err != nil {
		return nil, err
	}

	users, err := s.repo.ListUsers(ctx, session)
	if err != nil {
		s.logger.Error("failed to list users", zap.Int("adminID", session.UserID), zap.Error(err))
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return users, nil
}

// DeleteUser deletes a user; administrators cannot delete themselves
func (s *adminService) DeleteUser(ctx context.Context, session *models.Session, userID int) error {
	if err := requireAdmin(session); err != nil {
		return err
	}
	if userID <= 0 {
		return &models.ValidationError{Message: fmt.Sprintf("Invalid user id: %d.", userID)}
	}
	if userID == session.UserID {
		return &models.ValidationError{Message: "You cannot delete your own account."}
	}

	if err := s.repo.DeleteUser(ctx, session, userID); err != nil {
		s.logger.Error("failed to delete user", zap.Int("adminID", session.UserID), zap.Int("userID", userID), zap.Error(err))
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("user deleted", zap.Int("adminID", session.UserID), zap.Int("userID", userID))
	return nil
}

// ModifyUser applies an admin modification to a user
//
// Administrators may change their own password and targets but not their name or admin flag.
func (s *adminService) ModifyUser(ctx context.Context, session *models.Session, userID int, req *models.UpdateUserRequest) error {
	if err := requireAdmin(session); err != nil {
		return err
	}
	if userID <= 0 {
		return &models.ValidationError{Message: fmt.Sprintf("Invalid user id: %d.", userID)}
	}
	if req == nil || req.IsEmpty() {
		return &models.ValidationError{Message: "Nothing to update."}
	}
	if userID == session.UserID {
		// The bound session carries the name and admin flag
		if req.Username != nil && *req.Username != session.Username {
			return &models.ValidationError{Message: "You cannot rename your own account."}
		}
		if req.IsAdmin != nil && !*req.IsAdmin {
			return &models.ValidationError{Message: "You cannot remove your own admin access."}
		}
	}

	if err := s.repo.UpdateUser(ctx, session, userID, req); err != nil {
		s.logger.Error("failed to update user", zap.Int("adminID", session.UserID), zap.Int("userID", userID), zap.Error(err))
		return fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("user updated", zap.Int("adminID", session.UserID), zap.Int("userID", userID))
	return nil
}
