package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/nutritracker/client/internal/models"
	"go.uber.org/zap"
)

// AccountRepository is the interface that wraps methods for user account access
type AccountRepository interface {
	// Method Register creates a new user with default daily targets.
	//
	// "username" and "password" parameters are already validated and non-empty.
	//
	// If the username is taken, a *models.DuplicateUserError (local storage) or a *models.ServerError
	// carrying the backend message (remote storage) will be returned.
	Register(ctx context.Context, username, password string) error
	// Method Login verifies the credentials and returns the session to bind.
	//
	// If the username is unknown or the password does not match, a *models.InvalidCredentialsError
	// will be returned together with "nil" value.
	Login(ctx context.Context, username, password string) (*models.Session, error)
}

type sessionService struct {
	repo   AccountRepository
	logger *zap.Logger
}

// NewSessionService creates a new session service
func NewSessionService(repo AccountRepository, logger *zap.Logger) *sessionService {
	return &sessionService{
		repo:   repo,
		logger: logger,
	}
}

// credentials trims the username and rejects empty fields before any I/O
func credentials(username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", &models.ValidationError{Message: "Enter username and password."}
	}
	return username, nil
}

// Register validates the credentials and creates the user
func (s *sessionService) Register(ctx context.Context, username, password string) error {
	username, err := credentials(username, password)
	if err != nil {
		return err
	}

	if err := s.repo.Register(ctx, username, password); err != nil {
		s.logger.Info("registration rejected", zap.String("username", username), zap.Error(err))
		return fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info("user registered", zap.String("username", username))
	return nil
}

// Login validates the credentials and returns the session of the authenticated user
func (s *sessionService) Login(ctx context.Context, username, password string) (*models.Session, error) {
	username, err := credentials(username, password)
	if err != nil {
		return nil, err
	}

	session, err := s.repo.Login(ctx, username, password)
	if err != nil {
		s.logger.Info("login rejected", zap.String("username", username), zap.Error(err))
		return nil, fmt.Errorf("failed to login: %w", err)
	}

	return session, nil
}
