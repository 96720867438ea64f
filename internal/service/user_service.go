// internal/service/user_service.go
package service

import (
	"context"
	"fmt"

	"billing-api/internal/auth"
	"billing-api/internal/domain"
	"billing-api/internal/repository"
	"billing-api/internal/util"
	"billing-api/pkg/db"
)

// TokenPair holds the access and refresh tokens issued at login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserService owns registration, activation, and login flows.
type UserService interface {
	// Register creates an inactive account and returns the activation
	// token to embed in the activation link.
	Register(ctx context.Context, username, email, password string) (*domain.User, string, error)
	// Activate flips the account referenced by the activation token to active.
	Activate(ctx context.Context, token string) error
	// Login verifies credentials and issues access+refresh tokens. Inactive
	// accounts cannot log in.
	Login(ctx context.Context, username, password string) (*TokenPair, error)
	// Refresh exchanges a valid refresh token for a new access token.
	Refresh(ctx context.Context, refreshToken string) (string, error)
	// ListUsers returns all accounts. Admin-only at the HTTP layer.
	ListUsers(ctx context.Context) ([]domain.User, error)
	// GetUser returns a single account. Admin-only at the HTTP layer.
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}

// userService implements the UserService interface.
type userService struct {
	dbBeginner db.DBTxBeginner
	dbExecutor repository.DBExecutor
	userRepo   repository.UserRepository
	tokens     *auth.TokenManager
	beginTx    db.BeginTxFunc
	commitTx   db.CommitTxFunc
	rollbackTx db.RollbackTxFunc
}

// NewUserService creates a new instance of UserService.
func NewUserService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	userRepo repository.UserRepository,
	tokens *auth.TokenManager,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
) UserService {
	return &userService{
		dbBeginner: dbBeginner,
		dbExecutor: dbExecutor,
		userRepo:   userRepo,
		tokens:     tokens,
		beginTx:    beginTx,
		commitTx:   commitTx,
		rollbackTx: rollbackTx,
	}
}

// Register creates an inactive account with a PBKDF2-hashed password.
func (s *userService) Register(ctx context.Context, username, email, password string) (*domain.User, string, error) {
	if username == "" || len(password) < 8 {
		return nil, "", util.ErrInvalidInput
	}

	salt, hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("register: %w", err)
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, "", fmt.Errorf("register: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, "", fmt.Errorf("register: transaction controller does not implement DBExecutor")
	}

	user := domain.NewUser(username, email, hash, salt)
	if err := s.userRepo.CreateUser(ctx, txExecutor, user); err != nil {
		if util.IsError(err, util.ErrDuplicateEntry) {
			return nil, "", util.ErrDuplicateEntry
		}
		return nil, "", fmt.Errorf("register: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, "", fmt.Errorf("register: failed to commit transaction: %w", err)
	}

	activationToken, err := s.tokens.GenerateActivationToken(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("register: failed to issue activation token: %w", err)
	}
	return user, activationToken, nil
}

// Activate flips the account referenced by the activation token to active.
func (s *userService) Activate(ctx context.Context, token string) error {
	userID, err := s.tokens.ParseActivationToken(token)
	if err != nil {
		return util.ErrInvalidInput
	}
	if err := s.userRepo.ActivateUser(ctx, s.dbExecutor, userID); err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return util.ErrUserNotFound
		}
		return fmt.Errorf("activate: %w", err)
	}
	return nil
}

// Login verifies credentials and issues a token pair.
func (s *userService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, s.dbExecutor, username)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			// Same failure as a wrong password so usernames cannot be probed.
			return nil, util.ErrUnauthorized
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	if !auth.CheckPassword(user.Salt, user.PasswordHash, password) {
		return nil, util.ErrUnauthorized
	}
	if !user.IsActive {
		return nil, util.ErrInactiveAccount
	}

	accessToken, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("login: failed to issue access token: %w", err)
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(user)
	if err != nil {
		return nil, fmt.Errorf("login: failed to issue refresh token: %w", err)
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The user
// is re-read so role or activation changes take effect on rotation.
func (s *userService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	identity, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return "", util.ErrUnauthorized
	}
	user, err := s.userRepo.GetUserByUsername(ctx, s.dbExecutor, identity)
	if err != nil {
		return "", util.ErrUnauthorized
	}
	if !user.IsActive {
		return "", util.ErrInactiveAccount
	}
	return s.tokens.GenerateAccessToken(user)
}

// ListUsers returns all accounts.
func (s *userService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.ListUsers(ctx, s.dbExecutor)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GetUser returns a single account.
func (s *userService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, s.dbExecutor, id)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}
