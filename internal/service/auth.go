package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/campus-events/platform/internal/auth"
	"github.com/campus-events/platform/internal/model"
)

// AuthService resolves identities and registers accounts.
//
// Guest accounts may share an email address: the (email, password)
// pair is the identity key. That rules out a unique-index lookup, so
// resolution enumerates every account under the email and tests the
// credential against each in turn. The set is expected to stay small.
type AuthService struct {
	users  UserStore
	tokens *auth.TokenManager
	log    *logrus.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(users UserStore, tokens *auth.TokenManager, log *logrus.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: log}
}

// RegisterRequest is the payload for account creation.
type RegisterRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	IsIIIT         bool   `json:"is_iiit"`
	DiscordWebhook string `json:"discord_webhook,omitempty"`
}

// Register creates an account and returns it with a signed token.
//
// IIIT accounts require an institute email and a globally unique one.
// Guest accounts may reuse an email, but the supplied password must not
// match any existing account under that email: one password is one
// identity, and a collision would make two accounts indistinguishable
// at login.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, string, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, "", fmt.Errorf("%w: name is required", model.ErrValidation)
	}
	if len(req.Password) < 6 {
		return nil, "", fmt.Errorf("%w: password must be at least 6 characters", model.ErrValidation)
	}
	email := model.NormalizeEmail(req.Email)
	if err := model.ValidateEmail(email); err != nil {
		return nil, "", err
	}
	if req.IsIIIT && !model.IsIIITEmail(email) {
		return nil, "", fmt.Errorf("%w: only IIIT email addresses are allowed for IIIT registration", model.ErrValidation)
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("lookup accounts: %w", err)
	}
	if req.IsIIIT {
		if len(existing) > 0 {
			return nil, "", fmt.Errorf("%w: a user with this email already exists", model.ErrValidation)
		}
	} else {
		for i := range existing {
			if auth.ComparePassword(req.Password, existing[i].PasswordHash) {
				return nil, "", fmt.Errorf("%w: this password is already associated with an account using this email", model.ErrValidation)
			}
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}
	user := &model.User{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Email:          email,
		PasswordHash:   hash,
		Role:           model.RoleParticipant,
		IsIIIT:         req.IsIIIT,
		DiscordWebhook: req.DiscordWebhook,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Mint(user)
	if err != nil {
		return nil, "", err
	}
	s.log.WithFields(logrus.Fields{"user": user.ID, "iiit": user.IsIIIT}).Info("user registered")
	return user, token, nil
}

// Login resolves (email, password) to an account and mints a token.
// The error never distinguishes an unknown email from a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: please provide email and password", model.ErrValidation)
	}

	accounts, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("lookup accounts: %w", err)
	}

	// Linear credential scan across same-email accounts. The first
	// matching credential wins; there is at most one by construction.
	for i := range accounts {
		if auth.ComparePassword(password, accounts[i].PasswordHash) {
			user := &accounts[i]
			token, err := s.tokens.Mint(user)
			if err != nil {
				return nil, "", err
			}
			return user, token, nil
		}
	}
	return nil, "", model.ErrInvalidCredentials
}

// GetUser returns the account for an authenticated principal.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfileRequest carries optional profile edits; nil fields are
// untouched.
type UpdateProfileRequest struct {
	Name           *string `json:"name"`
	DiscordWebhook *string `json:"discord_webhook"`
}

// UpdateProfile edits the caller's display name and webhook. Email
// stays immutable: it is half of the identity key for guest accounts.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", model.ErrValidation)
		}
		user.Name = name
	}
	if req.DiscordWebhook != nil {
		user.DiscordWebhook = *req.DiscordWebhook
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// ChangePassword rotates the caller's password after verifying the
// current one. The new password must not collide with another account
// under the same email, for the same reason Register rejects it: the
// two accounts would be indistinguishable at login.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if len(next) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", model.ErrValidation)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.ComparePassword(current, user.PasswordHash) {
		return model.ErrInvalidCredentials
	}

	siblings, err := s.users.FindByEmail(ctx, user.Email)
	if err != nil {
		return fmt.Errorf("lookup accounts: %w", err)
	}
	for i := range siblings {
		if siblings[i].ID != user.ID && auth.ComparePassword(next, siblings[i].PasswordHash) {
			return fmt.Errorf("%w: this password is already associated with an account using this email", model.ErrValidation)
		}
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	s.log.WithField("user", userID).Info("password changed")
	return nil
}
