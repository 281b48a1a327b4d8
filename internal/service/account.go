package service

import (
	"StudyVault/internal/repo"
	"StudyVault/model"
	"StudyVault/utils"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	minPasswordLen     = 6
	registerKeyPrefix  = "register"
	defaultRegisterTTL = 10 * time.Minute
)

// ActivationMailer delivers the link that turns a pending registration into
// an account.
type ActivationMailer interface {
	SendActivation(to, link string) error
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	// ActivateURL is the activation endpoint. The token is appended as ?token=.
	ActivateURL string
}

// PendingRegistration is what Register reports back. The token only travels
// by mail.
type PendingRegistration struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type pendingUser struct {
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	DisplayName  string `json:"display_name"`
}

// Register parks the account under a one-time token and mails the activation
// link. No user exists until Activate runs, so nobody can claim an address
// they cannot read mail for.
func (s *Service) Register(ctx context.Context, in RegisterInput) (pending *PendingRegistration, err error) {
	defer func() { s.metrics.observe("register", err) }()

	if s.pending == nil || s.mailer == nil {
		return nil, errors.New("register: activation is not configured")
	}
	email := NormalizeEmail(in.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLen {
		return nil, validationError("password must be at least %d characters", minPasswordLen)
	}
	if _, err := s.repo.Users.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email %s already registered", ErrConflict, email)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	token := uuid.NewString()
	key := utils.BuildCacheKey(registerKeyPrefix, token)
	err = s.pending.Set(ctx, key, pendingUser{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(in.DisplayName),
	}, s.registerTTL)
	if err != nil {
		return nil, fmt.Errorf("cache activation token: %w", err)
	}
	link := strings.TrimRight(in.ActivateURL, "?") + "?token=" + url.QueryEscape(token)
	if err := s.mailer.SendActivation(email, link); err != nil {
		_ = s.pending.Delete(ctx, key)
		return nil, fmt.Errorf("send activation email: %w", err)
	}
	log.Info().Str("email", email).Msg("activation email sent")
	return &PendingRegistration{Email: email, ExpiresAt: s.now().Add(s.registerTTL)}, nil
}

// Activate creates the user parked under token. A token works once.
func (s *Service) Activate(ctx context.Context, token string) (user *model.User, err error) {
	defer func() { s.metrics.observe("activate", err) }()

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, validationError("activation token is required")
	}
	if s.pending == nil {
		return nil, errors.New("activate: activation is not configured")
	}
	key := utils.BuildCacheKey(registerKeyPrefix, token)
	var p pendingUser
	if err := s.pending.Get(ctx, key, &p); err != nil {
		if errors.Is(err, utils.ErrCacheMiss) {
			return nil, validationError("activation link invalid or expired")
		}
		return nil, fmt.Errorf("read activation token: %w", err)
	}

	user = &model.User{
		Email:       p.Email,
		Password:    p.PasswordHash,
		DisplayName: p.DisplayName,
	}
	createErr := s.repo.Users.Create(ctx, user)
	if createErr != nil && !errors.Is(createErr, repo.ErrDuplicate) {
		return nil, fmt.Errorf("create user: %w", createErr)
	}
	if err := s.pending.Delete(ctx, key); err != nil {
		log.Warn().Err(err).Msg("activation token cleanup failed")
	}
	if createErr != nil {
		return nil, fmt.Errorf("%w: email %s already registered", ErrConflict, p.Email)
	}
	log.Info().Uint64("user", user.ID).Msg("user activated")
	return user, nil
}

// Login checks the credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (token string, user *model.User, err error) {
	defer func() { s.metrics.observe("login", err) }()

	if s.tokens == nil {
		return "", nil, errors.New("login: no token issuer configured")
	}
	user, err = s.repo.Users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", nil, ErrUnauthorized
		}
		return "", nil, fmt.Errorf("find user: %w", err)
	}
	if !utils.CheckPwd(password, user.Password) {
		return "", nil, ErrUnauthorized
	}
	token, err = s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}
