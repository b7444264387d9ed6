package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yanqian/suncare/internal/domain/profile"
	apperrors "github.com/yanqian/suncare/pkg/errors"
)

// Service exposes authentication workflows.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error)
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
	ValidateToken(ctx context.Context, token string) (Claims, error)
	Refresh(ctx context.Context, refreshToken string) (LoginResponse, error)
}

type service struct {
	cfg      Config
	repo     Repository
	profiles ProfileRegistrar
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	maxAge = 130
)

// NewService constructs a Service instance.
func NewService(cfg Config, repo Repository, profiles ProfileRegistrar, logger *slog.Logger) Service {
	return &service{
		cfg:      cfg,
		repo:     repo,
		profiles: profiles,
		logger:   logger.With("component", "auth.service"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return RegisterResponse{}, apperrors.Wrap("invalid_input", "invalid email address", err)
	}
	if err := validatePassword(req.Password); err != nil {
		return RegisterResponse{}, apperrors.Wrap("invalid_input", err.Error(), nil)
	}
	if req.Age < 0 || req.Age > maxAge {
		return RegisterResponse{}, apperrors.Wrap("invalid_input", "age must be between 0 and 130", nil)
	}
	_, exists, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return RegisterResponse{}, apperrors.Wrap("auth_error", "failed to check account", err)
	}
	if exists {
		return RegisterResponse{}, apperrors.Wrap("email_exists", "email already registered", nil)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return RegisterResponse{}, apperrors.Wrap("auth_error", "failed to hash password", err)
	}
	account, err := s.repo.Create(ctx, Account{
		ID:           s.newID(),
		Email:        email,
		PasswordHash: string(hashed),
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return RegisterResponse{}, apperrors.Wrap("email_exists", "email already registered", err)
		}
		return RegisterResponse{}, apperrors.Wrap("auth_error", "failed to create account", err)
	}

	p, err := s.profiles.Register(ctx, account.ID, profile.RegisterRequest{
		Age:            req.Age,
		SkinToneIndex:  req.SkinToneIndex,
		SkinConditions: req.SkinConditions,
	})
	if err != nil {
		// the account is removed so the same email can register again
		if delErr := s.repo.Delete(context.WithoutCancel(ctx), account.ID); delErr != nil {
			s.logger.Error("failed to roll back account after profile failure", "account_id", account.ID, "error", delErr)
		}
		s.logger.Warn("profile registration failed", "account_id", account.ID, "error", err)
		return RegisterResponse{}, err
	}

	tokens, err := s.buildLoginResponse(account)
	if err != nil {
		return RegisterResponse{}, err
	}
	s.logger.Info("account registered", "account_id", account.ID)
	return RegisterResponse{LoginResponse: tokens, Profile: p}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap("invalid_input", "invalid email address", err)
	}
	if strings.TrimSpace(req.Password) == "" {
		return LoginResponse{}, apperrors.Wrap("invalid_input", "password cannot be empty", nil)
	}
	account, found, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap("auth_error", "failed to fetch account", err)
	}
	if !found {
		return LoginResponse{}, apperrors.Wrap("invalid_credentials", "invalid email or password", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return LoginResponse{}, apperrors.Wrap("invalid_credentials", "invalid email or password", nil)
	}
	return s.buildLoginResponse(account)
}

func (s *service) ValidateToken(_ context.Context, token string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, apperrors.Wrap("invalid_token", "token missing", nil)
	}
	claims, err := s.parseToken(token)
	if err != nil {
		return Claims{}, err
	}
	if claims.TokenType != tokenTypeAccess {
		return Claims{}, apperrors.Wrap("invalid_token", "token type mismatch", nil)
	}
	return claims, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (LoginResponse, error) {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return LoginResponse{}, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return LoginResponse{}, apperrors.Wrap("invalid_token", "token type mismatch", nil)
	}
	account, found, err := s.repo.GetByID(ctx, claims.AccountID)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap("auth_error", "failed to load account", err)
	}
	if !found {
		return LoginResponse{}, apperrors.Wrap("account_not_found", "account not found", nil)
	}
	return s.buildLoginResponse(account)
}

func (s *service) buildLoginResponse(account Account) (LoginResponse, error) {
	access, err := s.generateToken(account, tokenTypeAccess, s.cfg.TokenTTL)
	if err != nil {
		return LoginResponse{}, err
	}
	refresh, err := s.generateToken(account, tokenTypeRefresh, s.cfg.RefreshTokenTTL)
	if err != nil {
		return LoginResponse{}, err
	}
	return LoginResponse{
		Token:        access,
		RefreshToken: refresh,
		Account:      toView(account),
	}, nil
}

func (s *service) generateToken(account Account, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := tokenClaims{
		Email:     account.Email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			ID:        s.newID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", apperrors.Wrap("auth_error", "failed to sign token", err)
	}
	return signed, nil
}

func (s *service) parseToken(token string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return Claims{}, apperrors.Wrap("invalid_token", "token validation failed", err)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Claims{}, apperrors.Wrap("invalid_token", "token invalid", nil)
	}
	if claims.ExpiresAt == nil {
		return Claims{}, apperrors.Wrap("invalid_token", "token missing expiry", nil)
	}
	if claims.Subject == "" {
		return Claims{}, apperrors.Wrap("invalid_token", "token missing subject", nil)
	}
	return Claims{
		AccountID: claims.Subject,
		Email:     claims.Email,
		TokenType: claims.TokenType,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func toView(account Account) AccountView {
	return AccountView{
		ID:        account.ID,
		Email:     account.Email,
		CreatedAt: account.CreatedAt,
	}
}

func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(strings.ToLower(raw))
	if email == "" {
		return "", errors.New("email cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", err
	}
	return email, nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	TokenType string `json:"type"`
}
