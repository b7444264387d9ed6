package auth

import (
	"time"

	"github.com/yanqian/suncare/internal/domain/profile"
)

// Config drives authentication behavior.
type Config struct {
	Secret          string
	TokenTTL        time.Duration
	RefreshTokenTTL time.Duration
}

// Account represents a persisted login. Its ID doubles as the profile ID.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RegisterRequest captures the sign-up payload including profile attributes.
type RegisterRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	Age            int    `json:"age"`
	SkinToneIndex  int    `json:"skinToneIndex"`
	SkinConditions string `json:"skinConditions"`
}

// RegisterResponse returns the account, the stored profile and a token pair.
type RegisterResponse struct {
	LoginResponse
	Profile profile.Profile `json:"profile"`
}

// LoginRequest captures login details.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse returns the signed tokens.
type LoginResponse struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	Account      AccountView `json:"account"`
}

// AccountView trims sensitive fields.
type AccountView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Claims are extracted from the JWT token.
type Claims struct {
	AccountID string
	Email     string
	TokenType string
	ExpiresAt time.Time
}

// RefreshRequest encapsulates refresh token payload.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}
