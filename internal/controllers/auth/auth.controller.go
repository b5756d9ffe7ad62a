package authController

import (
	"context"
	"errors"
	"strings"
	"time"
	"trellis/config"
	"trellis/internal/constants"
	"trellis/internal/database"
	. "trellis/internal/models"
	"trellis/internal/repositories"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	MinPasswordLength = 8
)

var (
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session expired")
)

type AuthController struct {
	userRepo repositories.UserRepository
	db       database.DB
	Config   config.Config
}

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      UserProfile `json:"user"`
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type AuthControllerInterface interface {
	Register(ctx context.Context, request *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, request *LoginRequest) (*AuthResponse, error)
	Logout(ctx context.Context, token string) error
	ValidateSession(ctx context.Context, token string) (*User, error)
}

func New(
	repos repositories.Repository,
	config config.Config,
	db database.DB,
) AuthControllerInterface {
	return &AuthController{
		userRepo: repos.User,
		db:       db,
		Config:   config,
	}
}

func (c *AuthController) Register(
	ctx context.Context,
	request *RegisterRequest,
) (*AuthResponse, error) {
	log := logger.NewWithContext(ctx, "authController").Function("Register")

	email := strings.ToLower(strings.TrimSpace(request.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, log.ErrorWithType(ErrValidation, "a valid email is required")
	}
	if len(request.Password) < MinPasswordLength {
		return nil, log.ErrorWithType(
			ErrValidation,
			"password too short",
			"min", MinPasswordLength,
		)
	}

	if _, err := c.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, log.ErrorWithType(ErrValidation, "email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, log.Error("failed to hash password", "error", err)
	}

	user := &User{
		FirstName:   strings.TrimSpace(request.FirstName),
		LastName:    strings.TrimSpace(request.LastName),
		DisplayName: strings.TrimSpace(request.FirstName + " " + request.LastName),
		Email:       email,
		Password:    string(hash),
		IsActive:    true,
	}

	if err := c.userRepo.Create(ctx, user); err != nil {
		return nil, log.Error("failed to create user", "error", err, "email", email)
	}

	response, err := c.startSession(ctx, user, log)
	if err != nil {
		return nil, err
	}

	log.Info("User registered", "userID", user.ID, "email", email)
	return response, nil
}

func (c *AuthController) Login(
	ctx context.Context,
	request *LoginRequest,
) (*AuthResponse, error) {
	log := logger.NewWithContext(ctx, "authController").Function("Login")

	email := strings.ToLower(strings.TrimSpace(request.Email))
	if email == "" || request.Password == "" {
		return nil, log.ErrorWithType(ErrValidation, "email and password are required")
	}

	user, err := c.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, log.ErrorWithType(ErrInvalidCredentials, "unknown email")
		}
		return nil, log.Error("failed to look up user", "error", err)
	}

	if !user.IsActive {
		return nil, log.ErrorWithType(ErrInvalidCredentials, "account disabled", "userID", user.ID)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(request.Password)); err != nil {
		return nil, log.ErrorWithType(ErrInvalidCredentials, "password mismatch", "userID", user.ID)
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := c.userRepo.Update(ctx, user); err != nil {
		log.Warn("failed to record login time", "userID", user.ID, "error", err)
	}

	response, err := c.startSession(ctx, user, log)
	if err != nil {
		return nil, err
	}

	log.Info("User logged in", "userID", user.ID)
	return response, nil
}

func (c *AuthController) Logout(ctx context.Context, token string) error {
	log := logger.NewWithContext(ctx, "authController").Function("Logout")

	claims, err := c.parseToken(token)
	if err != nil {
		// An unparseable token has no session to revoke.
		log.Warn("logout with invalid token", "error", err)
		return nil
	}

	cacheKey := constants.SessionCachePrefix + ":" + claims.SessionID
	if err := database.NewCacheBuilder(c.db.Cache.Session, cacheKey).
		WithContext(ctx).
		Delete(); err != nil {
		return log.Err("failed to revoke session", err, "sessionID", claims.SessionID)
	}

	log.Info("Session revoked", "sessionID", claims.SessionID)
	return nil
}

// ValidateSession verifies the JWT signature and expiry, confirms the session
// has not been revoked, and loads the current user record.
func (c *AuthController) ValidateSession(ctx context.Context, token string) (*User, error) {
	log := logger.NewWithContext(ctx, "authController").Function("ValidateSession")

	claims, err := c.parseToken(token)
	if err != nil {
		return nil, log.ErrorWithType(ErrSessionExpired, "invalid token", "error", err)
	}

	cacheKey := constants.SessionCachePrefix + ":" + claims.SessionID
	var userID string
	found, err := database.NewCacheBuilder(c.db.Cache.Session, cacheKey).
		WithContext(ctx).
		Get(&userID)
	if err != nil {
		return nil, log.Err("failed to check session", err, "sessionID", claims.SessionID)
	}
	if !found {
		return nil, log.ErrorWithType(ErrSessionExpired, "session revoked or expired")
	}

	if userID != claims.Subject {
		return nil, log.ErrorWithType(ErrSessionExpired, "session user mismatch")
	}

	user, err := c.userRepo.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, log.ErrorWithType(ErrSessionExpired, "session user not found", "error", err)
	}

	if !user.IsActive {
		return nil, log.ErrorWithType(ErrSessionExpired, "account disabled", "userID", user.ID)
	}

	return user, nil
}

func (c *AuthController) startSession(
	ctx context.Context,
	user *User,
	log logger.Logger,
) (*AuthResponse, error) {
	sessionID := uuid.New().String()
	expiry := time.Duration(c.Config.SessionExpiryHours) * time.Hour
	expiresAt := time.Now().Add(expiry)

	claims := sessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(c.Config.JWTSecret))
	if err != nil {
		return nil, log.Err("failed to sign session token", err, "userID", user.ID)
	}

	cacheKey := constants.SessionCachePrefix + ":" + sessionID
	if err := database.NewCacheBuilder(c.db.Cache.Session, cacheKey).
		WithValue(user.ID.String()).
		WithTTL(expiry).
		WithContext(ctx).
		Set(); err != nil {
		return nil, log.Err("failed to store session", err, "userID", user.ID)
	}

	return &AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user.ToProfile(),
	}, nil
}

func (c *AuthController) parseToken(token string) (*sessionClaims, error) {
	if token == "" {
		return nil, errors.New("token is required")
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(c.Config.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.SessionID == "" || claims.Subject == "" {
		return nil, errors.New("invalid session claims")
	}

	return claims, nil
}
