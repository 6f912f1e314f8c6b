package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/config"
	model "auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/utils"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 150
	minPasswordLength = 8
	maxPasswordBytes  = 72 // bcrypt input limit
	tokenIssuer       = "auction-house"
)

// AccountService registers users and issues the tokens that identify them
type AccountService struct {
	repo      repository.AuctionDB
	jwtConfig config.JWTConfig
}

// NewAccountService creates a new AccountService instance
func NewAccountService(repo repository.AuctionDB, jwtConfig config.JWTConfig) *AccountService {
	return &AccountService{
		repo:      repo,
		jwtConfig: jwtConfig,
	}
}

// Token is a signed access token
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Claims is what an access token carries
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Register creates a user with a bcrypt-hashed password
func (s *AccountService) Register(ctx context.Context, username, displayName, password string) (model.User, error) {
	username = strings.TrimSpace(username)
	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
		return model.User{}, fmt.Errorf("account: %w", auctionerrors.ErrInvalidUsername)
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return model.User{}, fmt.Errorf("account: %w", auctionerrors.ErrWeakPassword)
	}
	if len(password) > maxPasswordBytes {
		return model.User{}, fmt.Errorf("account: %w", auctionerrors.ErrPasswordTooLong)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, fmt.Errorf("account: failed to hash password: %w", err)
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = username
	}

	user := model.User{
		UserID:       utils.GenerateID(),
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		CreatedAt:    utils.Now(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return model.User{}, fmt.Errorf("account: failed to register %s: %w", username, err)
	}

	utils.Info("user registered", map[string]any{"user_id": user.UserID, "username": username})
	return user, nil
}

// Login checks credentials and issues an access token
func (s *AccountService) Login(ctx context.Context, username, password string) (Token, error) {
	user, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, auctionerrors.ErrUserNotFound) {
			return Token{}, fmt.Errorf("account: %w", auctionerrors.ErrInvalidCredentials)
		}
		return Token{}, fmt.Errorf("account: failed to look up %s: %w", username, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Token{}, fmt.Errorf("account: %w", auctionerrors.ErrInvalidCredentials)
	}

	return s.generateToken(user)
}

// ValidateToken verifies an access token and returns its claims
func (s *AccountService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(s.jwtConfig.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, fmt.Errorf("account: %w: %w", auctionerrors.ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("account: %w", auctionerrors.ErrInvalidToken)
	}
	return claims, nil
}

func (s *AccountService) generateToken(user model.User) (Token, error) {
	expiresIn := time.Duration(s.jwtConfig.ExpireHours) * time.Hour
	now := time.Now()

	claims := &Claims{
		UserID:   user.UserID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return Token{}, fmt.Errorf("account: failed to sign token: %w", err)
	}

	return Token{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int(expiresIn.Seconds()),
	}, nil
}
