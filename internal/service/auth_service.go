package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/TWRT/taskdesk/internal/models"
	"github.com/TWRT/taskdesk/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const RoleOwner = "owner"

var (
	ErrInvalidCredentials = errors.New("Incorrect username or password")
	ErrUserExists         = errors.New("Username or email already registered")
	ErrInvalidToken       = errors.New("Could not validate credentials")
)

type AuthService struct {
	users    *repository.UserRepository
	secret   []byte
	tokenTTL time.Duration
}

func NewAuthService(users *repository.UserRepository, secret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		users:    users,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

func (s *AuthService) Register(ctx context.Context, reg models.Registration) (models.User, error) {
	if err := reg.Normalize(); err != nil {
		return models.User{}, err
	}

	exists, err := s.users.Exists(ctx, reg.Username, reg.Email)
	if err != nil {
		return models.User{}, err
	}
	if exists {
		return models.User{}, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := repository.User{
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: string(hash),
		Role:         models.RoleMember,
	}
	id, err := s.users.Create(ctx, &user)
	if err != nil {
		return models.User{}, err
	}
	return models.User{ID: id, Username: user.Username, Role: user.Role}, nil
}

// Login accepts a username or an email and returns a signed access token
// whose subject is the user id.
func (s *AuthService) Login(ctx context.Context, creds models.Credentials) (models.Token, error) {
	user, err := s.users.GetByLogin(ctx, creds.Username)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Token{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.Token{}, err
	}
	if !user.IsActive {
		return models.Token{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return models.Token{}, ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return models.Token{}, fmt.Errorf("sign token: %w", err)
	}
	return models.Token{AccessToken: signed, TokenType: "bearer"}, nil
}

// Authenticate verifies the token and loads the active user it names.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (repository.User, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return repository.User{}, ErrInvalidToken
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return repository.User{}, ErrInvalidToken
	}
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !user.IsActive) {
		return repository.User{}, ErrInvalidToken
	}
	if err != nil {
		return repository.User{}, err
	}
	return user, nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		out = append(out, models.User{ID: u.ID, Username: u.Username, Role: u.Role})
	}
	return out, nil
}
