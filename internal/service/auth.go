// auth.go — регистрация пользователей, вход и выпуск JWT (HS256).
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-module/internal/repository"
)

// Ограничения пароля. Верхняя граница — предел bcrypt в 72 байта.
const (
	minPasswordLen = 8
	maxPasswordLen = 72
)

// PasswordHasher — хэширование паролей bcrypt.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher создаёт hasher с указанной стоимостью bcrypt.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash возвращает bcrypt-хэш пароля.
func (h *PasswordHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify сверяет пароль с хэшем.
func (h *PasswordHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// TokenClaims — claims выпускаемого токена.
// userId — идентификатор владельца записей каталога.
type TokenClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// IssuedToken — результат входа.
type IssuedToken struct {
	Token     string
	TokenType string
	ExpiresAt time.Time
}

// TokenIssuer подписывает токены общим секретом (HS256).
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer создаёт TokenIssuer.
func NewTokenIssuer(secret, issuer string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue выпускает токен для пользователя.
func (ti *TokenIssuer) Issue(userID model.UserID) (*IssuedToken, error) {
	now := ti.now().UTC().Truncate(time.Second)
	expiresAt := now.Add(ti.ttl)

	claims := TokenClaims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ti.issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return nil, fmt.Errorf("подпись токена: %w", err)
	}
	return &IssuedToken{Token: signed, TokenType: "Bearer", ExpiresAt: expiresAt}, nil
}

// RegisterInput — данные регистрации.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// AuthService — учётные записи пользователей.
type AuthService struct {
	users  repository.UserRepository
	hasher *PasswordHasher
	// issuer — nil в режиме JWKS: токены выпускает внешний провайдер
	issuer *TokenIssuer
	logger *slog.Logger
}

// NewAuthService создаёт сервис учётных записей.
func NewAuthService(
	users repository.UserRepository,
	hasher *PasswordHasher,
	issuer *TokenIssuer,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		issuer: issuer,
		logger: logger.With(slog.String("component", "auth_service")),
	}
}

// Register создаёт пользователя.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, invalid("username обязателен")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
	if err != nil {
		return nil, invalid("некорректный email")
	}
	if len(in.Password) < minPasswordLen {
		return nil, invalid(fmt.Sprintf("пароль должен содержать не менее %d символов", minPasswordLen))
	}
	if len(in.Password) > maxPasswordLen {
		return nil, invalid(fmt.Sprintf("пароль должен содержать не более %d байт", maxPasswordLen))
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("хэширование пароля: %w", err)
	}

	u := &model.User{
		Username:     username,
		Email:        addr.Address,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("создание пользователя: %w", err)
	}

	s.logger.Info("Пользователь зарегистрирован",
		slog.String("user_id", u.ID.String()),
		slog.String("username", u.Username),
	)
	return u, nil
}

// Login проверяет пароль и выпускает токен.
func (s *AuthService) Login(ctx context.Context, email, password string) (*IssuedToken, error) {
	if s.issuer == nil {
		return nil, ErrTokenIssuingDisabled
	}

	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("поиск пользователя: %w", err)
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	tok, err := s.issuer.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Токен выпущен", slog.String("user_id", u.ID.String()))
	return tok, nil
}
