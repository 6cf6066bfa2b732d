// auth.go — JWT middleware: проверка Bearer-токена и извлечение
// идентификатора вызывающего (claim userId, иначе sub).
// Два режима: общий секрет HS256 или JWKS (RS256) с фоновым обновлением ключей.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	apierrors "github.com/bigkaa/goartstore/catalog-module/internal/api/errors"
	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
)

type contextKey string

// ContextKeyCaller — идентификатор вызывающего в контексте запроса.
const ContextKeyCaller contextKey = "caller_id"

// callerClaims — claims токена, нужные каталогу.
type callerClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// JWTAuthConfig — параметры проверки токенов.
type JWTAuthConfig struct {
	// Secret — общий секрет HS256. Используется, если JWKSURL пуст.
	Secret string
	// JWKSURL — JWKS endpoint, включает режим RS256.
	JWKSURL string
	// Issuer — ожидаемый iss, пустой = не проверяется.
	Issuer              string
	Leeway              time.Duration
	JWKSClientTimeout   time.Duration
	JWKSRefreshInterval time.Duration
}

// JWTAuth — middleware аутентификации.
type JWTAuth struct {
	keyfunc jwt.Keyfunc
	methods []string
	issuer  string
	leeway  time.Duration
	logger  *slog.Logger
}

// NewJWTAuth создаёт middleware в режиме, выбранном конфигурацией.
func NewJWTAuth(cfg JWTAuthConfig, logger *slog.Logger) (*JWTAuth, error) {
	if cfg.JWKSURL == "" {
		if cfg.Secret == "" {
			return nil, errors.New("не задан ни секрет JWT, ни JWKS URL")
		}
		secret := []byte(cfg.Secret)
		kf := func(*jwt.Token) (any, error) { return secret, nil }
		return NewJWTAuthWithKeyfunc(kf, []string{"HS256"}, cfg.Issuer, cfg.Leeway, logger), nil
	}

	// NoErrorReturnFirstHTTPReq — стартуем, даже если JWKS ещё недоступен.
	storage, err := jwkset.NewStorageFromHTTP(cfg.JWKSURL, jwkset.HTTPClientStorageOptions{
		Client:                    &http.Client{Timeout: cfg.JWKSClientTimeout},
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           cfg.JWKSRefreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("Ошибка обновления JWKS",
				slog.String("error", err.Error()),
				slog.String("url", cfg.JWKSURL),
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("создание JWKS storage: %w", err)
	}

	k, err := keyfunc.New(keyfunc.Options{Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("создание keyfunc: %w", err)
	}

	return NewJWTAuthWithKeyfunc(k.Keyfunc, []string{"RS256"}, cfg.Issuer, cfg.Leeway, logger), nil
}

// NewJWTAuthWithKeyfunc создаёт middleware с готовой функцией ключа.
func NewJWTAuthWithKeyfunc(
	kf jwt.Keyfunc,
	methods []string,
	issuer string,
	leeway time.Duration,
	logger *slog.Logger,
) *JWTAuth {
	return &JWTAuth{
		keyfunc: kf,
		methods: methods,
		issuer:  issuer,
		leeway:  leeway,
		logger:  logger.With(slog.String("component", "jwt_auth")),
	}
}

// Authenticate проверяет токен и возвращает идентификатор вызывающего.
func (j *JWTAuth) Authenticate(tokenString string) (model.UserID, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(j.methods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(j.leeway),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	claims := &callerClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, j.keyfunc, opts...)
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("невалидный токен")
	}

	id := claims.UserID
	if id == "" {
		id = claims.Subject
	}
	if id == "" {
		return "", errors.New("в токене нет userId и sub")
	}
	return model.UserID(id), nil
}

// Middleware возвращает HTTP middleware аутентификации.
// Без валидного токена запрос до обработчика не доходит.
func (j *JWTAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				apierrors.Unauthorized(w, "Отсутствует заголовок Authorization")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				apierrors.Unauthorized(w, "Неверный формат Authorization: ожидается Bearer <token>")
				return
			}

			tokenString := strings.TrimSpace(parts[1])
			if tokenString == "" {
				apierrors.Unauthorized(w, "Пустой Bearer token")
				return
			}

			caller, err := j.Authenticate(tokenString)
			if err != nil {
				j.logger.Debug("JWT валидация не пройдена",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Unauthorized(w, "Невалидный или просроченный токен")
				return
			}

			recordCaller(r.Context(), caller)
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// --- Context helpers ---

// WithCaller помещает идентификатор вызывающего в контекст.
func WithCaller(ctx context.Context, caller model.UserID) context.Context {
	return context.WithValue(ctx, ContextKeyCaller, caller)
}

// CallerFromContext извлекает идентификатор вызывающего.
func CallerFromContext(ctx context.Context) (model.UserID, bool) {
	caller, ok := ctx.Value(ContextKeyCaller).(model.UserID)
	return caller, ok && caller != ""
}

// --- ReadinessChecker для JWKS ---

// JWKSReadinessChecker — проверка доступности JWKS endpoint.
type JWKSReadinessChecker struct {
	jwksURL string
	client  *http.Client
}

// NewJWKSReadinessChecker создаёт проверку доступности JWKS.
func NewJWKSReadinessChecker(jwksURL string, timeout time.Duration) *JWKSReadinessChecker {
	return &JWKSReadinessChecker{
		jwksURL: jwksURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// CheckReady запрашивает JWKS и проверяет наличие ключей.
func (k *JWKSReadinessChecker) CheckReady() (status, message string) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, k.jwksURL, http.NoBody)
	if err != nil {
		return "fail", "ошибка создания запроса: " + err.Error()
	}
	resp, err := k.client.Do(req)
	if err != nil {
		return "fail", fmt.Sprintf("JWKS недоступен: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "fail", fmt.Sprintf("JWKS вернул статус %d", resp.StatusCode)
	}

	var jwksResp struct {
		Keys []json.RawMessage `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&jwksResp); err != nil {
		return "degraded", fmt.Sprintf("JWKS: невалидный JSON: %v", err)
	}
	if len(jwksResp.Keys) == 0 {
		return "degraded", "JWKS: нет ключей"
	}

	return "ok", fmt.Sprintf("JWKS доступен, ключей: %d", len(jwksResp.Keys))
}
