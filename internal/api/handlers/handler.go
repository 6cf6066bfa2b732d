// handler.go — основной обработчик API, реализующий openapi.ServerInterface.
// Разбирает запросы, вызывает сервисный слой и переводит его ошибки в HTTP-ответы.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/uuid"

	apierrors "github.com/bigkaa/goartstore/catalog-module/internal/api/errors"
	"github.com/bigkaa/goartstore/catalog-module/internal/api/openapi"
	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-module/internal/service"
)

// APIHandler — основной обработчик API Catalog Module.
type APIHandler struct {
	files         *service.FileService
	auth          *service.AuthService
	health        *HealthHandler
	spec          *openapi3.T
	maxUploadSize int64
	logger        *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
// maxUploadSize — предельный размер тела запроса с файлом в байтах.
func NewAPIHandler(
	files *service.FileService,
	auth *service.AuthService,
	health *HealthHandler,
	spec *openapi3.T,
	maxUploadSize int64,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		files:         files,
		auth:          auth,
		health:        health,
		spec:          spec,
		maxUploadSize: maxUploadSize,
		logger:        logger.With(slog.String("component", "api_handler")),
	}
}

// --- Health endpoints (делегируются в HealthHandler) ---

// HealthLive — liveness probe.
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe.
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики.
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// GetOpenAPIDocument отдаёт OpenAPI-документ в JSON.
func (h *APIHandler) GetOpenAPIDocument(w http.ResponseWriter, _ *http.Request) {
	if h.spec == nil {
		apierrors.NotImplemented(w, "OpenAPI-документ не загружен")
		return
	}
	writeJSON(w, http.StatusOK, h.spec)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeServiceError переводит ошибку сервисного слоя в ответ.
// Неизвестные ошибки логируются, клиент получает 500 без деталей.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		apierrors.ValidationError(w, verr.Message)
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrNotOwner):
		apierrors.NotOwner(w, "Запись принадлежит другому пользователю")
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, "Запись не найдена")
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, "Пользователь с таким username или email уже существует")
	case errors.Is(err, service.ErrInvalidCredentials):
		apierrors.Unauthorized(w, "Неверный email или пароль")
	case errors.Is(err, service.ErrTokenIssuingDisabled):
		apierrors.NotImplemented(w, "Токены выпускает внешний провайдер")
	default:
		h.logger.Error("Ошибка обработки запроса",
			slog.String("operation", op),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}
}

// toFileRecord конвертирует доменную запись в API-тип.
func toFileRecord(rec *model.FileRecord) openapi.FileRecord {
	return openapi.FileRecord{
		Id:              parseUUID(rec.ID),
		Title:           rec.Title,
		Description:     rec.Description,
		FilePath:        rec.FilePath,
		PublicationDate: rec.PublicationDate,
		Owner:           rec.Owner.String(),
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}
}

// parseUUID разбирает id из БД. Некорректное значение даёт uuid.Nil.
func parseUUID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}
