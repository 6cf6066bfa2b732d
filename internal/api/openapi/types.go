// Пакет openapi — HTTP-контракт Catalog Module: встроенный OpenAPI-документ,
// типы запросов и ответов, маршрутизация в ServerInterface.
package openapi

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// FileId — идентификатор записи в пути.
type FileId = openapi_types.UUID //nolint:revive // имя из OpenAPI-документа

// FileRecord — запись каталога.
type FileRecord struct {
	Id              openapi_types.UUID `json:"id"` //nolint:revive // имя из OpenAPI-документа
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	FilePath        string             `json:"filePath"`
	PublicationDate time.Time          `json:"publicationDate"`
	Owner           string             `json:"owner"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// FileList — страница записей.
type FileList struct {
	Files      []FileRecord `json:"files"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	TotalPages int          `json:"totalPages"`
}

// ListFilesParams — query-параметры GET /api/v1/files.
// Значения не типизированы: разбор и приоритеты — в сервисном слое.
type ListFilesParams struct {
	Search     *string `form:"search,omitempty" json:"search,omitempty"`
	StartDate  *string `form:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate    *string `form:"endDate,omitempty" json:"endDate,omitempty"`
	Last7Days  *string `form:"last7Days,omitempty" json:"last7Days,omitempty"`
	Last30Days *string `form:"last30Days,omitempty" json:"last30Days,omitempty"`
	LastYear   *string `form:"lastYear,omitempty" json:"lastYear,omitempty"`
	Page       *string `form:"page,omitempty" json:"page,omitempty"`
	Limit      *string `form:"limit,omitempty" json:"limit,omitempty"`
}

// MessageResponse — ответ с текстовым сообщением.
type MessageResponse struct {
	Message string `json:"message"`
}

// RegisterRequest — тело POST /api/v1/auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest — тело POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse — выпущенный access token.
type TokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// User — учётная запись без хэша пароля.
type User struct {
	Id        string    `json:"id"` //nolint:revive // имя из OpenAPI-документа
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}
