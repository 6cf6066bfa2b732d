// files.go — обработчики /api/v1/files: список, чтение, загрузка,
// изменение и удаление записей каталога.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"

	apierrors "github.com/bigkaa/goartstore/catalog-module/internal/api/errors"
	"github.com/bigkaa/goartstore/catalog-module/internal/api/middleware"
	"github.com/bigkaa/goartstore/catalog-module/internal/api/openapi"
	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-module/internal/service"
)

const (
	// multipartMemory — часть формы, которая держится в памяти, остальное во временных файлах.
	multipartMemory = 10 << 20
	// formOverhead — запас на текстовые поля и границы multipart сверх размера файла.
	formOverhead = 1 << 20
)

var (
	// errFileTooLarge — тело или файл превышают maxUploadSize.
	errFileTooLarge = errors.New("файл превышает допустимый размер")
	// errNotMultipart — загрузка не в multipart/form-data.
	errNotMultipart = errors.New("ожидается multipart/form-data")
)

// ListFiles — GET /api/v1/files.
func (h *APIHandler) ListFiles(w http.ResponseWriter, r *http.Request, params openapi.ListFilesParams) {
	if _, ok := h.caller(w, r); !ok {
		return
	}

	res, err := h.files.List(r.Context(), service.ListQuery{
		Search:     deref(params.Search),
		StartDate:  deref(params.StartDate),
		EndDate:    deref(params.EndDate),
		Last7Days:  deref(params.Last7Days),
		Last30Days: deref(params.Last30Days),
		LastYear:   deref(params.LastYear),
		Page:       deref(params.Page),
		Limit:      deref(params.Limit),
	})
	if err != nil {
		h.writeServiceError(w, r, "list", err)
		return
	}

	resp := openapi.FileList{
		Files:      make([]openapi.FileRecord, 0, len(res.Files)),
		Total:      res.Total,
		Page:       res.Page,
		TotalPages: res.TotalPages,
	}
	for _, rec := range res.Files {
		resp.Files = append(resp.Files, toFileRecord(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetFile — GET /api/v1/files/{id}.
func (h *APIHandler) GetFile(w http.ResponseWriter, r *http.Request, id openapi.FileId) {
	if _, ok := h.caller(w, r); !ok {
		return
	}

	rec, err := h.files.Get(r.Context(), id.String())
	if err != nil {
		h.writeServiceError(w, r, "get", err)
		return
	}
	writeJSON(w, http.StatusOK, toFileRecord(rec))
}

// CreateFile — POST /api/v1/files, multipart/form-data.
// Владелец — caller из токена, поле owner формы игнорируется.
func (h *APIHandler) CreateFile(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.parseForm(w, r, true); err != nil {
		h.writeFormError(w, err)
		return
	}
	defer removeMultipart(r)

	in := service.CreateInput{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
	}
	pub, err := service.ParseDate("publicationDate", r.PostFormValue("publicationDate"))
	if err != nil {
		h.writeServiceError(w, r, "create", err)
		return
	}
	in.PublicationDate = pub

	upload, closeUpload, err := h.formUpload(r)
	if err != nil {
		h.writeFormError(w, err)
		return
	}
	defer closeUpload()
	in.Upload = upload

	rec, err := h.files.Create(r.Context(), caller, in)
	if err != nil {
		h.writeServiceError(w, r, "create", err)
		return
	}
	writeJSON(w, http.StatusCreated, toFileRecord(rec))
}

// UpdateFile — PUT /api/v1/files/{id}, multipart/form-data
// или application/x-www-form-urlencoded. Непереданные поля не меняются.
func (h *APIHandler) UpdateFile(w http.ResponseWriter, r *http.Request, id openapi.FileId) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.parseForm(w, r, false); err != nil {
		h.writeFormError(w, err)
		return
	}
	defer removeMultipart(r)

	var in service.UpdateInput
	in.Patch.Title = formField(r, "title")
	in.Patch.Description = formField(r, "description")
	if v := formField(r, "publicationDate"); v != nil {
		pub, err := service.ParseDate("publicationDate", *v)
		if err != nil {
			h.writeServiceError(w, r, "update", err)
			return
		}
		in.Patch.PublicationDate = pub
	}

	upload, closeUpload, err := h.formUpload(r)
	if err != nil {
		h.writeFormError(w, err)
		return
	}
	defer closeUpload()
	in.Upload = upload

	rec, err := h.files.Update(r.Context(), id.String(), caller, in)
	if err != nil {
		h.writeServiceError(w, r, "update", err)
		return
	}
	writeJSON(w, http.StatusOK, toFileRecord(rec))
}

// DeleteFile — DELETE /api/v1/files/{id}.
func (h *APIHandler) DeleteFile(w http.ResponseWriter, r *http.Request, id openapi.FileId) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.files.Delete(r.Context(), id.String(), caller); err != nil {
		h.writeServiceError(w, r, "delete", err)
		return
	}
	writeJSON(w, http.StatusOK, openapi.MessageResponse{Message: "Запись удалена"})
}

// caller достаёт пользователя, установленного JWT middleware.
func (h *APIHandler) caller(w http.ResponseWriter, r *http.Request) (model.UserID, bool) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return "", false
	}
	return caller, true
}

// parseForm ограничивает размер тела и разбирает форму.
// requireMultipart — для загрузки допустим только multipart/form-data.
func (h *APIHandler) parseForm(w http.ResponseWriter, r *http.Request, requireMultipart bool) error {
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+formOverhead)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var err error
	switch {
	case mediaType == "multipart/form-data":
		err = r.ParseMultipartForm(multipartMemory)
	case requireMultipart:
		return errNotMultipart
	default:
		err = r.ParseForm()
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errFileTooLarge
		}
		return fmt.Errorf("%w: некорректная форма: %s", service.ErrValidation, err.Error())
	}
	return nil
}

// formUpload открывает поле file. Без файла возвращает nil.
func (h *APIHandler) formUpload(r *http.Request) (*service.Upload, func(), error) {
	noop := func() {}
	if r.MultipartForm == nil {
		return nil, noop, nil
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, noop, nil
		}
		return nil, noop, fmt.Errorf("%w: некорректное поле file: %s", service.ErrValidation, err.Error())
	}
	if h.maxUploadSize > 0 && header.Size > h.maxUploadSize {
		_ = f.Close()
		return nil, noop, errFileTooLarge
	}
	return &service.Upload{Filename: header.Filename, Content: f}, func() { _ = f.Close() }, nil
}

// writeFormError — ответ на ошибку разбора формы.
func (h *APIHandler) writeFormError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errFileTooLarge):
		apierrors.FileTooLarge(w, fmt.Sprintf("Размер файла превышает %d байт", h.maxUploadSize))
	case errors.Is(err, errNotMultipart):
		apierrors.ValidationError(w, "Ожидается multipart/form-data")
	default:
		h.logger.Debug("Некорректная форма", slog.String("error", err.Error()))
		apierrors.ValidationError(w, err.Error())
	}
}

// removeMultipart удаляет временные файлы multipart-формы.
func removeMultipart(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

// formField — значение поля тела, nil если поле не передано.
// ParseMultipartForm тоже заполняет PostForm.
func formField(r *http.Request, name string) *string {
	values := r.PostForm[name]
	if len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
