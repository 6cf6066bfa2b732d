// files.go — создание, изменение и удаление записей каталога
// с проверкой владельца.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-module/internal/repository"
	"github.com/bigkaa/goartstore/catalog-module/internal/storage/filestore"
)

var mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cm_files_mutations_total",
	Help: "Количество операций изменения каталога по результату.",
}, []string{"operation", "result"})

// BinaryStore — хранилище загруженных файлов.
type BinaryStore interface {
	Save(ctx context.Context, r io.Reader, originalName string, owner model.UserID) (*filestore.Stored, error)
	Delete(storedPath string) error
}

// Upload — загруженный клиентом файл.
type Upload struct {
	Filename string
	Content  io.Reader
}

// CreateInput — данные новой записи.
type CreateInput struct {
	Title       string
	Description string
	// PublicationDate — nil = текущее время
	PublicationDate *time.Time
	Upload          *Upload
}

// UpdateInput — частичное изменение записи.
// Patch.FilePath игнорируется, путь берётся только из Upload.
type UpdateInput struct {
	Patch  model.FilePatch
	Upload *Upload
}

// FileServiceConfig — параметры FileService.
type FileServiceConfig struct {
	DefaultPageLimit int
	MaxPageLimit     int
	// Now — источник времени, nil = time.Now
	Now func() time.Time
}

// FileService — операции над каталогом файлов.
type FileService struct {
	files        repository.FileRepository
	store        BinaryStore
	defaultLimit int
	maxLimit     int
	now          func() time.Time
	logger       *slog.Logger
}

// NewFileService создаёт сервис каталога.
func NewFileService(
	files repository.FileRepository,
	store BinaryStore,
	cfg FileServiceConfig,
	logger *slog.Logger,
) *FileService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	defaultLimit := cfg.DefaultPageLimit
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &FileService{
		files:        files,
		store:        store,
		defaultLimit: defaultLimit,
		maxLimit:     cfg.MaxPageLimit,
		now:          now,
		logger:       logger.With(slog.String("component", "file_service")),
	}
}

// Get возвращает запись по id.
func (s *FileService) Get(ctx context.Context, id string) (*model.FileRecord, error) {
	rec, err := s.files.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение записи: %w", err)
	}
	return rec, nil
}

// Create сохраняет загрузку и создаёт запись, владелец — caller.
func (s *FileService) Create(ctx context.Context, caller model.UserID, in CreateInput) (rec *model.FileRecord, err error) {
	defer func() { observeMutation("create", err) }()

	if in.Upload == nil || in.Upload.Content == nil {
		return nil, invalid("файл не передан")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("title обязателен")
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, invalid("description обязателен")
	}

	pub := s.now().UTC()
	if in.PublicationDate != nil && !in.PublicationDate.IsZero() {
		pub = *in.PublicationDate
	}

	stored, err := s.store.Save(ctx, in.Upload.Content, in.Upload.Filename, caller)
	if err != nil {
		return nil, fmt.Errorf("сохранение файла: %w", err)
	}

	rec = &model.FileRecord{
		Title:           title,
		Description:     description,
		FilePath:        stored.Path,
		PublicationDate: pub,
		Owner:           caller,
	}
	if err := s.files.Insert(ctx, rec); err != nil {
		s.discard(stored.Path)
		return nil, fmt.Errorf("создание записи: %w", err)
	}

	s.logger.Info("Запись создана",
		slog.String("id", rec.ID),
		slog.String("owner", caller.String()),
		slog.String("file_path", rec.FilePath),
		slog.Int64("size", stored.Size),
		slog.String("checksum", stored.Checksum),
	)
	return rec, nil
}

// Update применяет патч к записи владельца.
// Владелец проверяется до сохранения новой загрузки.
func (s *FileService) Update(ctx context.Context, id string, caller model.UserID, in UpdateInput) (rec *model.FileRecord, err error) {
	defer func() { observeMutation("update", err) }()

	rec, err = s.owned(ctx, id, caller)
	if err != nil {
		return nil, err
	}

	patch := in.Patch
	patch.FilePath = nil

	var stored *filestore.Stored
	if in.Upload != nil && in.Upload.Content != nil {
		stored, err = s.store.Save(ctx, in.Upload.Content, in.Upload.Filename, caller)
		if err != nil {
			return nil, fmt.Errorf("сохранение файла: %w", err)
		}
		patch.FilePath = &stored.Path
	}

	patch.ApplyTo(rec)

	if err := s.files.Save(ctx, rec); err != nil {
		if stored != nil {
			s.discard(stored.Path)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("обновление записи: %w", err)
	}

	s.logger.Info("Запись обновлена",
		slog.String("id", rec.ID),
		slog.String("owner", caller.String()),
		slog.Bool("file_replaced", stored != nil),
	)
	return rec, nil
}

// Delete удаляет запись владельца. Сохранённый файл остаётся на диске.
func (s *FileService) Delete(ctx context.Context, id string, caller model.UserID) (err error) {
	defer func() { observeMutation("delete", err) }()

	if _, err := s.owned(ctx, id, caller); err != nil {
		return err
	}

	if err := s.files.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("удаление записи: %w", err)
	}

	s.logger.Info("Запись удалена",
		slog.String("id", id),
		slog.String("owner", caller.String()),
	)
	return nil
}

// owned загружает запись и проверяет владельца.
func (s *FileService) owned(ctx context.Context, id string, caller model.UserID) (*model.FileRecord, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rec.OwnedBy(caller) {
		s.logger.Warn("Попытка изменить чужую запись",
			slog.String("id", id),
			slog.String("caller", caller.String()),
		)
		return nil, ErrNotOwner
	}
	return rec, nil
}

// discard удаляет файл, запись для которого не сохранилась.
func (s *FileService) discard(path string) {
	if err := s.store.Delete(path); err != nil {
		s.logger.Error("Не удалось удалить файл после ошибки записи",
			slog.String("file_path", path),
			slog.String("error", err.Error()),
		)
	}
}

func observeMutation(operation string, err error) {
	result := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrValidation):
		result = "invalid"
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	case errors.Is(err, ErrNotOwner):
		result = "not_owner"
	default:
		result = "error"
	}
	mutationsTotal.WithLabelValues(operation, result).Inc()
}
