package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
)

// fileColumns — список столбцов таблицы files для SELECT-запросов.
const fileColumns = `id, title, description, file_path, publication_date,
	owner_id, created_at, updated_at`

// FileFilter — условия выборки записей каталога.
// nil = фильтр не применяется.
type FileFilter struct {
	// Search — подстрока в title или description (без учёта регистра)
	Search *string
	// PublishedFrom — нижняя граница publication_date (включительно)
	PublishedFrom *time.Time
	// PublishedTo — верхняя граница publication_date (включительно)
	PublishedTo *time.Time
}

// Page — окно выборки.
type Page struct {
	Limit  int
	Offset int
}

// FileRepository — хранилище записей каталога.
type FileRepository interface {
	// Find возвращает записи по фильтру, publication_date DESC, затем id.
	Find(ctx context.Context, filter FileFilter, page Page) ([]*model.FileRecord, error)
	// Count возвращает количество записей, подходящих под фильтр.
	Count(ctx context.Context, filter FileFilter) (int, error)
	// GetByID возвращает запись по UUID или ErrNotFound.
	GetByID(ctx context.Context, id string) (*model.FileRecord, error)
	// Insert создаёт запись. ID, CreatedAt и UpdatedAt заполняются в f.
	Insert(ctx context.Context, f *model.FileRecord) error
	// Save перезаписывает изменяемые поля записи. UpdatedAt обновляется в f.
	Save(ctx context.Context, f *model.FileRecord) error
	// DeleteByID удаляет запись или возвращает ErrNotFound.
	DeleteByID(ctx context.Context, id string) error
}

type fileRepo struct {
	db DBTX
}

// NewFileRepository создаёт репозиторий записей каталога.
func NewFileRepository(db DBTX) FileRepository {
	return &fileRepo{db: db}
}

func scanFile(row pgx.Row) (*model.FileRecord, error) {
	f := &model.FileRecord{}
	var owner string
	if err := row.Scan(
		&f.ID, &f.Title, &f.Description, &f.FilePath, &f.PublicationDate,
		&owner, &f.CreatedAt, &f.UpdatedAt,
	); err != nil {
		return nil, err
	}
	f.Owner = model.UserID(owner)
	return f, nil
}

// Find выполняет выборку с фильтром и пагинацией.
func (r *fileRepo) Find(ctx context.Context, filter FileFilter, page Page) ([]*model.FileRecord, error) {
	where, args := buildFileWhere(filter, 1)
	argNum := len(args) + 1

	query := fmt.Sprintf(
		`SELECT %s FROM files %s ORDER BY publication_date DESC, id LIMIT $%d OFFSET $%d`,
		fileColumns, where, argNum, argNum+1,
	)
	args = append(args, page.Limit, page.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки записей: %w", err)
	}
	defer rows.Close()

	result := make([]*model.FileRecord, 0, page.Limit)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи: %w", err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации результатов: %w", err)
	}
	return result, nil
}

// Count считает записи с тем же фильтром, без LIMIT/OFFSET.
func (r *fileRepo) Count(ctx context.Context, filter FileFilter) (int, error) {
	where, args := buildFileWhere(filter, 1)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM files %s`, where)

	var total int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта записей: %w", err)
	}
	return total, nil
}

// GetByID возвращает запись по UUID.
// Строка, не являющаяся UUID, трактуется как отсутствующая запись.
func (r *fileRepo) GetByID(ctx context.Context, id string) (*model.FileRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	query := fmt.Sprintf(`SELECT %s FROM files WHERE id = $1`, fileColumns)
	f, err := scanFile(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения записи: %w", err)
	}
	return f, nil
}

// Insert создаёт запись. ID генерируется, если не задан.
func (r *fileRepo) Insert(ctx context.Context, f *model.FileRecord) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}

	query := `
		INSERT INTO files (id, title, description, file_path, publication_date, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		f.ID, f.Title, f.Description, f.FilePath, f.PublicationDate, f.Owner.String(),
	).Scan(&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("ошибка создания записи: %w", err)
	}
	return nil
}

// Save обновляет title, description, file_path и publication_date.
// owner_id не меняется никогда.
func (r *fileRepo) Save(ctx context.Context, f *model.FileRecord) error {
	query := `
		UPDATE files
		SET title = $2, description = $3, file_path = $4, publication_date = $5,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		f.ID, f.Title, f.Description, f.FilePath, f.PublicationDate,
	).Scan(&f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка обновления записи: %w", err)
	}
	return nil
}

// DeleteByID удаляет запись.
func (r *fileRepo) DeleteByID(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления записи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// likeEscaper экранирует спецсимволы LIKE, чтобы текст искался буквально.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildFileWhere строит WHERE-условие и аргументы для выборки записей.
// startArg — номер первого $-параметра.
func buildFileWhere(filter FileFilter, startArg int) (whereClause string, args []any) {
	var conditions []string
	argNum := startArg

	// Поиск по title ИЛИ description
	if filter.Search != nil && *filter.Search != "" {
		conditions = append(conditions,
			fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", argNum, argNum))
		args = append(args, "%"+likeEscaper.Replace(*filter.Search)+"%")
		argNum++
	}

	if filter.PublishedFrom != nil {
		conditions = append(conditions, fmt.Sprintf("publication_date >= $%d", argNum))
		args = append(args, *filter.PublishedFrom)
		argNum++
	}

	if filter.PublishedTo != nil {
		conditions = append(conditions, fmt.Sprintf("publication_date <= $%d", argNum))
		args = append(args, *filter.PublishedTo)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	return where, args
}
