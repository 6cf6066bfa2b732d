// listing.go — выборка записей каталога: разбор параметров запроса,
// построение фильтра по датам и тексту, пагинация.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-module/internal/repository"
)

// Prometheus-метрики выборки.
var (
	listTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cm_files_list_total",
		Help: "Общее количество запросов списка записей.",
	})
	listDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cm_files_list_duration_seconds",
		Help:    "Длительность запросов списка записей.",
		Buckets: prometheus.DefBuckets,
	})
)

// ListQuery — сырые параметры запроса списка, как пришли от клиента.
// Пустая строка = параметр не передан.
type ListQuery struct {
	Search     string
	StartDate  string
	EndDate    string
	Last7Days  string
	Last30Days string
	LastYear   string
	Page       string
	Limit      string
}

// ListResult — страница записей.
type ListResult struct {
	Files      []*model.FileRecord
	Total      int
	Page       int
	TotalPages int
}

// ListParams — разобранные параметры выборки.
type ListParams struct {
	Filter repository.FileFilter
	Page   int
	Limit  int
}

// Offset — смещение для страницы Page.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParseListQuery превращает сырые параметры в фильтр и окно пагинации.
// Приоритет дат: last7Days, last30Days, lastYear, затем startDate/endDate.
// Отрезки last* отсчитываются от now.
func ParseListQuery(q ListQuery, now time.Time, defaultLimit, maxLimit int) (ListParams, error) {
	p := ListParams{
		Page:  1,
		Limit: defaultLimit,
	}

	// Строка из пробелов — тоже подстрока для поиска, отбрасывается только пустая.
	if search := q.Search; search != "" {
		p.Filter.Search = &search
	}

	switch {
	case flagSet(q.Last7Days):
		from := now.AddDate(0, 0, -7)
		p.Filter.PublishedFrom = &from
	case flagSet(q.Last30Days):
		from := now.AddDate(0, 0, -30)
		p.Filter.PublishedFrom = &from
	case flagSet(q.LastYear):
		from := now.AddDate(-1, 0, 0)
		p.Filter.PublishedFrom = &from
	default:
		start, err := ParseDate("startDate", q.StartDate)
		if err != nil {
			return ListParams{}, err
		}
		end, err := ParseDate("endDate", q.EndDate)
		if err != nil {
			return ListParams{}, err
		}
		if start != nil && end != nil && start.After(*end) {
			return ListParams{}, invalid("startDate не может быть позже endDate")
		}
		p.Filter.PublishedFrom = start
		p.Filter.PublishedTo = end
	}

	if n, err := strconv.Atoi(strings.TrimSpace(q.Page)); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(q.Limit)); err == nil && n > 0 {
		p.Limit = n
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	// (Page-1)*Limit не должен переполнять int.
	if p.Limit > 0 {
		if maxPage := math.MaxInt/p.Limit + 1; p.Page > maxPage {
			p.Page = maxPage
		}
	}

	return p, nil
}

// flagSet — флаг включён, если значение непустое и не является булевым false.
func flagSet(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return true
}

// ParseDate разбирает RFC 3339 или YYYY-MM-DD (полночь UTC).
func ParseDate(name, v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return &t, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, v, time.UTC); err == nil {
		return &t, nil
	}
	return nil, invalid(fmt.Sprintf("%s: некорректная дата %q, ожидается RFC 3339 или YYYY-MM-DD", name, v))
}

// List возвращает страницу записей по параметрам запроса.
// При ошибке разбора параметров хранилище не опрашивается.
func (s *FileService) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	start := time.Now()
	listTotal.Inc()

	params, err := ParseListQuery(q, s.now(), s.defaultLimit, s.maxLimit)
	if err != nil {
		return nil, err
	}

	files, err := s.files.Find(ctx, params.Filter, repository.Page{
		Limit:  params.Limit,
		Offset: params.Offset(),
	})
	if err != nil {
		return nil, fmt.Errorf("выборка записей: %w", err)
	}

	total, err := s.files.Count(ctx, params.Filter)
	if err != nil {
		return nil, fmt.Errorf("подсчёт записей: %w", err)
	}

	duration := time.Since(start)
	listDuration.Observe(duration.Seconds())

	s.logger.Debug("Список записей получен",
		slog.Int("total", total),
		slog.Int("returned", len(files)),
		slog.Int("page", params.Page),
		slog.Duration("duration", duration),
	)

	return &ListResult{
		Files:      files,
		Total:      total,
		Page:       params.Page,
		TotalPages: (total + params.Limit - 1) / params.Limit,
	}, nil
}
