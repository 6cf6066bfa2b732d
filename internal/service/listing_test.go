package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-module/internal/repository"
)

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestFileService(repo *mockFileRepo, store *mockBinaryStore) *FileService {
	if store == nil {
		store = &mockBinaryStore{}
	}
	return NewFileService(repo, store, FileServiceConfig{
		DefaultPageLimit: 10,
		MaxPageLimit:     100,
		Now:              func() time.Time { return testNow },
	}, slog.Default())
}

// --- Тесты ParseListQuery ---

// TestParseListQuery_Defaults — без параметров: page 1, limit 10, без фильтров.
func TestParseListQuery_Defaults(t *testing.T) {
	p, err := ParseListQuery(ListQuery{}, testNow, 10, 100)
	if err != nil {
		t.Fatalf("ошибка: %v", err)
	}
	if p.Page != 1 || p.Limit != 10 || p.Offset() != 0 {
		t.Errorf("page=%d limit=%d offset=%d, ожидались 1/10/0", p.Page, p.Limit, p.Offset())
	}
	if p.Filter.Search != nil || p.Filter.PublishedFrom != nil || p.Filter.PublishedTo != nil {
		t.Errorf("фильтр не пуст: %+v", p.Filter)
	}
}

// TestParseListQuery_Pagination проверяет разбор page/limit и граничные значения.
func TestParseListQuery_Pagination(t *testing.T) {
	tests := []struct {
		name      string
		page      string
		limit     string
		wantPage  int
		wantLimit int
	}{
		{"обычные значения", "2", "10", 2, 10},
		{"limit 0 — по умолчанию", "1", "0", 1, 10},
		{"отрицательный limit — по умолчанию", "1", "-5", 1, 10},
		{"нечисловой limit — по умолчанию", "1", "abc", 1, 10},
		{"limit выше максимума — обрезается", "1", "1000", 1, 100},
		{"page 0 — первая", "0", "10", 1, 10},
		{"нечисловой page — первая", "x", "10", 1, 10},
		{"огромный page — ограничивается", "9223372036854775807", "10", math.MaxInt/10 + 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseListQuery(ListQuery{Page: tt.page, Limit: tt.limit}, testNow, 10, 100)
			if err != nil {
				t.Fatalf("ошибка: %v", err)
			}
			if p.Page != tt.wantPage || p.Limit != tt.wantLimit {
				t.Errorf("page=%d limit=%d, ожидались %d/%d", p.Page, p.Limit, tt.wantPage, tt.wantLimit)
			}
			if p.Offset() < 0 {
				t.Errorf("offset=%d, ожидалось неотрицательное значение", p.Offset())
			}
		})
	}
}

// TestParseListQuery_Search — пустая строка не фильтрует, пробелы сохраняются как есть.
func TestParseListQuery_Search(t *testing.T) {
	tests := []struct {
		name   string
		search string
		want   *string
	}{
		{"пустая строка — без фильтра", "", nil},
		{"один пробел — фильтр", " ", strPtr(" ")},
		{"пробелы по краям сохраняются", " oil ", strPtr(" oil ")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseListQuery(ListQuery{Search: tt.search}, testNow, 10, 100)
			if err != nil {
				t.Fatalf("ошибка: %v", err)
			}
			switch {
			case tt.want == nil && p.Filter.Search != nil:
				t.Errorf("Search = %q, ожидался nil", *p.Filter.Search)
			case tt.want != nil && (p.Filter.Search == nil || *p.Filter.Search != *tt.want):
				t.Errorf("Search = %v, ожидался %q", p.Filter.Search, *tt.want)
			}
		})
	}
}

// TestParseListQuery_RelativeWindows — приоритет last7Days > last30Days > lastYear > start/end.
func TestParseListQuery_RelativeWindows(t *testing.T) {
	tests := []struct {
		name string
		q    ListQuery
		want time.Time
	}{
		{"last7Days", ListQuery{Last7Days: "true"}, testNow.AddDate(0, 0, -7)},
		{"last30Days", ListQuery{Last30Days: "1"}, testNow.AddDate(0, 0, -30)},
		{"lastYear", ListQuery{LastYear: "yes"}, testNow.AddDate(-1, 0, 0)},
		{"last7Days важнее startDate", ListQuery{Last7Days: "true", StartDate: "2020-01-01", EndDate: "2020-02-01"}, testNow.AddDate(0, 0, -7)},
		{"last7Days важнее lastYear", ListQuery{Last7Days: "true", LastYear: "true"}, testNow.AddDate(0, 0, -7)},
		{"last7Days=false — следующий флаг", ListQuery{Last7Days: "false", Last30Days: "true"}, testNow.AddDate(0, 0, -30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseListQuery(tt.q, testNow, 10, 100)
			if err != nil {
				t.Fatalf("ошибка: %v", err)
			}
			if p.Filter.PublishedFrom == nil || !p.Filter.PublishedFrom.Equal(tt.want) {
				t.Errorf("PublishedFrom = %v, ожидалось %v", p.Filter.PublishedFrom, tt.want)
			}
			if p.Filter.PublishedTo != nil {
				t.Errorf("PublishedTo = %v, ожидался nil", p.Filter.PublishedTo)
			}
		})
	}
}

// TestParseListQuery_FalseFlags — флаги со значением false не включают фильтр.
func TestParseListQuery_FalseFlags(t *testing.T) {
	p, err := ParseListQuery(ListQuery{Last7Days: "false", Last30Days: "0", LastYear: "F"}, testNow, 10, 100)
	if err != nil {
		t.Fatalf("ошибка: %v", err)
	}
	if p.Filter.PublishedFrom != nil {
		t.Errorf("PublishedFrom = %v, ожидался nil", p.Filter.PublishedFrom)
	}
}

// TestParseListQuery_ExplicitRange проверяет разбор startDate/endDate.
func TestParseListQuery_ExplicitRange(t *testing.T) {
	p, err := ParseListQuery(ListQuery{StartDate: "2026-01-01", EndDate: "2026-01-31T23:59:59Z"}, testNow, 10, 100)
	if err != nil {
		t.Fatalf("ошибка: %v", err)
	}
	wantFrom := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)
	if p.Filter.PublishedFrom == nil || !p.Filter.PublishedFrom.Equal(wantFrom) {
		t.Errorf("PublishedFrom = %v, ожидалось %v", p.Filter.PublishedFrom, wantFrom)
	}
	if p.Filter.PublishedTo == nil || !p.Filter.PublishedTo.Equal(wantTo) {
		t.Errorf("PublishedTo = %v, ожидалось %v", p.Filter.PublishedTo, wantTo)
	}

	// Только одна граница
	p, err = ParseListQuery(ListQuery{EndDate: "2026-01-31"}, testNow, 10, 100)
	if err != nil {
		t.Fatalf("ошибка: %v", err)
	}
	if p.Filter.PublishedFrom != nil || p.Filter.PublishedTo == nil {
		t.Errorf("ожидалась только верхняя граница: %+v", p.Filter)
	}
}

// TestParseListQuery_InvalidDates — перевёрнутый диапазон и мусор в датах.
func TestParseListQuery_InvalidDates(t *testing.T) {
	tests := []struct {
		name string
		q    ListQuery
	}{
		{"start после end", ListQuery{StartDate: "2026-02-01", EndDate: "2026-01-01"}},
		{"некорректный startDate", ListQuery{StartDate: "ontem"}},
		{"некорректный endDate", ListQuery{EndDate: "2026-13-45"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseListQuery(tt.q, testNow, 10, 100)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("ошибка = %v, ожидалась ErrValidation", err)
			}
		})
	}
}

// --- Тесты FileService.List ---

func seedRecords(n int) []*model.FileRecord {
	recs := make([]*model.FileRecord, 0, n)
	for i := range n {
		recs = append(recs, &model.FileRecord{
			ID:              fmt.Sprintf("00000000-0000-0000-0000-%012d", i),
			Title:           fmt.Sprintf("Arquivo %02d", i),
			Description:     "Descrição",
			FilePath:        fmt.Sprintf("uploads/%02d.txt", i),
			PublicationDate: testNow.Add(-time.Duration(i) * time.Hour),
			Owner:           "user-1",
		})
	}
	return recs
}

// TestList_SecondPage — 15 записей, page=2&limit=10: 5 записей, totalPages 2.
func TestList_SecondPage(t *testing.T) {
	svc := newTestFileService(newMockFileRepo(seedRecords(15)...), nil)

	res, err := svc.List(context.Background(), ListQuery{Page: "2", Limit: "10"})
	if err != nil {
		t.Fatalf("List ошибка: %v", err)
	}
	if len(res.Files) != 5 {
		t.Errorf("Files = %d, ожидалось 5", len(res.Files))
	}
	if res.Total != 15 || res.Page != 2 || res.TotalPages != 2 {
		t.Errorf("total=%d page=%d totalPages=%d, ожидались 15/2/2", res.Total, res.Page, res.TotalPages)
	}
}

// TestList_Empty — пустой каталог: totalPages 0.
func TestList_Empty(t *testing.T) {
	svc := newTestFileService(newMockFileRepo(), nil)

	res, err := svc.List(context.Background(), ListQuery{})
	if err != nil {
		t.Fatalf("List ошибка: %v", err)
	}
	if len(res.Files) != 0 || res.Total != 0 || res.TotalPages != 0 || res.Page != 1 {
		t.Errorf("результат = %+v", res)
	}
}

// TestList_InvertedRangeNoStoreCall — при ошибке валидации хранилище не вызывается.
func TestList_InvertedRangeNoStoreCall(t *testing.T) {
	repo := newMockFileRepo(seedRecords(3)...)
	svc := newTestFileService(repo, nil)

	_, err := svc.List(context.Background(), ListQuery{StartDate: "2026-02-01", EndDate: "2026-01-01"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ошибка = %v, ожидалась ErrValidation", err)
	}
	if repo.findCalls != 0 || repo.countCalls != 0 {
		t.Errorf("хранилище вызвано: find=%d count=%d", repo.findCalls, repo.countCalls)
	}
}

// TestList_Last7DaysOverridesStartDate — startDate игнорируется при last7Days.
func TestList_Last7DaysOverridesStartDate(t *testing.T) {
	recs := []*model.FileRecord{
		{Title: "novo", Description: "d", FilePath: "p", PublicationDate: testNow.AddDate(0, 0, -2), Owner: "u"},
		{Title: "antigo", Description: "d", FilePath: "p", PublicationDate: testNow.AddDate(0, 0, -20), Owner: "u"},
	}
	svc := newTestFileService(newMockFileRepo(recs...), nil)

	res, err := svc.List(context.Background(), ListQuery{Last7Days: "true", StartDate: "2000-01-01"})
	if err != nil {
		t.Fatalf("List ошибка: %v", err)
	}
	if res.Total != 1 || res.Files[0].Title != "novo" {
		t.Errorf("результат = %d записей, ожидалась только 'novo'", res.Total)
	}
}

// TestList_SearchCombinedWithDates — текст и даты объединяются через AND.
func TestList_SearchCombinedWithDates(t *testing.T) {
	recs := []*model.FileRecord{
		{Title: "Relatório", Description: "d", FilePath: "p", PublicationDate: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), Owner: "u"},
		{Title: "Outro", Description: "anexo do relatório", FilePath: "p", PublicationDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), Owner: "u"},
		{Title: "Contrato", Description: "d", FilePath: "p", PublicationDate: time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC), Owner: "u"},
	}
	repo := newMockFileRepo(recs...)
	svc := newTestFileService(repo, nil)

	var seen repository.FileFilter
	repo.findFn = func(_ context.Context, filter repository.FileFilter, page repository.Page) ([]*model.FileRecord, error) {
		seen = filter
		all := repo.matching(filter)
		return all, nil
	}

	res, err := svc.List(context.Background(), ListQuery{Search: "relatório", StartDate: "2026-01-01", EndDate: "2026-01-31"})
	if err != nil {
		t.Fatalf("List ошибка: %v", err)
	}
	if seen.Search == nil || *seen.Search != "relatório" {
		t.Errorf("Search = %v", seen.Search)
	}
	if res.Total != 1 || res.Files[0].Title != "Relatório" {
		t.Errorf("результат = %d записей", res.Total)
	}
}

// TestList_LimitClamped — limit выше максимума обрезается.
func TestList_LimitClamped(t *testing.T) {
	repo := newMockFileRepo(seedRecords(3)...)
	svc := newTestFileService(repo, nil)

	var seen repository.Page
	repo.findFn = func(_ context.Context, _ repository.FileFilter, page repository.Page) ([]*model.FileRecord, error) {
		seen = page
		return nil, nil
	}

	if _, err := svc.List(context.Background(), ListQuery{Limit: "5000", Page: "3"}); err != nil {
		t.Fatalf("List ошибка: %v", err)
	}
	if seen.Limit != 100 || seen.Offset != 200 {
		t.Errorf("page = %+v, ожидались limit 100 offset 200", seen)
	}
}

// TestList_StoreError — ошибка хранилища оборачивается.
func TestList_StoreError(t *testing.T) {
	repo := newMockFileRepo()
	repo.findFn = func(context.Context, repository.FileFilter, repository.Page) ([]*model.FileRecord, error) {
		return nil, errors.New("connection refused")
	}
	svc := newTestFileService(repo, nil)

	_, err := svc.List(context.Background(), ListQuery{})
	if err == nil || errors.Is(err, ErrValidation) {
		t.Errorf("ошибка = %v, ожидалась внутренняя ошибка", err)
	}
}
