package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-module/internal/repository"
	"github.com/bigkaa/goartstore/catalog-module/internal/storage/filestore"
)

// --- Mock FileRepository ---

// mockFileRepo — мок FileRepository. Неустановленные функции
// делегируются во встроенное in-memory хранилище.
type mockFileRepo struct {
	mu      sync.Mutex
	records map[string]*model.FileRecord

	findCalls  int
	countCalls int

	findFn   func(ctx context.Context, filter repository.FileFilter, page repository.Page) ([]*model.FileRecord, error)
	insertFn func(ctx context.Context, f *model.FileRecord) error
	saveFn   func(ctx context.Context, f *model.FileRecord) error
}

func newMockFileRepo(recs ...*model.FileRecord) *mockFileRepo {
	m := &mockFileRepo{records: make(map[string]*model.FileRecord)}
	for _, r := range recs {
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		cp := *r
		m.records[r.ID] = &cp
	}
	return m
}

func (m *mockFileRepo) matching(filter repository.FileFilter) []*model.FileRecord {
	var out []*model.FileRecord
	for _, r := range m.records {
		if filter.Search != nil {
			s := strings.ToLower(*filter.Search)
			if !strings.Contains(strings.ToLower(r.Title), s) && !strings.Contains(strings.ToLower(r.Description), s) {
				continue
			}
		}
		if filter.PublishedFrom != nil && r.PublicationDate.Before(*filter.PublishedFrom) {
			continue
		}
		if filter.PublishedTo != nil && r.PublicationDate.After(*filter.PublishedTo) {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PublicationDate.Equal(out[j].PublicationDate) {
			return out[i].PublicationDate.After(out[j].PublicationDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *mockFileRepo) Find(ctx context.Context, filter repository.FileFilter, page repository.Page) ([]*model.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCalls++
	if m.findFn != nil {
		return m.findFn(ctx, filter, page)
	}
	all := m.matching(filter)
	if page.Offset >= len(all) {
		return []*model.FileRecord{}, nil
	}
	end := min(page.Offset+page.Limit, len(all))
	return all[page.Offset:end], nil
}

func (m *mockFileRepo) Count(_ context.Context, filter repository.FileFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countCalls++
	return len(m.matching(filter)), nil
}

func (m *mockFileRepo) GetByID(_ context.Context, id string) (*model.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockFileRepo) Insert(ctx context.Context, f *model.FileRecord) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, f)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	cp := *f
	m.records[f.ID] = &cp
	return nil
}

func (m *mockFileRepo) Save(ctx context.Context, f *model.FileRecord) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, f)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.records[f.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cp := *f
	cp.Owner = old.Owner
	m.records[f.ID] = &cp
	return nil
}

func (m *mockFileRepo) DeleteByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

// --- Mock BinaryStore ---

type mockBinaryStore struct {
	saved   []string
	deleted []string
	saveErr error
}

func (m *mockBinaryStore) Save(_ context.Context, r io.Reader, originalName string, owner model.UserID) (*filestore.Stored, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("uploads/%s_%s_%d", originalName, owner, len(m.saved))
	m.saved = append(m.saved, path)
	return &filestore.Stored{Path: path, Size: int64(len(data))}, nil
}

func (m *mockBinaryStore) Delete(path string) error {
	m.deleted = append(m.deleted, path)
	return nil
}

// --- Mock UserRepository ---

type mockUserRepo struct {
	byEmail map[string]*model.User
	err     error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{byEmail: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *model.User) error {
	if m.err != nil {
		return m.err
	}
	key := strings.ToLower(u.Email)
	for _, existing := range m.byEmail {
		if existing.Username == u.Username || existing.Email == key {
			return repository.ErrConflict
		}
	}
	if u.ID == "" {
		u.ID = model.UserID(uuid.New().String())
	}
	u.Email = key
	cp := *u
	m.byEmail[key] = &cp
	return nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}
