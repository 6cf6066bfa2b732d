package handlers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-module/internal/repository"
)

// memFileRepo — in-memory FileRepository.
type memFileRepo struct {
	mu      sync.Mutex
	records map[string]*model.FileRecord
	now     func() time.Time
}

func newMemFileRepo(now func() time.Time) *memFileRepo {
	return &memFileRepo{records: make(map[string]*model.FileRecord), now: now}
}

func (m *memFileRepo) matching(filter repository.FileFilter) []*model.FileRecord {
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

func (m *memFileRepo) Find(_ context.Context, filter repository.FileFilter, page repository.Page) ([]*model.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.matching(filter)
	if page.Offset >= len(all) {
		return nil, nil
	}
	end := min(page.Offset+page.Limit, len(all))
	return all[page.Offset:end], nil
}

func (m *memFileRepo) Count(_ context.Context, filter repository.FileFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.matching(filter)), nil
}

func (m *memFileRepo) GetByID(_ context.Context, id string) (*model.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memFileRepo) Insert(_ context.Context, f *model.FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f.ID = uuid.New().String()
	f.CreatedAt = m.now()
	f.UpdatedAt = f.CreatedAt
	cp := *f
	m.records[f.ID] = &cp
	return nil
}

func (m *memFileRepo) Save(_ context.Context, f *model.FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[f.ID]; !ok {
		return repository.ErrNotFound
	}
	f.UpdatedAt = m.now()
	cp := *f
	m.records[f.ID] = &cp
	return nil
}

func (m *memFileRepo) DeleteByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

// memUserRepo — in-memory UserRepository.
type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*model.User)}
}

func (m *memUserRepo) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(u.Email)
	for _, existing := range m.users {
		if strings.ToLower(existing.Email) == key || existing.Username == u.Username {
			return repository.ErrConflict
		}
	}
	u.ID = model.UserID(uuid.New().String())
	u.CreatedAt = time.Now().UTC()
	cp := *u
	m.users[key] = &cp
	return nil
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}
