package board

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/alphabot-ai/noticeboard/internal/model"
	"github.com/alphabot-ai/noticeboard/internal/store"
)

type memArticles struct {
	mu      sync.Mutex
	nextID  int64
	rows    map[int64]model.Article
	updates int
	err     error
}

func newMemArticles() *memArticles {
	return &memArticles{rows: map[int64]model.Article{}}
}

func (m *memArticles) CreateArticle(_ context.Context, a *model.Article) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.nextID++
	a.ID = m.nextID
	m.rows[a.ID] = *a
	return a.ID, nil
}

func (m *memArticles) GetArticle(_ context.Context, id int64) (model.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.Article{}, m.err
	}
	a, ok := m.rows[id]
	if !ok || a.Hidden {
		return model.Article{}, store.ErrNotFound
	}
	return a, nil
}

func (m *memArticles) ListArticles(_ context.Context) ([]model.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []model.Article
	for _, a := range m.rows {
		if !a.Hidden {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memArticles) ListArticlesByMember(ctx context.Context, memberID int64, limit int) ([]model.Article, error) {
	all, err := m.ListArticles(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Article
	for _, a := range all {
		if a.MemberID == memberID && len(out) < limit {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memArticles) UpdateArticle(_ context.Context, id int64, subject, content string, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	if m.err != nil {
		return m.err
	}
	a, ok := m.rows[id]
	if !ok || a.Hidden {
		return store.ErrNotFound
	}
	a.Subject, a.Content, a.UpdatedAt = subject, content, updatedAt
	m.rows[id] = a
	return nil
}

func (m *memArticles) HideArticle(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	a, ok := m.rows[id]
	if !ok || a.Hidden {
		return store.ErrNotFound
	}
	a.Hidden = true
	m.rows[id] = a
	return nil
}

type memMembers map[string]model.Member

func (m memMembers) FindByUsername(_ context.Context, username string) (model.Member, bool, error) {
	if username == "broken" {
		return model.Member{}, false, errors.New("disk on fire")
	}
	member, ok := m[username]
	return member, ok, nil
}

var (
	alice = model.Member{ID: 1, Username: "alice"}
	bob   = model.Member{ID: 2, Username: "bob"}
)

func newTestService() (*Service, *memArticles) {
	articles := newMemArticles()
	members := memMembers{"alice": alice, "bob": bob}
	return NewService(NewRepository(articles, nil), members, nil), articles
}
