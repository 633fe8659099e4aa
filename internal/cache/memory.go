package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/SergeyParamoshkin/blog/internal/model"
)

type memoryItem struct {
	posts   []model.BlogPost
	expires time.Time
}

// Memory is an in-process Cache, used when no Redis address is configured.
type Memory struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
}

func (m *Memory) GetPosts(_ context.Context, key string) ([]model.BlogPost, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(item.expires) {
		delete(m.items, key)

		return nil, false, nil
	}

	return clonePosts(item.posts), true, nil
}

func (m *Memory) SetPosts(_ context.Context, key string, posts []model.BlogPost, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = memoryItem{
		posts:   clonePosts(posts),
		expires: m.now().Add(ttl),
	}

	return nil
}

// clonePosts copies posts including their tag slices.
func clonePosts(posts []model.BlogPost) []model.BlogPost {
	out := slices.Clone(posts)
	for i := range out {
		out[i].Tags = slices.Clone(out[i].Tags)
	}

	return out
}
