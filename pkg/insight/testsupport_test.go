package insight

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/guwenlab/insight/pkg/ai"
	"github.com/guwenlab/insight/pkg/common"
	"github.com/guwenlab/insight/pkg/geo"
	"github.com/guwenlab/insight/pkg/store"
)

// scriptedChat answers prompts by substring match against its script and
// reports absence for anything else. A zero delay responds immediately.
type scriptedChat struct {
	mu       sync.Mutex
	script   map[string]string
	delay    time.Duration
	calls    int
	lastOpts ai.GenerateOptions
}

func (c *scriptedChat) Chat(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, bool) {
	var resolved ai.GenerateOptions
	for _, opt := range opts {
		opt(&resolved)
	}

	c.mu.Lock()
	c.calls++
	c.lastOpts = resolved
	script := c.script
	delay := c.delay
	c.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", false
		}
	}
	for needle, reply := range script {
		if needle != "" && strings.Contains(prompt, needle) {
			return reply, true
		}
	}
	return "", false
}

func (c *scriptedChat) Metrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func (c *scriptedChat) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *scriptedChat) lastOptions() ai.GenerateOptions {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastOpts
}

// scriptedGeo resolves the addresses in its table and reports absence for
// the rest.
type scriptedGeo struct {
	mu     sync.Mutex
	coords map[string][2]float64
	calls  []string
}

func (g *scriptedGeo) Geocode(ctx context.Context, address string) (float64, float64, bool) {
	g.mu.Lock()
	g.calls = append(g.calls, address)
	coord, ok := g.coords[address]
	g.mu.Unlock()
	if !ok {
		return 0, 0, false
	}
	return coord[0], coord[1], true
}

// memStorage is an in-memory store.Storage for service tests.
type memStorage struct {
	mu        sync.Mutex
	nextID    int64
	documents map[int64]common.Document
	entities  map[int64][]common.Entity
	relations map[int64][]common.Relation
	sections  map[int64][]common.Section
}

func newMemStorage() *memStorage {
	return &memStorage{
		nextID:    1,
		documents: make(map[int64]common.Document),
		entities:  make(map[int64][]common.Entity),
		relations: make(map[int64][]common.Relation),
		sections:  make(map[int64][]common.Section),
	}
}

func (m *memStorage) CreateDocument(ctx context.Context, title, content string) (common.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc := common.Document{ID: m.nextID, Title: title, Content: content, Category: common.GenreUnknown}
	m.nextID++
	m.documents[doc.ID] = doc
	return doc, nil
}

func (m *memStorage) GetDocument(ctx context.Context, id int64) (common.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[id]
	if !ok {
		return common.Document{}, store.ErrNotFound
	}
	return doc, nil
}

func (m *memStorage) ListDocuments(ctx context.Context) ([]common.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs := make([]common.Document, 0, len(m.documents))
	for _, doc := range m.documents {
		docs = append(docs, doc)
	}
	return docs, nil
}

func (m *memStorage) UpdateDocumentCategory(ctx context.Context, id int64, category common.Genre) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[id]
	if !ok {
		return store.ErrNotFound
	}
	doc.Category = category
	m.documents[id] = doc
	return nil
}

func (m *memStorage) ReplaceEntities(ctx context.Context, documentID int64, entities []common.Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entities[documentID] = append([]common.Entity(nil), entities...)
	return nil
}

func (m *memStorage) GetEntities(ctx context.Context, documentID int64) ([]common.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]common.Entity(nil), m.entities[documentID]...), nil
}

func (m *memStorage) ReplaceRelations(ctx context.Context, documentID int64, relations []common.Relation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relations[documentID] = append([]common.Relation(nil), relations...)
	return nil
}

func (m *memStorage) GetRelations(ctx context.Context, documentID int64) ([]common.Relation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]common.Relation(nil), m.relations[documentID]...), nil
}

func (m *memStorage) ReplaceSections(ctx context.Context, documentID int64, sections []common.Section) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sections[documentID] = append([]common.Section(nil), sections...)
	return nil
}

func (m *memStorage) GetSections(ctx context.Context, documentID int64) ([]common.Section, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]common.Section(nil), m.sections[documentID]...), nil
}

func newTestService(chat ai.ChatClient, geocoder geo.Client, storage store.Storage) *Service {
	return NewService(NewServiceParams{
		Storage:     storage,
		Chat:        chat,
		Geocoder:    geocoder,
		CallTimeout: 2 * time.Second,
		JoinTimeout: 2 * time.Second,
	})
}
