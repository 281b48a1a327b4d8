package service

import (
	"StudyVault/internal/repo"
	"StudyVault/internal/storage"
	"StudyVault/internal/task"
	"StudyVault/model"
	"StudyVault/utils"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testClock advances one second per call so ordering by time is deterministic.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []task.Message
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, msg task.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakePublisher) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.msgs))
	for _, m := range f.msgs {
		out = append(out, m.Kind)
	}
	return out
}

// fakeMailer records activation links instead of sending them.
type fakeMailer struct {
	mu    sync.Mutex
	links map[string]string
	err   error
}

func (f *fakeMailer) SendActivation(to, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.links[to] = link
	return nil
}

// token returns the activation token last mailed to to.
func (f *fakeMailer) token(t *testing.T, to string) string {
	t.Helper()
	f.mu.Lock()
	link, ok := f.links[to]
	f.mu.Unlock()
	require.True(t, ok, "no activation mail for %s", to)
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

type harness struct {
	svc       *Service
	db        *gorm.DB
	store     *storage.MemoryStore
	publisher *fakePublisher
	cache     *utils.ListCache
	pending   *memoryCache
	mailer    *fakeMailer
}

func openTestDB(t *testing.T, clock *testClock) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		NowFunc:        clock.Now,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repo.AutoMigrate(db))
	return db
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := &testClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	db := openTestDB(t, clock)
	store := storage.NewMemoryStore()
	publisher := &fakePublisher{}
	cache := utils.NewListCache(newMemoryCache(), time.Minute)
	pending := newMemoryCache()
	mailer := &fakeMailer{links: map[string]string{}}
	svc := New(repo.New(db), store, Options{
		Cache:     cache,
		Publisher: publisher,
		Metrics:   NewMetrics(prometheus.NewRegistry()),
		Tokens:    utils.NewTokenIssuer("test-secret", time.Hour),
		Now:       clock.Now,
		Pending:   pending,
		Mailer:    mailer,
	})
	return &harness{
		svc:       svc,
		db:        db,
		store:     store,
		publisher: publisher,
		cache:     cache,
		pending:   pending,
		mailer:    mailer,
	}
}

var (
	ann   = Identity{UserID: 1, Email: "ann@example.com"}
	bob   = Identity{UserID: 2, Email: "bob@example.com"}
	alice = Identity{UserID: 3, Email: "alice@example.com"}
)

func (h *harness) subject(t *testing.T, id Identity, name string) *model.Subject {
	t.Helper()
	subject, err := h.svc.CreateSubject(context.Background(), id, SubjectInput{Name: name})
	require.NoError(t, err)
	return subject
}

func (h *harness) file(t *testing.T, id Identity, subjectID, name string) *model.File {
	t.Helper()
	content := []byte("content of " + name)
	file, err := h.svc.CreateFile(context.Background(), id, FileInput{
		SubjectID: subjectID,
		Name:      name,
		Size:      int64(len(content)),
		Body:      bytes.NewReader(content),
	})
	require.NoError(t, err)
	return file
}

func (h *harness) fileCount(t *testing.T, ownerID uint64, subjectID string) int64 {
	t.Helper()
	var subject model.Subject
	require.NoError(t, h.db.Where("id = ? AND owner_id = ?", subjectID, ownerID).First(&subject).Error)
	return subject.FileCount
}

func fileIDs(files []model.File) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.ID)
	}
	return out
}

// memoryCache is an in-process utils.Cache used to exercise cache invalidation.
type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string]string{}}
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	raw, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return utils.ErrCacheMiss
	}
	return json.Unmarshal([]byte(raw), dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = string(raw)
	return nil
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
		}
	}
	return nil
}
