package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hiremind/hiremind-backend/internal/ai"
	"github.com/hiremind/hiremind-backend/internal/config"
	"github.com/hiremind/hiremind-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:           "test-secret",
		JWTExpiry:           time.Hour,
		BcryptCost:          4,
		QuizQuestionCount:   10,
		QuizDurationMinutes: 30,
		QuizTTL:             2 * time.Hour,
	}
}

type fakeUsers map[int]*model.User

func (f fakeUsers) GetByID(_ context.Context, id int) (*model.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

type fakeStore struct {
	mu        sync.Mutex
	createErr error
	created   []*model.Assessment
}

func (f *fakeStore) Create(_ context.Context, a *model.Assessment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, a)
	return nil
}

func (f *fakeStore) ListByUser(_ context.Context, userID int) ([]model.Assessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Assessment
	for _, a := range f.created {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

type tipBackend struct {
	tip   string
	err   error
	calls int
}

func (b *tipBackend) Generate(context.Context, string, ai.Format) (string, error) {
	b.calls++
	return b.tip, b.err
}

var errStoreDown = errors.New("store down")

func mustGenerator(t *testing.T, backend ai.Backend) *ai.Generator {
	t.Helper()
	g := ai.NewGenerator(backend, ai.Settings{}, zerolog.Nop())
	require.NotNil(t, g)
	return g
}
