package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/creditpool/creditpool-backend/internal/collections"
	"github.com/creditpool/creditpool-backend/internal/wallets"
	"github.com/creditpool/creditpool-backend/pkg/db"
	"github.com/creditpool/creditpool-backend/pkg/db/dbtest"
	"github.com/creditpool/creditpool-backend/pkg/db/models"
	"github.com/creditpool/creditpool-backend/pkg/enums"
	"github.com/creditpool/creditpool-backend/pkg/occ"
	"github.com/creditpool/creditpool-backend/pkg/redis"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type engine struct {
	client      *db.Client
	wallets     wallets.Repository
	collections collections.Repository
	ledger      Repository
	clock       *testClock
}

func newEngine(t *testing.T) *engine {
	t.Helper()
	client := dbtest.Open(t)
	return &engine{
		client:      client,
		wallets:     wallets.NewRepository(client.DB()),
		collections: collections.NewRepository(client.DB()),
		ledger:      NewRepository(client.DB()),
		clock:       &testClock{now: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)},
	}
}

type serviceOption func(*ServiceParams)

func withWallets(repo wallets.Repository) serviceOption {
	return func(p *ServiceParams) { p.Wallets = repo }
}

func withIdempotency(store redis.IdempotencyStore) serviceOption {
	return func(p *ServiceParams) { p.Idempotency = store }
}

func withAttemptTimeout(d time.Duration) serviceOption {
	return func(p *ServiceParams) { p.Retry.AttemptTimeout = d }
}

func (e *engine) service(t *testing.T, opts ...serviceOption) Service {
	t.Helper()
	watcher, err := collections.NewGoalWatcher(collections.WatcherParams{Repo: e.collections, Now: e.clock.Now})
	require.NoError(t, err)

	params := ServiceParams{
		Tx:          e.client,
		Repo:        e.ledger,
		Wallets:     e.wallets,
		Collections: e.collections,
		Watcher:     watcher,
		Retry:       occ.Policy{MaxAttempts: 3, Backoff: time.Millisecond, AttemptTimeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(&params)
	}
	svc, err := NewService(params)
	require.NoError(t, err)
	return svc
}

func (e *engine) seedCollection(t *testing.T, goal, raised int64) *models.Collection {
	t.Helper()
	c := &models.Collection{
		OwnerID:      uuid.New(),
		Title:        "Dog shelter heating",
		GoalAmount:   goal,
		RaisedAmount: raised,
		Status:       enums.CollectionStatusActive,
		EndCondition: enums.EndConditionByGoal,
		StartDate:    e.clock.Now(),
	}
	require.NoError(t, e.collections.Create(context.Background(), c))
	return c
}

func (e *engine) seedDatedCollection(t *testing.T, goal int64, deadline time.Time) *models.Collection {
	t.Helper()
	c := &models.Collection{
		OwnerID:      uuid.New(),
		Title:        "Class trip",
		GoalAmount:   goal,
		Status:       enums.CollectionStatusActive,
		EndCondition: enums.EndConditionByDate,
		StartDate:    e.clock.Now(),
		Deadline:     &deadline,
	}
	require.NoError(t, e.collections.Create(context.Background(), c))
	return c
}

func (e *engine) fund(t *testing.T, svc Service, amount int64) uuid.UUID {
	t.Helper()
	userID := uuid.New()
	_, err := svc.Deposit(context.Background(), DepositInput{UserID: userID, Amount: amount})
	require.NoError(t, err)
	return userID
}

func (e *engine) balance(t *testing.T, userID uuid.UUID) int64 {
	t.Helper()
	w, err := e.wallets.Get(context.Background(), userID)
	require.NoError(t, err)
	return w.Balance
}

func (e *engine) collection(t *testing.T, id uuid.UUID) *models.Collection {
	t.Helper()
	c, err := e.collections.FindByID(context.Background(), id)
	require.NoError(t, err)
	return c
}

type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]string{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value.(string)
	return nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "test:" + scope + ":" + id
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}
