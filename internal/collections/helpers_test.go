package collections

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/creditpool/creditpool-backend/pkg/db"
	"github.com/creditpool/creditpool-backend/pkg/db/dbtest"
	"github.com/creditpool/creditpool-backend/pkg/db/models"
	"github.com/creditpool/creditpool-backend/pkg/enums"
	"github.com/creditpool/creditpool-backend/pkg/occ"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
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

type fixture struct {
	client  *db.Client
	repo    Repository
	watcher *GoalWatcher
	clock   *testClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	clock := newTestClock()
	watcher, err := NewGoalWatcher(WatcherParams{Repo: repo, Now: clock.Now})
	require.NoError(t, err)
	return &fixture{client: client, repo: repo, watcher: watcher, clock: clock}
}

func (f *fixture) service(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:    f.repo,
		Watcher: f.watcher,
		Retry:   occ.Policy{MaxAttempts: 3, Backoff: time.Millisecond, AttemptTimeout: 2 * time.Second},
	})
	require.NoError(t, err)
	return svc
}

func (f *fixture) seedGoal(t *testing.T, goal, raised int64) *models.Collection {
	t.Helper()
	c := &models.Collection{
		OwnerID:      uuid.New(),
		Title:        "Shelter roof",
		GoalAmount:   goal,
		RaisedAmount: raised,
		Status:       enums.CollectionStatusActive,
		EndCondition: enums.EndConditionByGoal,
		StartDate:    f.clock.Now(),
	}
	require.NoError(t, f.repo.Create(context.Background(), c))
	return c
}

func (f *fixture) seedDated(t *testing.T, goal int64, deadline time.Time) *models.Collection {
	t.Helper()
	c := &models.Collection{
		OwnerID:      uuid.New(),
		Title:        "Summer camp",
		GoalAmount:   goal,
		Status:       enums.CollectionStatusActive,
		EndCondition: enums.EndConditionByDate,
		StartDate:    f.clock.Now(),
		Deadline:     &deadline,
	}
	require.NoError(t, f.repo.Create(context.Background(), c))
	return c
}
