package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creditpool/creditpool-backend/internal/collections"
	"github.com/creditpool/creditpool-backend/internal/ledger"
	"github.com/creditpool/creditpool-backend/internal/likes"
	"github.com/creditpool/creditpool-backend/internal/wallets"
	"github.com/creditpool/creditpool-backend/pkg/db"
	"github.com/creditpool/creditpool-backend/pkg/db/dbtest"
	"github.com/creditpool/creditpool-backend/pkg/db/models"
	"github.com/creditpool/creditpool-backend/pkg/enums"
	pkgerrors "github.com/creditpool/creditpool-backend/pkg/errors"
	"github.com/creditpool/creditpool-backend/pkg/occ"
)

var testRetry = occ.Policy{MaxAttempts: 3, Backoff: time.Millisecond, AttemptTimeout: 5 * time.Second}

type fixture struct {
	client      *db.Client
	roles       *RoleRepository
	collections collections.Repository
	ledger      ledger.Service
	likes       likes.Registry
	admin       Service
	adminID     uuid.UUID
	now         time.Time
}

func newFixture(t *testing.T, auth Authorizer) *fixture {
	t.Helper()
	client := dbtest.Open(t)
	f := &fixture{
		client:      client,
		roles:       NewRoleRepository(client.DB()),
		collections: collections.NewRepository(client.DB()),
		adminID:     uuid.New(),
		now:         time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	walletRepo := wallets.NewRepository(client.DB())

	watcher, err := collections.NewGoalWatcher(collections.WatcherParams{Repo: f.collections, Now: clock})
	require.NoError(t, err)
	f.ledger, err = ledger.NewService(ledger.ServiceParams{
		Tx:          client,
		Repo:        ledger.NewRepository(client.DB()),
		Wallets:     walletRepo,
		Collections: f.collections,
		Watcher:     watcher,
		Retry:       testRetry,
	})
	require.NoError(t, err)
	f.likes, err = likes.NewService(likes.ServiceParams{
		Tx:          client,
		Repo:        likes.NewRepository(client.DB()),
		Collections: f.collections,
		Retry:       testRetry,
	})
	require.NoError(t, err)

	if auth == nil {
		auth = NewRoleAuthorizer(f.roles)
	}
	f.admin, err = NewService(ServiceParams{
		Authorizer:  auth,
		Ledger:      f.ledger,
		Tx:          client,
		Collections: f.collections,
		Wallets:     walletRepo,
		Now:         clock,
		Retry:       testRetry,
	})
	require.NoError(t, err)
	require.NoError(t, f.roles.Grant(context.Background(), f.adminID, enums.RoleAdmin))
	return f
}

func (f *fixture) seed(t *testing.T, goal int64) *models.Collection {
	t.Helper()
	c := &models.Collection{
		OwnerID:      uuid.New(),
		Title:        "Library books",
		GoalAmount:   goal,
		Status:       enums.CollectionStatusActive,
		EndCondition: enums.EndConditionByGoal,
		StartDate:    f.now,
	}
	require.NoError(t, f.collections.Create(context.Background(), c))
	return c
}

func TestNonAdminIsRejectedEverywhere(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	stranger := uuid.New()
	c := f.seed(t, 100)

	_, err := f.admin.AdjustBalance(ctx, stranger, uuid.New(), 10, "")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
	_, err = f.admin.SetCollectionStatus(ctx, stranger, c.ID, enums.CollectionStatusClosed)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
	_, err = f.admin.DeleteCollection(ctx, stranger, c.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
	_, err = f.admin.ListWallets(ctx, stranger, 10)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
	_, err = f.admin.ListCollections(ctx, stranger, 10)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))

	stored, err := f.collections.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.CollectionStatusActive, stored.Status)
}

type failingAuthorizer struct{}

func (failingAuthorizer) IsAdmin(context.Context, uuid.UUID) (bool, error) {
	return false, errors.New("role store down")
}

func TestAuthorizerFailureIsDependencyError(t *testing.T) {
	f := newFixture(t, failingAuthorizer{})

	_, err := f.admin.ListWallets(context.Background(), f.adminID, 10)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
}

func TestAdjustBalance(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID := uuid.New()
	_, err := f.ledger.Deposit(ctx, ledger.DepositInput{UserID: userID, Amount: 60})
	require.NoError(t, err)

	res, err := f.admin.AdjustBalance(ctx, f.adminID, userID, 500, "goodwill")
	require.NoError(t, err)
	assert.Equal(t, int64(440), res.Delta)

	audit, err := f.admin.AuditWallet(ctx, f.adminID, userID)
	require.NoError(t, err)
	assert.True(t, audit.Consistent)
	assert.Equal(t, int64(500), audit.Balance)

	wallets, err := f.admin.ListWallets(ctx, f.adminID, 10)
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	assert.Equal(t, int64(500), wallets[0].Balance)
}

func TestSetCollectionStatusIsReversible(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	c := f.seed(t, 100)

	closed, err := f.admin.SetCollectionStatus(ctx, f.adminID, c.ID, enums.CollectionStatusClosed)
	require.NoError(t, err)
	assert.Equal(t, enums.CollectionStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedReason)
	assert.Equal(t, enums.ClosedReasonAdmin, *closed.ClosedReason)

	again, err := f.admin.SetCollectionStatus(ctx, f.adminID, c.ID, enums.CollectionStatusClosed)
	require.NoError(t, err)
	assert.Equal(t, closed.Version, again.Version)

	reopened, err := f.admin.SetCollectionStatus(ctx, f.adminID, c.ID, enums.CollectionStatusActive)
	require.NoError(t, err)
	assert.Equal(t, enums.CollectionStatusActive, reopened.Status)
	assert.Nil(t, reopened.ClosedReason)
	assert.Nil(t, reopened.ClosedAt)

	stored, err := f.collections.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.CollectionStatusActive, stored.Status)
	assert.Equal(t, int64(2), stored.Version)

	_, err = f.admin.SetCollectionStatus(ctx, f.adminID, c.ID, "archived")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	_, err = f.admin.SetCollectionStatus(ctx, f.adminID, uuid.New(), enums.CollectionStatusClosed)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestAdminClosedCollectionRejectsContributions(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	c := f.seed(t, 100)
	userID := uuid.New()
	_, err := f.ledger.Deposit(ctx, ledger.DepositInput{UserID: userID, Amount: 50})
	require.NoError(t, err)

	_, err = f.admin.SetCollectionStatus(ctx, f.adminID, c.ID, enums.CollectionStatusClosed)
	require.NoError(t, err)
	_, err = f.ledger.Contribute(ctx, ledger.ContributeInput{UserID: userID, CollectionID: c.ID, Amount: 10})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeCollectionClosed))

	_, err = f.admin.SetCollectionStatus(ctx, f.adminID, c.ID, enums.CollectionStatusActive)
	require.NoError(t, err)
	_, err = f.ledger.Contribute(ctx, ledger.ContributeInput{UserID: userID, CollectionID: c.ID, Amount: 10})
	assert.NoError(t, err)
}

func TestDeleteCollectionKeepsWalletHistory(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	c := f.seed(t, 1000)
	userID := uuid.New()

	_, err := f.ledger.Deposit(ctx, ledger.DepositInput{UserID: userID, Amount: 100})
	require.NoError(t, err)
	_, err = f.ledger.Contribute(ctx, ledger.ContributeInput{UserID: userID, CollectionID: c.ID, Amount: 40, Public: true})
	require.NoError(t, err)
	_, err = f.likes.ToggleLike(ctx, userID, c.ID)
	require.NoError(t, err)

	res, err := f.admin.DeleteCollection(ctx, f.adminID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Contributions)
	assert.Equal(t, int64(1), res.Likes)
	assert.Equal(t, int64(1), res.Detached)

	_, err = f.collections.FindByID(ctx, c.ID)
	assert.Error(t, err)

	txns, err := f.ledger.ListTransactions(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	for _, txn := range txns {
		assert.Nil(t, txn.CollectionID)
	}
	audit, err := f.ledger.AuditWallet(ctx, userID)
	require.NoError(t, err)
	assert.True(t, audit.Consistent)

	_, err = f.admin.DeleteCollection(ctx, f.adminID, c.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestListCollectionsIncludesClosed(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	open := f.seed(t, 100)
	closed := f.seed(t, 100)
	_, err := f.admin.SetCollectionStatus(ctx, f.adminID, closed.ID, enums.CollectionStatusClosed)
	require.NoError(t, err)

	rows, err := f.admin.ListCollections(ctx, f.adminID, 10)
	require.NoError(t, err)
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{open.ID, closed.ID}, ids)
}

func TestGrantIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, f.roles.Grant(ctx, userID, enums.RoleAdmin))
	require.NoError(t, f.roles.Grant(ctx, userID, enums.RoleAdmin))
	ok, err := NewRoleAuthorizer(f.roles).IsAdmin(ctx, userID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, f.roles.Revoke(ctx, userID, enums.RoleAdmin))
	ok, err = NewRoleAuthorizer(f.roles).IsAdmin(ctx, userID)
	require.NoError(t, err)
	assert.False(t, ok)
}
