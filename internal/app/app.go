// Package app assembles the ledger services from their repositories so the
// API and the cron worker share one wiring.
package app

import (
	"errors"
	"time"

	"github.com/creditpool/creditpool-backend/internal/admin"
	"github.com/creditpool/creditpool-backend/internal/collections"
	"github.com/creditpool/creditpool-backend/internal/ledger"
	"github.com/creditpool/creditpool-backend/internal/likes"
	"github.com/creditpool/creditpool-backend/internal/wallets"
	"github.com/creditpool/creditpool-backend/pkg/config"
	"github.com/creditpool/creditpool-backend/pkg/db"
	"github.com/creditpool/creditpool-backend/pkg/enums"
	"github.com/creditpool/creditpool-backend/pkg/logger"
	"github.com/creditpool/creditpool-backend/pkg/metrics"
	"github.com/creditpool/creditpool-backend/pkg/occ"
	"github.com/creditpool/creditpool-backend/pkg/redis"
)

type Params struct {
	DB             *db.Client
	Ledger         config.LedgerConfig
	Idempotency    redis.IdempotencyStore
	IdempotencyTTL time.Duration
	Metrics        *metrics.LedgerMetrics
	Logger         *logger.Logger
	Now            func() time.Time
}

type Services struct {
	Wallets        wallets.Repository
	CollectionRepo collections.Repository
	LedgerRepo     ledger.Repository
	Roles          *admin.RoleRepository
	Watcher        *collections.GoalWatcher

	Ledger      ledger.Service
	Collections collections.Service
	Likes       likes.Registry
	Admin       admin.Service
}

// RetryPolicy maps the ledger settings onto the optimistic retry loop.
func RetryPolicy(cfg config.LedgerConfig) occ.Policy {
	return occ.Policy{
		MaxAttempts:    cfg.MaxAttempts,
		Backoff:        cfg.RetryBackoff,
		AttemptTimeout: cfg.StoreTimeout,
	}
}

func Build(p Params) (*Services, error) {
	if p.DB == nil {
		return nil, errors.New("app: database client is required")
	}
	now := p.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	conn := p.DB.DB()
	retry := RetryPolicy(p.Ledger)

	s := &Services{
		Wallets:        wallets.NewRepository(conn),
		CollectionRepo: collections.NewRepository(conn),
		LedgerRepo:     ledger.NewRepository(conn),
		Roles:          admin.NewRoleRepository(conn),
	}

	var err error
	s.Watcher, err = collections.NewGoalWatcher(collections.WatcherParams{
		Repo:         s.CollectionRepo,
		Now:          now,
		StoreTimeout: p.Ledger.StoreTimeout,
		Metrics:      p.Metrics,
		Logger:       logg,
	})
	if err != nil {
		return nil, err
	}

	s.Ledger, err = ledger.NewService(ledger.ServiceParams{
		Tx:             p.DB,
		Repo:           s.LedgerRepo,
		Wallets:        s.Wallets,
		Collections:    s.CollectionRepo,
		Watcher:        s.Watcher,
		Idempotency:    p.Idempotency,
		IdempotencyTTL: p.IdempotencyTTL,
		Retry:          retry,
		DefaultMethod:  enums.DepositMethod(p.Ledger.DefaultDepositMethod),
		Metrics:        p.Metrics,
		Logger:         logg,
	})
	if err != nil {
		return nil, err
	}

	s.Collections, err = collections.NewService(collections.ServiceParams{
		Repo:    s.CollectionRepo,
		Watcher: s.Watcher,
		Retry:   retry,
		Logger:  logg,
	})
	if err != nil {
		return nil, err
	}

	s.Likes, err = likes.NewService(likes.ServiceParams{
		Tx:          p.DB,
		Repo:        likes.NewRepository(conn),
		Collections: s.CollectionRepo,
		Retry:       retry,
		Metrics:     p.Metrics,
		Logger:      logg,
	})
	if err != nil {
		return nil, err
	}

	s.Admin, err = admin.NewService(admin.ServiceParams{
		Authorizer:  admin.NewRoleAuthorizer(s.Roles),
		Ledger:      s.Ledger,
		Tx:          p.DB,
		Collections: s.CollectionRepo,
		Wallets:     s.Wallets,
		Now:         now,
		Retry:       retry,
		Logger:      logg,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
