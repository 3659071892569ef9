package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/creditpool/creditpool-backend/internal/collections"
	"github.com/creditpool/creditpool-backend/internal/wallets"
	"github.com/creditpool/creditpool-backend/pkg/db"
	"github.com/creditpool/creditpool-backend/pkg/db/models"
	"github.com/creditpool/creditpool-backend/pkg/enums"
	pkgerrors "github.com/creditpool/creditpool-backend/pkg/errors"
	"github.com/creditpool/creditpool-backend/pkg/logger"
	"github.com/creditpool/creditpool-backend/pkg/metrics"
	"github.com/creditpool/creditpool-backend/pkg/occ"
	"github.com/creditpool/creditpool-backend/pkg/pagination"
	"github.com/creditpool/creditpool-backend/pkg/redis"
)

const (
	opDeposit    = "deposit"
	opContribute = "contribute"
	opAdjust     = "admin_adjust"
)

var errDeadlinePassed = errors.New("collection deadline passed")

// ServiceParams wires the ledger engine.
type ServiceParams struct {
	Tx             db.Transactor
	Repo           Repository
	Wallets        wallets.Repository
	Collections    collections.Repository
	Watcher        *collections.GoalWatcher
	Idempotency    redis.IdempotencyStore
	IdempotencyTTL time.Duration
	Retry          occ.Policy
	DefaultMethod  enums.DepositMethod
	Metrics        *metrics.LedgerMetrics
	Logger         *logger.Logger
}

// Service is the only writer of wallet balances and raised amounts.
type Service interface {
	Deposit(ctx context.Context, input DepositInput) (*DepositResult, error)
	Contribute(ctx context.Context, input ContributeInput) (*ContributeResult, error)
	AdminAdjustBalance(ctx context.Context, input AdminAdjustInput) (*AdjustResult, error)
	GetWalletBalance(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error)
	ListContributions(ctx context.Context, collectionID uuid.UUID, publicOnly bool, limit int) ([]models.Contribution, error)
	AuditWallet(ctx context.Context, userID uuid.UUID) (*WalletAudit, error)
}

type service struct {
	tx            db.Transactor
	repo          Repository
	wallets       wallets.Repository
	collections   collections.Repository
	watcher       *collections.GoalWatcher
	idem          redis.IdempotencyStore
	idemTTL       time.Duration
	retry         occ.Policy
	defaultMethod enums.DepositMethod
	metrics       *metrics.LedgerMetrics
	logg          *logger.Logger
}

// NewService builds the ledger engine with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Tx == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transactor is required")
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ledger repo is required")
	case params.Wallets == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet repo is required")
	case params.Collections == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "collection repo is required")
	case params.Watcher == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "goal watcher is required")
	}
	method := params.DefaultMethod
	if !method.IsValid() {
		method = enums.DepositMethodCard
	}
	ttl := params.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &service{
		tx:            params.Tx,
		repo:          params.Repo,
		wallets:       params.Wallets,
		collections:   params.Collections,
		watcher:       params.Watcher,
		idem:          params.Idempotency,
		idemTTL:       ttl,
		retry:         params.Retry,
		defaultMethod: method,
		metrics:       params.Metrics,
		logg:          params.Logger,
	}, nil
}

func (s *service) policy(op string) occ.Policy {
	p := s.retry
	p.OnConflict = func(attempt int) {
		s.metrics.IncConflict(op)
		if s.logg != nil {
			ctx := s.logg.WithOperation(context.Background(), op)
			s.logg.Debug(s.logg.WithField(ctx, "attempt", attempt), "version conflict, retrying")
		}
	}
	return p
}

func (s *service) observe(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(pkgerrors.CodeOf(err))
	}
	s.metrics.ObserveOperation(op, outcome, time.Since(start))
}

// Deposit credits the wallet, creating it on first use.
func (s *service) Deposit(ctx context.Context, input DepositInput) (result *DepositResult, err error) {
	start := time.Now()
	defer func() { s.observe(opDeposit, start, err) }()

	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := wallets.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	method := input.Method
	if method == "" {
		method = s.defaultMethod
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown deposit method").
			WithDetails(map[string]any{"method": method})
	}

	err = occ.Do(ctx, s.policy(opDeposit), func(ctx context.Context) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			walletRepo := s.wallets.WithTx(tx)
			if err := walletRepo.Ensure(ctx, input.UserID); err != nil {
				return err
			}
			wallet, err := walletRepo.Get(ctx, input.UserID)
			if err != nil {
				return err
			}
			if wallet.Balance > math.MaxInt64-input.Amount {
				return pkgerrors.New(pkgerrors.CodeInvalidAmount, "deposit would overflow the wallet balance")
			}

			newBalance := wallet.Balance + input.Amount
			ok, err := walletRepo.CompareAndSwap(ctx, input.UserID, wallet.Version, newBalance)
			if err != nil {
				return err
			}
			if !ok {
				return occ.ErrStale
			}

			txn := models.Transaction{
				UserID:      input.UserID,
				Kind:        enums.TransactionKindDeposit,
				Amount:      input.Amount,
				Description: "Deposit via " + method.Label(),
			}
			if err := s.repo.WithTx(tx).CreateTransaction(ctx, &txn); err != nil {
				return err
			}

			wallet.Balance = newBalance
			wallet.Version++
			result = &DepositResult{Wallet: *wallet, Transaction: txn}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AddCredits(opDeposit, input.Amount)
	if s.logg != nil {
		logCtx := s.logg.WithUserID(ctx, input.UserID.String())
		s.logg.Info(s.logg.WithFields(logCtx, map[string]any{"amount": input.Amount, "method": method}), "deposit committed")
	}
	return result, nil
}

// Contribute debits the wallet and credits the collection atomically, then
// lets the goal watcher decide whether the collection closes.
func (s *service) Contribute(ctx context.Context, input ContributeInput) (result *ContributeResult, err error) {
	start := time.Now()
	defer func() { s.observe(opContribute, start, err) }()

	if input.UserID == uuid.Nil || input.CollectionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and collection id are required")
	}
	if err := wallets.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if s.idem == nil || strings.TrimSpace(input.IdempotencyKey) == "" {
		return s.contribute(ctx, input)
	}
	return s.contributeOnce(ctx, input)
}

func (s *service) contribute(ctx context.Context, input ContributeInput) (*ContributeResult, error) {
	var result *ContributeResult
	err := occ.Do(ctx, s.policy(opContribute), func(ctx context.Context) error {
		result = nil
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			walletRepo := s.wallets.WithTx(tx)
			collectionRepo := s.collections.WithTx(tx)

			wallet, err := walletRepo.Get(ctx, input.UserID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			collection, err := collectionRepo.FindByID(ctx, input.CollectionID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "collection not found")
				}
				return err
			}
			if err := collections.EnsureAcceptsContributions(collection); err != nil {
				return err
			}
			if collection.DeadlinePassed(s.watcher.Now()) {
				return errDeadlinePassed
			}
			if err := wallets.EnsureSufficient(wallet, input.Amount); err != nil {
				return err
			}

			newBalance := wallet.Balance - input.Amount
			ok, err := walletRepo.CompareAndSwap(ctx, input.UserID, wallet.Version, newBalance)
			if err != nil {
				return err
			}
			if !ok {
				return occ.ErrStale
			}
			ok, err = collectionRepo.AddRaised(ctx, collection.ID, collection.Version, input.Amount)
			if err != nil {
				return err
			}
			if !ok {
				return occ.ErrStale
			}

			ledgerRepo := s.repo.WithTx(tx)
			contribution := models.Contribution{
				CollectionID: collection.ID,
				UserID:       input.UserID,
				Amount:       input.Amount,
				Visible:      input.Public,
			}
			if err := ledgerRepo.CreateContribution(ctx, &contribution); err != nil {
				return err
			}
			collectionID := collection.ID
			txn := models.Transaction{
				UserID:       input.UserID,
				CollectionID: &collectionID,
				Kind:         enums.TransactionKindContribution,
				Amount:       -input.Amount,
				Description:  fmt.Sprintf("Contribution to %q", collection.Title),
			}
			if err := ledgerRepo.CreateTransaction(ctx, &txn); err != nil {
				return err
			}

			collection.RaisedAmount += input.Amount
			collection.Version++
			result = &ContributeResult{
				Contribution:  contribution,
				Transaction:   txn,
				Collection:    *collection,
				WalletBalance: newBalance,
			}
			return nil
		})
	})
	if errors.Is(err, errDeadlinePassed) {
		// The deadline close commits on its own so the rejected debit cannot roll it back.
		if _, closeErr := s.watcher.Evaluate(ctx, input.CollectionID); closeErr != nil && s.logg != nil {
			s.logg.Error(s.logg.WithCollectionID(ctx, input.CollectionID.String()), "deadline close failed", closeErr)
		}
		return nil, pkgerrors.New(pkgerrors.CodeCollectionClosed, "collection deadline has passed")
	}
	if err != nil {
		return nil, err
	}

	s.metrics.AddCredits(opContribute, input.Amount)
	closed, werr := s.watcher.EvaluateCollection(ctx, &result.Collection)
	if werr != nil {
		// The contribution is committed; the sweep will close the collection later.
		if s.logg != nil {
			s.logg.Error(s.logg.WithCollectionID(ctx, input.CollectionID.String()), "goal check after contribution failed", werr)
		}
	}
	result.CollectionClosed = closed

	if s.logg != nil {
		logCtx := s.logg.WithUserID(ctx, input.UserID.String())
		logCtx = s.logg.WithCollectionID(logCtx, input.CollectionID.String())
		s.logg.Info(s.logg.WithFields(logCtx, map[string]any{"amount": input.Amount, "closed": closed}), "contribution committed")
	}
	return result, nil
}

// AdminAdjustBalance sets an absolute balance and records the delta.
func (s *service) AdminAdjustBalance(ctx context.Context, input AdminAdjustInput) (result *AdjustResult, err error) {
	start := time.Now()
	defer func() { s.observe(opAdjust, start, err) }()

	if input.TargetUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target user id is required")
	}
	if err := wallets.ValidateTargetBalance(input.NewBalance); err != nil {
		return nil, err
	}

	err = occ.Do(ctx, s.policy(opAdjust), func(ctx context.Context) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			walletRepo := s.wallets.WithTx(tx)
			wallet, err := walletRepo.Get(ctx, input.TargetUserID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "wallet not found")
				}
				return err
			}
			ok, err := walletRepo.CompareAndSwap(ctx, input.TargetUserID, wallet.Version, input.NewBalance)
			if err != nil {
				return err
			}
			if !ok {
				return occ.ErrStale
			}

			delta := input.NewBalance - wallet.Balance
			txn := models.Transaction{
				UserID:      input.TargetUserID,
				Kind:        enums.TransactionKindAdminAdjustment,
				Amount:      delta,
				Description: adjustmentDescription(input.NewBalance, input.Reason),
			}
			if err := s.repo.WithTx(tx).CreateTransaction(ctx, &txn); err != nil {
				return err
			}

			wallet.Balance = input.NewBalance
			wallet.Version++
			result = &AdjustResult{Wallet: *wallet, Transaction: txn, Delta: delta}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithUserID(ctx, input.TargetUserID.String())
		s.logg.Warn(s.logg.WithFields(logCtx, map[string]any{
			"admin_id":    input.AdminID.String(),
			"new_balance": input.NewBalance,
			"delta":       result.Delta,
		}), "wallet balance overridden")
	}
	return result, nil
}

func adjustmentDescription(balance int64, reason string) string {
	desc := fmt.Sprintf("Balance set to %d by admin", balance)
	if reason = strings.TrimSpace(reason); reason != "" {
		desc += ": " + reason
	}
	return desc
}

// GetWalletBalance returns the wallet, creating an empty one on first read.
func (s *service) GetWalletBalance(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	var wallet *models.Wallet
	err := occ.Do(ctx, s.retry, func(ctx context.Context) error {
		if err := s.wallets.Ensure(ctx, userID); err != nil {
			return err
		}
		found, err := s.wallets.Get(ctx, userID)
		wallet = found
		return err
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

func (s *service) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	var rows []models.Transaction
	err := occ.Do(ctx, s.retry, func(ctx context.Context) error {
		found, err := s.repo.ListTransactions(ctx, userID, pagination.NormalizeLimit(limit))
		rows = found
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListContributions returns a collection's contributions; publicOnly hides
// anonymous ones.
func (s *service) ListContributions(ctx context.Context, collectionID uuid.UUID, publicOnly bool, limit int) ([]models.Contribution, error) {
	if collectionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "collection id is required")
	}
	var rows []models.Contribution
	err := occ.Do(ctx, s.retry, func(ctx context.Context) error {
		if _, err := s.collections.FindByID(ctx, collectionID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "collection not found")
			}
			return err
		}
		found, err := s.repo.ListContributions(ctx, collectionID, publicOnly, pagination.NormalizeLimit(limit))
		rows = found
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// AuditWallet checks that the stored balance equals the sum of its records.
func (s *service) AuditWallet(ctx context.Context, userID uuid.UUID) (*WalletAudit, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	var audit *WalletAudit
	err := occ.Do(ctx, s.retry, func(ctx context.Context) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			wallet, err := s.wallets.WithTx(tx).Get(ctx, userID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "wallet not found")
				}
				return err
			}
			sum, err := s.repo.WithTx(tx).SumTransactions(ctx, userID)
			if err != nil {
				return err
			}
			audit = &WalletAudit{
				UserID:     userID,
				Balance:    wallet.Balance,
				LedgerSum:  sum,
				Consistent: wallet.Balance == sum,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if !audit.Consistent && s.logg != nil {
		logCtx := s.logg.WithUserID(ctx, userID.String())
		s.logg.Warn(s.logg.WithFields(logCtx, map[string]any{"balance": audit.Balance, "ledger_sum": audit.LedgerSum}), "wallet balance drifted from ledger")
	}
	return audit, nil
}
