package cron

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/creditpool/creditpool-backend/internal/ledger"
	"github.com/creditpool/creditpool-backend/internal/wallets"
	"github.com/creditpool/creditpool-backend/pkg/logger"
)

// LedgerAuditJobParams wires the conservation audit.
type LedgerAuditJobParams struct {
	Logger    *logger.Logger
	Wallets   wallets.Repository
	Ledger    ledger.Service
	BatchSize int
}

// NewLedgerAuditJob checks recently updated wallets against their transaction
// history. It only reports drift; balances are never rewritten here.
func NewLedgerAuditJob(params LedgerAuditJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Wallets == nil || params.Ledger == nil {
		return nil, errors.New("wallet repository and ledger service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultSweepBatch
	}
	return &ledgerAuditJob{logg: params.Logger, wallets: params.Wallets, ledger: params.Ledger, batch: batch}, nil
}

type ledgerAuditJob struct {
	logg    *logger.Logger
	wallets wallets.Repository
	ledger  ledger.Service
	batch   int
}

func (j *ledgerAuditJob) Name() string { return "ledger-audit" }

func (j *ledgerAuditJob) Run(ctx context.Context) error {
	rows, err := j.wallets.List(ctx, j.batch)
	if err != nil {
		return fmt.Errorf("list wallets: %w", err)
	}
	var errs error
	drifted := 0
	for _, w := range rows {
		audit, err := j.ledger.AuditWallet(ctx, w.UserID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("audit %s: %w", w.UserID, err))
			continue
		}
		if !audit.Consistent {
			drifted++
		}
	}
	if drifted > 0 {
		errs = multierr.Append(errs, fmt.Errorf("%d wallets drifted from the ledger", drifted))
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{"checked": len(rows), "drifted": drifted}), "ledger audit complete")
	return errs
}
