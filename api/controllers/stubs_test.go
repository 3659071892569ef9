package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/creditpool/creditpool-backend/api/middleware"
	"github.com/creditpool/creditpool-backend/internal/collections"
	"github.com/creditpool/creditpool-backend/internal/ledger"
	"github.com/creditpool/creditpool-backend/internal/likes"
	"github.com/creditpool/creditpool-backend/pkg/db/models"
	"github.com/creditpool/creditpool-backend/pkg/enums"
	pkgerrors "github.com/creditpool/creditpool-backend/pkg/errors"
)

type stubLedger struct {
	deposit       func(context.Context, ledger.DepositInput) (*ledger.DepositResult, error)
	contribute    func(context.Context, ledger.ContributeInput) (*ledger.ContributeResult, error)
	balance       func(context.Context, uuid.UUID) (*models.Wallet, error)
	transactions  func(context.Context, uuid.UUID, int) ([]models.Transaction, error)
	contributions func(context.Context, uuid.UUID, bool, int) ([]models.Contribution, error)
}

func (s stubLedger) Deposit(ctx context.Context, in ledger.DepositInput) (*ledger.DepositResult, error) {
	return s.deposit(ctx, in)
}

func (s stubLedger) Contribute(ctx context.Context, in ledger.ContributeInput) (*ledger.ContributeResult, error) {
	return s.contribute(ctx, in)
}

func (s stubLedger) AdminAdjustBalance(context.Context, ledger.AdminAdjustInput) (*ledger.AdjustResult, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not stubbed")
}

func (s stubLedger) GetWalletBalance(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return s.balance(ctx, userID)
}

func (s stubLedger) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error) {
	return s.transactions(ctx, userID, limit)
}

func (s stubLedger) ListContributions(ctx context.Context, collectionID uuid.UUID, publicOnly bool, limit int) ([]models.Contribution, error) {
	return s.contributions(ctx, collectionID, publicOnly, limit)
}

func (s stubLedger) AuditWallet(context.Context, uuid.UUID) (*ledger.WalletAudit, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not stubbed")
}

type stubCollections struct {
	create func(context.Context, collections.CreateInput) (*models.Collection, error)
	get    func(context.Context, uuid.UUID) (*models.Collection, error)
	list   func(context.Context, collections.ListInput) ([]models.Collection, error)
	edit   func(context.Context, collections.EditInput) (*models.Collection, error)
}

func (s stubCollections) Create(ctx context.Context, in collections.CreateInput) (*models.Collection, error) {
	return s.create(ctx, in)
}

func (s stubCollections) Get(ctx context.Context, id uuid.UUID) (*models.Collection, error) {
	return s.get(ctx, id)
}

func (s stubCollections) List(ctx context.Context, in collections.ListInput) ([]models.Collection, error) {
	return s.list(ctx, in)
}

func (s stubCollections) Edit(ctx context.Context, in collections.EditInput) (*models.Collection, error) {
	return s.edit(ctx, in)
}

type stubLikes struct {
	toggle func(context.Context, uuid.UUID, uuid.UUID) (*likes.ToggleResult, error)
	liked  bool
	ids    []uuid.UUID
}

func (s stubLikes) ToggleLike(ctx context.Context, userID, collectionID uuid.UUID) (*likes.ToggleResult, error) {
	return s.toggle(ctx, userID, collectionID)
}

func (s stubLikes) Reconcile(context.Context, uuid.UUID) (int64, error) { return 0, nil }

func (s stubLikes) ReconcileAll(context.Context) (int, error) { return 0, nil }

func (s stubLikes) IsLiked(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return s.liked, nil
}

func (s stubLikes) LikedCollectionIDs(context.Context, uuid.UUID, int) ([]uuid.UUID, error) {
	return s.ids, nil
}

// newRequest builds an authenticated request with chi URL params applied.
func newRequest(method, target, body string, userID uuid.UUID, params map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := req.Context()
	if userID != uuid.Nil {
		ctx = middleware.WithUserID(ctx, userID.String())
		ctx = middleware.WithRole(ctx, string(enums.RoleUser))
	}
	if len(params) > 0 {
		rc := chi.NewRouteContext()
		for k, v := range params {
			rc.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rc)
	}
	return req.WithContext(ctx)
}

func sampleCollection(owner uuid.UUID) *models.Collection {
	return &models.Collection{
		ID:           uuid.New(),
		OwnerID:      owner,
		Title:        "Shelter roof",
		GoalAmount:   100,
		Status:       enums.CollectionStatusActive,
		EndCondition: enums.EndConditionByGoal,
	}
}
