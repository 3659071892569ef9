package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestMetadataForLedgerCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
	}{
		{code: CodeInvalidAmount, status: http.StatusBadRequest},
		{code: CodeInsufficientFunds, status: http.StatusUnprocessableEntity},
		{code: CodeCollectionClosed, status: http.StatusConflict},
		{code: CodeConflict, status: http.StatusConflict, retryable: true},
		{code: CodeNotFound, status: http.StatusNotFound},
		{code: CodeUnauthorized, status: http.StatusUnauthorized},
		{code: CodeUnavailable, status: http.StatusServiceUnavailable, retryable: true},
	}

	seen := map[string]Code{}
	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.PublicMessage == "" {
			t.Fatalf("code %s has no public message", tt.code)
		}
		if other, ok := seen[meta.PublicMessage]; ok {
			t.Fatalf("codes %s and %s share public message %q", tt.code, other, meta.PublicMessage)
		}
		seen[meta.PublicMessage] = tt.code
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing title")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing title" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"field": "title"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeUnavailable, cause, "load wallet")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeUnavailable {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("contribute: %w", New(CodeInsufficientFunds, "balance 60 < 70"))
	if !stdErrors.Is(err, New(CodeInsufficientFunds, "")) {
		t.Fatalf("expected errors.Is to match by code")
	}
	if stdErrors.Is(err, New(CodeConflict, "")) {
		t.Fatalf("expected different codes not to match")
	}
	if !HasCode(err, CodeInsufficientFunds) {
		t.Fatalf("expected HasCode to see wrapped code")
	}
	if CodeOf(stdErrors.New("plain")) != CodeInternal {
		t.Fatalf("untyped errors should map to internal")
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeCollectionClosed, "closed")
	if got := As(err); got == nil || got.Code() != CodeCollectionClosed {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestDumpExtractsDriverDetails(t *testing.T) {
	pgxErr := &pgconn.PgError{Code: "23505", ConstraintName: "collection_likes_collection_user_key", TableName: "collection_likes"}
	d := Dump(Wrap(CodeConflict, pgxErr, "insert like"))
	if d.PGCode != "23505" || d.PGConstraint != "collection_likes_collection_user_key" {
		t.Fatalf("unexpected pgx dump %+v", d)
	}
	if d.Code != CodeConflict {
		t.Fatalf("expected code in dump, got %s", d.Code)
	}
	if len(d.Chain) < 2 {
		t.Fatalf("expected wrapped chain, got %v", d.Chain)
	}

	pqErr := &pq.Error{Code: "40001", Table: "wallets"}
	if got := PGCode(fmt.Errorf("tx: %w", pqErr)); got != "40001" {
		t.Fatalf("expected pq code, got %q", got)
	}
}
