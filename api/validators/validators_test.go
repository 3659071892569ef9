package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/creditpool/creditpool-backend/pkg/errors"
)

type depositBody struct {
	Amount int64  `json:"amount" validate:"gt=0"`
	Method string `json:"method" validate:"omitempty,deposit_method"`
}

func TestDecodeJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":50,"method":"blik"}`))
	var body depositBody
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.Equal(t, int64(50), body.Amount)
	assert.Equal(t, "blik", body.Method)
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":50,"currency":"PLN"}`))
	var body depositBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":0,"method":"cash"}`))
	var body depositBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be greater than 0", details["amount"])
	assert.Equal(t, "must be one of card, blik, transfer", details["method"])
}

func TestParseQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=30&public_only=true&bad=x", nil)

	limit, err := ParseQueryInt(req, "limit", 50, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 30, limit)

	limit, err = ParseQueryInt(req, "missing", 50, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 50, limit)

	_, err = ParseQueryInt(req, "bad", 50, 1, 100)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	publicOnly, err := ParseQueryBool(req, "public_only", false)
	require.NoError(t, err)
	assert.True(t, publicOnly)

	_, err = ParseQueryBool(req, "bad", false)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestParsePathUUID(t *testing.T) {
	id := uuid.New()
	rc := chi.NewRouteContext()
	rc.URLParams.Add("collectionId", id.String())
	rc.URLParams.Add("broken", "nope")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	got, err := ParsePathUUID(req, "collectionId")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParsePathUUID(req, "broken")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = ParsePathUUID(req, "absent")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Zbiórka", SanitizeString("  Zbiórka na schronisko ", 7))
	assert.Equal(t, "abc", SanitizeString(" abc ", 0))
}

func TestDecodeJSONBodyRejectsTrailingDocument(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":5}{"amount":6}`))
	var body depositBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestDecodeJSONBodyRejectsOversizedBody(t *testing.T) {
	payload := `{"amount":5,"method":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
	var body depositBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(MaxBodyBytes), details["max_bytes"])
}
