package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"pagefun/app/internal/services"
	"pagefun/app/internal/store"
	"pagefun/shared/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	tokens map[string]*services.IdentityClaims
}

func (f *fakeResolver) Resolve(ctx context.Context, token string) (*services.IdentityClaims, error) {
	if claims, ok := f.tokens[token]; ok {
		return claims, nil
	}
	return nil, services.ErrUnauthenticated
}

type fakeOracle struct {
	balances map[string]uint64
}

func (o *fakeOracle) HasBalance(ctx context.Context, wallet, tokenID string, requiredAmount uint64) (bool, error) {
	return o.balances[wallet+"|"+tokenID] >= requiredAmount, nil
}

func walletClaims(wallets ...string) *services.IdentityClaims {
	claims := &services.IdentityClaims{UserID: "did:test:user"}
	for _, w := range wallets {
		claims.LinkedAccounts = append(claims.LinkedAccounts, services.LinkedAccount{
			Type:      "wallet",
			ChainType: "solana",
			Address:   w,
		})
	}
	return claims
}

func newTestRouter(t *testing.T, oracle services.BalanceOracle, resolver services.IdentityResolver) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	appLogger, err := logger.NewLogger(logger.Config{Level: "error", Environment: "test"})
	require.NoError(t, err)
	fileStore, err := store.NewFileStore(filepath.Join(t.TempDir(), "pages.json"), appLogger)
	require.NoError(t, err)
	engine := services.NewAccessEngine(fileStore, oracle, false, appLogger)

	router := gin.New()
	RegisterRoutes(router)
	NewHandler(engine, resolver, appLogger).RegisterAPIRoutes(router, RateLimitConfig{
		RequestsPerSecond: 1000,
		Burst:             1000,
	})
	return router
}

func doRequest(router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error.Kind
}

const pageBody = `{
	"slug": "mytoken",
	"walletAddress": "W1",
	"title": "My Token",
	"connectedToken": "TOKEN123",
	"items": [
		{"id": "tw1", "presetId": "twitter", "url": "https://twitter.com/x"},
		{"id": "gate1", "presetId": "telegram", "url": "https://t.me/secret", "tokenGated": true, "requiredAmount": 100}
	]
}`

func newPopulatedRouter(t *testing.T, oracle services.BalanceOracle) *gin.Engine {
	t.Helper()
	resolver := &fakeResolver{tokens: map[string]*services.IdentityClaims{
		"owner-token":  walletClaims("W1"),
		"other-token":  walletClaims("W2"),
		"holder-token": walletClaims("holder"),
		"pauper-token": walletClaims("pauper"),
	}}
	router := newTestRouter(t, oracle, resolver)

	rec := doRequest(router, http.MethodPost, "/api/v1/pages", "owner-token", pageBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return router
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeOracle{}, &fakeResolver{})
	rec := doRequest(router, http.MethodGet, "/api/v1/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetPage_AnonymousSanitized(t *testing.T) {
	router := newPopulatedRouter(t, &fakeOracle{})

	rec := doRequest(router, http.MethodGet, "/api/v1/pages/mytoken", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.IsOwner)
	assert.Nil(t, resp.IsComplete)
	require.Len(t, resp.Page.Items, 2)
	assert.Equal(t, "https://twitter.com/x", resp.Page.Items[0].URL)
	assert.Empty(t, resp.Page.Items[1].URL)
}

func TestGetPage_OwnerSeesEverything(t *testing.T) {
	router := newPopulatedRouter(t, &fakeOracle{})

	rec := doRequest(router, http.MethodGet, "/api/v1/pages/mytoken", "owner-token", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.IsOwner)
	require.NotNil(t, resp.IsComplete)
	assert.True(t, *resp.IsComplete)
	assert.Equal(t, "https://t.me/secret", resp.Page.Items[1].URL)
}

func TestGetPage_InvalidTokenDegradesToAnonymous(t *testing.T) {
	router := newPopulatedRouter(t, &fakeOracle{})

	rec := doRequest(router, http.MethodGet, "/api/v1/pages/mytoken", "garbage-token", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.IsOwner)
	assert.Empty(t, resp.Page.Items[1].URL)
}

func TestGetPage_NotFound(t *testing.T) {
	router := newTestRouter(t, &fakeOracle{}, &fakeResolver{})
	rec := doRequest(router, http.MethodGet, "/api/v1/pages/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorKind(t, rec))
}

func TestCreatePage_RequiresAuth(t *testing.T) {
	router := newTestRouter(t, &fakeOracle{}, &fakeResolver{})
	rec := doRequest(router, http.MethodPost, "/api/v1/pages", "", pageBody)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHENTICATED", errorKind(t, rec))
}

func TestCreatePage_ValidationErrors(t *testing.T) {
	resolver := &fakeResolver{tokens: map[string]*services.IdentityClaims{"owner-token": walletClaims("W1")}}
	router := newTestRouter(t, &fakeOracle{}, resolver)

	body := `{"slug": "bad slug!", "walletAddress": "W1"}`
	rec := doRequest(router, http.MethodPost, "/api/v1/pages", "owner-token", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Kind)
	assert.Contains(t, resp.Error.Fields, "slug")
}

func TestUpdatePage_NonOwnerRejected(t *testing.T) {
	router := newPopulatedRouter(t, &fakeOracle{})

	rec := doRequest(router, http.MethodPatch, "/api/v1/pages/mytoken", "other-token", `{"title": "Stolen"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "NOT_OWNER", errorKind(t, rec))
}

func TestUpdatePage_SlugTakenByOtherWallet(t *testing.T) {
	router := newPopulatedRouter(t, &fakeOracle{})

	body := `{"slug": "mytoken", "walletAddress": "W2", "title": "Mine now"}`
	rec := doRequest(router, http.MethodPost, "/api/v1/pages", "other-token", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "SLUG_TAKEN", errorKind(t, rec))
}

func TestDeletePage(t *testing.T) {
	router := newPopulatedRouter(t, &fakeOracle{})

	rec := doRequest(router, http.MethodDelete, "/api/v1/pages/mytoken", "other-token", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(router, http.MethodDelete, "/api/v1/pages/mytoken", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(router, http.MethodDelete, "/api/v1/pages/mytoken", "owner-token", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(router, http.MethodGet, "/api/v1/pages/mytoken", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPages(t *testing.T) {
	router := newPopulatedRouter(t, &fakeOracle{})

	rec := doRequest(router, http.MethodGet, "/api/v1/pages?walletAddress=W1", "owner-token", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PageListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Pages, 1)
	assert.Equal(t, "mytoken", resp.Pages[0].Slug)

	rec = doRequest(router, http.MethodGet, "/api/v1/pages?walletAddress=W1", "other-token", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(router, http.MethodGet, "/api/v1/pages", "owner-token", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRevealURL(t *testing.T) {
	oracle := &fakeOracle{balances: map[string]uint64{
		"holder|TOKEN123": 150,
		"pauper|TOKEN123": 50,
	}}
	router := newPopulatedRouter(t, oracle)

	rec := doRequest(router, http.MethodPost, "/api/v1/pages/mytoken/reveal", "holder-token", `{"itemId": "gate1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp RevealResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "https://t.me/secret", resp.URL)

	rec = doRequest(router, http.MethodPost, "/api/v1/pages/mytoken/reveal", "pauper-token", `{"itemId": "gate1"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "INSUFFICIENT_BALANCE", errorKind(t, rec))

	rec = doRequest(router, http.MethodPost, "/api/v1/pages/mytoken/reveal", "", `{"itemId": "gate1"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(router, http.MethodPost, "/api/v1/pages/mytoken/reveal", "holder-token", `{"itemId": "tw1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "NOT_GATED", errorKind(t, rec))

	rec = doRequest(router, http.MethodPost, "/api/v1/pages/mytoken/reveal", "holder-token", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyAccess(t *testing.T) {
	oracle := &fakeOracle{balances: map[string]uint64{"holder|TOKEN123": 150}}
	router := newPopulatedRouter(t, oracle)

	rec := doRequest(router, http.MethodPost, "/api/v1/verify-access", "holder-token",
		`{"slug": "mytoken", "walletAddress": "holder"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary services.AccessSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.False(t, summary.IsOwner)
	assert.True(t, summary.HasTokenAccess)
	assert.True(t, summary.TokenRequired)
	require.Len(t, summary.GatedLinks, 1)
	assert.Equal(t, "gate1", summary.GatedLinks[0].ItemID)

	rec = doRequest(router, http.MethodPost, "/api/v1/verify-access", "", `{"slug": "mytoken"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.False(t, summary.HasTokenAccess)

	rec = doRequest(router, http.MethodPost, "/api/v1/verify-access", "", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimit(t *testing.T) {
	resolver := &fakeResolver{tokens: map[string]*services.IdentityClaims{"owner-token": walletClaims("W1")}}
	gin.SetMode(gin.TestMode)
	appLogger, err := logger.NewLogger(logger.Config{Level: "error", Environment: "test"})
	require.NoError(t, err)
	fileStore, err := store.NewFileStore(filepath.Join(t.TempDir(), "pages.json"), appLogger)
	require.NoError(t, err)
	engine := services.NewAccessEngine(fileStore, &fakeOracle{}, false, appLogger)

	router := gin.New()
	NewHandler(engine, resolver, appLogger).RegisterAPIRoutes(router, RateLimitConfig{
		RequestsPerSecond: 1,
		Burst:             2,
	})

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		rec := doRequest(router, http.MethodPost, "/api/v1/verify-access", "", `{"slug": "any"}`)
		codes = append(codes, rec.Code)
	}
	assert.NotContains(t, codes[:2], http.StatusTooManyRequests)
	assert.Contains(t, codes, http.StatusTooManyRequests)

	// Unlimited routes are unaffected.
	rec := doRequest(router, http.MethodGet, "/api/v1/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRootBanner(t *testing.T) {
	router := newTestRouter(t, &fakeOracle{}, &fakeResolver{})
	rec := doRequest(router, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pagefun")
}
