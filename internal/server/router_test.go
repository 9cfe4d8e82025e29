package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"warehouse-backend/internal/auth"
	"warehouse-backend/internal/bom"
	"warehouse-backend/internal/config"
	"warehouse-backend/internal/ledger"
	"warehouse-backend/internal/locker"
	"warehouse-backend/internal/metrics"
	"warehouse-backend/internal/models"
	"warehouse-backend/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	app   *fiber.App
	store *repository.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	auth.PasswordCost = bcrypt.MinCost

	cfg := &config.Config{
		AppEnv:      "test",
		CORSOrigins: "*",
		JWTSecret:   "0123456789abcdef0123456789abcdef",
		TokenTTL:    time.Hour,
	}
	store := repository.NewMemoryStore()
	log := zap.NewNop()
	m := metrics.New()

	require.NoError(t, auth.SeedUsers(context.Background(), store, "adminpw", "viewerpw", log))

	app := NewApp(Deps{
		Config:   cfg,
		Store:    store,
		Engine:   ledger.NewEngine(store, locker.NewKeyedMutex(), log, m),
		Bom:      bom.NewService(store),
		Sessions: auth.NewMemorySessionStore(),
		Metrics:  m,
		Logger:   log,
	})
	return &testServer{app: app, store: store}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var obj map[string]any
	_ = json.Unmarshal(raw, &obj)
	return resp.StatusCode, obj, raw
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	status, body, _ := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, status)
	token, ok := body["token"].(string)
	require.True(t, ok)
	return token
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newTestServer(t)

	status, body, _ := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "admin",
		"password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", body["code"])
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newTestServer(t)

	status, _, _ := s.do(t, http.MethodGet, "/api/inventory", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _, _ = s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin", "adminpw")

	status, body, _ := s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "admin", body["username"])

	status, _, _ = s.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _, _ = s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestViewerCannotMutate(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "viewer", "viewerpw")

	status, _, _ := s.do(t, http.MethodGet, "/api/inventory", token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, body, _ := s.do(t, http.MethodPost, "/api/transactions", token, map[string]any{
		"type": "inbound", "itemCode": "P1", "quantity": 1, "toLocation": "A구역-1-1",
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body["code"])
}

func TestTransactionFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin", "adminpw")

	status, body, _ := s.do(t, http.MethodPost, "/api/transactions", token, map[string]any{
		"type": "inbound", "itemCode": "P1", "itemName": "Bolt", "quantity": 50, "toLocation": "A구역-1-1",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "inbound", body["type"])
	assert.EqualValues(t, 50, body["quantity"])

	status, body, _ = s.do(t, http.MethodPost, "/api/transactions", token, map[string]any{
		"type": "outbound", "itemCode": "P1", "quantity": 60, "reason": models.ReasonAssemblyTransfer,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Insufficient stock", body["message"])

	status, body, _ = s.do(t, http.MethodPost, "/api/transactions", token, map[string]any{
		"type": "move", "itemCode": "P1", "quantity": 5, "fromLocation": "B구역-1-1", "toLocation": "C구역-1-1",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Source item not found or insufficient stock", body["message"])

	status, _, _ = s.do(t, http.MethodPost, "/api/transactions", token, map[string]any{
		"type": "outbound", "itemCode": "P1", "quantity": 20, "reason": models.ReasonExchangeOutbound,
	})
	require.Equal(t, http.StatusCreated, status)

	status, _, raw := s.do(t, http.MethodGet, "/api/exchange-queue?pending=true", token, nil)
	require.Equal(t, http.StatusOK, status)
	var queue []models.ExchangeQueueItem
	require.NoError(t, json.Unmarshal(raw, &queue))
	require.Len(t, queue, 1)

	path := "/api/exchange-queue/" + itoa(queue[0].ID) + "/process"
	status, _, _ = s.do(t, http.MethodPost, path, token, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _, _ = s.do(t, http.MethodPost, path, token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _, raw = s.do(t, http.MethodGet, "/api/inventory", token, nil)
	require.Equal(t, http.StatusOK, status)
	var items []models.InventoryItem
	require.NoError(t, json.Unmarshal(raw, &items))
	require.Len(t, items, 1)
	assert.Equal(t, 50, items[0].Stock)

	status, _, raw = s.do(t, http.MethodGet, "/api/transactions?itemCode=P1", token, nil)
	require.Equal(t, http.StatusOK, status)
	var txs []models.Transaction
	require.NoError(t, json.Unmarshal(raw, &txs))
	assert.Len(t, txs, 3)
}

func TestValidationErrorCarriesDetails(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin", "adminpw")

	status, body, _ := s.do(t, http.MethodPost, "/api/transactions", token, map[string]any{
		"type": "teleport", "itemCode": "P1", "quantity": 1,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	details, ok := body["details"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details, "type")
}

func TestBulkUploadsAndBomCheck(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin", "adminpw")

	status, body, _ := s.do(t, http.MethodPost, "/api/upload/master", token, map[string]any{
		"items": []map[string]any{
			{"제품코드": "P1", "품명": "Bolt"},
			{"제품코드": "P2", "품명": "Nut"},
		},
	})
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, body["created"])

	status, body, _ = s.do(t, http.MethodPost, "/api/upload/inventory-add", token, map[string]any{
		"items": []map[string]any{
			{"제품코드": "P1", "수량": 4},
			{"제품코드": "P2", "수량": 10, "구역": "B구역", "세부구역": "B-2", "층수": "2층"},
		},
	})
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, body["updated"])

	status, body, _ = s.do(t, http.MethodPost, "/api/upload/bom", token, map[string]any{
		"items": []map[string]any{
			{"설치가이드명": "G1", "필요부품코드": "P1", "필요수량": 3},
			{"설치가이드명": "G1", "필요부품코드": "P1", "필요수량": 2},
			{"설치가이드명": "G1", "필요부품코드": "P2", "필요수량": 5},
		},
	})
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 3, body["created"])

	status, body, _ = s.do(t, http.MethodGet, "/api/bom/G1/check", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["sufficient"])
	assert.EqualValues(t, 1, body["shortages"])

	status, _, raw := s.do(t, http.MethodGet, "/api/bom/G1", token, nil)
	require.Equal(t, http.StatusOK, status)
	var reqs []bom.Requirement
	require.NoError(t, json.Unmarshal(raw, &reqs))
	assert.Equal(t, []bom.Requirement{{ItemCode: "P1", RequiredQuantity: 5}, {ItemCode: "P2", RequiredQuantity: 5}}, reqs)

	status, _, _ = s.do(t, http.MethodPost, "/api/upload/bom", token, map[string]any{"items": "nope"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRestoreBackupAppendsLedger(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin", "adminpw")

	status, _, _ := s.do(t, http.MethodPost, "/api/transactions", token, map[string]any{
		"type": "inbound", "itemCode": "P9", "quantity": 1, "toLocation": "A구역-1-1",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body, _ := s.do(t, http.MethodPost, "/api/restore-backup", token, map[string]any{
		"inventory": []map[string]any{
			{"code": "P1", "name": "Bolt", "stock": 7, "location": "A구역-1-2"},
		},
		"transactions": []map[string]any{
			{"type": "inbound", "itemCode": "P1", "itemName": "Bolt", "quantity": 7, "createdAt": "2024-01-02T03:04:05Z"},
		},
		"bomGuides": []map[string]any{
			{"guideName": "G1", "itemCode": "P1", "requiredQuantity": 1},
		},
	})
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["inventoryCount"])

	items, err := s.store.Inventory().List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "P1", items[0].Code)

	txs, err := s.store.Transactions().List(context.Background())
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, 2024, txs[1].CreatedAt.Year())

	status, _, _ = s.do(t, http.MethodPost, "/api/restore-backup", token, map[string]any{
		"inventory": []map[string]any{{"code": "P1", "name": "Bolt", "stock": -1}},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	items, err = s.store.Inventory().List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, items[0].Stock)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	status, _, _ := s.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, status)

	status, _, raw := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), "http_requests_total")
}

func TestListLocationsFollowsLayout(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "viewer", "viewerpw")

	status, body, _ := s.do(t, http.MethodGet, "/api/warehouse/locations", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["locations"])

	require.NoError(t, s.store.Layout().Create(context.Background(), &models.WarehouseZone{
		ZoneName: "A구역", SubZoneName: "A-2", Floors: []string{"1층", "2층"},
	}))

	status, body, _ = s.do(t, http.MethodGet, "/api/warehouse/locations", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{"A구역-2-1", "A구역-2-2"}, body["locations"])
}

func TestErrorHandlerHidesUnexpectedErrors(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler(zap.NewNop())})
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("pq: connection reset") })
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.ErrNotFound })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
	assert.Equal(t, "Server error", body["message"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
