package workorder

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/orderdesk/internal/config"
	repo "github.com/Additional-Code/orderdesk/internal/repository/workorder"
	service "github.com/Additional-Code/orderdesk/internal/service/workorder"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
	Error   struct {
		Kind    string         `json:"kind"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newTestServer(t *testing.T) (*echo.Echo, repo.Store) {
	t.Helper()
	store := repo.NewMemoryStore(10)
	svc := service.NewService(service.Params{
		Store:  store,
		Config: config.Config{Cache: config.Cache{DefaultTTL: time.Minute}},
		Logger: zap.NewNop(),
	})
	e := echo.New()
	Register(e, NewHandler(svc))
	return e, store
}

func do(t *testing.T, e *echo.Echo, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

const scenarioBody = `{"order_id":"665599","size":"1","filled":"0","status":"Accepted","ticker":"BTCUSD","mic":"LIQD","action":"BUY","timestamp":"2024-03-09T14:30:00Z"}`

func TestWorkOrderLifecycle(t *testing.T) {
	e, _ := newTestServer(t)

	rec, env := do(t, e, http.MethodPost, "/work-orders", scenarioBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, env.Success)

	rec, env = do(t, e, http.MethodGet, "/work-orders/665599", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "LIQD", got["mic"])
	assert.Equal(t, "2024-03-09T14:30:00Z", got["timestamp"])

	update := strings.Replace(scenarioBody, `"size":"1"`, `"size":"5"`, 1)
	rec, env = do(t, e, http.MethodPut, "/work-orders/665599", update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "5", got["size"])

	rec, env = do(t, e, http.MethodGet, "/work-orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var items []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)
	assert.EqualValues(t, 1, env.Meta["count"])
	assert.EqualValues(t, 0, env.Meta["degraded"])

	rec, _ = do(t, e, http.MethodDelete, "/work-orders/665599", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, e, http.MethodDelete, "/work-orders/665599", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = do(t, e, http.MethodGet, "/work-orders/665599", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", env.Error.Kind)
}

func TestCreateGeneratesOrderID(t *testing.T) {
	e, store := newTestServer(t)

	body := strings.Replace(scenarioBody, `"order_id":"665599",`, "", 1)
	rec, env := do(t, e, http.MethodPost, "/work-orders", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &got))
	id, _ := got["order_id"].(string)
	require.Len(t, id, 36)

	stored, err := store.GetByID(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, "BTCUSD", stored.Order.Ticker)
}

func TestCreateValidation(t *testing.T) {
	e, _ := newTestServer(t)

	body := strings.Replace(scenarioBody, `"action":"BUY"`, `"action":"HOLD"`, 1)
	body = strings.Replace(body, `"mic":"LIQD"`, `"mic":"LQ"`, 1)
	rec, env := do(t, e, http.MethodPost, "/work-orders", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "oneof", env.Error.Details["action"])
	assert.Equal(t, "len", env.Error.Details["mic"])

	rec, _ = do(t, e, http.MethodPost, "/work-orders", `{"size":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = do(t, e, http.MethodPost, "/work-orders", scenarioBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec, env = do(t, e, http.MethodPost, "/work-orders", scenarioBody)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", env.Error.Kind)
}

func TestUpdateRejectsMismatchedID(t *testing.T) {
	e, _ := newTestServer(t)

	rec, env := do(t, e, http.MethodPut, "/work-orders/other", scenarioBody)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "other", env.Error.Details["path"])

	rec, _ = do(t, e, http.MethodPut, "/work-orders/missing", strings.Replace(scenarioBody, `"order_id":"665599",`, "", 1))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
