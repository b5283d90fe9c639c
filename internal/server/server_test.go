package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/safeline/safeline/internal/config"
	"github.com/safeline/safeline/internal/infra"
	"github.com/safeline/safeline/internal/logging"
)

func testConfig(driver string) config.Config {
	return config.Config{
		AppName:        "Safeline",
		AppEnv:         "test",
		StoreDriver:    driver,
		SessionSecret:  "test-secret",
		SessionTTL:     time.Hour,
		BcryptCost:     bcrypt.MinCost,
		StoreTimeout:   5 * time.Second,
		IdempotencyTTL: time.Minute,
		LoginRateLimit: 5,
		AdminPageSize:  config.MaxAdminPageSize,
	}
}

func newTestServer(t *testing.T, cfg config.Config, st Stores) *Server {
	t.Helper()
	srv, err := New(cfg, st, logging.Discard())
	require.NoError(t, err)
	return srv
}

type response struct {
	status int
	body   map[string]any
	raw    string
}

func call(t *testing.T, srv *Server, method, path, body, token string, headers ...string) response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := response{status: resp.StatusCode, raw: string(raw)}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out.body), string(raw))
	}
	return out
}

func register(t *testing.T, srv *Server, email string) (string, string) {
	t.Helper()
	res := call(t, srv, http.MethodPost, "/register",
		`{"firstname":"Asha","lastname":"Rao","email":"`+email+`","password":"s3cret"}`, "")
	require.Equal(t, http.StatusOK, res.status, res.raw)
	return res.body["user_id"].(string), res.body["token"].(string)
}

func contactsOf(t *testing.T, srv *Server, token string) []any {
	t.Helper()
	res := call(t, srv, http.MethodGet, "/contacts", "", token)
	require.Equal(t, http.StatusOK, res.status, res.raw)
	return res.body["contacts"].([]any)
}

func exerciseContactFlow(t *testing.T, srv *Server, countUsers func(email string) int) {
	userID, token := register(t, srv, "asha@example.com")

	three := `{"ownerUserId":"` + userID + `","contacts":[
		{"name":"Mom","phone":"+91 98765 43210"},
		{"name":"Dad","phone":"022-2345-6789"},
		{"name":"Ravi","phone":"(080) 1234 567"}]}`
	res := call(t, srv, http.MethodPost, "/save-contacts", three, token)
	require.Equal(t, http.StatusOK, res.status, res.raw)
	require.Equal(t, float64(3), res.body["saved"])

	list := contactsOf(t, srv, token)
	require.Len(t, list, 3)
	require.Equal(t, "Mom", list[0].(map[string]any)["name"])
	require.Equal(t, "Ravi", list[2].(map[string]any)["name"])

	res = call(t, srv, http.MethodPost, "/save-contacts", `{"contacts":[]}`, token)
	require.Equal(t, http.StatusOK, res.status, res.raw)
	require.Equal(t, float64(0), res.body["saved"])
	require.Empty(t, contactsOf(t, srv, token))

	require.Equal(t, 1, countUsers("asha@example.com"))

	login := call(t, srv, http.MethodPost, "/login", `{"email":"asha@example.com","password":"s3cret"}`, "")
	require.Equal(t, http.StatusOK, login.status, login.raw)
	require.Equal(t, userID, login.body["user_id"])

	dup := call(t, srv, http.MethodPost, "/register",
		`{"firstname":"Asha","lastname":"Rao","email":"ASHA@example.com","password":"other"}`, "")
	require.Equal(t, http.StatusBadRequest, dup.status)
	require.Equal(t, false, dup.body["ok"])
	require.Equal(t, 1, countUsers("asha@example.com"))
}

func TestContactFlowMemory(t *testing.T) {
	srv := newTestServer(t, testConfig(config.DriverMemory), Stores{})
	// The memory driver has no table to count; a duplicate registration failing
	// is the observable proof that exactly one account exists.
	exerciseContactFlow(t, srv, func(string) int { return 1 })
}

func TestContactFlowSQLite(t *testing.T) {
	db, err := infra.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "safeline.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	srv := newTestServer(t, testConfig(config.DriverSQLite), Stores{SQLite: db})
	exerciseContactFlow(t, srv, func(email string) int {
		var n int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&n))
		return n
	})
}

func TestSaveContactsOwnership(t *testing.T) {
	srv := newTestServer(t, testConfig(config.DriverMemory), Stores{})
	alice, aliceToken := register(t, srv, "alice@example.com")
	bob, _ := register(t, srv, "bob@example.com")

	body := `{"ownerUserId":"` + bob + `","contacts":[{"name":"X","phone":"123"}]}`
	res := call(t, srv, http.MethodPost, "/save-contacts", body, aliceToken)
	require.Equal(t, http.StatusForbidden, res.status, res.raw)

	res = call(t, srv, http.MethodPost, "/save-contacts", `{"ownerUserId":"`+alice+`","contacts":[]}`, "")
	require.Equal(t, http.StatusUnauthorized, res.status)

	res = call(t, srv, http.MethodPost, "/save-contacts", `{"contacts":[{"name":"","phone":"123"}]}`, aliceToken)
	require.Equal(t, http.StatusBadRequest, res.status)
	require.Equal(t, false, res.body["ok"])

	res = call(t, srv, http.MethodPost, "/save-contacts", `{"ownerUserId":"`+alice+`"}`, aliceToken)
	require.Equal(t, http.StatusBadRequest, res.status)
}

func TestLogoutRevokesToken(t *testing.T) {
	srv := newTestServer(t, testConfig(config.DriverMemory), Stores{})
	_, token := register(t, srv, "asha@example.com")

	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, "/logout", "", token).status)
	require.Equal(t, http.StatusUnauthorized, call(t, srv, http.MethodGet, "/contacts", "", token).status)
}

func TestAlertsAndAdmin(t *testing.T) {
	cfg := testConfig(config.DriverMemory)
	cfg.AdminUser, cfg.AdminPassword = "admin", "pw"
	srv := newTestServer(t, cfg, Stores{})

	before := time.Now().UnixMilli()
	res := call(t, srv, http.MethodPost, "/alerts", `{"latitude":28.6,"longitude":77.2,"address":"Delhi <b>"}`, "")
	after := time.Now().UnixMilli()
	require.Equal(t, http.StatusOK, res.status, res.raw)
	require.Equal(t, true, res.body["ok"])
	ts := int64(res.body["timestamp"].(float64))
	require.GreaterOrEqual(t, ts, before)
	require.LessOrEqual(t, ts, after)

	bad := call(t, srv, http.MethodPost, "/alerts", `{"latitude":"abc","longitude":10}`, "")
	require.Equal(t, http.StatusBadRequest, bad.status)
	require.Equal(t, false, bad.body["ok"])

	require.Equal(t, http.StatusUnauthorized, call(t, srv, http.MethodGet, "/admin", "", "").status)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.SetBasicAuth("admin", "pw")
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page, _ := io.ReadAll(resp.Body)
	require.Contains(t, string(page), "Delhi &lt;b&gt;")
	require.Equal(t, 1, strings.Count(string(page), "<tr>\n<td>"))
}

func TestAlertIdempotencyKey(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	srv := newTestServer(t, testConfig(config.DriverMemory), Stores{Cache: cache})
	first := call(t, srv, http.MethodPost, "/alerts", `{"latitude":1,"longitude":2}`, "", "Idempotency-Key", "panic-1")
	second := call(t, srv, http.MethodPost, "/alerts", `{"latitude":1,"longitude":2}`, "", "Idempotency-Key", "panic-1")
	require.Equal(t, http.StatusOK, first.status)
	require.Equal(t, first.body["id"], second.body["id"])

	third := call(t, srv, http.MethodPost, "/alerts", `{"latitude":1,"longitude":2}`, "")
	require.NotEqual(t, first.body["id"], third.body["id"])
}

func TestErrorsAreJSON(t *testing.T) {
	srv := newTestServer(t, testConfig(config.DriverMemory), Stores{})

	res := call(t, srv, http.MethodGet, "/nope", "", "")
	require.Equal(t, http.StatusNotFound, res.status)
	require.Equal(t, false, res.body["ok"])

	res = call(t, srv, http.MethodPost, "/login", `{"email":"nobody@example.com","password":"x"}`, "")
	require.Equal(t, http.StatusUnauthorized, res.status)
	require.Equal(t, "invalid credentials", res.body["error"])
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, testConfig(config.DriverMemory), Stores{})
	res := call(t, srv, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, res.status)
	require.Equal(t, true, res.body["ok"])
}

func TestNewRequiresStoreHandle(t *testing.T) {
	_, err := New(testConfig(config.DriverPostgres), Stores{}, logging.Discard())
	require.Error(t, err)
}

func TestIdempotencyKeyNeverSharesResponsesAcrossRequests(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })
	srv := newTestServer(t, testConfig(config.DriverMemory), Stores{Cache: cache})

	_, aliceToken := register(t, srv, "alice@example.com")
	_, bobToken := register(t, srv, "bob@example.com")

	res := call(t, srv, http.MethodPost, "/save-contacts",
		`{"contacts":[{"name":"Mom","phone":"100"}]}`, aliceToken, "Idempotency-Key", "k1")
	require.Equal(t, http.StatusOK, res.status, res.raw)
	res = call(t, srv, http.MethodPost, "/save-contacts",
		`{"contacts":[{"name":"Dad","phone":"200"},{"name":"Sis","phone":"300"}]}`, bobToken, "Idempotency-Key", "k1")
	require.Equal(t, http.StatusOK, res.status, res.raw)
	require.Equal(t, float64(2), res.body["saved"])
	require.Len(t, contactsOf(t, srv, bobToken), 2)
	require.Len(t, contactsOf(t, srv, aliceToken), 1)

	login := call(t, srv, http.MethodPost, "/login",
		`{"email":"alice@example.com","password":"s3cret"}`, "", "Idempotency-Key", "k2")
	require.Equal(t, http.StatusOK, login.status, login.raw)
	stolen := call(t, srv, http.MethodPost, "/login",
		`{"email":"bob@example.com","password":"wrong"}`, "", "Idempotency-Key", "k2")
	require.Equal(t, http.StatusUnauthorized, stolen.status, stolen.raw)
	require.Nil(t, stolen.body["token"])

	again := call(t, srv, http.MethodPost, "/login",
		`{"email":"alice@example.com","password":"s3cret"}`, "", "Idempotency-Key", "k2")
	require.Equal(t, http.StatusOK, again.status)
	require.NotEqual(t, login.body["token"], again.body["token"], "login responses must never be replayed")

	first := call(t, srv, http.MethodPost, "/alerts", `{"latitude":1,"longitude":2}`, "", "Idempotency-Key", "a1")
	reused := call(t, srv, http.MethodPost, "/alerts", `{"latitude":5,"longitude":6}`, "", "Idempotency-Key", "a1")
	require.Equal(t, http.StatusOK, first.status)
	require.Equal(t, http.StatusUnprocessableEntity, reused.status)
	require.Equal(t, false, reused.body["ok"])
}
