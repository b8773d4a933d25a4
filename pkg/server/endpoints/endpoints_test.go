package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Unknown-086/GhostSwitch/pkg/audit"
	"github.com/Unknown-086/GhostSwitch/pkg/authn"
	"github.com/Unknown-086/GhostSwitch/pkg/identity"
	"github.com/Unknown-086/GhostSwitch/pkg/model"
	"github.com/Unknown-086/GhostSwitch/pkg/provision"
	"github.com/Unknown-086/GhostSwitch/pkg/server"
	"github.com/Unknown-086/GhostSwitch/pkg/server/store/memory"
	"github.com/Unknown-086/GhostSwitch/pkg/session"
	"github.com/Unknown-086/GhostSwitch/pkg/tunnel"
)

const (
	serverKey   = "G4MrkLV9bhoLQyjL74auW3xdpjEwOXmphD+ogPhPYV4="
	goodPass    = "Passw0rd!"
	goodUser    = "operator1"
	tokenSecret = "endpoint-test-secret"
)

func TestMain(m *testing.M) {
	audit.SetEnabled(false)
	os.Exit(m.Run())
}

type nopSync struct {
	mu    sync.Mutex
	peers []tunnel.Peer
	err   error
	delay time.Duration
}

func (n *nopSync) RegisterPeer(_ context.Context, p tunnel.Peer) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	time.Sleep(n.delay)
	if n.err != nil {
		return n.err
	}
	n.peers = append(n.peers, p)
	return nil
}

type provisionerFunc func(ctx context.Context, id *identity.Identity) (*provision.Result, error)

func (f provisionerFunc) Provision(ctx context.Context, id *identity.Identity) (*provision.Result, error) {
	return f(ctx, id)
}

type testEnv struct {
	srv      *server.Server
	store    *memory.Store
	sync     *nopSync
	sessions *session.Service
}

func newTestEnv(t *testing.T, first, last string, configure ...func(*server.Options)) *testEnv {
	t.Helper()

	st := memory.NewStore(
		model.TunnelServer{ID: 1, Name: "Dubai Server", Location: "Dubai, UAE", Endpoint: "203.0.113.1:51820", PublicKey: serverKey, Status: model.ServerStatusActive},
		model.TunnelServer{ID: 2, Name: "New York Server", Location: "New York, USA", Endpoint: "203.0.113.2:51820", PublicKey: serverKey, Status: model.ServerStatusActive},
		model.TunnelServer{ID: 3, Name: "Old Server", Location: "Tokyo, Japan", Status: model.ServerStatusInactive},
	)
	sessions := session.NewService([]byte(tokenSecret), time.Hour)
	hasher, err := authn.NewHasher("sha256")
	require.NoError(t, err)
	svc := authn.NewService(st, sessions, hasher)

	pool, err := tunnel.NewPool("10.0.0.0/24", first, last)
	require.NoError(t, err)
	syncer := &nopSync{}
	orch := provision.New(st, st, pool, tunnel.NewKeyGenerator(nil, "wg"), syncer, provision.ClientSettings{
		DNS:                 []string{"1.1.1.1", "8.8.8.8"},
		AllowedIPs:          []string{"0.0.0.0/0", "::/0"},
		PersistentKeepalive: 25,
		ServerID:            1,
	})

	opts := server.Options{
		Authn:       svc,
		Provisioner: orch,
		ServerStore: st,
		HealthStore: st,
	}
	for _, fn := range configure {
		fn(&opts)
	}
	srv := server.NewServer(opts, "127.0.0.1", "0")
	RegisterAll(srv)

	return &testEnv{srv: srv, store: st, sync: syncer, sessions: sessions}
}

func (e *testEnv) do(t *testing.T, method, path, body, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "198.51.100.4:40000"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	}
	return w, decoded
}

func credentials(username, password string) string {
	b, _ := json.Marshal(map[string]string{"username": username, "password": password})
	return string(b)
}

func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()
	w, _ := e.do(t, http.MethodPost, "/api/register", credentials(username, goodPass), "")
	require.Equal(t, http.StatusCreated, w.Code)
	w, body := e.do(t, http.MethodPost, "/api/login", credentials(username, goodPass), "")
	require.Equal(t, http.StatusOK, w.Code)
	return body["token"].(string)
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t, "10.0.0.5", "10.0.0.254")

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantMsg  string
	}{
		{name: "success", body: credentials(goodUser, goodPass), wantCode: http.StatusCreated, wantMsg: "Registration successful"},
		{name: "duplicate", body: credentials(goodUser, goodPass), wantCode: http.StatusConflict, wantMsg: "Username already exists"},
		{name: "short username", body: credentials("short", goodPass), wantCode: http.StatusBadRequest, wantMsg: "Username must be at least 8 characters long"},
		{name: "weak password", body: credentials("operator2", "password"), wantCode: http.StatusBadRequest},
		{name: "missing password", body: `{"username":"operator3"}`, wantCode: http.StatusBadRequest, wantMsg: "Username and password are required"},
		{name: "no body", body: "", wantCode: http.StatusBadRequest, wantMsg: "No data provided"},
		{name: "not json", body: "username=x", wantCode: http.StatusBadRequest, wantMsg: "No data provided"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := env.do(t, http.MethodPost, "/api/register", tt.body, "")
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantCode == http.StatusCreated, body["success"])
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, body["message"])
			}
		})
	}

	_, err := env.store.GetUserByUsername(context.Background(), "operator2")
	assert.Error(t, err, "rejected registration must not create a user")
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, "10.0.0.5", "10.0.0.254")
	w, _ := env.do(t, http.MethodPost, "/api/register", credentials(goodUser, goodPass), "")
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("success", func(t *testing.T) {
		w, body := env.do(t, http.MethodPost, "/api/login", credentials(goodUser, goodPass), "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, body["success"])
		user := body["user"].(map[string]interface{})
		assert.Equal(t, goodUser, user["username"])

		claims, err := env.sessions.Parse(body["token"].(string))
		require.NoError(t, err)
		assert.EqualValues(t, user["id"], claims.UserID)
	})

	t.Run("wrong password and unknown user are indistinguishable", func(t *testing.T) {
		w1, body1 := env.do(t, http.MethodPost, "/api/login", credentials(goodUser, "Wrong0ne!"), "")
		w2, body2 := env.do(t, http.MethodPost, "/api/login", credentials("nobody-here", goodPass), "")
		assert.Equal(t, http.StatusUnauthorized, w1.Code)
		assert.Equal(t, w1.Code, w2.Code)
		assert.Equal(t, body1, body2)
	})

	t.Run("missing fields", func(t *testing.T) {
		w, _ := env.do(t, http.MethodPost, "/api/login", `{"username":"   ","password":"x"}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGenerateConfig(t *testing.T) {
	env := newTestEnv(t, "10.0.0.5", "10.0.0.254")
	token := env.login(t, goodUser)

	w, body := env.do(t, http.MethodPost, "/api/vpn/generate-config", "", token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "VPN configuration generated successfully", body["message"])
	assert.Equal(t, "10.0.0.5", body["client_ip"])
	assert.Equal(t, "203.0.113.1:51820", body["endpoint"])
	assert.Equal(t, "Dubai Server", body["server"])

	cfg, err := tunnel.ParseClientConfig(body["config"].(string))
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5/24", cfg.Address.String())
	assert.Equal(t, serverKey, cfg.ServerPublicKey)
	assert.Len(t, env.sync.peers, 1)

	// Second call reuses the configuration.
	w, again := env.do(t, http.MethodPost, "/api/vpn/generate-config", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Using existing VPN configuration", again["message"])
	assert.Equal(t, body["config"], again["config"])
	assert.Len(t, env.sync.peers, 1)
}

func TestGenerateConfig_OutlastsWriteTimeout(t *testing.T) {
	env := newTestEnv(t, "10.0.0.5", "10.0.0.254", func(o *server.Options) {
		o.WriteTimeout = 100 * time.Millisecond
	})
	token := env.login(t, goodUser)
	env.sync.delay = 400 * time.Millisecond

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = env.srv.Serve(l) }()
	defer func() { _ = env.srv.Shutdown(context.Background()) }()

	req, err := http.NewRequest(http.MethodPost, "http://"+l.Addr().String()+"/api/vpn/generate-config", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body generateConfigResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "10.0.0.5", body.ClientIP)
	assert.NotEmpty(t, body.Config)
}

func TestGenerateConfig_Unauthorized(t *testing.T) {
	env := newTestEnv(t, "10.0.0.5", "10.0.0.254")

	w, body := env.do(t, http.MethodPost, "/api/vpn/generate-config", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Authentication token required", body["message"])

	w, body = env.do(t, http.MethodPost, "/api/vpn/generate-config", "", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token", body["message"])

	expired, err := session.NewService([]byte(tokenSecret), time.Hour).
		WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }).
		Issue(1, goodUser)
	require.NoError(t, err)
	w, body = env.do(t, http.MethodPost, "/api/vpn/generate-config", "", expired.Value)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token has expired", body["message"])

	token := env.login(t, goodUser)
	claims, err := env.sessions.Parse(token)
	require.NoError(t, err)
	env.store.DeleteUser(claims.UserID)
	w, body = env.do(t, http.MethodPost, "/api/vpn/generate-config", "", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "User not found", body["message"])
}

func TestGenerateConfig_PoolExhausted(t *testing.T) {
	env := newTestEnv(t, "10.0.0.5", "10.0.0.5")

	w, _ := env.do(t, http.MethodPost, "/api/vpn/generate-config", "", env.login(t, "operator1"))
	require.Equal(t, http.StatusOK, w.Code)

	w, body := env.do(t, http.MethodPost, "/api/vpn/generate-config", "", env.login(t, "operator2"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestGenerateConfig_FailureHidesDetail(t *testing.T) {
	env := newTestEnv(t, "10.0.0.5", "10.0.0.254")
	env.sync.err = errors.New("wg-quick up wg0: exit status 1: RTNETLINK answers: Operation not permitted")

	w, body := env.do(t, http.MethodPost, "/api/vpn/generate-config", "", env.login(t, goodUser))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "VPN configuration generation failed", body["message"])
	assert.NotContains(t, w.Body.String(), "RTNETLINK")
	peers := env.store.Peers()
	require.Len(t, peers, 1)
	assert.False(t, peers[0].IsActive)
}

func TestGenerateConfig_ErrorKinds(t *testing.T) {
	tests := []struct {
		kind     provision.ErrorKind
		wantCode int
		wantMsg  string
	}{
		{provision.PoolExhausted, http.StatusServiceUnavailable, "No VPN addresses are available, try again later"},
		{provision.KeyGenFailed, http.StatusInternalServerError, "Failed to generate encryption keys"},
		{provision.PersistFailed, http.StatusInternalServerError, "Failed to save VPN configuration"},
		{provision.SyncFailed, http.StatusInternalServerError, "VPN configuration generation failed"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			handler := handleGenerateConfig(provisionerFunc(func(context.Context, *identity.Identity) (*provision.Result, error) {
				return nil, &provision.Error{Kind: tt.kind, Err: errors.New("secret detail")}
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/vpn/generate-config", nil)
			req = req.WithContext(identity.Set(req.Context(), identity.New(1, goodUser, time.Now(), time.Now().Add(time.Hour))))
			w := httptest.NewRecorder()
			handler(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantMsg)
			assert.NotContains(t, w.Body.String(), "secret detail")
		})
	}
}

func TestServers(t *testing.T) {
	env := newTestEnv(t, "10.0.0.5", "10.0.0.254")

	w, body := env.do(t, http.MethodGet, "/api/servers", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Found 2 servers", body["message"])

	servers := body["servers"].([]interface{})
	require.Len(t, servers, 2)
	first := servers[0].(map[string]interface{})
	assert.Equal(t, "Dubai Server", first["name"])
	assert.Equal(t, "🇦🇪", first["flag"])
	assert.Equal(t, "🇺🇸", servers[1].(map[string]interface{})["flag"])
	assert.Equal(t, "active", first["status"])
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, "10.0.0.5", "10.0.0.254")

	w, body := env.do(t, http.MethodGet, "/api/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "connected", body["database"])
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

type downHealth struct{}

func (downHealth) CheckConnectivity(context.Context) error { return errors.New("dial tcp: connection refused") }

func TestHealth_DatabaseDown(t *testing.T) {
	w := httptest.NewRecorder()
	handleHealth(downHealth{})(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.True(t, bytes.Contains(w.Body.Bytes(), []byte(`"database":"disconnected"`)))
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, "10.0.0.5", "10.0.0.254")

	req := httptest.NewRequest(http.MethodGet, "/api/servers", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
