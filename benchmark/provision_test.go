package benchmark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Unknown-086/GhostSwitch/pkg/audit"
	"github.com/Unknown-086/GhostSwitch/pkg/authn"
	"github.com/Unknown-086/GhostSwitch/pkg/model"
	"github.com/Unknown-086/GhostSwitch/pkg/provision"
	"github.com/Unknown-086/GhostSwitch/pkg/server"
	"github.com/Unknown-086/GhostSwitch/pkg/server/endpoints"
	"github.com/Unknown-086/GhostSwitch/pkg/server/store/memory"
	"github.com/Unknown-086/GhostSwitch/pkg/session"
	"github.com/Unknown-086/GhostSwitch/pkg/tunnel"
)

const password = "Secur3!Pass"

type discardSync struct{}

func (discardSync) RegisterPeer(context.Context, tunnel.Peer) error { return nil }

func newHandler(b *testing.B) http.Handler {
	b.Helper()
	audit.SetEnabled(false)
	logrus.SetLevel(logrus.ErrorLevel)

	keys := tunnel.NewKeyGenerator(nil, "wg")
	serverKeys, err := keys.Generate(context.Background())
	if err != nil {
		b.Fatal(err)
	}

	st := memory.NewStore(model.TunnelServer{
		ID:        1,
		Name:      "Bench Server",
		Location:  "Dubai, UAE",
		Endpoint:  "203.0.113.1:51820",
		PublicKey: serverKeys.PublicKey,
		Status:    model.ServerStatusActive,
	})
	hasher, _ := authn.NewHasher("sha256")
	svc := authn.NewService(st, session.NewService([]byte("bench-secret"), time.Hour), hasher)

	pool, err := tunnel.NewPool("10.0.0.0/16", "10.0.0.5", "10.0.255.254")
	if err != nil {
		b.Fatal(err)
	}
	orch := provision.New(st, st, pool, keys, discardSync{}, provision.ClientSettings{
		DNS:                 []string{"1.1.1.1"},
		AllowedIPs:          []string{"0.0.0.0/0"},
		PersistentKeepalive: 25,
		ServerID:            1,
	})

	s := server.NewServer(server.Options{
		Authn:       svc,
		Provisioner: orch,
		ServerStore: st,
		HealthStore: st,
	}, "127.0.0.1", "0")
	endpoints.RegisterAll(s)
	return s.Router
}

func post(h http.Handler, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	r := httptest.NewRequest(http.MethodPost, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func login(b *testing.B, h http.Handler, username string) string {
	b.Helper()
	creds := map[string]string{"username": username, "password": password}
	if w := post(h, "/api/register", "", creds); w.Code != http.StatusCreated {
		b.Fatalf("register %s: %d %s", username, w.Code, w.Body)
	}
	w := post(h, "/api/login", "", creds)
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		b.Fatalf("login %s: %d %s", username, w.Code, w.Body)
	}
	return resp.Token
}

func BenchmarkGenerateConfig(b *testing.B) {
	b.Run("reuse existing configuration", func(b *testing.B) {
		h := newHandler(b)
		token := login(b, h, "bench-user")
		post(h, "/api/vpn/generate-config", token, nil)

		b.ReportAllocs()
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			if w := post(h, "/api/vpn/generate-config", token, nil); w.Code != http.StatusOK {
				b.Fatalf("status %d", w.Code)
			}
		}
	})

	b.Run("new configuration per user", func(b *testing.B) {
		h := newHandler(b)
		tokens := make([]string, b.N)
		for i := range tokens {
			tokens[i] = login(b, h, fmt.Sprintf("bench-user-%d", i))
		}

		b.ReportAllocs()
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			if w := post(h, "/api/vpn/generate-config", tokens[i], nil); w.Code != http.StatusOK {
				b.Fatalf("status %d", w.Code)
			}
		}
	})
}

// BenchmarkLiveServer targets a running server, e.g.
// GHOSTSWITCH_BENCH_URL=http://localhost:5000 GHOSTSWITCH_BENCH_TOKEN=... go test -bench Live ./benchmark
func BenchmarkLiveServer(b *testing.B) {
	base := os.Getenv("GHOSTSWITCH_BENCH_URL")
	token := os.Getenv("GHOSTSWITCH_BENCH_TOKEN")
	if base == "" || token == "" {
		b.Skip("GHOSTSWITCH_BENCH_URL and GHOSTSWITCH_BENCH_TOKEN are not set")
	}

	b.Run("POST /api/vpn/generate-config", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			r, _ := http.NewRequest(http.MethodPost, base+"/api/vpn/generate-config", nil)
			r.Header.Add("Authorization", "Bearer "+token)
			resp, err := http.DefaultClient.Do(r)
			if err == nil {
				_ = resp.Body.Close()
			}
		}
	})

	b.Run("GET /api/servers", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			resp, err := http.Get(base + "/api/servers")
			if err == nil {
				_ = resp.Body.Close()
			}
		}
	})
}
