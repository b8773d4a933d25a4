package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Unknown-086/GhostSwitch/pkg/authn"
	"github.com/Unknown-086/GhostSwitch/pkg/provision"
	"github.com/Unknown-086/GhostSwitch/pkg/server"
	"github.com/Unknown-086/GhostSwitch/pkg/server/endpoints"
	gormstore "github.com/Unknown-086/GhostSwitch/pkg/server/store/gorm"
	"github.com/Unknown-086/GhostSwitch/pkg/session"
	"github.com/Unknown-086/GhostSwitch/pkg/tunnel"
)

const (
	tokenSecret = "integration-token-secret"
	serverPort  = "18080"

	// The pool is kept small so exhaustion is reachable from a scenario.
	poolFirst = "10.0.0.5"
	poolLast  = "10.0.0.7"
)

// recordingSync stands in for the tunnel interface and remembers every
// peer registered with it.
type recordingSync struct {
	mu    sync.Mutex
	peers []tunnel.Peer
}

func (r *recordingSync) RegisterPeer(_ context.Context, p tunnel.Peer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers = append(r.peers, p)
	return nil
}

func (r *recordingSync) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers = nil
}

func (r *recordingSync) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.peers)
}

// TestContext holds all the resources needed for integration tests
type TestContext struct {
	DB          *gorm.DB
	RawDB       *sql.DB
	Container   testcontainers.Container
	ServerURL   string
	DatabaseURL string
	HTTPClient  *http.Client
	Sessions    *session.Service
	Sync        *recordingSync
	Server      *server.Server
}

// NewTestContext starts PostgreSQL in a container, applies the migrations
// and runs the API server in-process against it.
func NewTestContext(ctx context.Context) (*TestContext, error) {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}
	migrationsDir := filepath.Join(projectRoot, "db", "migrations")

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("ghostswitch_test"),
		tcpostgres.WithUsername("ghostswitch"),
		tcpostgres.WithPassword("ghostswitch"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{
		DSN:                  connStr,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	rawDB, err := db.DB()
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get raw db: %w", err)
	}

	if err := runMigrations(rawDB, migrationsDir); err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	sessions := session.NewService([]byte(tokenSecret), time.Hour)
	syncer := &recordingSync{}
	srv, err := startInlineServer(db, sessions, syncer)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to start inline server: %w", err)
	}

	serverURL := "http://127.0.0.1:" + serverPort
	if err := waitForServer(serverURL, 30*time.Second); err != nil {
		_ = srv.Shutdown(ctx)
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}

	return &TestContext{
		DB:          db,
		RawDB:       rawDB,
		Container:   pgContainer,
		ServerURL:   serverURL,
		DatabaseURL: connStr,
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
		Sessions:    sessions,
		Sync:        syncer,
		Server:      srv,
	}, nil
}

// startInlineServer wires the gorm stores into a server listening on
// serverPort. Keys are generated natively and peers go to syncer.
func startInlineServer(db *gorm.DB, sessions *session.Service, syncer tunnel.Synchronizer) (*server.Server, error) {
	hasher, err := authn.NewHasher("sha256")
	if err != nil {
		return nil, err
	}
	users := gormstore.NewUserStore(db)
	svc := authn.NewService(users, sessions, hasher)

	pool, err := tunnel.NewPool("10.0.0.0/24", poolFirst, poolLast)
	if err != nil {
		return nil, err
	}
	keys := tunnel.NewKeyGenerator(nil, "wg")
	serverKeys, err := keys.Generate(context.Background())
	if err != nil {
		return nil, err
	}

	servers := gormstore.NewServerStore(db)
	orch := provision.New(gormstore.NewPeerStore(db), servers, pool, keys, syncer, provision.ClientSettings{
		DNS:                 []string{"1.1.1.1", "8.8.8.8"},
		AllowedIPs:          []string{"0.0.0.0/0", "::/0"},
		PersistentKeepalive: 25,
		ServerID:            1,
		ServerPublicKey:     serverKeys.PublicKey,
		ServerEndpoint:      "203.0.113.10:51820",
	})

	s := server.NewServer(server.Options{
		DB:          db,
		Authn:       svc,
		Provisioner: orch,
		ServerStore: servers,
		HealthStore: gormstore.NewHealthStore(db),
	}, "127.0.0.1", serverPort)
	endpoints.RegisterAll(s)

	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("inline server stopped: %v", err)
		}
	}()

	return s, nil
}

// waitForServer polls the health endpoint until it reports healthy or
// times out.
func waitForServer(serverURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(serverURL + "/api/health")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("server did not become ready within %v", timeout)
}

// Reset removes every user and tunnel configuration so each scenario
// starts from an empty pool.
func (tc *TestContext) Reset() error {
	tc.Sync.reset()
	return tc.DB.Exec(`TRUNCATE vpn_configs, users RESTART IDENTITY CASCADE`).Error
}

// Close cleans up all test resources
func (tc *TestContext) Close(ctx context.Context) {
	if tc.Server != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_ = tc.Server.Shutdown(shutdownCtx)
		cancel()
	}
	if tc.RawDB != nil {
		_ = tc.RawDB.Close()
	}
	if tc.Container != nil {
		_ = tc.Container.Terminate(ctx)
	}
}

// findProjectRoot locates the project root directory
func findProjectRoot() (string, error) {
	for _, p := range []string{"../..", "..", "."} {
		if _, err := os.Stat(filepath.Join(p, "go.mod")); err == nil {
			return filepath.Abs(p)
		}
	}
	return "", fmt.Errorf("project root not found (looking for go.mod)")
}

// runMigrations applies the up migrations in version order.
func runMigrations(db *sql.DB, migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		if strings.TrimSpace(string(content)) == "" {
			continue
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("migration %s: %w", filepath.Base(file), err)
		}
	}

	return nil
}
