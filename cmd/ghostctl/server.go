package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Unknown-086/GhostSwitch/pkg/authn"
	"github.com/Unknown-086/GhostSwitch/pkg/config"
	"github.com/Unknown-086/GhostSwitch/pkg/db"
	"github.com/Unknown-086/GhostSwitch/pkg/logging"
	"github.com/Unknown-086/GhostSwitch/pkg/model"
	"github.com/Unknown-086/GhostSwitch/pkg/provision"
	"github.com/Unknown-086/GhostSwitch/pkg/server"
	"github.com/Unknown-086/GhostSwitch/pkg/server/endpoints"
	"github.com/Unknown-086/GhostSwitch/pkg/server/store"
	gormstore "github.com/Unknown-086/GhostSwitch/pkg/server/store/gorm"
	"github.com/Unknown-086/GhostSwitch/pkg/server/store/memory"
	"github.com/Unknown-086/GhostSwitch/pkg/session"
	"github.com/Unknown-086/GhostSwitch/pkg/tunnel"
)

func defaultBindAddress() string {
	if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
		return addr
	}
	return "0.0.0.0"
}

func defaultPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "5000"
}

func defaultPortInt() int {
	if p, err := strconv.Atoi(defaultPort()); err == nil {
		return p
	}
	return 5000
}

// stores bundles the record stores the server needs.
type stores struct {
	users   store.UserStore
	peers   store.PeerStore
	servers store.ServerStore
	health  store.HealthStore
}

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the GhostSwitch API server",
	Long: `Run the GhostSwitch API server.

The server requires GHOSTSWITCH_TOKEN_SECRET and DATABASE_URL. With
--in-memory no database is used and all records are lost on exit.

By default, database migrations are run on startup. Use --no-migrate to skip.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Reload()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		if err := logging.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
			os.Exit(1)
		}

		inMemory, _ := cmd.Flags().GetBool("in-memory")
		noMigrate, _ := cmd.Flags().GetBool("no-migrate")

		opts := server.Options{Config: cfg}
		var st stores
		if inMemory {
			logrus.Warn("Using in-memory stores, records will not survive a restart")
			mem := memory.NewStore(model.TunnelServer{
				ID:        cfg.DefaultServerID,
				Name:      "Default Server",
				Location:  "Unknown",
				Endpoint:  cfg.ServerEndpoint,
				PublicKey: cfg.ServerPublicKey,
				Status:    model.ServerStatusActive,
			})
			st = stores{users: mem, peers: mem, servers: mem, health: mem}
		} else {
			if db.URL() == "" {
				fmt.Fprintln(os.Stderr, "DATABASE_URL environment variable is required")
				os.Exit(1)
			}
			if !noMigrate {
				logrus.Info("Running database migrations...")
				if err := runMigrations(); err != nil {
					fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
					os.Exit(1)
				}
			}

			gdb, err := db.Connect(db.Config{LogLevel: cfg.LogLevel})
			if err != nil {
				fmt.Fprintln(os.Stderr, "Unable to connect to DB:", err)
				os.Exit(1)
			}
			opts.DB = gdb
			st = stores{
				users:   gormstore.NewUserStore(gdb),
				peers:   gormstore.NewPeerStore(gdb),
				servers: gormstore.NewServerStore(gdb),
				health:  gormstore.NewHealthStore(gdb),
			}
		}

		orch, err := newOrchestrator(cfg, st)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		svc, err := newAuthnService(cfg, st.users)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		opts.Authn = svc
		opts.Provisioner = orch
		opts.ServerStore = st.servers
		opts.HealthStore = st.health

		host, _ := cmd.Flags().GetString("bind-address")
		port, _ := cmd.Flags().GetString("port")
		s := server.NewServer(opts, host, port)
		endpoints.RegisterAll(s)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			err := config.Watch(ctx, cfg.ConfigFilePath(), func(next *config.GhostConfig) {
				orch.UpdateSettings(clientSettings(next))
				if err := logging.Configure(next.LogLevel, next.LogFormat); err != nil {
					logrus.WithError(err).Warn("Keeping previous logging settings")
				}
			})
			if err != nil {
				logrus.WithError(err).Warn("Configuration watch disabled")
			}
		}()

		errCh := make(chan error, 1)
		go func() {
			logrus.Infof("Running server at http://%s:%s...", host, port)
			errCh <- s.Start()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				logrus.WithError(err).Fatal("Server stopped")
			}
		case <-ctx.Done():
			logrus.Info("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.Shutdown(shutdownCtx); err != nil {
				logrus.WithError(err).Error("Graceful shutdown failed")
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringP("port", "p", defaultPort(), "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", defaultBindAddress(), "server bind address")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
	serverCmd.Flags().Bool("in-memory", false, "keep records in memory instead of PostgreSQL")
}

func newAuthnService(cfg *config.GhostConfig, users store.UserStore) (*authn.Service, error) {
	hasher, err := authn.NewHasher(cfg.PasswordHashScheme)
	if err != nil {
		return nil, err
	}
	sessions := session.NewService([]byte(cfg.TokenSecret), cfg.TokenLifetime())
	return authn.NewService(users, sessions, hasher), nil
}

func newOrchestrator(cfg *config.GhostConfig, st stores) (*provision.Orchestrator, error) {
	pool, err := tunnel.NewPool(cfg.PoolNetwork, cfg.PoolFirst, cfg.PoolLast)
	if err != nil {
		return nil, fmt.Errorf("address pool: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"first": cfg.PoolFirst,
		"last":  cfg.PoolLast,
		"size":  pool.Size(),
	}).Info("Address pool ready")

	// Key generation never needs privileges; interface management may.
	keyRunner := &tunnel.ExecRunner{Timeout: cfg.CommandDeadline()}
	ifaceRunner := &tunnel.ExecRunner{Sudo: cfg.UseSudo, Timeout: cfg.CommandDeadline()}

	var keyTool tunnel.Runner
	if tunnel.Available(cfg.WGBinary) {
		keyTool = keyRunner
	} else {
		logrus.WithField("binary", cfg.WGBinary).Warn("Key tool not found, generating keys natively")
	}

	synchronizer := tunnel.NewQuickSynchronizer(
		ifaceRunner,
		cfg.InterfaceName,
		cfg.InterfaceConfigPath,
		cfg.WGQuickBinary,
		cfg.WGBinary,
		cfg.UseSudo,
	)

	return provision.New(
		st.peers,
		st.servers,
		pool,
		tunnel.NewKeyGenerator(keyTool, cfg.WGBinary),
		synchronizer,
		clientSettings(cfg),
	), nil
}

func clientSettings(cfg *config.GhostConfig) provision.ClientSettings {
	return provision.ClientSettings{
		DNS:                 cfg.ClientDNS,
		AllowedIPs:          cfg.ClientAllowedIPs,
		PersistentKeepalive: cfg.PersistentKeepalive,
		ServerID:            cfg.DefaultServerID,
		ServerPublicKey:     cfg.ServerPublicKey,
		ServerEndpoint:      cfg.ServerEndpoint,
	}
}
