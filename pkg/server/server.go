package server

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/Unknown-086/GhostSwitch/pkg/authn"
	"github.com/Unknown-086/GhostSwitch/pkg/config"
	"github.com/Unknown-086/GhostSwitch/pkg/identity"
	"github.com/Unknown-086/GhostSwitch/pkg/provision"
	"github.com/Unknown-086/GhostSwitch/pkg/server/middleware"
	"github.com/Unknown-086/GhostSwitch/pkg/server/store"
)

// Provisioner hands out tunnel configurations.
type Provisioner interface {
	Provision(ctx context.Context, id *identity.Identity) (*provision.Result, error)
}

type Server struct {
	Router *mux.Router
	DB     *gorm.DB
	Config *config.GhostConfig

	Authn       *authn.Service
	Provisioner Provisioner
	Auth        *middleware.BearerAuthenticator

	ServerStore store.ServerStore
	HealthStore store.HealthStore

	srv *http.Server
}

// Options holds the collaborators of a Server.
type Options struct {
	DB          *gorm.DB
	Config      *config.GhostConfig
	Authn       *authn.Service
	Provisioner Provisioner
	ServerStore store.ServerStore
	HealthStore store.HealthStore

	// WriteTimeout bounds ordinary responses; zero means 15s. Provisioning
	// lifts it for its own route.
	WriteTimeout time.Duration
}

func NewServer(opts Options, host string, port string) *Server {
	router := mux.NewRouter()

	origins := []string{"*"}
	if opts.Config != nil && len(opts.Config.CORSAllowedOrigins) > 0 {
		origins = opts.Config.CORSAllowedOrigins
	}

	var handler http.Handler = router
	handler = middleware.RecoverMiddleware(handler)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", middleware.RequestIDHeader}),
		handlers.ExposedHeaders([]string{middleware.RequestIDHeader}),
	)(handler)
	handler = middleware.RequestIDMiddleware(handler)

	writeTimeout := opts.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 15 * time.Second
	}

	srv := &http.Server{
		Handler: handlers.LoggingHandler(os.Stdout, handler),
		Addr:    host + ":" + port,
		// Good practice: enforce timeouts for servers you create!
		WriteTimeout: writeTimeout,
		ReadTimeout:  15 * time.Second,
	}

	return &Server{
		Router:      router,
		DB:          opts.DB,
		Config:      opts.Config,
		Authn:       opts.Authn,
		Provisioner: opts.Provisioner,
		Auth:        middleware.NewBearerAuthenticator(opts.Authn),
		ServerStore: opts.ServerStore,
		HealthStore: opts.HealthStore,
		srv:         srv,
	}
}

// Handler returns the full middleware chain, for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Serve accepts connections on l instead of the configured address.
func (s *Server) Serve(l net.Listener) error {
	return s.srv.Serve(l)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
