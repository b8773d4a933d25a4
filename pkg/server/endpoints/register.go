package endpoints

import (
	"github.com/Unknown-086/GhostSwitch/pkg/server"
)

// RegisterAll registers all API endpoints on the server
func RegisterAll(srv *server.Server) {
	RegisterAuthEndpoints(srv)
	RegisterVPNEndpoints(srv)
	RegisterServersEndpoint(srv)
	RegisterHealthEndpoint(srv)
}
