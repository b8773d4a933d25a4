// Package server provides the HTTP server for the GhostSwitch API.
//
// It uses gorilla/mux for routing. Every request gets a request id and
// panic recovery, and is written to the access log through
// gorilla/handlers.
//
// # Server Setup
//
//	srv := server.NewServer(server.Options{...}, "0.0.0.0", "5000")
//	endpoints.RegisterAll(srv)
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Endpoints
//
// API endpoints are registered via the endpoints subpackage:
//
//   - POST /api/register - Create an account
//   - POST /api/login - Exchange credentials for a bearer token
//   - POST /api/vpn/generate-config - Fetch or create the caller's tunnel configuration
//   - GET /api/servers - List active tunnel servers
//   - GET /api/health - Database connectivity probe
package server
