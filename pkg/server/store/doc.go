// Package store provides storage abstractions for the GhostSwitch server.
//
// This package defines interfaces for database operations so that the
// credential service, the provisioning orchestrator and the endpoints are
// decoupled from the database. The gorm subpackage backs them with
// PostgreSQL; the memory subpackage backs them with maps for tests and
// local development.
//
// # Available Stores
//
//   - UserStore: account creation and lookup
//   - PeerStore: provisioned peers and the set of addresses in use
//   - ServerStore: tunnel servers
//   - HealthStore: connectivity probe
//
// # Usage
//
//	users := gormstore.NewUserStore(db)
//	user, err := users.GetUserByUsername(ctx, "ghostuser")
//	if errors.Is(err, store.ErrUserNotFound) {
//	    // Handle not found
//	}
package store
