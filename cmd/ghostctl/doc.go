// Command ghostctl runs and administers the GhostSwitch provisioning server.
//
// # Quick Start
//
//	# Run database migrations
//	ghostctl db migrate
//
//	# Print the effective configuration
//	ghostctl configuration show
//
//	# Start the server
//	ghostctl server
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string
//   - GHOSTSWITCH_CONFIG_PATH: Directory holding ghostswitch.yml
//   - GHOSTSWITCH_TOKEN_SECRET: Bearer token signing secret
//   - GHOSTSWITCH_AUDIT_DATABASE_URL: Optional audit message database
//   - PORT: Server port (default: 5000)
package main
