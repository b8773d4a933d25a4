// Package config provides configuration management for the GhostSwitch
// provisioning server.
//
// # Configuration Sources
//
// Configuration is loaded from, in increasing precedence:
//
//   - Built-in defaults
//   - ghostswitch.yml under GHOSTSWITCH_CONFIG_PATH (default /etc/ghostswitch)
//   - Environment variables
//
// Every attribute remembers which source its value came from, which is what
// "ghostctl configuration show" prints.
//
// # Key Configuration Options
//
//   - GHOSTSWITCH_TOKEN_SECRET: Bearer token signing secret (required)
//   - GHOSTSWITCH_POOL_NETWORK, GHOSTSWITCH_POOL_FIRST, GHOSTSWITCH_POOL_LAST: Address pool
//   - GHOSTSWITCH_INTERFACE_NAME, GHOSTSWITCH_INTERFACE_CONFIG_PATH: Tunnel interface
//   - GHOSTSWITCH_CORS_ALLOWED_ORIGINS: Browser origins allowed to call the API
//   - GHOSTSWITCH_LOG_LEVEL: Logging verbosity
//   - DATABASE_URL: Database connection
//   - PORT: Server listen port
package config
