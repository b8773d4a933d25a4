// Package model defines the database models for GhostSwitch.
//
// # Core Models
//
//   - User: registered account with salted password hash
//   - PeerConfig: one provisioned tunnel peer bound to a user and an address
//   - TunnelServer: a tunnel endpoint clients connect to
//
// # Database Schema
//
//   - users: accounts, unique username
//   - servers: tunnel servers, seeded with the default server (id 1)
//   - vpn_configs: peers; at most one active row per user and per address
package model
