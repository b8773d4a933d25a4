// Package tunnel manages the WireGuard side of provisioning: the address
// pool, peer key material, the interface configuration file and the
// wg/wg-quick commands that reload it.
//
// Nothing in this package locks. Pool.Allocate and
// Synchronizer.RegisterPeer assume the caller holds the provisioning lock
// for the whole allocate, persist and reload sequence.
package tunnel
