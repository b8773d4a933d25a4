// Package provision hands each user a tunnel configuration, creating and
// registering a new peer on first use.
package provision

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Unknown-086/GhostSwitch/pkg/identity"
	"github.com/Unknown-086/GhostSwitch/pkg/model"
	"github.com/Unknown-086/GhostSwitch/pkg/server/store"
	"github.com/Unknown-086/GhostSwitch/pkg/tunnel"
)

// KeyGenerator produces key material for a new peer.
type KeyGenerator interface {
	Generate(ctx context.Context) (*tunnel.KeyMaterial, error)
}

// ClientSettings are the values rendered into every client configuration
// besides the peer's own keys and address.
type ClientSettings struct {
	DNS                 []string
	AllowedIPs          []string
	PersistentKeepalive int

	// ServerID is the tunnel server new peers are attached to.
	ServerID int64

	// ServerPublicKey and ServerEndpoint fill in a server row that lacks them.
	ServerPublicKey string
	ServerEndpoint  string
}

// Result is a rendered configuration and the records it came from.
type Result struct {
	Peer   model.PeerConfig
	Server model.TunnelServer
	Config string
	Reused bool
}

// Orchestrator runs provisioning requests. New peers are created under a
// single process-wide lock covering allocation through interface reload.
type Orchestrator struct {
	mu sync.Mutex

	peers   store.PeerStore
	servers store.ServerStore
	pool    *tunnel.Pool
	keys    KeyGenerator
	sync    tunnel.Synchronizer

	settingsMu sync.RWMutex
	settings   ClientSettings

	log *logrus.Entry
}

// New wires an orchestrator.
func New(
	peers store.PeerStore,
	servers store.ServerStore,
	pool *tunnel.Pool,
	keys KeyGenerator,
	synchronizer tunnel.Synchronizer,
	settings ClientSettings,
) *Orchestrator {
	return &Orchestrator{
		peers:    peers,
		servers:  servers,
		pool:     pool,
		keys:     keys,
		sync:     synchronizer,
		settings: settings,
		log:      logrus.WithField("component", "provision"),
	}
}

// UpdateSettings replaces the client rendering settings. Requests already
// running keep the settings they started with.
func (o *Orchestrator) UpdateSettings(settings ClientSettings) {
	o.settingsMu.Lock()
	o.settings = settings
	o.settingsMu.Unlock()
}

// Settings returns the current client rendering settings.
func (o *Orchestrator) Settings() ClientSettings {
	o.settingsMu.RLock()
	defer o.settingsMu.RUnlock()
	return o.settings
}

// Provision returns the caller's active configuration, creating one if the
// caller has none. Repeated calls return the same address and keys.
func (o *Orchestrator) Provision(ctx context.Context, id *identity.Identity) (*Result, error) {
	settings := o.Settings()
	log := o.log.WithFields(logrus.Fields{
		"user_id":    id.UserID,
		"request_id": id.RequestID,
	})

	res, err := o.provision(ctx, id, settings, log)
	if err != nil {
		kind, _ := KindOf(err)
		log.WithField("state", StateFailed).WithField("kind", kind).WithError(err).Error("Provisioning failed")
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"state":   StateDone,
		"address": res.Peer.AssignedIP,
		"reused":  res.Reused,
	}).Info("Provisioning complete")
	return res, nil
}

func (o *Orchestrator) provision(ctx context.Context, id *identity.Identity, settings ClientSettings, log *logrus.Entry) (*Result, error) {
	log.WithField("state", StateCheckingExisting).Debug("Transition")
	existing, err := o.activePeer(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return o.reuse(ctx, existing, settings, log)
	}

	server, err := o.resolveServer(ctx, settings.ServerID, settings)
	if err != nil {
		return nil, err
	}

	peer, reused, err := o.create(ctx, id, settings, log)
	if err != nil {
		return nil, err
	}
	if reused {
		return o.reuse(ctx, peer, settings, log)
	}

	return o.render(peer, server, settings, false, log)
}

func (o *Orchestrator) reuse(ctx context.Context, peer *model.PeerConfig, settings ClientSettings, log *logrus.Entry) (*Result, error) {
	log.WithField("state", StateReusingExisting).Debug("Transition")
	server, err := o.resolveServer(ctx, peer.ServerID, settings)
	if err != nil {
		return nil, err
	}
	return o.render(peer, server, settings, true, log)
}

// create runs the locked section. It reports reused when another request
// for the same user finished first.
func (o *Orchestrator) create(ctx context.Context, id *identity.Identity, settings ClientSettings, log *logrus.Entry) (*model.PeerConfig, bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	// The sequence always runs to a result once the lock is held.
	ctx = context.WithoutCancel(ctx)

	existing, err := o.activePeer(ctx, id.UserID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, true, nil
	}

	log.WithField("state", StateAllocating).Debug("Transition")
	address, err := o.allocate(ctx, log)
	if err != nil {
		return nil, false, err
	}

	log.WithField("state", StateGeneratingKeys).Debug("Transition")
	keys, err := o.keys.Generate(ctx)
	if err != nil {
		return nil, false, fail(KeyGenFailed, err)
	}

	log.WithField("state", StatePersisting).Debug("Transition")
	peer := &model.PeerConfig{
		UserID:           id.UserID,
		ServerID:         settings.ServerID,
		ClientPrivateKey: keys.PrivateKey,
		ClientPublicKey:  keys.PublicKey,
		PresharedKey:     keys.PresharedKey,
		AssignedIP:       address.String(),
		IsActive:         true,
	}
	if err := o.peers.CreatePeer(ctx, peer); err != nil {
		return nil, false, fail(PersistFailed, fmt.Errorf("create peer: %w", err))
	}

	log.WithField("state", StateSynchronizing).Debug("Transition")
	err = o.sync.RegisterPeer(ctx, tunnel.Peer{
		PublicKey:    keys.PublicKey,
		PresharedKey: keys.PresharedKey,
		Address:      address,
	})
	if err != nil {
		if rerr := o.peers.DeactivatePeer(ctx, peer.ID); rerr != nil {
			log.WithError(rerr).WithField("peer_id", peer.ID).Error("Rollback of unsynchronized peer failed")
		}
		return nil, false, fail(SyncFailed, err)
	}

	return peer, false, nil
}

func (o *Orchestrator) allocate(ctx context.Context, log *logrus.Entry) (netip.Addr, error) {
	raw, err := o.peers.ActiveAddresses(ctx)
	if err != nil {
		return netip.Addr{}, fail(PersistFailed, fmt.Errorf("list active addresses: %w", err))
	}

	active := make([]netip.Addr, 0, len(raw))
	for _, s := range raw {
		a, err := netip.ParseAddr(s)
		if err != nil {
			log.WithField("assigned_ip", s).Warn("Ignoring unparsable active address")
			continue
		}
		active = append(active, a)
	}

	address, err := o.pool.Allocate(active)
	if err != nil {
		return netip.Addr{}, fail(PoolExhausted, err)
	}
	return address, nil
}

func (o *Orchestrator) activePeer(ctx context.Context, userID int64) (*model.PeerConfig, error) {
	peer, err := o.peers.ActivePeerForUser(ctx, userID)
	switch {
	case err == nil:
		return peer, nil
	case errors.Is(err, store.ErrPeerNotFound):
		return nil, nil
	default:
		return nil, fail(PersistFailed, fmt.Errorf("look up active peer: %w", err))
	}
}

// resolveServer loads the tunnel server, filling missing fields from settings.
func (o *Orchestrator) resolveServer(ctx context.Context, serverID int64, settings ClientSettings) (model.TunnelServer, error) {
	server := model.TunnelServer{ID: serverID}

	found, err := o.servers.GetServer(ctx, serverID)
	switch {
	case err == nil:
		server = *found
	case errors.Is(err, store.ErrServerNotFound):
		o.log.WithField("server_id", serverID).Debug("Server row missing, using configured server")
	default:
		return server, fail(PersistFailed, fmt.Errorf("look up server: %w", err))
	}

	if server.PublicKey == "" {
		server.PublicKey = settings.ServerPublicKey
	}
	if server.Endpoint == "" {
		server.Endpoint = settings.ServerEndpoint
	}
	if server.PublicKey == "" || server.Endpoint == "" {
		return server, fail(PersistFailed, ErrServerUnconfigured)
	}
	return server, nil
}

func (o *Orchestrator) render(peer *model.PeerConfig, server model.TunnelServer, settings ClientSettings, reused bool, log *logrus.Entry) (*Result, error) {
	log.WithField("state", StateRendering).Debug("Transition")

	address, err := peer.Address()
	if err != nil {
		return nil, fail(PersistFailed, fmt.Errorf("stored address %q: %w", peer.AssignedIP, err))
	}

	cfg := tunnel.ClientConfig{
		PrivateKey:          peer.ClientPrivateKey,
		Address:             netip.PrefixFrom(address, o.pool.Bits()),
		DNS:                 settings.DNS,
		ServerPublicKey:     server.PublicKey,
		PresharedKey:        peer.PresharedKey,
		Endpoint:            server.Endpoint,
		AllowedIPs:          settings.AllowedIPs,
		PersistentKeepalive: settings.PersistentKeepalive,
	}

	return &Result{
		Peer:   *peer,
		Server: server,
		Config: cfg.Render(),
		Reused: reused,
	}, nil
}
