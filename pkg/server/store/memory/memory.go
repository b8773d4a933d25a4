// Package memory implements the store interfaces with in-process maps.
// It backs the server's --in-memory mode and the package tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Unknown-086/GhostSwitch/pkg/model"
	"github.com/Unknown-086/GhostSwitch/pkg/server/store"
)

var (
	_ store.UserStore   = (*Store)(nil)
	_ store.PeerStore   = (*Store)(nil)
	_ store.ServerStore = (*Store)(nil)
	_ store.HealthStore = (*Store)(nil)
)

type Store struct {
	mu sync.Mutex

	users   map[int64]model.User
	peers   map[int64]model.PeerConfig
	servers map[int64]model.TunnelServer

	nextUserID int64
	nextPeerID int64
}

// NewStore returns an empty store holding the given tunnel servers.
func NewStore(servers ...model.TunnelServer) *Store {
	s := &Store{
		users:   make(map[int64]model.User),
		peers:   make(map[int64]model.PeerConfig),
		servers: make(map[int64]model.TunnelServer),
	}
	for _, srv := range servers {
		s.servers[srv.ID] = srv
	}
	return s
}

func (s *Store) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == u.Username {
			return store.ErrUsernameTaken
		}
	}

	s.nextUserID++
	u.ID = s.nextUserID
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *Store) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return &u, nil
}

func (s *Store) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	u.LastLogin = &at
	s.users[id] = u
	return nil
}

// DeleteUser removes a user. Peers are left in place.
func (s *Store) DeleteUser(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

func (s *Store) ActivePeerForUser(_ context.Context, userID int64) (*model.PeerConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found *model.PeerConfig
	for _, p := range s.peers {
		if p.UserID != userID || !p.IsActive {
			continue
		}
		if found == nil || p.ID > found.ID {
			p := p
			found = &p
		}
	}
	if found == nil {
		return nil, store.ErrPeerNotFound
	}
	return found, nil
}

func (s *Store) ActiveAddresses(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	addresses := make([]string, 0, len(s.peers))
	for _, p := range s.peers {
		if p.IsActive {
			addresses = append(addresses, p.AssignedIP)
		}
	}
	sort.Strings(addresses)
	return addresses, nil
}

func (s *Store) CreatePeer(_ context.Context, p *model.PeerConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPeerID++
	p.ID = s.nextPeerID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.peers[p.ID] = *p
	return nil
}

func (s *Store) DeactivatePeer(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.peers[id]
	if !ok {
		return store.ErrPeerNotFound
	}
	p.IsActive = false
	s.peers[id] = p
	return nil
}

// Peers returns a copy of every peer row, active or not, ordered by id.
func (s *Store) Peers() []model.PeerConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.PeerConfig, 0, len(s.peers))
	for _, p := range s.peers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) GetServer(_ context.Context, id int64) (*model.TunnelServer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	srv, ok := s.servers[id]
	if !ok {
		return nil, store.ErrServerNotFound
	}
	return &srv, nil
}

func (s *Store) ListActiveServers(_ context.Context) ([]model.TunnelServer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.TunnelServer, 0, len(s.servers))
	for _, srv := range s.servers {
		if srv.Status == model.ServerStatusActive {
			out = append(out, srv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.Compare(out[i].Name, out[j].Name) < 0
	})
	return out, nil
}

func (s *Store) CheckConnectivity(_ context.Context) error {
	return nil
}
