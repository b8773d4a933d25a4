package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Unknown-086/GhostSwitch/pkg/model"
	"github.com/Unknown-086/GhostSwitch/pkg/server/store"
)

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	u := &model.User{Username: "ghostuser"}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.Equal(t, int64(1), u.ID)

	assert.ErrorIs(t, s.CreateUser(ctx, &model.User{Username: "ghostuser"}), store.ErrUsernameTaken)

	got, err := s.GetUserByUsername(ctx, "ghostuser")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	require.NoError(t, s.TouchLastLogin(ctx, u.ID, time.Now()))
	got, err = s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastLogin)

	s.DeleteUser(u.ID)
	_, err = s.GetUserByID(ctx, u.ID)
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestPeers(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.ActivePeerForUser(ctx, 1)
	assert.ErrorIs(t, err, store.ErrPeerNotFound)

	p := &model.PeerConfig{UserID: 1, AssignedIP: "10.0.0.5", IsActive: true}
	require.NoError(t, s.CreatePeer(ctx, p))
	require.NoError(t, s.CreatePeer(ctx, &model.PeerConfig{UserID: 2, AssignedIP: "10.0.0.6", IsActive: true}))

	addrs, err := s.ActiveAddresses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.5", "10.0.0.6"}, addrs)

	require.NoError(t, s.DeactivatePeer(ctx, p.ID))
	addrs, err = s.ActiveAddresses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.6"}, addrs)

	_, err = s.ActivePeerForUser(ctx, 1)
	assert.ErrorIs(t, err, store.ErrPeerNotFound)
	assert.Len(t, s.Peers(), 2)

	assert.ErrorIs(t, s.DeactivatePeer(ctx, 42), store.ErrPeerNotFound)
}

func TestServers(t *testing.T) {
	ctx := context.Background()
	s := NewStore(
		model.TunnelServer{ID: 1, Name: "Tokyo Server", Status: model.ServerStatusActive},
		model.TunnelServer{ID: 2, Name: "Dubai Server", Status: model.ServerStatusActive},
		model.TunnelServer{ID: 3, Name: "Old Server", Status: model.ServerStatusInactive},
	)

	list, err := s.ListActiveServers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Dubai Server", list[0].Name)

	_, err = s.GetServer(ctx, 9)
	assert.ErrorIs(t, err, store.ErrServerNotFound)
}
