package store

import (
	"context"
	"errors"

	"github.com/Unknown-086/GhostSwitch/pkg/model"
)

// ErrPeerNotFound is returned when a user has no active peer
var ErrPeerNotFound = errors.New("peer not found")

// PeerStore abstracts provisioned peer storage.
//
// Callers serialize allocation themselves; the store is not expected to
// prevent two writers from claiming the same address.
type PeerStore interface {
	// ActivePeerForUser returns the user's active peer, or ErrPeerNotFound.
	ActivePeerForUser(ctx context.Context, userID int64) (*model.PeerConfig, error)

	// ActiveAddresses returns the assigned address of every active peer.
	ActiveAddresses(ctx context.Context) ([]string, error)

	// CreatePeer inserts an active peer and fills in its ID.
	CreatePeer(ctx context.Context, peer *model.PeerConfig) error

	// DeactivatePeer marks the peer inactive, releasing its address.
	DeactivatePeer(ctx context.Context, id int64) error
}
