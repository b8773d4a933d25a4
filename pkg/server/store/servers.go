package store

import (
	"context"
	"errors"

	"github.com/Unknown-086/GhostSwitch/pkg/model"
)

// ErrServerNotFound is returned when a tunnel server doesn't exist
var ErrServerNotFound = errors.New("server not found")

// ServerStore abstracts tunnel server storage
type ServerStore interface {
	// GetServer returns ErrServerNotFound if there is no such server.
	GetServer(ctx context.Context, id int64) (*model.TunnelServer, error)

	// ListActiveServers returns active servers ordered by name.
	ListActiveServers(ctx context.Context) ([]model.TunnelServer, error)
}
