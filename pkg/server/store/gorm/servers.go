package gorm

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Unknown-086/GhostSwitch/pkg/model"
	"github.com/Unknown-086/GhostSwitch/pkg/server/store"
)

// Ensure ServerStore implements store.ServerStore
var _ store.ServerStore = (*ServerStore)(nil)

// ServerStore implements store.ServerStore using GORM
type ServerStore struct {
	db *gorm.DB
}

// NewServerStore creates a new ServerStore
func NewServerStore(db *gorm.DB) *ServerStore {
	return &ServerStore{db: db}
}

// GetServer looks a tunnel server up by id
func (s *ServerStore) GetServer(ctx context.Context, id int64) (*model.TunnelServer, error) {
	var server model.TunnelServer
	tx := s.db.WithContext(ctx).Where("id = ?", id).Take(&server)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrServerNotFound
		}
		return nil, tx.Error
	}
	return &server, nil
}

// ListActiveServers returns active servers ordered by name
func (s *ServerStore) ListActiveServers(ctx context.Context) ([]model.TunnelServer, error) {
	var servers []model.TunnelServer
	tx := s.db.WithContext(ctx).
		Where("status = ?", model.ServerStatusActive).
		Order("name").
		Find(&servers)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return servers, nil
}
