package gorm

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Unknown-086/GhostSwitch/pkg/model"
	"github.com/Unknown-086/GhostSwitch/pkg/server/store"
)

// Ensure PeerStore implements store.PeerStore
var _ store.PeerStore = (*PeerStore)(nil)

// PeerStore implements store.PeerStore using GORM
type PeerStore struct {
	db *gorm.DB
}

// NewPeerStore creates a new PeerStore
func NewPeerStore(db *gorm.DB) *PeerStore {
	return &PeerStore{db: db}
}

// ActivePeerForUser returns the newest active peer of a user
func (s *PeerStore) ActivePeerForUser(ctx context.Context, userID int64) (*model.PeerConfig, error) {
	var peer model.PeerConfig
	tx := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("id DESC").
		Take(&peer)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrPeerNotFound
		}
		return nil, tx.Error
	}
	return &peer, nil
}

// ActiveAddresses lists the addresses held by active peers
func (s *PeerStore) ActiveAddresses(ctx context.Context) ([]string, error) {
	var addresses []string
	tx := s.db.WithContext(ctx).
		Model(&model.PeerConfig{}).
		Where("is_active = ?", true).
		Pluck("assigned_ip", &addresses)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return addresses, nil
}

// CreatePeer inserts a new peer row
func (s *PeerStore) CreatePeer(ctx context.Context, peer *model.PeerConfig) error {
	return s.db.WithContext(ctx).Create(peer).Error
}

// DeactivatePeer marks a peer inactive
func (s *PeerStore) DeactivatePeer(ctx context.Context, id int64) error {
	tx := s.db.WithContext(ctx).
		Model(&model.PeerConfig{}).
		Where("id = ?", id).
		Update("is_active", false)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrPeerNotFound
	}
	return nil
}
