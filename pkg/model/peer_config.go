package model

import (
	"net/netip"
	"time"
)

// PeerConfig is a provisioned tunnel peer. PresharedKey is empty when the
// peer was registered without one.
type PeerConfig struct {
	ID               int64  `gorm:"primaryKey"`
	UserID           int64  `gorm:"not null;index"`
	ServerID         int64  `gorm:"not null"`
	ClientPrivateKey string `gorm:"not null"`
	ClientPublicKey  string `gorm:"not null"`
	PresharedKey     string `gorm:"not null;default:''"`
	AssignedIP       string `gorm:"column:assigned_ip;not null"`
	IsActive         bool   `gorm:"not null;default:true"`
	CreatedAt        time.Time
}

func (p PeerConfig) TableName() string {
	return "vpn_configs"
}

// Address parses AssignedIP.
func (p PeerConfig) Address() (netip.Addr, error) {
	return netip.ParseAddr(p.AssignedIP)
}
