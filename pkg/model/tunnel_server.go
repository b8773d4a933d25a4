package model

import "time"

type TunnelServer struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Location  string `gorm:"not null"`
	PublicIP  string `gorm:"column:public_ip"`
	Endpoint  string
	PublicKey string
	Status    ServerStatus `gorm:"type:varchar(16);not null"`
	CreatedAt time.Time
}

func (s TunnelServer) TableName() string {
	return "servers"
}

// LocationFlag returns the flag shown next to the server in listings.
func (s TunnelServer) LocationFlag() string {
	switch s.Location {
	case "Dubai, UAE":
		return "🇦🇪"
	case "New York, USA":
		return "🇺🇸"
	case "London, UK":
		return "🇬🇧"
	case "Tokyo, Japan":
		return "🇯🇵"
	default:
		return "🌍"
	}
}
