package model

//go:generate go run github.com/dmarkham/enumer -type ServerStatus -trimprefix ServerStatus -transform lower -json -sql -output server_status.gen.go

// ServerStatus is the lifecycle state of a tunnel server. The zero value is
// inactive so an unset status never advertises a server.
type ServerStatus int

const (
	ServerStatusInactive ServerStatus = iota
	ServerStatusActive
)
