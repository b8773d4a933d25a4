package tunnel

import (
	"errors"
	"fmt"
	"net/netip"
)

// ErrPoolExhausted is returned when every address in the range is active.
var ErrPoolExhausted = errors.New("address pool exhausted")

// Pool is the contiguous range [first, last] inside a tunnel network.
// Addresses below first are reserved for the server and infrastructure.
type Pool struct {
	network netip.Prefix
	first   netip.Addr
	last    netip.Addr
}

// NewPool parses the network and its assignable range.
func NewPool(network, first, last string) (*Pool, error) {
	prefix, err := netip.ParsePrefix(network)
	if err != nil {
		return nil, fmt.Errorf("parse pool network: %w", err)
	}
	lo, err := netip.ParseAddr(first)
	if err != nil {
		return nil, fmt.Errorf("parse pool first address: %w", err)
	}
	hi, err := netip.ParseAddr(last)
	if err != nil {
		return nil, fmt.Errorf("parse pool last address: %w", err)
	}
	if !prefix.Contains(lo) || !prefix.Contains(hi) {
		return nil, fmt.Errorf("pool range %s-%s is outside %s", lo, hi, prefix)
	}
	if hi.Less(lo) {
		return nil, fmt.Errorf("pool range %s-%s is empty", lo, hi)
	}
	return &Pool{network: prefix.Masked(), first: lo, last: hi}, nil
}

// Bits returns the network prefix length.
func (p *Pool) Bits() int {
	return p.network.Bits()
}

// Size returns the number of assignable addresses.
func (p *Pool) Size() int {
	n := 0
	for a := p.first; ; a = a.Next() {
		n++
		if a == p.last {
			return n
		}
	}
}

// Allocate returns the lowest address in the range that is not active.
func (p *Pool) Allocate(active []netip.Addr) (netip.Addr, error) {
	taken := make(map[netip.Addr]struct{}, len(active))
	for _, a := range active {
		taken[a] = struct{}{}
	}

	for a := p.first; ; a = a.Next() {
		if _, ok := taken[a]; !ok {
			return a, nil
		}
		if a == p.last {
			return netip.Addr{}, ErrPoolExhausted
		}
	}
}
