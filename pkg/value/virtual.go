package value

import (
	"context"
	"time"
)

// VirtualProvider computes a virtual value node's content on demand
// (spec.md §9 "virtual values": a node whose data is fetched lazily from a
// collaborator rather than parsed from wire XML, e.g. an operational-state
// leaf backed by a live counter). Fetch returns a fully-formed replacement
// Node; the caller attaches it as the virtual node's cached value.
type VirtualProvider interface {
	Fetch(ctx context.Context) (*Node, error)
}

// SetVirtual attaches provider to n and marks it as not-yet-fetched. A nil
// provider clears virtual-value behavior entirely.
func (n *Node) SetVirtual(provider VirtualProvider) {
	if provider == nil {
		n.virtual = nil
		return
	}
	n.virtual = &virtualState{provider: provider}
}

// IsVirtual reports whether n is backed by a VirtualProvider.
func (n *Node) IsVirtual() bool { return n.virtual != nil }

// Fetch returns n's virtual value, calling the provider at most once per
// refresh window (spec.md §9: per-session cache timeout). A zero ttl
// disables caching and re-fetches on every call; a negative ttl means
// "cache forever until Invalidate".
func (n *Node) Fetch(ctx context.Context, ttl time.Duration) (*Node, error) {
	vs := n.virtual
	if vs == nil {
		return n, nil
	}
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if vs.cached {
		fresh := ttl < 0 || (ttl > 0 && virtualNow().Sub(vs.cachedAt) < ttl)
		if fresh {
			cached := vs.value
			return &cached, nil
		}
	}

	fetched, err := vs.provider.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	vs.value = *fetched
	vs.cached = true
	vs.cachedAt = virtualNow()
	cached := vs.value
	return &cached, nil
}

// Invalidate clears any cached virtual value, forcing the next Fetch to
// call the provider regardless of ttl.
func (n *Node) Invalidate() {
	if n.virtual == nil {
		return
	}
	n.virtual.mu.Lock()
	n.virtual.cached = false
	n.virtual.mu.Unlock()
}

// virtualNow is a seam over time.Now so cache-freshness tests can control
// the clock without real sleeps.
var virtualNow = time.Now
