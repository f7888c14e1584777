// Package hub keeps track of the live push connections of every user.
package hub

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ErrConnClosed is returned by Conn.Send once the connection is closed.
var ErrConnClosed = errors.New("connection closed")

// Conn is a live push connection. Send must not block: implementations queue
// the frame and deliver it asynchronously, in order. Implementations are used
// as map keys and must be comparable (pointer receivers).
type Conn interface {
	Send(payload []byte) error
}

// BroadcastResult summarises one fan-out.
type BroadcastResult struct {
	Connections int // connections registered when the broadcast ran
	Delivered   int
	Skipped     int // already closed
	Failed      int // stale or errored
}

// Stats is a point-in-time view of the registry.
type Stats struct {
	Identities  int `json:"identities"`
	Connections int `json:"connections"`
}

// Registry maps a messaging identity to its set of live connections.
// An identity key exists only while its set is non-empty.
type Registry struct {
	mu    sync.Mutex
	conns map[int64]map[Conn]struct{}
	log   zerolog.Logger
}

func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		conns: make(map[int64]map[Conn]struct{}),
		log:   log.With().Str("comp", "hub.registry").Logger(),
	}
}

// Register adds c to the set of identity. Registering the same connection twice is a no-op.
func (r *Registry) Register(identity int64, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.conns[identity]
	if !ok {
		set = make(map[Conn]struct{})
		r.conns[identity] = set
	}
	set[c] = struct{}{}
	r.log.Debug().Int64("identity", identity).Int("connections", len(set)).Msg("connection registered")
}

// Unregister removes c and drops the identity once its last connection is gone.
func (r *Registry) Unregister(identity int64, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.conns[identity]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.conns, identity)
		r.log.Debug().Int64("identity", identity).Msg("last connection removed")
		return
	}
	r.log.Debug().Int64("identity", identity).Int("connections", len(set)).Msg("connection unregistered")
}

// Broadcast serialises v once and queues it on every connection of identity.
// Closed connections are skipped, not removed: removal belongs to the
// transport close path. The lock is held for the whole fan-out so concurrent
// broadcasts to the same identity reach every connection in the same order;
// Conn.Send never blocks, so this is bounded.
func (r *Registry) Broadcast(identity int64, v any) (BroadcastResult, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return BroadcastResult{}, fmt.Errorf("marshal push payload: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.conns[identity]
	res := BroadcastResult{Connections: len(set)}
	for c := range set {
		switch err := c.Send(payload); {
		case err == nil:
			res.Delivered++
		case errors.Is(err, ErrConnClosed):
			res.Skipped++
		default:
			res.Failed++
			r.log.Warn().Err(err).Int64("identity", identity).Msg("push send failed")
		}
	}
	return res, nil
}

// Count returns the number of live connections for identity.
func (r *Registry) Count(identity int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns[identity])
}

func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := Stats{Identities: len(r.conns)}
	for _, set := range r.conns {
		s.Connections += len(set)
	}
	return s
}
