package webhook

import (
	"context"
	"sync"
)

// MemoryGuard is a process-local last-notified-status guard. It is lost on
// restart and not shared between replicas; the DynamoDB guard is for production.
type MemoryGuard struct {
	mu   sync.Mutex
	last map[string]string
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{last: make(map[string]string)}
}

// Claim reports whether status differs from the last one claimed for key,
// recording it when it does.
func (g *MemoryGuard) Claim(_ context.Context, key, status string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.last[key] == status {
		return false, nil
	}
	g.last[key] = status
	return true, nil
}
