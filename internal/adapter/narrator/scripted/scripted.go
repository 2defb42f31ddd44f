// Package scripted provides a deterministic narrator for tests and the
// dev boot path: it replays canned candidates in order.
package scripted

import (
	"context"
	"sync"

	"fableturn/internal/app/ports"
)

type Narrator struct {
	mu      sync.Mutex
	replies []string
	calls   int
}

func New(replies ...string) *Narrator {
	return &Narrator{replies: replies}
}

func (n *Narrator) Generate(_ context.Context, _ ports.NarrationRequest) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.replies) == 0 {
		return "", nil
	}
	reply := n.replies[n.calls%len(n.replies)]
	n.calls++
	return reply, nil
}

func (n *Narrator) Calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}
