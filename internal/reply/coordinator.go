// Package reply keeps at most one live transient status message per user.
// Issuing a new one supersedes and deletes the previous one.
package reply

import (
	"log/slog"
	"sync"
	"time"
)

type Message struct {
	ID        string
	ChannelID string
	CreatedAt time.Time
}

type Deleter interface {
	DeleteMessage(channelID, messageID string) error
}

type Coordinator struct {
	deleter Deleter
	ttl     time.Duration

	mu      sync.Mutex
	pending map[string]Message
}

func NewCoordinator(deleter Deleter, ttl time.Duration) *Coordinator {
	return &Coordinator{
		deleter: deleter,
		ttl:     ttl,
		pending: make(map[string]Message),
	}
}

// Issue records msg as the user's live reply and deletes whatever it
// replaced. Posting a reply and reading back its server timestamp are
// separate async steps, so a slower call can finish after a faster later
// one; when the stored reply is already newer than msg, msg itself is the
// stale one and gets deleted instead.
func (c *Coordinator) Issue(userID string, msg Message) {
	c.mu.Lock()
	previous, hadPrevious := c.pending[userID]
	if hadPrevious && previous.CreatedAt.After(msg.CreatedAt) {
		c.mu.Unlock()
		c.delete(msg)
		return
	}
	c.pending[userID] = msg
	c.mu.Unlock()

	if !hadPrevious {
		return
	}
	// Past the TTL the transport has already removed it.
	if time.Since(previous.CreatedAt) > c.ttl {
		return
	}
	c.delete(previous)
}

// delete is best-effort; a reply that is already gone is fine.
func (c *Coordinator) delete(msg Message) {
	if err := c.deleter.DeleteMessage(msg.ChannelID, msg.ID); err != nil {
		slog.Debug("failed to delete superseded reply", "error", err, "message_id", msg.ID)
	}
}
