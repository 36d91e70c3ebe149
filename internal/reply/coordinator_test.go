package reply

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type mockDeleter struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (d *mockDeleter) DeleteMessage(_, messageID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deleted = append(d.deleted, messageID)
	return d.err
}

func (d *mockDeleter) deletedIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.deleted))
	copy(out, d.deleted)
	return out
}

func TestIssue_FirstReplyDeletesNothing(t *testing.T) {
	d := &mockDeleter{}
	c := NewCoordinator(d, time.Minute)

	c.Issue("u1", Message{ID: "m1", ChannelID: "ch", CreatedAt: time.Now()})
	if len(d.deletedIDs()) != 0 {
		t.Fatalf("nothing should be deleted, got %v", d.deletedIDs())
	}
}

func TestIssue_SupersedesPreviousReply(t *testing.T) {
	d := &mockDeleter{}
	c := NewCoordinator(d, time.Minute)
	now := time.Now()

	c.Issue("u1", Message{ID: "m1", ChannelID: "ch", CreatedAt: now})
	c.Issue("u1", Message{ID: "m2", ChannelID: "ch", CreatedAt: now.Add(time.Second)})

	deleted := d.deletedIDs()
	if len(deleted) != 1 || deleted[0] != "m1" {
		t.Fatalf("expected exactly m1 deleted, got %v", deleted)
	}
}

func TestIssue_StaleLateArrivalDeletesItself(t *testing.T) {
	d := &mockDeleter{}
	c := NewCoordinator(d, time.Minute)
	now := time.Now()

	// The newer reply's issuance finished first; the older one arrives late.
	c.Issue("u1", Message{ID: "m2", ChannelID: "ch", CreatedAt: now.Add(time.Second)})
	c.Issue("u1", Message{ID: "m1", ChannelID: "ch", CreatedAt: now})

	deleted := d.deletedIDs()
	if len(deleted) != 1 || deleted[0] != "m1" {
		t.Fatalf("stale reply must delete itself, got %v", deleted)
	}

	// m2 must still be the stored reply: a third issue supersedes m2.
	c.Issue("u1", Message{ID: "m3", ChannelID: "ch", CreatedAt: now.Add(2 * time.Second)})
	deleted = d.deletedIDs()
	if len(deleted) != 2 || deleted[1] != "m2" {
		t.Fatalf("expected m2 deleted next, got %v", deleted)
	}
}

func TestIssue_ExpiredPreviousIsNotDeleted(t *testing.T) {
	d := &mockDeleter{}
	c := NewCoordinator(d, time.Minute)

	c.Issue("u1", Message{ID: "m1", ChannelID: "ch", CreatedAt: time.Now().Add(-2 * time.Minute)})
	c.Issue("u1", Message{ID: "m2", ChannelID: "ch", CreatedAt: time.Now()})

	if len(d.deletedIDs()) != 0 {
		t.Fatalf("expired reply must not be deleted, got %v", d.deletedIDs())
	}
}

func TestIssue_DeleteFailureIsAbsorbed(t *testing.T) {
	d := &mockDeleter{err: errors.New("already gone")}
	c := NewCoordinator(d, time.Minute)
	now := time.Now()

	c.Issue("u1", Message{ID: "m1", ChannelID: "ch", CreatedAt: now})
	c.Issue("u1", Message{ID: "m2", ChannelID: "ch", CreatedAt: now.Add(time.Second)})
	// No panic, no error surfaced; the new reply is stored.
	c.Issue("u1", Message{ID: "m3", ChannelID: "ch", CreatedAt: now.Add(2 * time.Second)})

	deleted := d.deletedIDs()
	if len(deleted) != 2 || deleted[1] != "m2" {
		t.Fatalf("expected m1 then m2 delete attempts, got %v", deleted)
	}
}

func TestIssue_UsersDoNotInterfere(t *testing.T) {
	d := &mockDeleter{}
	c := NewCoordinator(d, time.Minute)
	now := time.Now()

	c.Issue("u1", Message{ID: "m1", ChannelID: "ch", CreatedAt: now})
	c.Issue("u2", Message{ID: "m2", ChannelID: "ch", CreatedAt: now.Add(time.Second)})

	if len(d.deletedIDs()) != 0 {
		t.Fatalf("replies of different users must not supersede each other, got %v", d.deletedIDs())
	}
}
