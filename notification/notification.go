package notification

import (
	"context"
	"sync"
)

// Inbox is an in-process channel that keeps the most recent notifications
// in reverse chronological order, capped at a maximum count. It doubles as
// the feed behind the notifications HTTP endpoint.
type Inbox struct {
	messages []Message
	maxSize  int
	mutex    sync.RWMutex
}

// NewInbox creates an inbox retaining at most maxSize messages
func NewInbox(maxSize int) *Inbox {
	return &Inbox{maxSize: maxSize}
}

// Name identifies the channel
func (in *Inbox) Name() string { return "inbox" }

// Send stores the message at the head of the feed
func (in *Inbox) Send(ctx context.Context, msg Message) error {
	in.mutex.Lock()
	defer in.mutex.Unlock()

	in.messages = append([]Message{msg}, in.messages...)
	if len(in.messages) > in.maxSize {
		in.messages = in.messages[:in.maxSize]
	}
	return nil
}

// Recent returns a copy of the stored messages, newest first
func (in *Inbox) Recent() []Message {
	in.mutex.RLock()
	defer in.mutex.RUnlock()

	out := make([]Message, len(in.messages))
	copy(out, in.messages)
	return out
}

// ForUser returns the stored messages addressed to one user
func (in *Inbox) ForUser(userID string) []Message {
	in.mutex.RLock()
	defer in.mutex.RUnlock()

	var out []Message
	for _, msg := range in.messages {
		if msg.UserID == userID {
			out = append(out, msg)
		}
	}
	return out
}

// Len returns the number of stored messages
func (in *Inbox) Len() int {
	in.mutex.RLock()
	defer in.mutex.RUnlock()
	return len(in.messages)
}
