package chat

import (
	"sort"
	"sync"
	"time"
)

// typingExpiry is how long a typing indicator survives without a fresh
// typing event. The stock web client re-emits while the user keeps typing,
// so an indicator only lapses once they actually stop.
const typingExpiry = 3 * time.Second

type presenceKey struct {
	room string
	user string
}

// PresenceTracker holds per-room typing indicators. Each typing event arms
// (or re-arms) an expiry timer for that room/user pair; a stopTyping event
// clears it immediately. Safe for concurrent use.
type PresenceTracker struct {
	mu     sync.Mutex
	expiry time.Duration
	timers map[presenceKey]*time.Timer
	names  map[presenceKey]string
}

// NewPresenceTracker returns a tracker with the standard 3 second expiry.
func NewPresenceTracker() *PresenceTracker {
	return newPresenceTracker(typingExpiry)
}

func newPresenceTracker(expiry time.Duration) *PresenceTracker {
	return &PresenceTracker{
		expiry: expiry,
		timers: make(map[presenceKey]*time.Timer),
		names:  make(map[presenceKey]string),
	}
}

// Typing records that user is typing in room, resetting the expiry if the
// indicator was already live.
func (p *PresenceTracker) Typing(room, user, userName string) {
	key := presenceKey{room: room, user: user}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.names[key] = userName
	if timer, ok := p.timers[key]; ok {
		timer.Reset(p.expiry)
		return
	}
	p.timers[key] = time.AfterFunc(p.expiry, func() {
		p.clear(key)
	})
}

// StopTyping clears the indicator immediately.
func (p *PresenceTracker) StopTyping(room, user string) {
	p.clear(presenceKey{room: room, user: user})
}

func (p *PresenceTracker) clear(key presenceKey) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if timer, ok := p.timers[key]; ok {
		timer.Stop()
		delete(p.timers, key)
	}
	delete(p.names, key)
}

// TypingUsers returns the ids of users currently typing in room, sorted for
// stable output.
func (p *PresenceTracker) TypingUsers(room string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var users []string
	for key := range p.timers {
		if key.room == room {
			users = append(users, key.user)
		}
	}
	sort.Strings(users)
	return users
}

// UserName returns the display name last seen for a typing user, if any.
func (p *PresenceTracker) UserName(room, user string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	name, ok := p.names[presenceKey{room: room, user: user}]
	return name, ok
}
