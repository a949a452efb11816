package usecase

import (
	"sync"
	"time"
)

// cooldownKey identifies one expression in one chat
type cooldownKey struct {
	chatID       string
	expressionID string
}

// CooldownTracker holds the in-memory "not eligible before" state for fired
// expressions. It is the only mutable shared state in the engine; all access
// goes through a single mutex. Entries are never evicted — the key space is
// bounded by chat count x expression count for the process lifetime.
type CooldownTracker struct {
	mu     sync.Mutex
	expiry map[cooldownKey]time.Time
}

// NewCooldownTracker creates an empty tracker
func NewCooldownTracker() *CooldownTracker {
	return &CooldownTracker{expiry: make(map[cooldownKey]time.Time)}
}

// Eligible reports whether the expression may fire at the given time:
// true if no entry exists, or the recorded expiry has passed.
func (t *CooldownTracker) Eligible(chatID, expressionID string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.eligibleLocked(chatID, expressionID, now)
}

// Record notes a firing at the given time. A zero cooldown records nothing,
// leaving the expression always eligible. Overwrites any prior entry.
func (t *CooldownTracker) Record(chatID, expressionID string, now time.Time, cooldownMinutes int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recordLocked(chatID, expressionID, now, cooldownMinutes)
}

// Claim atomically checks eligibility and records the firing. Two concurrent
// handlers for the same (chat, expression) key can never both claim within
// one cooldown window.
func (t *CooldownTracker) Claim(chatID, expressionID string, now time.Time, cooldownMinutes int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.eligibleLocked(chatID, expressionID, now) {
		return false
	}
	t.recordLocked(chatID, expressionID, now, cooldownMinutes)
	return true
}

func (t *CooldownTracker) eligibleLocked(chatID, expressionID string, now time.Time) bool {
	expiry, ok := t.expiry[cooldownKey{chatID, expressionID}]
	if !ok {
		return true
	}
	return !expiry.After(now)
}

func (t *CooldownTracker) recordLocked(chatID, expressionID string, now time.Time, cooldownMinutes int) {
	if cooldownMinutes <= 0 {
		return
	}
	key := cooldownKey{chatID, expressionID}
	t.expiry[key] = now.Add(time.Duration(cooldownMinutes) * time.Minute)
}
