// Package session keeps ephemeral per-user conversation state for the bot.
//
// Sessions live only in process memory and are keyed by Telegram user id.
// The store hands out copies, so a caller can mutate what it read and
// decide whether to Put it back. A handler that fails midway therefore
// leaves the stored session exactly as it was.
package session

import (
	"sync"
	"time"
)

// Step is the intake cursor.
type Step int

const (
	StepNone Step = iota
	StepPhone
	StepName
	StepDorm
	StepBlock
	StepRoom
	StepConfirming
	StepDone
)

var stepNames = [...]string{"none", "phone", "name", "dorm", "block", "room", "confirming", "done"}

func (s Step) String() string {
	if int(s) >= 0 && int(s) < len(stepNames) {
		return stepNames[s]
	}
	return "unknown"
}

// Collecting reports whether the step is one of the free-text profile
// questions.
func (s Step) Collecting() bool { return s >= StepPhone && s <= StepRoom }

// Selection is the in-progress order line.
type Selection struct {
	ItemID         uint
	ItemName       string
	RestaurantName string
	UnitPrice      float64
	Quantity       int
}

// Total is UnitPrice × Quantity.
func (s Selection) Total() float64 { return s.UnitPrice * float64(s.Quantity) }

// Profile is the delivery profile being collected.
type Profile struct {
	FullName string
	Phone    string
	Dorm     string
	Block    string
	Room     string
}

// Session is one user's conversation state.
type Session struct {
	UserID    int64
	Username  string
	Step      Step
	Selection Selection
	Profile   Profile

	// PendingQueue holds order ids the administrator has yet to review.
	PendingQueue []uint

	touched time.Time
}

// Active reports whether an intake flow is in progress.
func (s Session) Active() bool { return s.Step != StepNone && s.Step != StepDone }

func (s Session) clone() Session {
	if s.PendingQueue != nil {
		s.PendingQueue = append([]uint(nil), s.PendingQueue...)
	}
	return s
}

// Store is a concurrency-safe map of sessions keyed by user id.
//
// When ttl > 0, sessions idle for at least ttl are treated as absent and
// evicted opportunistically every gcEvery operations.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]Session
	ttl      time.Duration
	now      func() time.Time

	ops     uint64
	gcEvery uint64
}

// NewStore builds an empty Store. A ttl of zero disables expiry.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[int64]Session),
		ttl:      ttl,
		now:      time.Now,
		gcEvery:  1000,
	}
}

// Get returns a copy of the user's session and whether one exists.
func (st *Store) Get(userID int64) (Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := st.now()
	st.gcLocked(now)

	s, ok := st.sessions[userID]
	if !ok {
		return Session{UserID: userID}, false
	}
	if st.expired(s, now) {
		delete(st.sessions, userID)
		return Session{UserID: userID}, false
	}
	return s.clone(), true
}

// Put stores s under s.UserID, replacing any previous session.
func (st *Store) Put(s Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := st.now()
	st.gcLocked(now)
	s = s.clone()
	s.touched = now
	st.sessions[s.UserID] = s
}

// Update applies fn to the current session (or a fresh one) under the store
// lock. If fn returns false the store is left untouched.
func (st *Store) Update(userID int64, fn func(*Session) bool) Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := st.now()
	st.gcLocked(now)

	s, ok := st.sessions[userID]
	if !ok || st.expired(s, now) {
		s = Session{UserID: userID}
	}
	s = s.clone()
	if fn(&s) {
		s.touched = now
		st.sessions[userID] = s
	}
	return s.clone()
}

// Clear removes the user's session. Clearing an absent session is a no-op.
func (st *Store) Clear(userID int64) {
	st.mu.Lock()
	delete(st.sessions, userID)
	st.mu.Unlock()
}

// Len reports how many sessions are held, including ones not yet evicted.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *Store) expired(s Session, now time.Time) bool {
	return st.ttl > 0 && now.Sub(s.touched) >= st.ttl
}

// gcLocked evicts idle sessions after gcEvery operations. Caller holds mu.
func (st *Store) gcLocked(now time.Time) {
	if st.ttl <= 0 {
		return
	}
	st.ops++
	if st.ops < st.gcEvery {
		return
	}
	for k, s := range st.sessions {
		if now.Sub(s.touched) >= st.ttl {
			delete(st.sessions, k)
		}
	}
	st.ops = 0
}
