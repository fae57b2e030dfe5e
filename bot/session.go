package bot

import (
	"sync"
	"time"
)

// Step is the current position in a multi-message dialogue.
type Step int

const (
	StepNone Step = iota

	StepWithdrawAmount
	StepWithdrawDestination

	StepAddAdmin
	StepRemoveAdmin
	StepAddChannel
	StepSetValue
	StepBroadcast
	StepBan
	StepUnban
	StepBalanceAdd
	StepBalanceRemove
	StepBalanceReset
	StepBonusReset
	StepLookup
)

func (s Step) isAdminStep() bool { return s >= StepAddAdmin }

// Session is the per-user dialogue state. Advisory only: last write wins
// and losing it on restart just restarts the dialogue.
type Session struct {
	Step Step
	// Key is the settings key being edited.
	Key string
	// Amount is the withdrawal amount captured by the first dialogue step.
	Amount float64
	// ActiveOnly selects the broadcast audience.
	ActiveOnly bool

	touched time.Time
}

// SessionStore keeps dialogue state keyed by user id, expiring entries
// that have not been touched within the TTL.
type SessionStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[int64]*Session
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	s := &SessionStore{
		ttl:     ttl,
		entries: make(map[int64]*Session),
	}
	go s.sweep()
	return s
}

func (s *SessionStore) Get(userID int64) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[userID]
	if !ok {
		return Session{}, false
	}
	if time.Since(entry.touched) > s.ttl {
		delete(s.entries, userID)
		return Session{}, false
	}
	entry.touched = time.Now()
	return *entry, true
}

func (s *SessionStore) Set(userID int64, session Session) {
	session.touched = time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[userID] = &session
}

func (s *SessionStore) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
}

// Every minute drop sessions past their TTL.
func (s *SessionStore) sweep() {
	for {
		time.Sleep(time.Minute)

		s.mu.Lock()
		for userID, entry := range s.entries {
			if time.Since(entry.touched) > s.ttl {
				delete(s.entries, userID)
			}
		}
		s.mu.Unlock()
	}
}
