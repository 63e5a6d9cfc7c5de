package chat

import (
	"container/list"
	"sync"
	"time"

	"localcoder/internal/logging"
)

type storeEntry struct {
	session   *Session
	expiresAt time.Time
	element   *list.Element
}

// Store keeps sessions in a bounded LRU with an idle timeout. Evicted
// sessions are closed.
type Store struct {
	capacity  int
	ttl       time.Duration
	entries   map[string]*storeEntry
	evictList *list.List
	mu        sync.Mutex

	cleanupStop chan struct{}
	closeOnce   sync.Once
}

// NewStore creates a store holding at most capacity sessions, each expiring
// after ttl without use. A background goroutine removes expired sessions
// every cleanupInterval; call Close to stop it.
func NewStore(capacity int, ttl, cleanupInterval time.Duration) *Store {
	if capacity < 1 {
		capacity = 1
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}
	s := &Store{
		capacity:    capacity,
		ttl:         ttl,
		entries:     make(map[string]*storeEntry),
		evictList:   list.New(),
		cleanupStop: make(chan struct{}),
	}
	go s.cleanupLoop(cleanupInterval)
	return s
}

func (s *Store) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.Cleanup(); n > 0 {
				logging.Debug("expired sessions removed", "count", n)
			}
		case <-s.cleanupStop:
			return
		}
	}
}

// Create adds a new empty session.
func (s *Store) Create() *Session {
	sess := NewSession()
	s.Put(sess)
	return sess
}

// Put adds or refreshes a session.
func (s *Store) Put(sess *Session) {
	var evicted []*Session

	s.mu.Lock()
	if e, ok := s.entries[sess.ID]; ok {
		e.session = sess
		e.expiresAt = time.Now().Add(s.ttl)
		s.evictList.MoveToFront(e.element)
	} else {
		e := &storeEntry{session: sess, expiresAt: time.Now().Add(s.ttl)}
		e.element = s.evictList.PushFront(e)
		s.entries[sess.ID] = e
	}
	for s.evictList.Len() > s.capacity {
		oldest := s.evictList.Back().Value.(*storeEntry)
		s.removeEntry(oldest)
		evicted = append(evicted, oldest.session)
	}
	s.mu.Unlock()

	closeSessions(evicted)
}

// Get returns a live session and refreshes its idle timeout.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		s.mu.Unlock()
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		s.removeEntry(e)
		s.mu.Unlock()
		closeSessions([]*Session{e.session})
		return nil, false
	}
	e.expiresAt = time.Now().Add(s.ttl)
	s.evictList.MoveToFront(e.element)
	s.mu.Unlock()

	e.session.Touch()
	return e.session, true
}

// GetOrCreate returns the session for id, or a new one when id is unknown
// or expired.
func (s *Store) GetOrCreate(id string) *Session {
	if id != "" {
		if sess, ok := s.Get(id); ok {
			return sess
		}
	}
	return s.Create()
}

// Delete removes and closes a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok {
		s.removeEntry(e)
	}
	s.mu.Unlock()

	if ok {
		closeSessions([]*Session{e.session})
	}
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cleanup removes expired sessions and returns how many were removed.
func (s *Store) Cleanup() int {
	var expired []*Session

	s.mu.Lock()
	now := time.Now()
	for _, e := range s.entries {
		if now.After(e.expiresAt) {
			s.removeEntry(e)
			expired = append(expired, e.session)
		}
	}
	s.mu.Unlock()

	closeSessions(expired)
	return len(expired)
}

// Close stops background cleanup and closes every session.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.cleanupStop)

		s.mu.Lock()
		var all []*Session
		for _, e := range s.entries {
			all = append(all, e.session)
		}
		s.entries = make(map[string]*storeEntry)
		s.evictList = list.New()
		s.mu.Unlock()

		closeSessions(all)
	})
}

func (s *Store) removeEntry(e *storeEntry) {
	s.evictList.Remove(e.element)
	delete(s.entries, e.session.ID)
}

func closeSessions(sessions []*Session) {
	for _, sess := range sessions {
		if err := sess.Close(); err != nil {
			logging.Warn("failed to close session", "session", sess.ID, "error", err)
		}
	}
}
