package usecase

import (
	"sync"

	"github.com/nguyentranbao-ct/torrent-bot/internal/models"
)

// SessionStore keeps one conversation session per chat. Callers hold the
// chat lock while reading and writing that chat's session.
type SessionStore interface {
	Lock(chatID int64) (unlock func())
	Get(chatID int64) (models.ConversationSession, bool)
	Put(session models.ConversationSession)
	Delete(chatID int64) bool
	Len() int
}

type chatLock struct {
	mu   sync.Mutex
	refs int
}

type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[int64]models.ConversationSession
	locks    map[int64]*chatLock
}

func NewSessionStore() SessionStore {
	return &memorySessionStore{
		sessions: make(map[int64]models.ConversationSession),
		locks:    make(map[int64]*chatLock),
	}
}

// Lock serializes access for one chat. Locks are dropped once no caller
// holds or waits on them.
func (s *memorySessionStore) Lock(chatID int64) func() {
	s.mu.Lock()
	l, ok := s.locks[chatID]
	if !ok {
		l = &chatLock{}
		s.locks[chatID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()

			s.mu.Lock()
			defer s.mu.Unlock()
			l.refs--
			if l.refs == 0 {
				delete(s.locks, chatID)
			}
		})
	}
}

func (s *memorySessionStore) Get(chatID int64) (models.ConversationSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[chatID]
	return session, ok
}

func (s *memorySessionStore) Put(session models.ConversationSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ChatID] = session
}

func (s *memorySessionStore) Delete(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[chatID]
	delete(s.sessions, chatID)
	return ok
}

func (s *memorySessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
