package session

import (
	"sync"
	"time"
)

type MemoryStore struct {
	mutex sync.RWMutex
	data  map[string]Session
	ttl   time.Duration
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		data: make(map[string]Session),
		ttl:  ttl,
	}
}

func (m *MemoryStore) Create(ip, userID string) (Session, error) {
	now := time.Now()
	session := Session{
		ID:        NewID(),
		UserID:    userID,
		IP:        ip,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	m.mutex.Lock()
	m.data[session.ID] = session
	m.mutex.Unlock()

	return session, nil
}

func (m *MemoryStore) Get(id, ip string) (Session, error) {
	m.mutex.RLock()
	session, found := m.data[id]
	m.mutex.RUnlock()

	if !found || session.Expired() || session.IP != ip {
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (m *MemoryStore) Delete(id string) error {
	m.mutex.Lock()
	delete(m.data, id)
	m.mutex.Unlock()
	return nil
}

func (m *MemoryStore) Sweep() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	removed := 0
	for id, session := range m.data {
		if session.Expired() {
			delete(m.data, id)
			removed++
		}
	}
	return removed
}
