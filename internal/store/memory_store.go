package store

import (
	"context"
	"sync"
	"time"
)

const (
	memoryStoreMaxNonces = 60000 // maximum number of pending nonces kept in memory
)

type nonceEntry struct {
	shop      string
	expiresAt time.Time
}

type memoryStore struct {
	maxNonces     int
	nonceTTL      time.Duration
	nonces        map[string]*nonceEntry
	evictionQueue []string
	tokens        map[string]*Token
	mu            sync.Mutex

	generateNonce func() (string, error)
	nowFunc       func() time.Time
}

func NewMemoryStore(nonceTTL time.Duration) *memoryStore {
	return &memoryStore{
		maxNonces: memoryStoreMaxNonces,
		nonceTTL:  nonceTTL,
		nonces:    make(map[string]*nonceEntry),
		tokens:    make(map[string]*Token),
	}
}

func (m *memoryStore) now() time.Time {
	if m.nowFunc != nil {
		return m.nowFunc()
	}
	return time.Now()
}

func (m *memoryStore) StoreNonce(ctx context.Context, shop string) (string, error) {
	m.mu.Lock()
	defer func() { m.collectGarbage(); m.mu.Unlock() }()

	for {
		gen := generateNonce
		if m.generateNonce != nil {
			gen = m.generateNonce
		}
		nonce, err := gen()
		if err != nil {
			return "", err
		}
		if _, ok := m.nonces[nonce]; ok {
			continue
		}

		// Enforce maximum size.
		for len(m.nonces) >= m.maxNonces && len(m.evictionQueue) > 0 {
			oldest := m.evictionQueue[0]
			m.evictionQueue = m.evictionQueue[1:]
			delete(m.nonces, oldest)
		}

		m.nonces[nonce] = &nonceEntry{
			shop:      shop,
			expiresAt: m.now().Add(m.nonceTTL),
		}
		m.evictionQueue = append(m.evictionQueue, nonce)
		return nonce, nil
	}
}

func (m *memoryStore) ConsumeNonce(ctx context.Context, nonce string) (string, bool, error) {
	m.mu.Lock()
	e, ok := m.nonces[nonce]
	delete(m.nonces, nonce)
	m.collectGarbage()
	m.mu.Unlock()

	if !ok || !m.now().Before(e.expiresAt) {
		return "", false, nil
	}
	return e.shop, true, nil
}

func (m *memoryStore) GetToken(ctx context.Context, shop string) (*Token, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tok, ok := m.tokens[shop]
	if !ok {
		return nil, false, nil
	}
	cp := *tok
	return &cp, true, nil
}

func (m *memoryStore) PutToken(ctx context.Context, shop string, tok *Token) error {
	cp := *tok

	m.mu.Lock()
	m.tokens[shop] = &cp
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) Close() error {
	return nil
}

// collectGarbage drops expired and already consumed nonces from the queue.
// The caller must hold m.mu.
func (m *memoryStore) collectGarbage() {
	now := m.now()
	var evictionQueue []string
	for _, nonce := range m.evictionQueue {
		e, ok := m.nonces[nonce]
		if !ok {
			continue
		}
		if now.Before(e.expiresAt) {
			evictionQueue = append(evictionQueue, nonce)
		} else {
			delete(m.nonces, nonce)
		}
	}
	m.evictionQueue = evictionQueue
}
