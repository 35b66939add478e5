package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pritechvior/project-wizard/internal/models"
)

// MemorySessionStore keeps sessions in process memory. Values are stored
// as JSON so callers never share pointers with the store.
type MemorySessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]memorySession
	now      func() time.Time
}

type memorySession struct {
	data    []byte
	expires time.Time
}

// NewMemorySessionStore creates an in-memory session store
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &MemorySessionStore{
		ttl:      ttl,
		sessions: make(map[string]memorySession),
		now:      time.Now,
	}
}

func (m *MemorySessionStore) SaveSession(_ context.Context, s *models.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = memorySession{data: data, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *MemorySessionStore) GetSession(_ context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	entry, ok := m.sessions[id]
	if ok && !m.now().Before(entry.expires) {
		delete(m.sessions, id)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return nil, nil
	}

	var s models.Session
	if err := json.Unmarshal(entry.data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

func (m *MemorySessionStore) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemorySessionStore) CountSessions(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions), nil
}

// DeleteExpired drops every expired session and returns how many were removed
func (m *MemorySessionStore) DeleteExpired(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, entry := range m.sessions {
		if !now.Before(entry.expires) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (m *MemorySessionStore) Ping(context.Context) error { return nil }
func (m *MemorySessionStore) Close() error               { return nil }

// MemorySubmissionRepository keeps submission records in process memory
type MemorySubmissionRepository struct {
	mu      sync.RWMutex
	records []*models.SubmissionRecord
}

// NewMemorySubmissionRepository creates an empty repository
func NewMemorySubmissionRepository() *MemorySubmissionRepository {
	return &MemorySubmissionRepository{}
}

func (m *MemorySubmissionRepository) CreateSubmission(_ context.Context, rec *models.SubmissionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.records {
		if r.ReferenceCode == rec.ReferenceCode || (rec.IdempotencyKey != "" && r.IdempotencyKey == rec.IdempotencyKey) {
			return ErrDuplicateSubmission
		}
	}

	cp := *rec
	m.records = append(m.records, &cp)
	return nil
}

func (m *MemorySubmissionRepository) GetSubmissionByReference(_ context.Context, code string) (*models.SubmissionRecord, error) {
	return m.find(func(r *models.SubmissionRecord) bool { return r.ReferenceCode == code }), nil
}

func (m *MemorySubmissionRepository) GetSubmissionByIdempotencyKey(_ context.Context, key string) (*models.SubmissionRecord, error) {
	if key == "" {
		return nil, nil
	}
	return m.find(func(r *models.SubmissionRecord) bool { return r.IdempotencyKey == key }), nil
}

func (m *MemorySubmissionRepository) find(match func(*models.SubmissionRecord) bool) *models.SubmissionRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.records {
		if match(r) {
			cp := *r
			return &cp
		}
	}
	return nil
}

func (m *MemorySubmissionRepository) ListSubmissions(_ context.Context, filters models.SubmissionFilters) ([]*models.SubmissionRecord, error) {
	m.mu.RLock()
	matched := make([]*models.SubmissionRecord, 0, len(m.records))
	for _, r := range m.records {
		if filters.UserType != "" && r.UserType != filters.UserType {
			continue
		}
		cp := *r
		matched = append(matched, &cp)
	}
	m.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filters.Offset > 0 {
		if filters.Offset >= len(matched) {
			return []*models.SubmissionRecord{}, nil
		}
		matched = matched[filters.Offset:]
	}
	if filters.Limit > 0 && len(matched) > filters.Limit {
		matched = matched[:filters.Limit]
	}
	return matched, nil
}

func (m *MemorySubmissionRepository) Ping(context.Context) error { return nil }
func (m *MemorySubmissionRepository) Close() error               { return nil }
