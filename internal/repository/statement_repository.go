package repository

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bankstmt/internal/models"
)

// StatementRepository holds extracted statements in memory for the lifetime
// of a user session. Nothing is ever written to durable storage; entries
// expire after the configured TTL and are swept by a janitor goroutine.
type StatementRepository struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]entry
	ttl     time.Duration
	stop    chan struct{}
	logger  *zap.Logger
}

type entry struct {
	stmt      *models.Statement
	expiresAt time.Time
}

func NewStatementRepository(ttl time.Duration, logger *zap.Logger) *StatementRepository {
	r := &StatementRepository{
		entries: make(map[uuid.UUID]entry),
		ttl:     ttl,
		stop:    make(chan struct{}),
		logger:  logger,
	}
	go r.janitor()
	return r
}

func (r *StatementRepository) Save(stmt *models.Statement) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[stmt.ID] = entry{stmt: stmt, expiresAt: time.Now().Add(r.ttl)}
}

func (r *StatementRepository) GetByID(id uuid.UUID) (*models.Statement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, models.ErrStatementNotFound
	}
	return e.stmt, nil
}

func (r *StatementRepository) Delete(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Close stops the janitor. Safe to call once.
func (r *StatementRepository) Close() {
	close(r.stop)
}

func (r *StatementRepository) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case now := <-ticker.C:
			if n := r.evictExpired(now); n > 0 {
				r.logger.Info("Expired statements evicted", zap.Int("count", n))
			}
		}
	}
}

func (r *StatementRepository) evictExpired(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, e := range r.entries {
		if now.After(e.expiresAt) {
			delete(r.entries, id)
			evicted++
		}
	}
	return evicted
}
