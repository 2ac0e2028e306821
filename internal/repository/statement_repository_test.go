package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bankstmt/internal/models"
)

func newStatement() *models.Statement {
	return &models.Statement{
		ID:        uuid.New(),
		FileName:  "statement.pdf",
		PageCount: 4,
		CreatedAt: time.Now(),
	}
}

func TestSaveAndGet(t *testing.T) {
	repo := NewStatementRepository(time.Minute, zap.NewNop())
	defer repo.Close()

	stmt := newStatement()
	repo.Save(stmt)

	got, err := repo.GetByID(stmt.ID)
	require.NoError(t, err)
	assert.Equal(t, stmt, got)
}

func TestGetUnknownID(t *testing.T) {
	repo := NewStatementRepository(time.Minute, zap.NewNop())
	defer repo.Close()

	_, err := repo.GetByID(uuid.New())
	assert.ErrorIs(t, err, models.ErrStatementNotFound)
}

func TestExpiredEntriesAreGone(t *testing.T) {
	repo := NewStatementRepository(time.Millisecond, zap.NewNop())
	defer repo.Close()

	stmt := newStatement()
	repo.Save(stmt)
	time.Sleep(5 * time.Millisecond)

	_, err := repo.GetByID(stmt.ID)
	assert.ErrorIs(t, err, models.ErrStatementNotFound)
}

func TestEvictExpired(t *testing.T) {
	repo := NewStatementRepository(time.Minute, zap.NewNop())
	defer repo.Close()

	live := newStatement()
	stale := newStatement()
	repo.Save(live)
	repo.Save(stale)

	repo.mu.Lock()
	e := repo.entries[stale.ID]
	e.expiresAt = time.Now().Add(-time.Hour)
	repo.entries[stale.ID] = e
	repo.mu.Unlock()

	evicted := repo.evictExpired(time.Now())
	assert.Equal(t, 1, evicted)

	_, err := repo.GetByID(stale.ID)
	assert.ErrorIs(t, err, models.ErrStatementNotFound)
	_, err = repo.GetByID(live.ID)
	assert.NoError(t, err)
}

func TestDelete(t *testing.T) {
	repo := NewStatementRepository(time.Minute, zap.NewNop())
	defer repo.Close()

	stmt := newStatement()
	repo.Save(stmt)
	repo.Delete(stmt.ID)

	_, err := repo.GetByID(stmt.ID)
	assert.ErrorIs(t, err, models.ErrStatementNotFound)
}
