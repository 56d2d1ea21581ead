// Package redis manages per-database-index rueidis clients. The weight
// store uses the WeightCacheDBIndex client to invalidate its
// per-(user,category) cache keys; the other indices have no caller.
package redis

import (
	"fmt"
	"sync"

	"github.com/auracore/styleforge/internal/config"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

const (
	// WeightCacheDBIndex is the database the Weight Store deletes its
	// per-(user,category) cache keys from after a feedback write; weights
	// are not written to or read from it.
	WeightCacheDBIndex = 0

	// PromptDedupeDBIndex is a database index no package reads or writes;
	// the prompt builder has no cross-process dedupe guard.
	PromptDedupeDBIndex = 1

	// StatusDBIndex is a database index no package reads or writes;
	// portfolio-analysis progress is reported only through the
	// extractor's progress callback.
	StatusDBIndex = 2
)

// Manager maintains a thread-safe mapping of database indices to Redis
// clients. Each database index gets its own dedicated connection pool.
type Manager struct {
	clients map[int]rueidis.Client
	config  *config.Redis
	logger  *zap.Logger
	mu      sync.RWMutex
}

// NewManager initializes the Redis connection manager with an empty client
// pool. Actual client connections are created lazily when first requested.
func NewManager(cfg *config.Redis, logger *zap.Logger) *Manager {
	return &Manager{
		clients: make(map[int]rueidis.Client),
		config:  cfg,
		logger:  logger.Named("redis"),
	}
}

// GetClient retrieves or creates a Redis client for the specified database
// index.
func (m *Manager) GetClient(dbIndex int) (rueidis.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if client, exists := m.clients[dbIndex]; exists {
		return client, nil
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:         []string{fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)},
		Username:            m.config.Username,
		Password:            m.config.Password,
		SelectDB:            dbIndex,
		ClientName:          "styleforge",
		ReadBufferEachConn:  1 << 20,
		WriteBufferEachConn: 1 << 20,
	})
	if err != nil {
		return nil, fmt.Errorf("create redis client for db %d: %w", dbIndex, err)
	}

	m.clients[dbIndex] = client
	m.logger.Info("created new redis client", zap.Int("dbIndex", dbIndex))

	return client, nil
}

// Close gracefully shuts down all active Redis clients in the pool. Safe
// to call multiple times.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for dbIndex, client := range m.clients {
		client.Close()
		m.logger.Info("closed redis client", zap.Int("dbIndex", dbIndex))
	}
}
