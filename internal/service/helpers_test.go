package service

import (
	"sync"
	"testing"
	"time"

	"circular-storefront/internal/client"
	"circular-storefront/internal/events"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is its own database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(client.Models...))
	return db
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.StatusChanged
	reject bool
}

func (p *recordingPublisher) Publish(evt events.StatusChanged) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reject {
		return false
	}
	p.events = append(p.events, evt)
	return true
}

func (p *recordingPublisher) published() []events.StatusChanged {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.StatusChanged, len(p.events))
	copy(out, p.events)
	return out
}

// testClock hands out strictly increasing times.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
