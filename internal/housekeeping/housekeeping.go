package housekeeping

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/pawsoft/vetclinic/internal/billing"
	"github.com/pawsoft/vetclinic/internal/database"
)

const (
	// sessionPurgeSchedule runs the expired session sweep hourly.
	sessionPurgeSchedule = "@every 1h"
	// overdueSchedule flags overdue invoices shortly after midnight.
	overdueSchedule = "5 0 * * *"
	// optimizeSchedule runs SQLite maintenance weekly.
	optimizeSchedule = "0 4 * * 0"
	// vacuumSchedule rebuilds the database file on the first of the month.
	vacuumSchedule = "30 4 1 * *"
)

// Manager runs scheduled background maintenance: expired session purge,
// overdue invoice marking and SQLite optimization.
type Manager struct {
	db      *database.DB
	billing *billing.Manager
	cron    *cron.Cron
	mu      sync.Mutex
	running bool
}

// NewManager creates a housekeeping manager.
func NewManager(db *database.DB, billingMgr *billing.Manager) *Manager {
	return &Manager{
		db:      db,
		billing: billingMgr,
		cron:    cron.New(),
	}
}

// Start registers the maintenance jobs and starts the scheduler. The overdue
// sweep also runs once at startup so a restarted instance catches up.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	if _, err := m.cron.AddFunc(sessionPurgeSchedule, m.purgeSessions); err != nil {
		return err
	}
	if _, err := m.cron.AddFunc(overdueSchedule, m.markOverdue); err != nil {
		return err
	}
	if _, err := m.cron.AddFunc(optimizeSchedule, m.optimize); err != nil {
		return err
	}
	if _, err := m.cron.AddFunc(vacuumSchedule, m.vacuum); err != nil {
		return err
	}

	m.cron.Start()
	m.running = true

	go m.markOverdue()

	log.Info().Msg("Housekeeping started")
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	ctx := m.cron.Stop()
	<-ctx.Done()

	m.running = false
	log.Info().Msg("Housekeeping stopped")
}

func (m *Manager) purgeSessions() {
	n, err := m.db.PurgeExpiredSessions()
	if err != nil {
		log.Error().Err(err).Msg("Failed to purge expired sessions")
		return
	}
	if n > 0 {
		log.Debug().Int64("count", n).Msg("Expired sessions purged")
	}
}

func (m *Manager) markOverdue() {
	if _, err := m.billing.MarkOverdue(time.Now()); err != nil {
		log.Error().Err(err).Msg("Failed to mark overdue invoices")
	}
}

func (m *Manager) optimize() {
	if err := m.db.Optimize(); err != nil {
		log.Error().Err(err).Msg("Failed to optimize database")
		return
	}
	log.Debug().Msg("Database optimized")
}

func (m *Manager) vacuum() {
	if err := m.db.Vacuum(); err != nil {
		log.Error().Err(err).Msg("Failed to vacuum database")
		return
	}
	log.Debug().Msg("Database vacuumed")
}
