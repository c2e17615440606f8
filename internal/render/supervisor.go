package render

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"storyreel/models"
)

// Supervisor tracks the in-flight monitor for each storyboard and enforces the
// one-job-per-storyboard rule: launching a second monitor while one is still
// active is rejected instead of silently spawning a duplicate poller.
type Supervisor struct {
	mu       sync.Mutex
	monitors map[string]*Monitor
	wg       sync.WaitGroup
	logger   *logrus.Logger
}

// NewSupervisor creates an empty Supervisor.
func NewSupervisor(logger *logrus.Logger) *Supervisor {
	return &Supervisor{monitors: make(map[string]*Monitor), logger: logger}
}

// Launch registers the monitor for its storyboard and starts its polling loop.
// It fails with models.ErrJobAlreadyActive when a non-terminal monitor already
// holds the slot; a finished monitor is replaced.
func (s *Supervisor) Launch(m *Monitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.monitors[m.storyboardID]; ok && existing.Active() {
		return fmt.Errorf("storyboard %s: %w", m.storyboardID, models.ErrJobAlreadyActive)
	}
	s.monitors[m.storyboardID] = m
	m.Start(&s.wg)
	s.logger.WithFields(logrus.Fields{
		"storyboard_id": m.storyboardID,
		"job_id":        m.Snapshot().JobID,
	}).Info("Launched job monitor")
	return nil
}

// Get returns the monitor currently registered for the storyboard, or nil.
func (s *Supervisor) Get(storyboardID string) *Monitor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.monitors[storyboardID]
}

// Cancel stops the storyboard's monitor if one exists. The monitor's
// last-known snapshot stays readable afterward.
func (s *Supervisor) Cancel(storyboardID string) error {
	s.mu.Lock()
	m, ok := s.monitors[storyboardID]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("no monitor for storyboard %s: %w", storyboardID, models.ErrNotFound)
	}
	m.Cancel()
	return nil
}

// Shutdown cancels every monitor and waits for their loops to exit.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	for _, m := range s.monitors {
		m.Cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
	s.logger.Info("All job monitors have stopped")
}
