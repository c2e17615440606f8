package render

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"storyreel/models"
)

// Status is the monitor-side lifecycle state of a render job.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transitions can happen from st.
func (st Status) Terminal() bool {
	return st == StatusCompleted || st == StatusFailed
}

// Default pacing, matching the backend's expectations.
const (
	DefaultPollInterval = 5 * time.Second
	DefaultJobTimeout   = 60 * time.Second
)

// Snapshot is the externally visible state of a monitored job. Progress is
// monotonically non-decreasing while processing; ResultURL is set only on
// completion and Err only on failure.
type Snapshot struct {
	JobID     string
	Status    Status
	Progress  int
	ResultURL string
	Err       error
}

// StatusPoller is the slice of the backend client the monitor polls through.
type StatusPoller interface {
	PollStatus(ctx context.Context, jobID string) (*JobStatus, error)
}

// ResultSink receives the final render reference when a job completes.
type ResultSink interface {
	SaveRenderResult(ctx context.Context, storyboardID, jobID, videoURL string) error
}

// Monitor owns one render job for its lifetime: it polls the backend on a
// fixed interval, keeps a synchronized snapshot for the owner to read, and
// stops on the first terminal status, on its own wall-clock timeout, or when
// the caller cancels it. Cancellation leaves the last-known state intact and
// does not touch the job on the backend.
type Monitor struct {
	storyboardID string
	poller       StatusPoller
	sink         ResultSink
	logger       *logrus.Logger

	interval time.Duration
	timeout  time.Duration

	mu   sync.Mutex
	snap Snapshot

	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}
	wg       *sync.WaitGroup
}

// NewMonitor creates a monitor for jobID, in the queued state. interval and
// timeout fall back to the defaults when zero.
func NewMonitor(storyboardID, jobID string, poller StatusPoller, sink ResultSink, logger *logrus.Logger, interval, timeout time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	return &Monitor{
		storyboardID: storyboardID,
		poller:       poller,
		sink:         sink,
		logger:       logger,
		interval:     interval,
		timeout:      timeout,
		snap:         Snapshot{JobID: jobID, Status: StatusQueued},
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start launches the polling loop. wg, when non-nil, is released once the loop
// exits; the supervisor uses it for shutdown.
func (m *Monitor) Start(wg *sync.WaitGroup) {
	m.wg = wg
	if wg != nil {
		wg.Add(1)
	}
	go m.run()
}

// Cancel stops further polling. Safe to call more than once and after the
// monitor has already reached a terminal state.
func (m *Monitor) Cancel() {
	m.quitOnce.Do(func() { close(m.quit) })
}

// Done is closed when the polling loop has exited.
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

// Snapshot returns a copy of the job's current state.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

// Active reports whether the monitor still owns its storyboard's job slot: its
// loop is running and the job has not reached a terminal state. A cancelled
// monitor frees the slot even though its last-known state is non-terminal.
func (m *Monitor) Active() bool {
	select {
	case <-m.done:
		return false
	default:
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.snap.Status.Terminal()
}

func (m *Monitor) run() {
	defer close(m.done)
	if m.wg != nil {
		defer m.wg.Done()
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	deadline := time.NewTimer(m.timeout)
	defer deadline.Stop()

	jobID := m.Snapshot().JobID
	log := m.logger.WithFields(logrus.Fields{"job_id": jobID, "storyboard_id": m.storyboardID})
	log.Info("Job monitor started")

	for {
		select {
		case <-m.quit:
			log.Info("Job monitor cancelled by caller")
			return
		case <-deadline.C:
			// The timeout is the monitor's own budget, so it applies no matter
			// how individual poll requests behave.
			m.fail(fmt.Errorf("job %s: %w", jobID, models.ErrJobTimeout))
			log.Warn("Job monitor timed out waiting for a terminal status")
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), m.interval)
			status, err := m.poller.PollStatus(ctx, jobID)
			cancel()
			if err != nil {
				// A failed poll is transient; the timeout budget bounds how
				// long we keep trying.
				log.WithField("error", err.Error()).Warn("Poll failed, will retry")
				continue
			}
			if m.apply(status, log) {
				return
			}
		}
	}
}

// apply folds one poll response into the snapshot and reports whether a
// terminal state was reached.
func (m *Monitor) apply(status *JobStatus, log *logrus.Entry) bool {
	switch status.Status {
	case "queued":
		// Still waiting for a worker; nothing to record.
		return false
	case "processing":
		m.mu.Lock()
		m.snap.Status = StatusProcessing
		if status.Progress != nil && *status.Progress > m.snap.Progress {
			m.snap.Progress = *status.Progress
		}
		progress := m.snap.Progress
		m.mu.Unlock()
		log.WithField("progress", progress).Info("Render job processing")
		return false
	case "completed":
		videoURL := ""
		if status.VideoURL != nil {
			videoURL = *status.VideoURL
		}
		m.complete(videoURL)
		log.WithField("video_url", videoURL).Info("Render job completed")
		return true
	case "failed":
		message := "unknown backend error"
		if status.Error != nil && *status.Error != "" {
			message = *status.Error
		}
		m.fail(fmt.Errorf("job %s: %s: %w", m.Snapshot().JobID, message, models.ErrJobFailed))
		log.WithField("error", message).Warn("Render job failed on the backend")
		return true
	default:
		log.WithField("status", status.Status).Warn("Unknown job status from backend, ignoring")
		return false
	}
}

func (m *Monitor) complete(videoURL string) {
	// Persist before flipping the snapshot so a reader never sees "completed"
	// with the result not yet durable.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	jobID := m.Snapshot().JobID
	if err := m.sink.SaveRenderResult(ctx, m.storyboardID, jobID, videoURL); err != nil {
		m.logger.WithFields(logrus.Fields{"job_id": jobID, "error": err.Error()}).
			Error("Failed to persist render result")
	}

	m.mu.Lock()
	m.snap.Status = StatusCompleted
	m.snap.ResultURL = videoURL
	m.mu.Unlock()
}

func (m *Monitor) fail(err error) {
	m.mu.Lock()
	m.snap.Status = StatusFailed
	m.snap.Err = err
	m.mu.Unlock()
}
