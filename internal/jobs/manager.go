// Package jobs tracks the single sequential run through its stages.
package jobs

import (
	"errors"
	"fmt"
	"sync"

	"vid2txt/internal/domain"
)

// ErrJobAlreadyRunning is returned when starting a second active run.
var ErrJobAlreadyRunning = errors.New("job already running")

// ErrNoRunningJob is returned when finishing an idle manager.
var ErrNoRunningJob = errors.New("no running job")

// Manager validates stage transitions for the one allowed active run.
// The pipeline is strictly sequential, but the manager still enforces the
// state machine so a misordered stage callback is caught early.
type Manager struct {
	mu      sync.RWMutex
	current domain.Job
}

// NewManager creates a manager in idle state.
func NewManager() *Manager {
	return &Manager{
		current: domain.Job{
			Status: domain.JobStatusIdle,
		},
	}
}

// Start registers a new run in idle state, ready for its first stage.
func (m *Manager) Start(jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if isRunning(m.current.Status) {
		return ErrJobAlreadyRunning
	}

	m.current = domain.Job{
		ID:     jobID,
		Status: domain.JobStatusIdle,
	}
	return nil
}

// Transition validates and applies a stage transition for the current run.
func (m *Manager) Transition(status domain.JobStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.ID == "" && status != domain.JobStatusIdle {
		return fmt.Errorf("cannot transition without an active job")
	}
	if status == m.current.Status {
		return nil
	}
	if !isValidTransition(m.current.Status, status) {
		return fmt.Errorf("invalid transition: %s -> %s", m.current.Status, status)
	}

	m.current.Status = status
	return nil
}

// Current returns a snapshot of the current run.
func (m *Manager) Current() domain.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// IsRunning reports whether the current state is an active stage.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return isRunning(m.current.Status)
}

// Fail moves an active run to failed state.
func (m *Manager) Fail() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !isRunning(m.current.Status) && m.current.Status != domain.JobStatusIdle {
		return ErrNoRunningJob
	}
	m.current.Status = domain.JobStatusFailed
	return nil
}

// isRunning checks if a status represents active pipeline execution.
func isRunning(status domain.JobStatus) bool {
	switch status {
	case domain.JobStatusDownloading, domain.JobStatusExtracting, domain.JobStatusTranscribing:
		return true
	default:
		return false
	}
}

// isValidTransition enforces the allowed stage edges. A run enters through
// downloading (remote) or extracting (local) and both converge on
// transcribing.
func isValidTransition(from, to domain.JobStatus) bool {
	switch from {
	case domain.JobStatusIdle:
		return to == domain.JobStatusDownloading || to == domain.JobStatusExtracting || to == domain.JobStatusFailed
	case domain.JobStatusDownloading:
		return to == domain.JobStatusExtracting || to == domain.JobStatusTranscribing || to == domain.JobStatusFailed
	case domain.JobStatusExtracting:
		return to == domain.JobStatusTranscribing || to == domain.JobStatusFailed
	case domain.JobStatusTranscribing:
		return to == domain.JobStatusDone || to == domain.JobStatusFailed
	case domain.JobStatusDone, domain.JobStatusFailed:
		return to == domain.JobStatusIdle
	default:
		return false
	}
}
