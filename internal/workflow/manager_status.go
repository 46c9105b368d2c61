package workflow

import (
	"context"
	"sort"

	"transcriber/internal/logging"
	"transcriber/internal/queue"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running    bool                `json:"running"`
	Workers    int                 `json:"workers"`
	ActiveJobs []string            `json:"active_jobs"`
	LastError  string              `json:"last_error,omitempty"`
	LastJobID  string              `json:"last_job_id,omitempty"`
	QueueStats queue.HealthSummary `json:"queue"`
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{Running: m.running, Workers: m.workers}
	for _, jobID := range m.active {
		summary.ActiveJobs = append(summary.ActiveJobs, jobID)
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	if m.lastJob != nil {
		summary.LastJobID = m.lastJob.ID
	}
	m.mu.RUnlock()
	sort.Strings(summary.ActiveJobs)

	health, err := m.store.Health(ctx)
	if err != nil {
		m.logger.Warn("failed to read queue stats", logging.Error(err))
	}
	summary.QueueStats = health
	return summary
}

func (m *Manager) setActive(worker, jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if jobID == "" {
		delete(m.active, worker)
		return
	}
	m.active[worker] = jobID
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastJob(job *queue.Job) {
	m.mu.Lock()
	if job != nil {
		copy := *job
		m.lastJob = &copy
	} else {
		m.lastJob = nil
	}
	m.mu.Unlock()
}
