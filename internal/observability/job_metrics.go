package observability

import (
	"sync"
	"time"
)

// JobCounts is the outcome tally for one job type.
type JobCounts struct {
	Claimed uint64 `json:"claimed"`
	Done    uint64 `json:"done"`
	Retried uint64 `json:"retried"`
	Failed  uint64 `json:"failed"`
}

// JobMetrics keeps in-process counters for the worker's /stats endpoint.
// Prometheus gets the same events through Prom.ObserveJob.
type JobMetrics struct {
	mu     sync.Mutex
	byType map[string]*JobCounts

	durCount uint64
	durTotal time.Duration
	durMax   time.Duration
}

func NewJobMetrics() *JobMetrics {
	return &JobMetrics{byType: make(map[string]*JobCounts)}
}

func (m *JobMetrics) counts(jobType string) *JobCounts {
	c, ok := m.byType[jobType]
	if !ok {
		c = &JobCounts{}
		m.byType[jobType] = c
	}
	return c
}

func (m *JobMetrics) Claimed(jobType string) {
	m.mu.Lock()
	m.counts(jobType).Claimed++
	m.mu.Unlock()
}

// Finished records a processed job. result is one of done, retry or failed.
func (m *JobMetrics) Finished(jobType, result string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.counts(jobType)
	switch result {
	case "done":
		c.Done++
	case "retry":
		c.Retried++
	case "failed":
		c.Failed++
	}

	m.durCount++
	m.durTotal += d
	if d > m.durMax {
		m.durMax = d
	}
}

type JobMetricsSnapshot struct {
	JobCounts
	ByType          map[string]JobCounts `json:"byType"`
	AverageDuration time.Duration        `json:"-"`
	MaxDuration     time.Duration        `json:"-"`
}

func (m *JobMetrics) Snapshot() JobMetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := JobMetricsSnapshot{
		ByType:      make(map[string]JobCounts, len(m.byType)),
		MaxDuration: m.durMax,
	}

	for t, c := range m.byType {
		s.ByType[t] = *c
		s.Claimed += c.Claimed
		s.Done += c.Done
		s.Retried += c.Retried
		s.Failed += c.Failed
	}

	if m.durCount > 0 {
		s.AverageDuration = m.durTotal / time.Duration(m.durCount)
	}
	return s
}
