package ocr

import (
	"sort"
	"sync"
	"time"
)

// HealthWindow is how far back health metrics look.
const HealthWindow = time.Hour

// Health states reported by HealthTracker.Summary.
const (
	HealthHealthy   = "healthy"
	HealthDegraded  = "degraded"
	HealthUnhealthy = "unhealthy"
)

type outcome struct {
	at       time.Time
	code     string // empty on success
	duration time.Duration
}

// HealthTracker records OCR call outcomes for the health endpoint.
type HealthTracker struct {
	mu       sync.Mutex
	window   time.Duration
	outcomes []outcome
	now      func() time.Time
}

// NewHealthTracker keeps outcomes for window. A zero window means
// HealthWindow.
func NewHealthTracker(window time.Duration) *HealthTracker {
	if window <= 0 {
		window = HealthWindow
	}
	return &HealthTracker{window: window, now: time.Now}
}

// Record stores one OCR call. code is the error code of a failed call and
// empty for a successful one.
func (h *HealthTracker) Record(code string, d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.now()
	h.prune(now)
	h.outcomes = append(h.outcomes, outcome{at: now, code: code, duration: d})
}

func (h *HealthTracker) prune(now time.Time) {
	cutoff := now.Add(-h.window)
	i := sort.Search(len(h.outcomes), func(i int) bool { return !h.outcomes[i].at.Before(cutoff) })
	if i > 0 {
		h.outcomes = append(h.outcomes[:0], h.outcomes[i:]...)
	}
}

// HealthSummary aggregates the outcomes inside the window.
type HealthSummary struct {
	WindowSeconds       int            `json:"window_seconds"`
	TotalRequests       int            `json:"total_requests"`
	TotalErrors         int            `json:"total_errors"`
	ErrorRate           float64        `json:"error_rate"`
	SuccessRate         float64        `json:"success_rate"`
	AvgProcessingTimeMS float64        `json:"avg_processing_time_ms"`
	ErrorsByCode        map[string]int `json:"top_errors"`
	HealthScore         int            `json:"health_score"`
	Status              string         `json:"status"`
}

// Summary reports the outcomes recorded within the window. With no
// traffic the service counts as healthy.
func (h *HealthTracker) Summary() HealthSummary {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.prune(h.now())

	s := HealthSummary{
		WindowSeconds: int(h.window / time.Second),
		ErrorsByCode:  map[string]int{},
		SuccessRate:   1,
		HealthScore:   100,
		Status:        HealthHealthy,
	}
	if len(h.outcomes) == 0 {
		return s
	}

	var total time.Duration
	for _, o := range h.outcomes {
		total += o.duration
		if o.code != "" {
			s.TotalErrors++
			s.ErrorsByCode[o.code]++
		}
	}
	s.TotalRequests = len(h.outcomes)
	s.ErrorRate = float64(s.TotalErrors) / float64(s.TotalRequests)
	s.SuccessRate = 1 - s.ErrorRate
	s.AvgProcessingTimeMS = float64(total.Microseconds()) / 1000 / float64(s.TotalRequests)
	s.HealthScore = int(s.SuccessRate*100 + 0.5)
	switch {
	case s.ErrorRate >= 0.5:
		s.Status = HealthUnhealthy
	case s.ErrorRate >= 0.1:
		s.Status = HealthDegraded
	}
	return s
}
