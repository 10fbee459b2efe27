package observability

import "time"

// ObserveJob records a single job execution outcome. Safe on a nil Prom so
// worker code does not need to branch on metrics being enabled.
func (p *Prom) ObserveJob(jobType, result string, elapsed time.Duration) {
	if p == nil {
		return
	}

	p.JobDuration.WithLabelValues(jobType, result).Observe(elapsed.Seconds())
	p.JobResults.WithLabelValues(jobType, result).Inc()
}
