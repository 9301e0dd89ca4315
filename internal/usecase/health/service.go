package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure. Fallbacks keep the service answering.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckOffline indicates a component that is not configured.
	CheckOffline CheckResult = "offline"
)

// Report aggregates health check results.
type Report struct {
	Status    Status
	Model     string
	Checks    map[string]CheckResult
	Documents int
	Chunks    int
}

// Service coordinates health checks.
type Service struct {
	cache     Pinger
	embedding EmbeddingChecker
	index     IndexStats
	model     string
}

// New creates a Service. cache and embedding can be nil.
func New(cache Pinger, embedding EmbeddingChecker, index IndexStats, model string) *Service {
	return &Service{cache: cache, embedding: embedding, index: index, model: model}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{
		"cache":     CheckOffline,
		"embedding": CheckOffline,
	}

	if s.cache != nil {
		checks["cache"] = result(s.cache.Ping(ctx))
	}
	if s.embedding != nil {
		checks["embedding"] = result(s.embedding.HealthCheck(ctx))
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	r := Report{Status: status, Model: s.model, Checks: checks}
	if s.index != nil {
		st := s.index.Stats()
		r.Documents, r.Chunks = st.Documents, st.Chunks
	}
	return r
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
