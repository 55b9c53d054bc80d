package lifecycle

import (
	"context"
	"log/slog"
)

// HealthChecker exposes liveness and readiness probes.
type HealthChecker interface {
	Liveness(ctx context.Context) error
	Readiness(ctx context.Context) error
}

// Probes delegates readiness to an injected check. Liveness reports success
// as long as the process is responsive.
type Probes struct {
	log       *slog.Logger
	readiness func(ctx context.Context) error
}

// NewProbes creates a new Probes instance. The readiness func may be nil,
// in which case readiness always succeeds.
func NewProbes(log *slog.Logger, readiness func(ctx context.Context) error) *Probes {
	if log == nil {
		log = slog.Default()
	}
	return &Probes{log: log, readiness: readiness}
}

// Liveness reports success while the process can serve the probe.
func (p *Probes) Liveness(ctx context.Context) error {
	if p.log != nil {
		p.log.Debug("liveness probe called")
	}
	return nil
}

// Readiness runs the injected dependency check.
func (p *Probes) Readiness(ctx context.Context) error {
	if p.log != nil {
		p.log.Debug("readiness probe called")
	}
	if p.readiness == nil {
		return nil
	}
	return p.readiness(ctx)
}
