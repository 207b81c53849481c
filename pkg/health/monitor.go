package health

import (
	"context"
	"time"

	"github.com/wtreehq/merkletree/pkg/metrics"
)

// Monitor runs a fixed set of dependency checkers on their own tickers
// and mirrors each result into the process-wide component registry
// (pkg/metrics) that backs the readiness and liveness endpoints.
type Monitor struct {
	checks map[string]*monitoredCheck
	stopCh chan struct{}
}

type monitoredCheck struct {
	checker Checker
	status  *Status
	config  Config
}

// NewMonitor builds a Monitor with no checks registered. Call Register
// for each dependency before Start.
func NewMonitor() *Monitor {
	return &Monitor{
		checks: make(map[string]*monitoredCheck),
		stopCh: make(chan struct{}),
	}
}

// Register adds a dependency to be polled at config.Interval once
// Start runs.
func (m *Monitor) Register(checker *DependencyChecker, config Config) {
	m.checks[checker.Name] = &monitoredCheck{
		checker: checker,
		status:  NewStatus(),
		config:  config,
	}
	metrics.RegisterComponent(checker.Name, true, "awaiting first check")
}

// Start begins one polling goroutine per registered dependency.
func (m *Monitor) Start() {
	for name, check := range m.checks {
		go m.loop(name, check)
	}
}

// Stop signals every polling goroutine to exit.
func (m *Monitor) Stop() {
	close(m.stopCh)
}

func (m *Monitor) loop(name string, check *monitoredCheck) {
	ticker := time.NewTicker(check.config.Interval)
	defer ticker.Stop()

	m.run(name, check)

	for {
		select {
		case <-ticker.C:
			m.run(name, check)
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) run(name string, check *monitoredCheck) {
	if check.status.InStartPeriod(check.config) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), check.config.Timeout)
	defer cancel()

	result := check.checker.Check(ctx)
	check.status.Update(result, check.config)

	metrics.UpdateComponent(name, check.status.Healthy, check.status.LastResult.Message)
}
