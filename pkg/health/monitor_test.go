package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wtreehq/merkletree/pkg/metrics"
)

func TestMonitor_RegisterReportsHealthyComponent(t *testing.T) {
	m := NewMonitor()
	checker := NewDependencyChecker("monitor-test-objectstore", func(context.Context) error {
		return nil
	})
	m.Register(checker, Config{Interval: time.Hour, Timeout: time.Second})

	m.run("monitor-test-objectstore", m.checks["monitor-test-objectstore"])

	got := metrics.GetHealth()
	if got.Components["monitor-test-objectstore"] != "healthy" {
		t.Errorf("expected a healthy entry, got %q", got.Components["monitor-test-objectstore"])
	}
}

func TestMonitor_RunMarksUnhealthyAfterRetries(t *testing.T) {
	m := NewMonitor()
	checker := NewDependencyChecker("monitor-test-kvstore", func(context.Context) error {
		return errors.New("unreachable")
	})
	config := Config{Interval: time.Hour, Timeout: time.Second, Retries: 1}
	m.Register(checker, config)

	check := m.checks["monitor-test-kvstore"]
	m.run("monitor-test-kvstore", check)

	if check.status.Healthy {
		t.Error("expected the dependency to be marked unhealthy after exceeding the retry threshold")
	}

	got := metrics.GetHealth()
	if got.Status != "unhealthy" {
		t.Errorf("expected overall status unhealthy, got %q", got.Status)
	}
}
