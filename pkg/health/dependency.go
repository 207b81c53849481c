package health

import (
	"context"
	"fmt"
	"time"
)

// PingFunc is a zero-argument reachability probe, implemented by the
// storage adapters as a thin wrapper around a cheap provider call
// (S3 HeadBucket, DynamoDB DescribeTable) that touches no whitelist
// data.
type PingFunc func(ctx context.Context) error

// DependencyChecker adapts a PingFunc to the Checker interface so any
// out-of-process dependency can be monitored the same way.
type DependencyChecker struct {
	// Name identifies the dependency in check results (e.g. "objectstore", "kvstore").
	Name string

	Ping PingFunc
}

// NewDependencyChecker creates a checker that reports healthy for as
// long as ping returns nil.
func NewDependencyChecker(name string, ping PingFunc) *DependencyChecker {
	return &DependencyChecker{Name: name, Ping: ping}
}

// Check performs the dependency check
func (d *DependencyChecker) Check(ctx context.Context) Result {
	start := time.Now()

	if err := d.Ping(ctx); err != nil {
		return Result{
			Healthy:   false,
			Message:   fmt.Sprintf("%s unreachable: %v", d.Name, err),
			CheckedAt: start,
			Duration:  time.Since(start),
		}
	}

	return Result{
		Healthy:   true,
		Message:   fmt.Sprintf("%s reachable", d.Name),
		CheckedAt: start,
		Duration:  time.Since(start),
	}
}

// Type returns the health check type
func (d *DependencyChecker) Type() CheckType {
	return CheckTypeDependency
}
