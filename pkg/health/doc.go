/*
Package health provides a small pluggable dependency-reachability
framework used at process startup and by the readiness endpoint.

A Checker probes one dependency and returns a Result. Status tracks
consecutive successes/failures with hysteresis so a single flaky probe
does not flip the reported state; Monitor runs a Checker on its own
ticker and mirrors its Status into the pkg/metrics component registry
that backs /healthz and /readyz.

# Checkers

The only Checker implementation is DependencyChecker, which wraps a
PingFunc — a zero-argument reachability probe exposed by each storage
adapter (objectstore.Store.Ping via S3 HeadBucket, kvstore.Store.Ping
via DynamoDB DescribeTable). Neither probe reads or writes whitelist
data; both exist solely to answer "is this dependency reachable".

	objStore, _ := objectstore.New(ctx, bucket)
	kv, _ := kvstore.New(ctx, table)

	m := health.NewMonitor()
	m.Register(health.NewDependencyChecker("objectstore", objStore.Ping), health.Config{
		Interval: 30 * time.Second,
		Timeout:  5 * time.Second,
		Retries:  3,
	})
	m.Register(health.NewDependencyChecker("kvstore", kv.Ping), health.Config{
		Interval: 30 * time.Second,
		Timeout:  5 * time.Second,
		Retries:  3,
	})
	m.Start()
	defer m.Stop()

# Hysteresis

Status.Update flips Healthy to false only after ConsecutiveFailures
reaches Config.Retries, and back to true on the very next success —
a single timed-out probe during a brief network blip does not trip the
readiness endpoint into reporting not-ready. StartPeriod delays the
first recorded result by a grace period, so a process that starts
before its AWS credentials or VPC endpoint are fully provisioned is not
marked unhealthy in its first few seconds.

# Relationship to pkg/metrics

This package decides whether a dependency is healthy; pkg/metrics owns
the process-wide component registry and the HTTP handlers
(HealthHandler, ReadyHandler, LivenessHandler) that expose it. Monitor
is the only bridge between the two: every completed check (outside its
StartPeriod) calls metrics.UpdateComponent with the dependency's name
and current Status.
*/
package health
