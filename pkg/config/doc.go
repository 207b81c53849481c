/*
Package config loads the process-wide configuration record: bucket and
table names plus the per-route group-authorization lists, read once
from the environment at startup and never mutated afterward.
Construction refuses to start (returns an error rather than a
zero-value Config) when any of the required fields is missing, rather
than treating configuration as optional global state.
*/
package config
