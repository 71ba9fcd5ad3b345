// Package otel bridges engine counters to an OpenTelemetry meter via
// observable instruments. Counters are read on collection through a
// single registered callback; call Close to unregister it.
package otel
