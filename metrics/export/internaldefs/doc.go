// Package internaldefs holds the shared metric name table used by the
// Prometheus and OpenTelemetry exporters. It exists so both exporters
// expose identical series names without depending on each other.
package internaldefs
