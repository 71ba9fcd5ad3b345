// Package prometheus renders resetkit counters in the Prometheus text
// exposition format without taking a dependency on the Prometheus client
// library. Mount Handler on any mux.
package prometheus
