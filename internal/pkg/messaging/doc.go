// Package messaging provides a broker-agnostic API for publishing and
// consuming messages.
//
// Business code depends on the interfaces in this package; the NATS, Kafka and
// in-process drivers are selected by name through NewFromDriver.
package messaging
