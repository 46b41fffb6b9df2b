// Package client talks to the geotoken HTTP API on behalf of producer and
// consumer devices. It owns the cached credential, the location sources and
// the two background loops: ProducerLoop appends a token every fifteen
// seconds, ConsumerPoller claims unclaimed tokens every minute.
package client
