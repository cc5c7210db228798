// Package publisher contains EventPublisher implementations: an in-memory
// collector suited to tests and single-process setups, and a redis publisher
// broadcasting domain events as JSON on a pub/sub channel. Delivery is
// at-most-once from the core's perspective; consumers needing stronger
// guarantees should place a durable broker behind the interface.
package publisher
