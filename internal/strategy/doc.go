// Package strategy defines how the next host is chosen from the host
// registry:
//
//   - Round Robin: each available host in turn, in insertion order (default)
//   - Random: uniform pick among available hosts
//
// Strategies receive the registry's full host list in insertion order and
// must never return a disabled host.
package strategy
