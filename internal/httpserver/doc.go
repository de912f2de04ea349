// Package httpserver wraps http.Server with address validation and a
// context-driven lifecycle suited to errgroup supervision.
package httpserver
