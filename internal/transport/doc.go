// Package transport performs the network exchange for a single attempt
// against a resolved host. Any HTTP status is a successful exchange at this
// layer; only failures that prevent a response from being obtained are
// reported as errors.
package transport
