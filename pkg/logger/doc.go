// Package logger builds the relay's structured logger on log/slog: JSON in
// prod, text elsewhere, with the environment and service name attached to
// every record.
package logger
