// Package config loads the relay configuration from YAML files and
// environment variables. It covers the listen address, logging, the InfluxDB
// cluster members and credentials, failover timing, host rotation strategy,
// and the recovery sweep interval.
package config
