// Package handler implements the relay's HTTP surface: requests under /db are
// forwarded to the InfluxDB cluster through the failover dispatcher, and
// /hosts reports which cluster members are in rotation.
package handler
