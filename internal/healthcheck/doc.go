// Package healthcheck runs the periodic recovery sweep that returns disabled
// hosts to rotation once their failover timeout has elapsed, so host listings
// stay current between requests.
package healthcheck
