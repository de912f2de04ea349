// Package host describes a single backend endpoint of the database cluster
// and the two states it can be in: available for requests, or disabled
// after a transport failure until its cooldown expires.
package host
