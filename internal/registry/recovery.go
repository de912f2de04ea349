package registry

import "time"

// Eligible reports whether a host disabled at disabledAt may rejoin the
// available partition at now, given the cooldown.
func Eligible(disabledAt, now time.Time, cooldown time.Duration) bool {
	return !now.Before(disabledAt.Add(cooldown))
}
