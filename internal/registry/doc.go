// Package registry owns the set of configured hosts and every transition
// between their available and disabled states.
//
// Hosts are kept in insertion order and are never removed. Callers read
// snapshots and signal failures back through Disable; disabled hosts return
// to the available partition once RecoverEligible observes that their
// failover timeout has elapsed:
//
//	reg := registry.New(strategy.NewRoundRobinStrategy())
//	reg.AddHost("db1.local", 8086)
//	reg.RecoverEligible(time.Now(), time.Minute)
//	h, err := reg.NextAvailable()
//	if err == nil && callFailed {
//	    reg.Disable(h, time.Now())
//	}
package registry
