// Package dispatcher sends one logical request to one of several hosts,
// failing over to alternates on transport failure.
//
// Each Dispatch runs a recovery sweep, then makes up to 1+MaxRetries
// attempts. An attempt that yields any application response ends the
// dispatch; an attempt that fails below the application layer disables the
// host and moves on to the next available one. Disabled hosts rejoin the
// rotation once FailoverTimeout has elapsed.
//
// Usage:
//
//	d := dispatcher.New(transport.NewHTTPTransport(), dispatcher.DefaultConfig())
//	d.AddHost("db1.local", 8086)
//	d.AddHost("db2.local", 8086)
//	res, err := d.Dispatch(ctx, &transport.Request{Method: http.MethodGet, Path: "db"})
//	switch {
//	case errors.Is(err, dispatcher.ErrNoHostsAvailable):
//	    // every host is cooling down
//	case errors.Is(err, dispatcher.ErrAllHostsExhausted):
//	    // retry budget spent
//	}
package dispatcher
