package metrics

import (
	"encoding/json"
	"net/http"
)

// Handler serves the snapshot as JSON. With ?host=<address> it serves only
// that host's counters, or 404 when the host has never been attempted.
func (c *Collector) Handler(strategy string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		snap := c.Snapshot(strategy)

		var payload interface{} = snap
		if addr := r.URL.Query().Get("host"); addr != "" {
			hm, ok := snap.Hosts[addr]
			if !ok {
				http.Error(w, "unknown host", http.StatusNotFound)
				return
			}
			payload = hm
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}
