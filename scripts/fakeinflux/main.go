// Fakeinflux is an in-memory stand-in for an InfluxDB 0.8 node, used to try
// the relay and client against a local cluster.
//
// Usage:
//
//	go run ./scripts/fakeinflux -port 8086
//	go run ./scripts/fakeinflux -port 8087 -fail-after 200
//
// With -fail-after the node stops accepting connections after that many
// requests, which exercises host failover.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
)

type series struct {
	Name    string          `json:"name"`
	Columns []string        `json:"columns"`
	Points  [][]interface{} `json:"points"`
}

type store struct {
	mutex     sync.Mutex
	databases map[string]map[string]int
}

func newStore() *store {
	return &store{databases: make(map[string]map[string]int)}
}

func (s *store) create(name string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.databases[name]; ok {
		return false
	}
	s.databases[name] = make(map[string]int)
	return true
}

func (s *store) drop(name string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.databases[name]; !ok {
		return false
	}
	delete(s.databases, name)
	return true
}

func (s *store) names() []map[string]string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	out := make([]map[string]string, 0, len(s.databases))
	for name := range s.databases {
		out = append(out, map[string]string{"name": name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i]["name"] < out[j]["name"] })
	return out
}

// write counts points per series, creating the database on first use.
func (s *store) write(db string, batch []series) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.databases[db]; !ok {
		s.databases[db] = make(map[string]int)
	}

	total := 0
	for _, sr := range batch {
		s.databases[db][sr.Name] += len(sr.Points)
		total += len(sr.Points)
	}
	return total
}

func (s *store) list(db string) ([]series, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	counts, ok := s.databases[db]
	if !ok {
		return nil, false
	}

	out := make([]series, 0, len(counts))
	for name, n := range counts {
		out = append(out, series{
			Name:    name,
			Columns: []string{"time", "count"},
			Points:  [][]interface{}{{time.Now().UnixMilli(), n}},
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func main() {
	port := flag.Int("port", 8086, "port to listen on")
	failAfter := flag.Int64("fail-after", 0, "stop serving after this many requests (0 = never)")
	latency := flag.Duration("latency", 0, "artificial delay added to every request")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil)).With(slog.Int("port", *port))
	db := newStore()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	mux := http.NewServeMux()

	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /db", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, db.names())
	})

	mux.HandleFunc("POST /db", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
			http.Error(w, "invalid database name", http.StatusBadRequest)
			return
		}
		if !db.create(body.Name) {
			http.Error(w, fmt.Sprintf("database %s exists", body.Name), http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	mux.HandleFunc("DELETE /db/{name}", func(w http.ResponseWriter, r *http.Request) {
		if !db.drop(r.PathValue("name")) {
			http.Error(w, "database not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /db/{name}/series", func(w http.ResponseWriter, r *http.Request) {
		var batch []series
		if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
			http.Error(w, "invalid series payload", http.StatusBadRequest)
			return
		}
		n := db.write(r.PathValue("name"), batch)
		log.Debug("write", slog.String("db", r.PathValue("name")), slog.Int("points", n))
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("GET /db/{name}/series", func(w http.ResponseWriter, r *http.Request) {
		result, ok := db.list(r.PathValue("name"))
		if !ok {
			http.Error(w, "database not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	var served atomic.Int64
	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", *port),
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := served.Add(1)
			if *failAfter > 0 && n > *failAfter {
				log.Warn("failure threshold reached, going down", slog.Int64("requests", n-1))
				cancel()
				http.Error(w, "shutting down", http.StatusServiceUnavailable)
				return
			}
			if *latency > 0 {
				time.Sleep(*latency)
			}

			requestID := uuid.NewString()
			w.Header().Set("X-Request-Id", requestID)
			w.Header().Set("X-Influxdb-Version", "0.8.8")
			log.Info("request",
				slog.String("id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path))

			mux.ServeHTTP(w, r)
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("fake influxdb listening", slog.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server failed", slog.Any("err", err))
		os.Exit(1)
	}
}
