package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/fluxbind-dev/fluxbind/internal/demo"
	"github.com/fluxbind-dev/fluxbind/pkg/fluxbind"
	"github.com/fluxbind-dev/fluxbind/pkg/instrument"
)

func serveCmd() *cobra.Command {
	var (
		addr string
		tick time.Duration
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo dashboard server",
		Long: `Run the demo dashboard server.

Endpoints:
  GET  /state      Current materialized dashboard state as JSON
  GET  /ws         Websocket stream of store-triggered rebuild drafts
  POST /hit/{name} Record a named event in the request store
  GET  /metrics    Prometheus metrics, including build counters
  GET  /healthz    Liveness probe

Examples:
  fluxbind serve
  fluxbind serve --addr=:9090 --tick=250ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, tick, dev)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8766", "Address to listen on")
	cmd.Flags().DurationVarP(&tick, "tick", "t", time.Second, "Clock store tick interval")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (output panics propagate)")

	return cmd
}

func runServe(addr string, tick time.Duration, dev bool) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	fluxbind.DevMode = dev
	fluxbind.SetInstrumentation(instrument.Multi(
		instrument.Prometheus(),
		instrument.OTel(),
	))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dashboard := demo.NewDashboard("fluxbind-demo")
	defer dashboard.Close()
	dashboard.StartClock(ctx, tick)

	hub := newHub()
	go hub.run(ctx, dashboard.Updates())

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/state", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(dashboard.Snapshot()); err != nil {
			logger.Error("encode state", "err", err)
		}
	})

	r.Post("/hit/{name}", func(w http.ResponseWriter, req *http.Request) {
		dashboard.Hit(chi.URLParam(req, "name"))
		w.WriteHeader(http.StatusAccepted)
	})

	r.Get("/ws", hub.handle)
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("demo dashboard listening", "addr", addr, "tick", tick.String())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// hub fans dashboard updates out to websocket clients.
type hub struct {
	upgrader websocket.Upgrader

	clients map[*websocket.Conn]chan fluxbind.State
	mu      sync.Mutex
}

func newHub() *hub {
	return &hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]chan fluxbind.State),
	}
}

// run forwards every update to each connected client's send queue.
// Clients with a full queue skip the update rather than stalling the rest.
func (h *hub) run(ctx context.Context, updates <-chan fluxbind.State) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for conn, send := range h.clients {
				close(send)
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			return
		case draft := <-updates:
			h.mu.Lock()
			for _, send := range h.clients {
				select {
				case send <- draft:
				default:
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *hub) handle(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "err", err)
		return
	}

	send := make(chan fluxbind.State, 8)
	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		if _, ok := h.clients[conn]; ok {
			close(send)
			delete(h.clients, conn)
		}
		h.mu.Unlock()
		conn.Close()
	}()

	// Discard inbound frames; the stream is one-way.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}()

	for draft := range send {
		if err := conn.WriteJSON(draft); err != nil {
			return
		}
	}
}
