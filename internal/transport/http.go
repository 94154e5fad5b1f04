package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"secmcp/internal/health"
	"secmcp/internal/observability/logging"
	"secmcp/internal/registry"
)

// maxRequestBodyBytes bounds a POST /tools/{name}/execute body; larger
// bodies fail with 413 before a single byte reaches the JSON decoder.
const maxRequestBodyBytes = 1 << 20 // 1MB

// MetricsHandler is the subset of internal/metrics.Metrics the HTTP
// transport needs, kept as an interface so this package doesn't import
// metrics directly.
type MetricsHandler interface {
	Handler() http.Handler
}

// HTTP is C9's HTTP surface: GET /health, GET /tools,
// POST /tools/{name}/execute, GET /metrics, GET /events.
type HTTP struct {
	reg     *registry.Registry
	health  *health.DebouncedAggregator
	metrics MetricsHandler
	events  *eventBroker
}

// NewHTTP builds an HTTP transport bound to the given registry, health
// aggregator, and metrics handler.
func NewHTTP(reg *registry.Registry, h *health.DebouncedAggregator, m MetricsHandler) *HTTP {
	return &HTTP{reg: reg, health: h, metrics: m, events: newEventBroker()}
}

// Register wires every route onto mux.
func (h *HTTP) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/tools", h.handleTools)
	mux.HandleFunc("/tools/", h.handleExecute)
	mux.HandleFunc("/metrics", h.handleMetrics)
	mux.HandleFunc("/events", h.handleEvents)
}

// Run serves mux on addr until ctx is cancelled, then shuts down gracefully.
func (h *HTTP) Run(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	h.Register(mux)

	srv := &http.Server{
		Addr:              addr,
		Handler:           logging.Middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0, // /events is long-lived SSE
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		h.events.closeAll()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (h *HTTP) handleHealth(w http.ResponseWriter, r *http.Request) {
	rep := h.health.RunDebounced(r.Context())
	status := http.StatusOK
	if rep.Status == health.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, rep)
}

func (h *HTTP) handleTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	names := h.reg.Names()
	summaries := make([]ToolSummary, 0, len(names))
	for _, name := range names {
		t, ok := h.reg.Get(name)
		if !ok {
			continue
		}
		d := t.Descriptor
		flags := make([]string, 0, len(d.Policy.AllowedFlags))
		for f := range d.Policy.AllowedFlags {
			flags = append(flags, f)
		}
		sort.Strings(flags)
		summaries = append(summaries, ToolSummary{
			Name:         d.Name,
			Enabled:      t.Enabled(),
			Command:      d.CommandName,
			Concurrency:  d.Concurrency,
			Timeout:      d.DefaultTimeoutSec,
			AllowedFlags: flags,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": summaries})
}

func (h *HTTP) handleExecute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/tools/")
	name = strings.TrimSuffix(name, "/execute")
	if name == "" || strings.Contains(name, "/") {
		http.Error(w, "unknown tool", http.StatusNotFound)
		return
	}

	t, ok := h.reg.Get(name)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown tool %q", name), http.StatusNotFound)
		return
	}
	if !t.Enabled() {
		http.Error(w, fmt.Sprintf("tool %q is disabled", name), http.StatusConflict)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	if len(body) == 0 {
		body = []byte("{}")
	}

	var req ExecuteRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	incoming := r.Header.Get("X-Correlation-Id")
	if incoming == "" {
		incoming = r.Header.Get("X-Request-Id")
	}
	ctx, rid := logging.EnsureRequestIDWithIncoming(r.Context(), incoming)
	if req.CorrelationID == nil {
		req.CorrelationID = &rid
	}
	w.Header().Set("X-Request-Id", rid)

	args := req.ExtraArgs
	if max := t.Descriptor.Policy.MaxArgsLen; max > 0 && len(args) > max {
		args = args[:max]
	}
	logger := logging.LoggerFromContext(ctx).With(
		logging.Tool(name),
		logging.Target(req.Target),
		logging.CorrelationID(*req.CorrelationID),
		logging.String("extra_args", args),
	)

	// A client disconnect cancels ctx, which Tool.Run treats as cancelling
	// only the pending semaphore acquire; the subprocess (once spawned)
	// always runs on its own detached context and completes regardless.
	start := time.Now()
	out := t.Run(ctx, req.toInput(), 0, "http")
	logger.Info("tool execution completed",
		logging.ErrorType(string(out.ErrorType)),
		logging.DurationMs(time.Since(start).Milliseconds()),
	)

	h.events.publish(name, out)
	writeJSON(w, http.StatusOK, toExecuteResponse(out))
}

func (h *HTTP) handleMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.Handler().ServeHTTP(w, r)
}

func (h *HTTP) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	sub := h.events.subscribe()
	defer h.events.unsubscribe(sub)

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-sub:
			if !open {
				return
			}
			if _, err := w.Write(ev); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
