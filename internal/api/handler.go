package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/orderflow/internal/dispatch"
	"github.com/gyaneshwarpardhi/orderflow/internal/metrics"
	"github.com/gyaneshwarpardhi/orderflow/internal/order"
	"github.com/gyaneshwarpardhi/orderflow/internal/pipeline"
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng        *dispatch.Engine
	runner     *pipeline.Runner
	maxRetries int
	mux        *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(eng *dispatch.Engine, runner *pipeline.Runner, maxRetries int) http.Handler {
	h := &Handler{eng: eng, runner: runner, maxRetries: maxRetries, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/orders", h.orderCreated)
	h.mux.HandleFunc("POST /v1/orders/status", h.statusUpdate)
	h.mux.HandleFunc("POST /v1/orders/cancel", h.orderCancelled)
	h.mux.HandleFunc("POST /v1/orders/broadcast", h.broadcast)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// dispatchResult is returned by every publish endpoint.
type dispatchResult struct {
	OrderID   string `json:"order_id"`
	Delivered bool   `json:"delivered"`
}

func decodeOrder(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return false
	}
	return true
}

func (h *Handler) respond(w http.ResponseWriter, orderID string, delivered bool) {
	res := dispatchResult{OrderID: orderID, Delivered: delivered}
	if !delivered {
		writeJSON(w, http.StatusBadGateway, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /v1/orders — publish a created event with retry.
func (h *Handler) orderCreated(w http.ResponseWriter, r *http.Request) {
	var o order.Order
	if !decodeOrder(w, r, &o) {
		return
	}
	if o.ID == "" {
		writeError(w, http.StatusBadRequest, "order id is required")
		return
	}
	h.respond(w, o.ID, h.eng.SendWithRetry(r.Context(), &o, h.maxRetries))
}

// POST /v1/orders/status — publish an updated event for a status transition.
func (h *Handler) statusUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Order          order.Order  `json:"order"`
		PreviousStatus order.Status `json:"previous_status"`
	}
	if !decodeOrder(w, r, &req) {
		return
	}
	if req.Order.ID == "" {
		writeError(w, http.StatusBadRequest, "order id is required")
		return
	}
	h.respond(w, req.Order.ID, h.eng.SendStatusUpdate(r.Context(), &req.Order, req.PreviousStatus))
}

// POST /v1/orders/cancel — publish a cancelled event with a reason.
func (h *Handler) orderCancelled(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Order  order.Order `json:"order"`
		Reason string      `json:"reason"`
	}
	if !decodeOrder(w, r, &req) {
		return
	}
	if req.Order.ID == "" {
		writeError(w, http.StatusBadRequest, "order id is required")
		return
	}
	h.respond(w, req.Order.ID, h.eng.SendOrderCancelled(r.Context(), &req.Order, req.Reason))
}

// POST /v1/orders/broadcast — concurrent fan-out to analytics, fulfillment,
// and (for high-value orders) notifications.
func (h *Handler) broadcast(w http.ResponseWriter, r *http.Request) {
	var o order.Order
	if !decodeOrder(w, r, &o) {
		return
	}
	if o.ID == "" {
		writeError(w, http.StatusBadRequest, "order id is required")
		return
	}
	h.respond(w, o.ID, h.eng.SendToMultipleDestinations(r.Context(), &o))
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 if the pipeline queue is >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.runner.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}

// loggingMiddleware logs one line per request.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
