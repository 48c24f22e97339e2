package http

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/dejobratic/orderintake/internal/orders/app"
	"github.com/dejobratic/orderintake/internal/orders/app/commands"
	"github.com/dejobratic/orderintake/internal/orders/domain"
	"github.com/dejobratic/orderintake/internal/orders/ports"
)

// Handler exposes the order intake endpoint.
type Handler struct {
	service        *app.Service
	allowedOrigins []string
}

// NewHandler constructs a Handler. allowedOrigins is the CORS allow-list;
// origins outside it get the wildcard header, matching the storefront's
// embedded checkout widget.
func NewHandler(service *app.Service, allowedOrigins []string) *Handler {
	return &Handler{service: service, allowedOrigins: allowedOrigins}
}

// Register binds the order handler to the provided ServeMux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/order", h.handleOrder)
}

func (h *Handler) handleOrder(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w, r)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodPost:
		h.placeOrder(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) setCORSHeaders(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	allowed := "*"
	for _, candidate := range h.allowedOrigins {
		if candidate == origin {
			allowed = origin
			break
		}
	}
	w.Header().Set("Access-Control-Allow-Origin", allowed)
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fields, err := decodeFields(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// A client-supplied event id doubles as the idempotency key: a retried
	// submission replays the original response instead of dispatching twice.
	eventID := strings.TrimSpace(fields["event_id"])
	if eventID != "" {
		stored, err := h.service.GetIdempotentResponse(ctx, eventID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if stored != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(stored.StatusCode)
			_, _ = w.Write(stored.Body)
			return
		}
	}

	cmd := commands.PlaceOrderCommand{
		Fields:    fields,
		UserAgent: r.UserAgent(),
		ClientIP:  clientIP(r),
	}

	result, err := h.service.PlaceOrder(ctx, cmd)
	if err != nil {
		var validationErr *domain.ValidationError
		var dispatchErr *domain.DispatchError
		switch {
		case errors.As(err, &validationErr):
			writeError(w, http.StatusBadRequest, validationErr.Error())
		case errors.As(err, &dispatchErr):
			writeError(w, http.StatusBadGateway, dispatchErr.Detail)
		default:
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	body, err := json.Marshal(result)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if eventID != "" {
		stored := ports.StoredResponse{
			StatusCode: http.StatusOK,
			Body:       body,
			InvoiceID:  result.InvoiceID,
		}
		// The order is already materialized downstream; a failed save only
		// loses replay, it must not turn success into an error.
		_ = h.service.SaveIdempotentResponse(ctx, eventID, stored)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// decodeFields flattens a JSON or URL-encoded body into string key-values.
// JSON numbers are kept in their literal form so a numeric price survives.
func decodeFields(r *http.Request) (map[string]string, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.Contains(contentType, "application/json") {
		decoder := json.NewDecoder(r.Body)
		decoder.UseNumber()

		var raw map[string]any
		if err := decoder.Decode(&raw); err != nil {
			return nil, err
		}

		fields := make(map[string]string, len(raw))
		for key, value := range raw {
			switch v := value.(type) {
			case string:
				fields[key] = v
			case json.Number:
				fields[key] = v.String()
			case bool:
				if v {
					fields[key] = "true"
				} else {
					fields[key] = "false"
				}
			case nil:
				fields[key] = ""
			}
		}
		return fields, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, err
	}

	fields := make(map[string]string, len(values))
	for key := range values {
		fields[key] = values.Get(key)
	}
	return fields, nil
}

// clientIP prefers the first hop of a forwarded-for chain over the raw
// connection address.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.Split(forwarded, ",")[0]
		return strings.TrimSpace(first)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": message})
}
