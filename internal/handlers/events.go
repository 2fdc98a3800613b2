package handlers

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/diewo77/freelance-pro/httpx"
	"github.com/diewo77/freelance-pro/i18n"
	"github.com/diewo77/freelance-pro/internal/middleware"
)

// Notifier is a source of payload-free change signals for one domain.
type Notifier interface {
	Topic() string
	OnChanged(fn func()) (stop func())
}

// EventsHandler streams domain change signals as Server-Sent Events.
type EventsHandler struct {
	notifiers map[string]Notifier
	keepAlive time.Duration
}

// NewEventsHandler serves the given notifiers keyed by domain name
// ("clients", "invoices", ...).
func NewEventsHandler(notifiers map[string]Notifier, keepAlive time.Duration) *EventsHandler {
	if keepAlive <= 0 {
		keepAlive = 25 * time.Second
	}
	return &EventsHandler{notifiers: notifiers, keepAlive: keepAlive}
}

// Stream subscribes to the domains listed in ?domains= (all when empty)
// and writes "event: <topic>" for each change until the client goes away.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	lang := middleware.LangFrom(r)
	names, ok := h.domains(r.URL.Query().Get("domains"))
	if !ok {
		httpx.JSONErrorMessage(w, http.StatusBadRequest, "unknown_domain", i18n.T(lang, "unknown_domain"), r.URL.Query().Get("domains"))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		httpx.JSONError(w, http.StatusInternalServerError, "streaming_unsupported", nil)
		return
	}

	// one pending flag per topic; bursts coalesce into a single event
	pending := make(map[string]chan struct{}, len(names))
	topics := make([]string, 0, len(names))
	wake := make(chan struct{}, 1)
	for _, name := range names {
		n := h.notifiers[name]
		flag := make(chan struct{}, 1)
		pending[n.Topic()] = flag
		topics = append(topics, n.Topic())
		stop := n.OnChanged(func() {
			select {
			case flag <- struct{}{}:
			default:
			}
			select {
			case wake <- struct{}{}:
			default:
			}
		})
		defer stop()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case <-wake:
			for _, t := range topics {
				select {
				case <-pending[t]:
					fmt.Fprintf(w, "event: %s\ndata: \n\n", t)
				default:
				}
			}
			flusher.Flush()
		}
	}
}

func (h *EventsHandler) domains(raw string) ([]string, bool) {
	if strings.TrimSpace(raw) == "" {
		names := make([]string, 0, len(h.notifiers))
		for name := range h.notifiers {
			names = append(names, name)
		}
		slices.Sort(names)
		return names, true
	}
	var names []string
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if _, ok := h.notifiers[name]; !ok {
			return nil, false
		}
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return names, true
}
