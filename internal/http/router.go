package http

import (
	"net/http"
	"strings"
)

// RouterConfig wires handlers and middleware into the queue router.
type RouterConfig struct {
	Queue      *QueueHandler
	Middleware []func(http.Handler) http.Handler
}

// NewRouter builds the HTTP handler serving the queue endpoints.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if q := cfg.Queue; q != nil {
		mux.HandleFunc("/queue/start-day", only(http.MethodPost, q.StartDay))
		mux.HandleFunc("/queue/form", only(http.MethodPost, q.SubmitForm))
		mux.HandleFunc("/queue/call-next", only(http.MethodPost, q.CallNext))
		mux.HandleFunc("/queue/call-previous", only(http.MethodPost, q.CallPrevious))
		mux.HandleFunc("/queue/display", only(http.MethodGet, q.Display))
		mux.HandleFunc("/queue/ticker", only(http.MethodGet, q.Ticker))
		mux.HandleFunc("/queue/history", only(http.MethodGet, q.History))
		mux.HandleFunc("/queue/health", only(http.MethodGet, q.Health))

		mux.HandleFunc("/queue/entries", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				q.ListEntries(w, r)
			case http.MethodPost:
				q.CreateEntry(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/queue/entries/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/queue/entries/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodPatch {
				methodNotAllowed(w, http.MethodPatch)
				return
			}
			q.UpdateEntry(w, r.WithContext(ContextWithEntryID(r.Context(), id)))
		})
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}

func only(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			methodNotAllowed(w, method)
			return
		}
		next(w, r)
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
