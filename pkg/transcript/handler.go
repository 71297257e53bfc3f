package transcript

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Jacobbrewer1/husky/pkg/logging"
	"github.com/Jacobbrewer1/husky/pkg/request"
	"github.com/gorilla/mux"
)

// Route is the path template transcripts are served on.
const Route = "/transcript/{ticketID}"

//go:embed templates/transcript.html
var templates embed.FS

var page = template.Must(template.ParseFS(templates, "templates/transcript.html"))

// Handler serves published transcripts.
type Handler struct {
	l         *slog.Logger
	publisher *Publisher
	limiter   *Limiter
}

// NewHandler creates a new Handler. A nil limiter disables rate limiting.
func NewHandler(l *slog.Logger, p *Publisher, limiter *Limiter) *Handler {
	return &Handler{
		l:         l.With(slog.String("component", "transcript_handler")),
		publisher: p,
		limiter:   limiter,
	}
}

// Register adds the transcript route to r. The middleware is applied in order, the first being outermost.
func (h *Handler) Register(r *mux.Router, mw ...mux.MiddlewareFunc) {
	var handler http.Handler = h
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	r.Handle(Route, handler).Methods(http.MethodGet)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil && !h.limiter.Allow(r.RemoteAddr) {
		h.encode(w, http.StatusTooManyRequests, request.NewMessage(request.ErrTooManyRequests.Error()))
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["ticketID"])
	if err != nil {
		h.encode(w, http.StatusForbidden, request.NewMessage("Forbidden"))
		return
	}

	t, err := h.publisher.Lookup(id, r.URL.Query().Get("token"))
	switch {
	case errors.Is(err, ErrForbidden):
		h.l.Warn("Invalid or missing transcript token", slog.Int(logging.KeyTicket, id))
		h.encode(w, http.StatusForbidden, request.NewMessage("Forbidden"))
		return
	case errors.Is(err, ErrNotFound):
		h.encode(w, http.StatusNotFound, request.NewMessage("Transcript not found"))
		return
	case err != nil:
		h.l.Error("Error looking up transcript", slog.String(logging.KeyError, err.Error()))
		h.encode(w, http.StatusInternalServerError, request.NewMessage(request.ErrInternalServer.Error()))
		return
	}

	var buf bytes.Buffer
	if err := Render(&buf, t); err != nil {
		h.l.Error("Error rendering transcript", slog.Int(logging.KeyTicket, id), slog.String(logging.KeyError, err.Error()))
		h.encode(w, http.StatusInternalServerError, request.NewMessage(request.ErrInternalServer.Error()))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.l.Error("Error writing transcript", slog.String(logging.KeyError, err.Error()))
	}
}

func (h *Handler) encode(w http.ResponseWriter, status int, v any) {
	if err := request.Encode(w, status, v); err != nil {
		h.l.Error("Error encoding response", slog.String(logging.KeyError, err.Error()))
	}
}

// Render writes the transcript page.
func Render(w io.Writer, t *Transcript) error {
	return page.Execute(w, t)
}
