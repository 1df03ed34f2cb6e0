// Package httpapi is the JSON HTTP surface of the notes service.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	goNotes "github.com/MrEthical07/goNotes"
	"github.com/MrEthical07/goNotes/middleware"
	"github.com/rs/zerolog"
)

// Engine is the subset of *goNotes.Engine the handlers use.
type Engine interface {
	middleware.Authorizer
	Register(ctx context.Context, email, password string) (goNotes.User, error)
	Login(ctx context.Context, email, password string) (goNotes.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (goNotes.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	CreateNote(ctx context.Context, userID int64, text, date string) (goNotes.Note, error)
	GetNote(ctx context.Context, userID, noteID int64) (goNotes.Note, error)
	ListNotes(ctx context.Context, userID int64) ([]goNotes.Note, error)
	UpdateNote(ctx context.Context, userID, noteID int64, text string) error
	DeleteNote(ctx context.Context, userID, noteID int64) error
	Ping(ctx context.Context) error
}

// Options configures [New].
type Options struct {
	// Metrics is mounted at GET /metrics when non-nil.
	Metrics http.Handler
	// TrustForwardedFor is passed to middleware.RequestLog.
	TrustForwardedFor bool
}

// Handler wires HTTP routes to the Engine.
type Handler struct {
	engine Engine
	log    zerolog.Logger
}

// New returns the complete routed handler, wrapped in request logging.
func New(engine Engine, log zerolog.Logger, opts Options) http.Handler {
	h := &Handler{engine: engine, log: log}
	guard := middleware.Guard(engine)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v2/auth/register", h.register)
	mux.HandleFunc("POST /api/v2/auth/login", h.login)
	mux.HandleFunc("POST /api/v2/auth/refresh", h.refresh)
	mux.HandleFunc("POST /api/v2/auth/logout", h.logout)
	mux.Handle("GET /api/v2/auth/me", guard(http.HandlerFunc(h.me)))

	mux.Handle("POST /api/v2/create", guard(http.HandlerFunc(h.createNote)))
	mux.Handle("GET /api/v2/notes", guard(http.HandlerFunc(h.listNotes)))
	mux.Handle("GET /api/v2/{note_id}", guard(http.HandlerFunc(h.getNote)))
	mux.Handle("PUT /api/v2/{note_id}", guard(http.HandlerFunc(h.updateNote)))
	mux.Handle("DELETE /api/v2/{note_id}", guard(http.HandlerFunc(h.deleteNote)))

	mux.HandleFunc("GET /healthz", h.health)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}

	return middleware.RequestLog(log, middleware.RequestLogOptions{
		TrustForwardedFor: opts.TrustForwardedFor,
	})(mux)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	u, err := h.engine.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{ID: u.ID, Email: u.Email})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	pair, err := h.engine.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	pair, err := h.engine.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if err := h.engine.Logout(r.Context(), req.RefreshToken); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, userResponse{ID: u.ID, Email: u.Email})
}

func (h *Handler) createNote(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	var req createNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	n, err := h.engine.CreateNote(r.Context(), u.ID, req.Text, req.Date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (h *Handler) listNotes(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	notes, err := h.engine.ListNotes(r.Context(), u.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *Handler) getNote(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	noteID, ok := pathNoteID(w, r)
	if !ok {
		return
	}
	n, err := h.engine.GetNote(r.Context(), u.ID, noteID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *Handler) updateNote(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	noteID, ok := pathNoteID(w, r)
	if !ok {
		return
	}
	var req updateNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if err := h.engine.UpdateNote(r.Context(), u.ID, noteID, req.Text); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: true})
}

func (h *Handler) deleteNote(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	noteID, ok := pathNoteID(w, r)
	if !ok {
		return
	}
	if err := h.engine.DeleteNote(r.Context(), u.ID, noteID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: true})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Ping(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func pathNoteID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("note_id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid note id")
		return 0, false
	}
	return id, true
}

// writeError answers with goNotes.StatusCode(err). Server-side failures are
// logged with the request id; their detail never carries the cause.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := goNotes.StatusCode(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().
			Err(err).
			Str("request_id", goNotes.RequestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeDetail(w, status, detailFor(err, status))
}

func detailFor(err error, status int) string {
	switch {
	case errors.Is(err, goNotes.ErrDuplicateUser):
		return "User already exists"
	case errors.Is(err, goNotes.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, goNotes.ErrInvalidRefreshToken):
		return "Invalid refresh token"
	case errors.Is(err, goNotes.ErrUnauthorized):
		return "Could not validate credentials"
	case errors.Is(err, goNotes.ErrNoteNotFound):
		return "Note not found"
	case errors.Is(err, goNotes.ErrInvalidEmail):
		return "Invalid email address"
	case errors.Is(err, goNotes.ErrPasswordPolicy):
		return "Password does not meet the length requirements"
	case errors.Is(err, goNotes.ErrInvalidNote):
		return "Invalid note"
	case errors.Is(err, goNotes.ErrLoginRateLimited):
		return "Too many failed login attempts"
	default:
		return http.StatusText(status)
	}
}
