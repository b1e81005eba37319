package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/attendly/certserver/internal/certify/render"
	"github.com/attendly/certserver/internal/certify/service"
	"github.com/attendly/certserver/internal/certify/token"
	"github.com/attendly/certserver/internal/certify/types"
)

type Dependencies struct {
	Logger              *log.Logger
	Addr                string
	EventService        *service.EventService
	RegistrationService *service.RegistrationService
	ClaimService        *service.ClaimService
	ReportService       *service.ReportService

	// Now is the clock used to derive event statuses.  Defaults to UTC
	// wall time; tests inject their own.
	Now func() time.Time
}

type Server struct {
	httpServer *http.Server
	logger     *log.Logger
	mux        *http.ServeMux
	events     *service.EventService
	regs       *service.RegistrationService
	claims     *service.ClaimService
	reports    *service.ReportService
	now        func() time.Time
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	now := d.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	s := &Server{
		logger:  d.Logger,
		mux:     mux,
		events:  d.EventService,
		regs:    d.RegistrationService,
		claims:  d.ClaimService,
		reports: d.ReportService,
		now:     now,
	}

	mux.HandleFunc("POST /v1/events", s.handleCreateEvent)
	mux.HandleFunc("GET /v1/events/{id}", s.handleGetEvent)
	mux.HandleFunc("POST /v1/events/{id}/register", s.handleRegister)
	mux.HandleFunc("DELETE /v1/events/{id}/register", s.handleUnregister)
	mux.HandleFunc("POST /v1/events/{id}/end", s.handleEndEvent)
	mux.HandleFunc("GET /v1/events/{id}/qr", s.handleClaimQR)
	mux.HandleFunc("POST /v1/claim", s.handleClaim)
	mux.HandleFunc("GET /v1/events/{id}/certificates/{recipientID}", s.handleDownload)
	mux.HandleFunc("GET /v1/events/{id}/report", s.handleEventReport)
	mux.HandleFunc("GET /v1/report", s.handleGlobalReport)

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ── Events ───────────────────────────────────────────────────────────────────

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req types.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	ev, err := s.events.Create(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, "create_event", err)
		return
	}

	writeJSON(w, http.StatusCreated, eventToView(ev, s.now()))
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := s.events.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, "get_event", err)
		return
	}
	writeJSON(w, http.StatusOK, eventToView(ev, s.now()))
}

func (s *Server) handleEndEvent(w http.ResponseWriter, r *http.Request) {
	var req types.EndEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}
	req.EventID = r.PathValue("id")

	res, err := s.events.End(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, "end_event", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleClaimQR(w http.ResponseWriter, r *http.Request) {
	size := 256
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 64 || n > 2048 {
			writeError(w, http.StatusBadRequest, "bad_size", "size must be between 64 and 2048")
			return
		}
		size = n
	}

	png, err := s.events.ClaimQR(r.Context(), r.PathValue("id"), size)
	if err != nil {
		s.writeServiceError(w, "claim_qr", err)
		return
	}
	writePNG(w, http.StatusOK, png)
}

// ── Registrations ────────────────────────────────────────────────────────────

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body registerBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	reg, err := s.regs.Register(r.Context(), types.RegisterRequest{
		EventID:       r.PathValue("id"),
		RecipientID:   body.RecipientID,
		RecipientName: body.RecipientName,
	})
	if err != nil {
		s.writeServiceError(w, "register", err)
		return
	}
	writeJSON(w, http.StatusCreated, registrationToView(reg))
}

func (s *Server) handleUnregister(w http.ResponseWriter, r *http.Request) {
	var body registerBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	err := s.regs.Unregister(r.Context(), r.PathValue("id"), body.RecipientID)
	if err != nil {
		s.writeServiceError(w, "unregister", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Claims ───────────────────────────────────────────────────────────────────

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	var req types.ClaimRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	resp, err := s.claims.Claim(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, "claim", err)
		return
	}

	// A repeat claim returns the original record; 200 either way.
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	data, err := s.claims.Download(r.Context(), r.PathValue("id"), r.PathValue("recipientID"))
	if err != nil {
		s.writeServiceError(w, "download", err)
		return
	}
	writePNG(w, http.StatusOK, data)
}

// ── Reports ──────────────────────────────────────────────────────────────────

func (s *Server) handleEventReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.reports.EventReport(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, "event_report", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleGlobalReport(w http.ResponseWriter, r *http.Request) {
	rows, err := s.reports.GlobalReport(r.Context())
	if err != nil {
		s.writeServiceError(w, "global_report", err)
		return
	}
	if rows == nil {
		rows = []types.ReportRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// ── Error dispatch ───────────────────────────────────────────────────────────

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Anything unmapped is a 500 and gets logged; mapped errors are the
// caller's fault and are not.
func (s *Server) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidEventID),
		errors.Is(err, service.ErrInvalidOrganizerID),
		errors.Is(err, service.ErrInvalidRecipientID),
		errors.Is(err, service.ErrInvalidTitle):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, token.ErrInvalidToken):
		writeError(w, http.StatusBadRequest, "invalid_claim_token", err.Error())
	case errors.Is(err, service.ErrIncompleteTemplate):
		writeError(w, http.StatusBadRequest, "incomplete_template", err.Error())
	case errors.Is(err, render.ErrUndecodable), errors.Is(err, render.ErrOutOfBounds):
		writeError(w, http.StatusUnprocessableEntity, "invalid_template", err.Error())
	case errors.Is(err, service.ErrEventNotFound):
		writeError(w, http.StatusNotFound, "event_not_found", err.Error())
	case errors.Is(err, service.ErrArtifactNotFound):
		writeError(w, http.StatusNotFound, "certificate_not_found", err.Error())
	case errors.Is(err, service.ErrNotRegistered):
		writeError(w, http.StatusNotFound, "not_registered", err.Error())
	case errors.Is(err, service.ErrNotOrganizer):
		writeError(w, http.StatusForbidden, "not_organizer", err.Error())
	case errors.Is(err, service.ErrAlreadyRegistered):
		writeError(w, http.StatusConflict, "already_registered", err.Error())
	case errors.Is(err, service.ErrAlreadyEnded):
		writeError(w, http.StatusConflict, "already_ended", err.Error())
	case errors.Is(err, service.ErrEventEnded):
		writeError(w, http.StatusConflict, "event_ended", err.Error())
	case errors.Is(err, service.ErrNotEnded):
		writeError(w, http.StatusConflict, "event_not_ended", err.Error())
	case errors.Is(err, service.ErrWindowClosed):
		writeError(w, http.StatusGone, "window_closed", err.Error())
	default:
		s.logger.Printf("%s error: %v", op, err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
	}
}
