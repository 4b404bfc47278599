package handler

import (
	"context"
	"net/http"

	"github.com/Temutjin2k/driver-presence/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/pkg/logger"
	wrap "github.com/Temutjin2k/driver-presence/pkg/logger/wrapper"
	"github.com/Temutjin2k/driver-presence/pkg/validator"
)

type SessionService interface {
	Login(ctx context.Context, data models.AuthData) error
	Logout(ctx context.Context)
	State() models.AuthState
	Valid() bool
}

type Session struct {
	session      SessionService
	availability AvailabilityService
	l            logger.Logger
}

func NewSession(session SessionService, availability AvailabilityService, l logger.Logger) *Session {
	return &Session{
		session:      session,
		availability: availability,
		l:            l,
	}
}

// Login godoc
// @Summary      Hand a session to the agent
// @Description  Stores the session obtained by the app and reconciles the online state with the backend
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        request body dto.LoginRequest true "Session and driver identity"
// @Success      200 {object} dto.SessionResponse
// @Failure      400 {object} map[string]any
// @Failure      422 {object} map[string]any
// @Router       /session [post]
func (h *Session) Login(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "session_login")

	var req dto.LoginRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read request JSON data", err)
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	ctx = wrap.WithDriverID(ctx, req.Driver.DriverID)
	if err := h.session.Login(ctx, req.ToModel()); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to store session", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := h.availability.SyncOnlineStatus(ctx); err != nil {
		h.l.Warn(ctx, "online status sync after login failed", "error", err.Error())
	}

	h.l.Info(ctx, "driver session stored")
	h.respond(ctx, w)
}

// Logout godoc
// @Summary      Log out
// @Description  Takes the driver offline and clears the session
// @Tags         session
// @Produce      json
// @Success      200 {object} dto.SessionResponse
// @Router       /session/logout [post]
func (h *Session) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "session_logout")

	if h.availability.State().IsOnline {
		if err := h.availability.SetOnline(ctx, false); err != nil {
			h.l.Warn(ctx, "going offline before logout failed", "error", err.Error())
		}
	}
	h.session.Logout(ctx)

	h.l.Info(ctx, "driver logged out")
	h.respond(ctx, w)
}

// Get godoc
// @Summary      Session state
// @Tags         session
// @Produce      json
// @Success      200 {object} dto.SessionResponse
// @Router       /session [get]
func (h *Session) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(wrap.WithAction(r.Context(), "session_get"), w)
}

func (h *Session) respond(ctx context.Context, w http.ResponseWriter) {
	state := h.session.State()
	resp := dto.SessionResponse{
		IsLoggedIn: state.IsLoggedIn,
		Valid:      h.session.Valid(),
		Driver:     state.Driver,
	}

	if err := writeJSON(w, http.StatusOK, envelope{"session": resp}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}
