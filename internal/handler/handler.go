// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/Shivanand-hulikatti/supper-club/internal/apperr"
	"github.com/Shivanand-hulikatti/supper-club/internal/auth"
	"github.com/Shivanand-hulikatti/supper-club/internal/model"
	"github.com/Shivanand-hulikatti/supper-club/internal/service"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler holds all HTTP handlers for the supper club API.
type Handler struct {
	events       *service.EventService
	reservations *service.ReservationService
	polls        *service.PollService
	validate     *validator.Validate
	log          *zap.Logger
}

// NewHandler constructs a Handler.
func NewHandler(events *service.EventService, reservations *service.ReservationService, polls *service.PollService, log *zap.Logger) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	return &Handler{
		events:       events,
		reservations: reservations,
		polls:        polls,
		validate:     v,
		log:          log,
	}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, model.Response{Success: true, Data: data, Message: message})
}

// writeError renders err with the status its code maps to. Internal errors
// are logged here and never shown to the caller.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.CodeOf(err)
	if code == apperr.CodeInternal {
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, code.HTTPStatus(), model.Response{Message: apperr.Message(err), Code: string(code)})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Wrap(apperr.CodeInvalidInput, "invalid request body: "+err.Error(), err)
	}
	return nil
}

// decode reads a JSON body into dst and runs its validate tags.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := decodeBody(w, r, dst); err != nil {
		return err
	}
	if n, ok := dst.(normalizer); ok {
		n.Normalize()
	}
	if err := h.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

// normalizer is implemented by payloads that tidy their own input before
// validation.
type normalizer interface {
	Normalize()
}

// validationError reports the first failing field in client terms.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Wrap(apperr.CodeInvalidInput, "invalid request body", err)
	}
	fe := verrs[0]
	_, field, ok := strings.Cut(fe.Namespace(), ".")
	if !ok {
		field = fe.Field()
	}
	msg := fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	if fe.Tag() == "required" {
		msg = field + " is required"
	}
	return apperr.Wrap(apperr.CodeInvalidInput, msg, err)
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// identity returns the session identity, or the zero identity for
// anonymous requests.
func identity(r *http.Request) model.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}

// requireUser returns the session user id or writes a 401.
func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, r, apperr.ErrUnauthenticated)
		return "", false
	}
	return id.UserID, true
}

// Rejected answers requests carrying an unusable session token.
func (h *Handler) Rejected(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, apperr.New(apperr.CodeUnauthenticated, "session token is invalid or expired"))
}

// ─── Health check ─────────────────────────────────────────────────────────────

// Pinger is a dependency the health check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck handles GET /health. Every pinger must answer for the
// service to report ok.
func HealthCheck(log *zap.Logger, pingers map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		for name, p := range pingers {
			if err := p.Ping(r.Context()); err != nil {
				log.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
				status[name] = "unavailable"
				status["status"] = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "ok"
		}
		writeJSON(w, code, model.Response{Success: code == http.StatusOK, Data: status})
	}
}
