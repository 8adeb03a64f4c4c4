package keypad

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"reactive-calculator/internal/calculator"
	"reactive-calculator/internal/handlers"
	"reactive-calculator/internal/observability"
	"reactive-calculator/internal/session"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// tracer is the keypad API's dedicated OpenTelemetry tracer.
var tracer = otel.Tracer("keypad")

// Sessions is the session store the keypad API drives.
type Sessions interface {
	Create(ctx context.Context) (session.Snapshot, error)
	Get(id string) (session.Snapshot, error)
	List() []session.Snapshot
	Dispatch(ctx context.Context, id string, e calculator.Event) (session.Snapshot, error)
	Tape(id string) ([]session.Transition, error)
	Delete(ctx context.Context, id string) error
}

// Handler serves the keypad REST API.
type Handler struct {
	sessions Sessions
}

func NewHandler(sessions Sessions) *Handler {
	return &Handler{sessions: sessions}
}

// request bundles what every handler needs: a child span, a trace-correlated
// logger and the request id.
type request struct {
	ctx       context.Context
	span      trace.Span
	logger    *zap.Logger
	requestID string
	opName    string
}

func (h *Handler) begin(r *http.Request, opName string) *request {
	ctx := r.Context()
	requestID := observability.RequestIDFromContext(ctx)

	ctx, span := tracer.Start(ctx, "keypad."+opName,
		trace.WithAttributes(
			attribute.String("keypad.operation", opName),
			attribute.String("request.id", requestID),
		),
	)

	return &request{
		ctx:       ctx,
		span:      span,
		logger:    observability.LoggerWithTrace(ctx),
		requestID: requestID,
		opName:    opName,
	}
}

func (req *request) fail(w http.ResponseWriter, msg string, err error, status int) {
	observability.RecordError(req.ctx, req.span, req.logger, errorCounter, req.opName, msg, err, status, w)
}

// failSession maps session store errors onto HTTP statuses.
func (req *request) failSession(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		req.fail(w, "session not found", err, http.StatusNotFound)
	case errors.Is(err, session.ErrMaxSessions):
		req.fail(w, "too many sessions", err, http.StatusServiceUnavailable)
	default:
		req.fail(w, "session store failure", err, http.StatusInternalServerError)
	}
}

func (req *request) ok(w http.ResponseWriter, status int, v any) {
	req.span.SetStatus(codes.Ok, "")
	handlers.WriteJSON(w, status, v)
}

// Buttons handles GET /api/buttons.
func (h *Handler) Buttons(w http.ResponseWriter, r *http.Request) {
	handlers.WriteJSON(w, http.StatusOK, ButtonsResponse{Rows: calculator.Buttons()})
}

// CreateSession handles POST /api/sessions.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	req := h.begin(r, "create")
	defer req.span.End()

	snap, err := h.sessions.Create(req.ctx)
	if err != nil {
		req.failSession(w, err)
		return
	}

	req.span.SetAttributes(attribute.String("session.id", snap.ID))
	req.logger.Info("session created",
		zap.String("session_id", snap.ID),
		zap.String("request_id", req.requestID),
	)

	req.ok(w, http.StatusCreated, newSessionResponse(snap))
}

// ListSessions handles GET /api/sessions.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	req := h.begin(r, "list")
	defer req.span.End()

	snaps := h.sessions.List()
	resp := make([]SessionResponse, 0, len(snaps))
	for _, s := range snaps {
		resp = append(resp, newSessionResponse(s))
	}

	req.span.SetAttributes(attribute.Int("session.count", len(resp)))
	req.ok(w, http.StatusOK, resp)
}

// GetSession handles GET /api/sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	req := h.begin(r, "get")
	defer req.span.End()

	snap, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		req.failSession(w, err)
		return
	}

	req.ok(w, http.StatusOK, newSessionResponse(snap))
}

// DeleteSession handles DELETE /api/sessions/{id}.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	req := h.begin(r, "delete")
	defer req.span.End()

	id := chi.URLParam(r, "id")
	if err := h.sessions.Delete(req.ctx, id); err != nil {
		req.failSession(w, err)
		return
	}

	req.logger.Info("session deleted",
		zap.String("session_id", id),
		zap.String("request_id", req.requestID),
	)

	req.span.SetStatus(codes.Ok, "")
	w.WriteHeader(http.StatusNoContent)
}

// Press handles POST /api/sessions/{id}/press. The button label is mapped
// onto its calculator event; labels that are not on the keypad are rejected
// here, before reaching the calculator.
func (h *Handler) Press(w http.ResponseWriter, r *http.Request) {
	req := h.begin(r, "press")
	defer req.span.End()

	var body PressRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		req.fail(w, "invalid request body", err, http.StatusBadRequest)
		return
	}

	event, ok := calculator.ButtonEvent(body.Button)
	if !ok {
		req.fail(w, "unknown button", fmt.Errorf("label %q is not on the keypad", body.Button), http.StatusBadRequest)
		return
	}

	req.span.SetAttributes(attribute.String("keypad.button", body.Button))
	h.apply(w, r, req, event)
}

// Dispatch handles POST /api/sessions/{id}/events for clients that speak
// calculator events directly.
func (h *Handler) Dispatch(w http.ResponseWriter, r *http.Request) {
	req := h.begin(r, "dispatch")
	defer req.span.End()

	var body EventRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		req.fail(w, "invalid request body", err, http.StatusBadRequest)
		return
	}

	switch body.Kind {
	case calculator.PushDigit, calculator.PushDecimal, calculator.ToggleSign,
		calculator.Clear, calculator.SetOperator, calculator.Solve:
	default:
		req.fail(w, "unknown event kind", fmt.Errorf("kind %q", body.Kind), http.StatusBadRequest)
		return
	}

	if err := validateEventValue(body); err != nil {
		req.fail(w, "invalid event value", err, http.StatusBadRequest)
		return
	}

	h.apply(w, r, req, calculator.Event{Kind: body.Kind, Value: body.Value})
}

// validateEventValue holds raw events to what the keypad itself can send.
func validateEventValue(e EventRequest) error {
	switch e.Kind {
	case calculator.SetOperator:
		if !calculator.Operator(e.Value).IsArithmetic() {
			return fmt.Errorf("operator %q is not one of + - * /", e.Value)
		}
	case calculator.PushDigit:
		if len(e.Value) != 1 || e.Value[0] < '0' || e.Value[0] > '9' {
			return fmt.Errorf("digit %q is not 0-9", e.Value)
		}
	}
	return nil
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request, req *request, event calculator.Event) {
	id := chi.URLParam(r, "id")

	snap, err := h.sessions.Dispatch(req.ctx, id, event)
	if err != nil {
		req.failSession(w, err)
		return
	}

	pressCounter.Add(req.ctx, 1, metric.WithAttributes(attribute.String("event", string(event.Kind))))

	req.span.AddEvent("transition.applied", trace.WithAttributes(
		attribute.String("calculator.event", string(event.Kind)),
		attribute.String("calculator.display", snap.Display),
	))

	req.logger.Debug("transition applied",
		zap.String("session_id", id),
		zap.String("event", string(event.Kind)),
		zap.String("value", event.Value),
		zap.String("display", snap.Display),
		zap.Uint64("seq", snap.Seq),
		zap.String("request_id", req.requestID),
	)

	req.ok(w, http.StatusOK, newSessionResponse(snap))
}

// Tape handles GET /api/sessions/{id}/tape.
func (h *Handler) Tape(w http.ResponseWriter, r *http.Request) {
	req := h.begin(r, "tape")
	defer req.span.End()

	id := chi.URLParam(r, "id")
	transitions, err := h.sessions.Tape(id)
	if err != nil {
		req.failSession(w, err)
		return
	}

	req.ok(w, http.StatusOK, TapeResponse{ID: id, Transitions: transitions})
}
