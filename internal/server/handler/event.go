package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/FightFi/booster/internal/domain"
)

// EventService defines the event operations the handler requires from the
// service layer.
type EventService interface {
	CreateEvent(ctx context.Context, caller common.Address, id string, fightCount uint32, seasonID uint64, defaultCutoff int64) error
	SetClaimReady(ctx context.Context, caller common.Address, id string, ready bool) error
	SetClaimDeadline(ctx context.Context, caller common.Address, id string, deadline int64) error
	SetEventBoostCutoff(ctx context.Context, caller common.Address, id string, cutoff int64) error
	PurgeEvent(ctx context.Context, caller common.Address, eventID string, recipient common.Address) (uint64, error)
	GetEvent(ctx context.Context, id string) (domain.Event, error)
	ListEvents(ctx context.Context, opts domain.ListOpts) ([]domain.Event, error)
	ListFights(ctx context.Context, eventID string) ([]domain.Fight, error)
}

// EventArchiver archives a purged event to object storage.
type EventArchiver interface {
	ArchiveEvent(ctx context.Context, eventID string) (string, error)
}

// EventHandler serves event lifecycle endpoints.
type EventHandler struct {
	svc      EventService
	archiver EventArchiver // nil disables archive-after-purge
	logger   *slog.Logger
}

// NewEventHandler creates an EventHandler. The archiver may be nil.
func NewEventHandler(svc EventService, archiver EventArchiver, logger *slog.Logger) *EventHandler {
	return &EventHandler{svc: svc, archiver: archiver, logger: logger}
}

type createEventRequest struct {
	ID            string `json:"id"`
	NumFights     uint32 `json:"num_fights"`
	SeasonID      uint64 `json:"season_id"`
	DefaultCutoff int64  `json:"default_cutoff"`
}

// CreateEvent registers a new event with its fight slots.
// POST /api/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	actor, err := actorAddress(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req createEventRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.CreateEvent(r.Context(), actor, req.ID, req.NumFights, req.SeasonID, req.DefaultCutoff); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": req.ID})
}

type claimReadyRequest struct {
	Ready bool `json:"ready"`
}

// SetClaimReady toggles the event's claim gate.
// PUT /api/events/{id}/claim-ready
func (h *EventHandler) SetClaimReady(w http.ResponseWriter, r *http.Request) {
	actor, err := actorAddress(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req claimReadyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.SetClaimReady(r.Context(), actor, pathParam(r, "id"), req.Ready); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ready": req.Ready})
}

type deadlineRequest struct {
	Deadline int64 `json:"deadline"`
}

// SetClaimDeadline sets the event's claim deadline.
// PUT /api/events/{id}/deadline
func (h *EventHandler) SetClaimDeadline(w http.ResponseWriter, r *http.Request) {
	actor, err := actorAddress(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req deadlineRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.SetClaimDeadline(r.Context(), actor, pathParam(r, "id"), req.Deadline); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deadline": req.Deadline})
}

type cutoffRequest struct {
	Cutoff int64 `json:"cutoff"`
}

// SetEventBoostCutoff applies a placement cutoff to every fight.
// PUT /api/events/{id}/cutoff
func (h *EventHandler) SetEventBoostCutoff(w http.ResponseWriter, r *http.Request) {
	actor, err := actorAddress(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req cutoffRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.SetEventBoostCutoff(r.Context(), actor, pathParam(r, "id"), req.Cutoff); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"cutoff": req.Cutoff})
}

type purgeRequest struct {
	Recipient string `json:"recipient"`
}

type purgeResponse struct {
	Swept       uint64 `json:"swept"`
	ArchivePath string `json:"archive_path,omitempty"`
}

// PurgeEvent sweeps unclaimed funds after the deadline, then archives the
// event's final snapshot when an archiver is configured.
// POST /api/events/{id}/purge
func (h *EventHandler) PurgeEvent(w http.ResponseWriter, r *http.Request) {
	actor, err := actorAddress(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req purgeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !common.IsHexAddress(req.Recipient) {
		writeError(w, http.StatusBadRequest, "invalid recipient address")
		return
	}

	id := pathParam(r, "id")
	swept, err := h.svc.PurgeEvent(r.Context(), actor, id, common.HexToAddress(req.Recipient))
	if err != nil {
		writeEngineError(w, err)
		return
	}

	resp := purgeResponse{Swept: swept}
	if h.archiver != nil {
		path, err := h.archiver.ArchiveEvent(r.Context(), id)
		if err != nil {
			// The sweep already happened; report it and log the archive
			// failure for retry.
			h.logger.ErrorContext(r.Context(), "handler: archive after purge failed",
				slog.String("event_id", id),
				slog.String("error", err.Error()),
			)
		} else {
			resp.ArchivePath = path
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type getEventResponse struct {
	Event  eventJSON   `json:"event"`
	Fights []fightJSON `json:"fights"`
}

// GetEvent returns one event with its fights.
// GET /api/events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	ev, err := h.svc.GetEvent(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	fights, err := h.svc.ListFights(r.Context(), id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list fights failed",
			slog.String("event_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list fights")
		return
	}

	writeJSON(w, http.StatusOK, getEventResponse{
		Event:  toEventJSON(ev),
		Fights: toFightsJSON(fights),
	})
}

type listEventsResponse struct {
	Events []eventJSON `json:"events"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// ListEvents returns known events, newest first.
// GET /api/events
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)
	events, err := h.svc.ListEvents(r.Context(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list events failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	out := make([]eventJSON, len(events))
	for i, ev := range events {
		out[i] = toEventJSON(ev)
	}
	writeJSON(w, http.StatusOK, listEventsResponse{Events: out, Limit: opts.Limit, Offset: opts.Offset})
}
