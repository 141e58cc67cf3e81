// Package handler contains the HTTP handlers for the Booster API. Handlers
// depend on narrow locally-declared service interfaces rather than the
// concrete service types.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/FightFi/booster/internal/domain"
)

// writeJSON marshals v as JSON and writes it with the given status code. If
// marshaling fails, it falls back to a plain 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps a settlement error to its HTTP status and writes the
// JSON error body.
func writeEngineError(w http.ResponseWriter, err error) {
	writeError(w, engineStatus(err), err.Error())
}

// engineStatus maps the settlement error taxonomy onto HTTP status codes.
func engineStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotOperator), errors.Is(err, domain.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrUnknownEvent), errors.Is(err, domain.ErrUnknownFight),
		errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrAlreadyClaimed),
		errors.Is(err, domain.ErrAlreadyResolved), errors.Is(err, domain.ErrFightResolved),
		errors.Is(err, domain.ErrFightNotOpen), errors.Is(err, domain.ErrInvalidStatusTransition),
		errors.Is(err, domain.ErrEventClaimReady), errors.Is(err, domain.ErrEventNotClaimReady),
		errors.Is(err, domain.ErrNotResolved), errors.Is(err, domain.ErrCutoffPassed),
		errors.Is(err, domain.ErrDeadlinePassed), errors.Is(err, domain.ErrDeadlineNotPassed),
		errors.Is(err, domain.ErrBoostDidNotWin), errors.Is(err, domain.ErrNothingToClaim):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrBelowMinimum),
		errors.Is(err, domain.ErrExceedsMaximum), errors.Is(err, domain.ErrInvalidPoints),
		errors.Is(err, domain.ErrInvalidOutcome):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrReentrantCall), errors.Is(err, domain.ErrLockHeld):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// decodeBody parses the request body into dst, rejecting unknown fields.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// parseListOpts extracts standard pagination parameters from the query
// string. Defaults: limit=50 (max 500), offset=0.
func parseListOpts(r *http.Request) domain.ListOpts {
	q := r.URL.Query()

	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}

	offset := 0
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return domain.ListOpts{
		Limit:  limit,
		Offset: offset,
	}
}

// pathParam extracts a named path parameter using Go 1.22 routing.
func pathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}

// fightIDParam parses the {fid} path parameter.
func fightIDParam(r *http.Request) (uint32, error) {
	raw := r.PathValue("fid")
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, errors.New("invalid fight id")
	}
	return uint32(n), nil
}

// ownerParam parses the ?owner= query parameter as a hex address.
func ownerParam(r *http.Request) (common.Address, error) {
	raw := r.URL.Query().Get("owner")
	if !common.IsHexAddress(raw) {
		return common.Address{}, errors.New("missing or invalid owner address")
	}
	return common.HexToAddress(raw), nil
}

// actorAddress parses the X-Booster-Actor header naming the operator address
// a mutation acts as. The engine still enforces the operator capability.
func actorAddress(r *http.Request) (common.Address, error) {
	raw := r.Header.Get("X-Booster-Actor")
	if !common.IsHexAddress(raw) {
		return common.Address{}, errors.New("missing or invalid X-Booster-Actor header")
	}
	return common.HexToAddress(raw), nil
}
