// Package middleware provides the HTTP middleware chain for the Booster API:
// operator and bettor authentication, request logging, CORS, and rate
// limiting.
package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/FightFi/booster/internal/auth"
)

const (
	// HeaderAddress carries the bettor's claimed address.
	HeaderAddress = "X-Booster-Address"
	// HeaderTimestamp carries the signed Unix timestamp.
	HeaderTimestamp = "X-Booster-Timestamp"
	// HeaderSignature carries the hex request signature.
	HeaderSignature = "X-Booster-Signature"

	// maxSignedBody caps how much of a signed request body is read.
	maxSignedBody = 1 << 20
)

type callerKey struct{}

// CallerFrom returns the verified bettor address stored by BettorAuth.
func CallerFrom(ctx context.Context) (common.Address, bool) {
	addr, ok := ctx.Value(callerKey{}).(common.Address)
	return addr, ok
}

// OperatorAuth returns middleware that validates requests using either a
// Bearer token in the Authorization header or a static key in the X-API-Key
// header, checked against the configured operator key set.
func OperatorAuth(keys *auth.OperatorKeySet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				writeUnauthorized(w, "missing authentication token")
				return
			}
			if !keys.Contains(token) {
				writeUnauthorized(w, "invalid authentication token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BettorAuth returns middleware that verifies the secp256k1 request
// signature carried in the X-Booster-* headers. On success the recovered
// address is stored in the request context and the body is replaced so the
// handler can read it again.
func BettorAuth(verifier *auth.RequestVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claimedHex := r.Header.Get(HeaderAddress)
			if !common.IsHexAddress(claimedHex) {
				writeUnauthorized(w, "missing or invalid address header")
				return
			}
			ts, err := strconv.ParseInt(r.Header.Get(HeaderTimestamp), 10, 64)
			if err != nil {
				writeUnauthorized(w, "missing or invalid timestamp header")
				return
			}
			sig := r.Header.Get(HeaderSignature)
			if sig == "" {
				writeUnauthorized(w, "missing signature header")
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxSignedBody))
			if err != nil {
				writeUnauthorized(w, "unreadable request body")
				return
			}
			r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(body))

			claimed := common.HexToAddress(claimedHex)
			caller, err := verifier.Verify(claimed, r.Method, r.URL.Path, body, ts, sig)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrStaleTimestamp):
					writeUnauthorized(w, "signature timestamp expired")
				default:
					writeUnauthorized(w, "signature verification failed")
				}
				return
			}

			ctx := context.WithValue(r.Context(), callerKey{}, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken looks for a token in the Authorization header (Bearer scheme)
// or in the X-API-Key header.
func extractToken(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); authz != "" {
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return strings.TrimSpace(key)
	}
	return ""
}

// writeUnauthorized sends a 401 response with a JSON error body.
func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
