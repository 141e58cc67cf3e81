package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FightFi/booster/internal/auth"
	"github.com/FightFi/booster/internal/engine"
	"github.com/FightFi/booster/internal/server/handler"
	"github.com/FightFi/booster/internal/server/middleware"
	"github.com/FightFi/booster/internal/service"
	"github.com/FightFi/booster/internal/store/memory"
	"github.com/FightFi/booster/internal/token"
)

// Throwaway key for exercising the bettor signature path. Never fund this
// address.
const testKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

const operatorKey = "test-operator-key"

var (
	engineAcct = common.HexToAddress("0x00000000000000000000000000000000000000EE")
	operator   = common.HexToAddress("0x0000000000000000000000000000000000000001")
)

func newTestServer(t *testing.T) (*httptest.Server, *auth.Signer) {
	t.Helper()

	signer, err := auth.NewSigner(testKeyHex)
	require.NoError(t, err)

	ledger := token.NewLedger()
	ledger.OpenSeason(7)
	ledger.GrantAgent(engineAcct)
	ledger.Mint(signer.Address(), 7, 1_000_000)

	eng := engine.New(engine.Config{
		Account:           engineAcct,
		MinStake:          1,
		MaxFightsPerEvent: 50,
	}, ledger.Bind(engineAcct), operator)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewBoosterService(
		eng,
		memory.NewEventStore(), memory.NewFightStore(), memory.NewBoostStore(), memory.NewAuditStore(),
		nil, nil, nil,
		logger,
	)

	handlers := Handlers{
		Health: handler.NewHealthHandler(nil, logger),
		Events: handler.NewEventHandler(svc, nil, logger),
		Fights: handler.NewFightHandler(svc, logger),
		Boosts: handler.NewBoostHandler(svc, logger),
		Claims: handler.NewClaimHandler(svc, logger),
		Score:  handler.NewScoreHandler(svc, logger),
		Audit:  handler.NewAuditHandler(svc, logger),
	}
	srv := NewServer(Config{
		Port:         0,
		OperatorKeys: []string{operatorKey},
		SignatureTTL: 5 * time.Minute,
	}, handlers, nil, nil, logger)

	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, signer
}

func operatorRequest(t *testing.T, ts *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(method, ts.URL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+operatorKey)
	req.Header.Set("X-Booster-Actor", operator.Hex())
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func bettorRequest(t *testing.T, ts *httptest.Server, signer *auth.Signer, method, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	now := time.Now().Unix()
	sig, err := signer.SignRequest(method, path, payload, now)
	require.NoError(t, err)

	req, err := http.NewRequest(method, ts.URL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set(middleware.HeaderAddress, signer.Address().Hex())
	req.Header.Set(middleware.HeaderTimestamp, strconv.FormatInt(now, 10))
	req.Header.Set(middleware.HeaderSignature, sig)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestServer_OperatorAuth(t *testing.T) {
	ts, _ := newTestServer(t)

	// No API key.
	resp, err := http.Post(ts.URL+"/api/events", "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Valid key creates the event.
	resp = operatorRequest(t, ts, http.MethodPost, "/api/events", map[string]any{
		"id":             "UFC-300",
		"num_fights":     2,
		"season_id":      7,
		"default_cutoff": time.Now().Add(time.Hour).Unix(),
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// Read it back without auth.
	resp, err = http.Get(ts.URL + "/api/events/UFC-300")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Event struct {
			ID string `json:"id"`
		} `json:"event"`
		Fights []json.RawMessage `json:"fights"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "UFC-300", got.Event.ID)
	assert.Len(t, got.Fights, 2)
}

func TestServer_BettorSignatureAuth(t *testing.T) {
	ts, signer := newTestServer(t)

	resp := operatorRequest(t, ts, http.MethodPost, "/api/events", map[string]any{
		"id":             "UFC-301",
		"num_fights":     1,
		"season_id":      7,
		"default_cutoff": time.Now().Add(time.Hour).Unix(),
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	order := map[string]any{
		"orders": []map[string]any{{
			"fight_id":         1,
			"amount":           100,
			"predicted_winner": "red",
			"predicted_method": "knockout",
		}},
	}

	// A signed request places the boost.
	resp = bettorRequest(t, ts, signer, http.MethodPost, "/api/events/UFC-301/boosts", order)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// An unsigned request is rejected.
	payload, _ := json.Marshal(order)
	plain, err := http.Post(ts.URL+"/api/events/UFC-301/boosts", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	plain.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, plain.StatusCode)

	// A tampered body fails verification.
	now := time.Now().Unix()
	sig, err := signer.SignRequest(http.MethodPost, "/api/events/UFC-301/boosts", payload, now)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/events/UFC-301/boosts", bytes.NewReader([]byte(`{"orders":[]}`)))
	require.NoError(t, err)
	req.Header.Set(middleware.HeaderAddress, signer.Address().Hex())
	req.Header.Set(middleware.HeaderTimestamp, strconv.FormatInt(now, 10))
	req.Header.Set(middleware.HeaderSignature, sig)
	tampered, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	tampered.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, tampered.StatusCode)

	// The placed boost is visible on the read path.
	resp, err = http.Get(ts.URL + "/api/events/UFC-301/fights/1/boosts?owner=" + signer.Address().Hex())
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var boosts struct {
		Boosts []struct {
			Amount uint64 `json:"amount"`
		} `json:"boosts"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&boosts))
	require.Len(t, boosts.Boosts, 1)
	assert.Equal(t, uint64(100), boosts.Boosts[0].Amount)
}

func TestServer_ScoreCalculator(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/score?predicted_winner=red&actual_winner=red&predicted_method=knockout&actual_method=knockout&pfw=10&pfwm=20")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]uint64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, uint64(20), got["points"])
}

func TestServer_Health(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
