package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelegramSender(t *testing.T) {
	var got telegramMessage
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewTelegramSender("secret-token", "-100123")
	s.api = srv.URL
	require.NoError(t, s.Send(context.Background(), "Booster: event.purged", "event: UFC-300"))

	assert.Equal(t, "/botsecret-token/sendMessage", path)
	assert.Equal(t, "-100123", got.ChatID)
	assert.Equal(t, "*Booster: event.purged*\nevent: UFC-300", got.Text)
	assert.True(t, got.DisablePreview)
	assert.Equal(t, "telegram", s.Name())
}

func TestDiscordSender(t *testing.T) {
	var got discordMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewDiscordSender(srv.URL)
	require.NoError(t, s.Send(context.Background(), "Booster: event.archived", "event: UFC-300\npath: archives/3/UFC-300.json"))

	require.Len(t, got.Embeds, 1)
	assert.Equal(t, "Booster: event.archived", got.Embeds[0].Title)
	assert.Equal(t, "event: UFC-300\npath: archives/3/UFC-300.json", got.Embeds[0].Description)
	assert.Equal(t, discordAlertColor, got.Embeds[0].Color)
	assert.Equal(t, "discord", s.Name())
}

func TestSenderRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid webhook token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := NewDiscordSender(srv.URL).Send(context.Background(), "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
