package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	t.Run("known template", func(t *testing.T) {
		msg, err := Render(TemplateDepositConfirmed, "ana@example.com", map[string]any{
			"name": "Ana", "reference": "DEP-1", "amount": "100.00", "balance": "250.00",
		})
		require.NoError(t, err)
		assert.Equal(t, "ana@example.com", msg.To)
		assert.Equal(t, "Deposit confirmed", msg.Subject)
		assert.Contains(t, msg.HTML, "Hello Ana")
		assert.Contains(t, msg.HTML, "DEP-1")
		assert.Contains(t, msg.HTML, "250.00")
	})

	t.Run("escapes html", func(t *testing.T) {
		msg, err := Render(TemplateGeneric, "a@b.c", map[string]any{"message": "<script>x</script>", "subject": "Heads up"})
		require.NoError(t, err)
		assert.Equal(t, "Heads up", msg.Subject)
		assert.NotContains(t, msg.HTML, "<script>")
	})

	t.Run("unknown template", func(t *testing.T) {
		_, err := Render("nope", "a@b.c", nil)
		assert.ErrorIs(t, err, ErrUnknownTemplate)
	})
}

func TestHTTPSender(t *testing.T) {
	var got apiPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewHTTPSender(srv.URL, "key-123", "noreply@example.com")
	err := sender.Send(context.Background(), Message{To: "ana@example.com", Subject: "Hi", HTML: "<p>hi</p>"})
	require.NoError(t, err)
	assert.Equal(t, "noreply@example.com", got.From)
	assert.Equal(t, []string{"ana@example.com"}, got.To)
	assert.Equal(t, "Hi", got.Subject)
}

func TestHTTPSenderProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := NewHTTPSender(srv.URL, "k", "f@example.com").Send(context.Background(), Message{To: "a@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "quota exceeded")
}
