package smartreply

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSuggestParsesLineSeparatedReplies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{"choices":[{"message":{"content":"Sounds good!\n\n  See you then.\nThanks for letting me know.\nExtra line"}}]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key")
	c.endpoint = srv.URL

	suggestions, err := c.Suggest(context.Background(), "Dinner at 8?")
	require.NoError(t, err)
	require.Equal(t, []string{"Sounds good!", "See you then.", "Thanks for letting me know."}, suggestions)
}

func TestSuggestSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	c := NewClient("test-key")
	c.endpoint = srv.URL

	_, err := c.Suggest(context.Background(), "hi")
	require.ErrorContains(t, err, "rate limited")
}

func TestSuggestEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"\n\n"}}]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key")
	c.endpoint = srv.URL

	_, err := c.Suggest(context.Background(), "hi")
	require.ErrorIs(t, err, ErrNoSuggestions)
}
