package text_api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPollinationsRequiresHost(t *testing.T) {
	_, err := NewPollinations(Config{})
	require.Error(t, err)
}

func TestPollinationsCompleteSendsInstructionAsPath(t *testing.T) {
	var gotPath string
	var gotMethod string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		_, _ = io.WriteString(w, `Sure! ["a", "b"]`)
	}))
	defer server.Close()

	api, err := NewPollinations(Config{Host: server.URL + "/"})
	require.NoError(t, err)

	body, err := api.Complete(context.Background(), "make \"a cat\" 5 ways/steps")
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, gotMethod)
	assert.Equal(t, "/make \"a cat\" 5 ways/steps", gotPath)
	assert.Equal(t, `Sure! ["a", "b"]`, body)
	assert.Equal(t, "pollinations", api.Name())
}

func TestPollinationsCompleteEscapesSlashes(t *testing.T) {
	var rawPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawPath = r.URL.EscapedPath()
	}))
	defer server.Close()

	api, err := NewPollinations(Config{Host: server.URL})
	require.NoError(t, err)

	_, err = api.Complete(context.Background(), "a/b c")
	require.NoError(t, err)

	assert.Equal(t, "/a%2Fb%20c", rawPath)
}

func TestPollinationsCompleteNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, "slow down")
	}))
	defer server.Close()

	api, err := NewPollinations(Config{Host: server.URL})
	require.NoError(t, err)

	_, err = api.Complete(context.Background(), "anything")
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Equal(t, "slow down", statusErr.Body)
	assert.True(t, errors.Is(err, &StatusError{}))
}

func TestPollinationsCompleteTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	api, err := NewPollinations(Config{Host: server.URL})
	require.NoError(t, err)

	_, err = api.Complete(context.Background(), "anything")
	require.Error(t, err)
	assert.False(t, errors.Is(err, &StatusError{}))
}
