// ABOUTME: Tests for the awful-auth API client.
// ABOUTME: Uses httptest servers to exercise each status-code branch of the contract.

package authapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueChallenge_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/goon_auth/verification", r.URL.Path)
		assert.Equal(t, "TestGoon", r.URL.Query().Get("user_name"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"user_name": "TestGoon", "hash": "abc123def"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	challenge, err := c.IssueChallenge(context.Background(), "TestGoon")
	require.NoError(t, err)
	require.NotNil(t, challenge)
	assert.Equal(t, "TestGoon", challenge.UserName)
	assert.Equal(t, "abc123def", challenge.Hash)
}

func TestIssueChallenge_InvalidName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	challenge, err := c.IssueChallenge(context.Background(), "x")
	assert.ErrorIs(t, err, ErrInvalidName)
	assert.Nil(t, challenge)
}

func TestIssueChallenge_AbsentOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	challenge, err := c.IssueChallenge(context.Background(), "TestGoon")
	require.NoError(t, err)
	assert.Nil(t, challenge)
}

func TestPollVerification_NotYetValidated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/goon_auth/verification/update", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"validated": false}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	status, err := c.PollVerification(context.Background(), "TestGoon")
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.False(t, status.Validated)
}

func TestPollVerification_Validated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"validated": true,
			"user_name": "TestGoon",
			"user_id": 42,
			"register_date": "2004-07-01T00:00:00Z"
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	status, err := c.PollVerification(context.Background(), "TestGoon")
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.True(t, status.Validated)
	assert.Equal(t, int64(42), status.UserID)
	assert.Equal(t, "TestGoon", status.UserName)
	require.NotNil(t, status.RegisterDate)
	assert.Equal(t, 2004, status.RegisterDate.Year())
	assert.Nil(t, status.Permabanned)
}

func TestPollVerification_UnknownChallenge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "unknown hash for supplied username"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	status, err := c.PollVerification(context.Background(), "TestGoon")
	assert.ErrorIs(t, err, ErrUnknownChallenge)
	assert.Nil(t, status)
}

func TestPollVerification_BareNotFoundIsAbsent(t *testing.T) {
	// A 404 without a message body is not the unknown-challenge signal
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	status, err := c.PollVerification(context.Background(), "TestGoon")
	require.NoError(t, err)
	assert.Nil(t, status)
}

func TestPollVerification_InvalidName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	status, err := c.PollVerification(context.Background(), "???")
	assert.ErrorIs(t, err, ErrInvalidName)
	assert.Nil(t, status)
}

func TestPollVerification_Permabanned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"validated": true,
			"user_name": "BadGoon",
			"user_id": 13,
			"register_date": "2010-01-02T00:00:00Z",
			"permabanned": "2020-06-15T12:00:00Z"
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	status, err := c.PollVerification(context.Background(), "BadGoon")
	require.NoError(t, err)
	require.NotNil(t, status.Permabanned)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(srv.URL, 20*time.Millisecond)
	_, err := c.IssueChallenge(context.Background(), "TestGoon")
	require.Error(t, err)
}
