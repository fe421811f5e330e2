// ABOUTME: Tests for the Discord REST client.
// ABOUTME: Covers role endpoints, rate-limit conversion, and auth headers.

package discord

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddGuildMemberRole_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/guilds/g1/members/u1/roles/r1", r.URL.Path)
		assert.Equal(t, "Bot test-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get(auditLogReasonHeader))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL, "test-token", 5*time.Second)
	ok, err := c.AddGuildMemberRole(context.Background(), "g1", "u1", "r1", "verified")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAddGuildMemberRole_Forbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL, "test-token", 5*time.Second)
	ok, err := c.AddGuildMemberRole(context.Background(), "g1", "u1", "r1", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoveGuildMemberRole_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL, "test-token", 5*time.Second)
	ok, err := c.RemoveGuildMemberRole(context.Background(), "g1", "u1", "r1", "unauthed")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRatelimit_SurfacesRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL, "test-token", 5*time.Second)
	_, err := c.AddGuildMemberRole(context.Background(), "g1", "u1", "r1", "")
	require.Error(t, err)

	var rlErr *RatelimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, 7, rlErr.RetryAfter)
}

func TestGetGuild_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/guilds/g1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "g1", "name": "Test Guild", "owner_id": "owner-1"}`))
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL, "test-token", 5*time.Second)
	guild, err := c.GetGuild(context.Background(), "g1")
	require.NoError(t, err)
	require.NotNil(t, guild)
	assert.Equal(t, "owner-1", guild.OwnerID)
}

func TestGetGuildMember_AbsentOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL, "test-token", 5*time.Second)
	member, err := c.GetGuildMember(context.Background(), "g1", "u1")
	require.NoError(t, err)
	assert.Nil(t, member)
}

func TestCreateChannelMessage_ReturnsID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/channels/c1/messages", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "msg-1"}`))
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL, "test-token", 5*time.Second)
	id, err := c.CreateChannelMessage(context.Background(), "c1", CreateMessage{Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
}
