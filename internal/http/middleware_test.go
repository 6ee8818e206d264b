package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-reservation/internal/application"
	"github.com/example/room-reservation/internal/scheduler"
)

type authenticatorStub struct {
	actors map[string]scheduler.Actor
	err    error
}

func (s authenticatorStub) Authenticate(ctx context.Context, token string) (scheduler.Actor, error) {
	if s.err != nil {
		return scheduler.Actor{}, s.err
	}
	actor, ok := s.actors[token]
	if !ok {
		return scheduler.Actor{}, application.ErrInvalidToken
	}
	return actor, nil
}

func TestRequireActor(t *testing.T) {
	professor := scheduler.Actor{ID: "p1", Role: scheduler.RoleProfessor}
	stub := authenticatorStub{actors: map[string]scheduler.Actor{"good": professor}}

	var seen scheduler.Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireActor(stub, nil)(next)

	tests := []struct {
		name   string
		header string
		cookie *http.Cookie
		status int
	}{
		{name: "missing credentials", status: http.StatusUnauthorized},
		{name: "malformed header", header: "Token good", status: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer bad", status: http.StatusUnauthorized},
		{name: "bearer header", header: "Bearer good", status: http.StatusNoContent},
		{name: "lowercase scheme", header: "bearer good", status: http.StatusNoContent},
		{name: "session cookie", cookie: &http.Cookie{Name: sessionCookieName, Value: "good"}, status: http.StatusNoContent},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seen = scheduler.Actor{}
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != nil {
				req.AddCookie(tc.cookie)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusNoContent {
				assert.Equal(t, professor, seen)
			} else {
				assert.Zero(t, seen)
			}
		})
	}

	t.Run("directory failure is a server error", func(t *testing.T) {
		failing := RequireActor(authenticatorStub{err: errors.New("db down")}, nil)(next)
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		failing.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestRequestLoggerAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	var scoped *slog.Logger
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scoped = LoggerFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rooms", nil))
	require.NotNil(t, scoped)
	id := rec.Header().Get("X-Request-ID")
	assert.Len(t, id, 36)
	assert.Contains(t, buf.String(), "request_id="+id)
	assert.Contains(t, buf.String(), "status=418")

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	req.Header.Set("X-Request-ID", "given-id")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "given-id", rec.Header().Get("X-Request-ID"))
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	handler := Recover(slog.New(slog.NewTextHandler(&buf, nil)))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestSplitResourcePath(t *testing.T) {
	tests := map[string][2]string{
		"/reservations/r1":         {"r1", ""},
		"/reservations/r1/":        {"r1", ""},
		"/reservations/r1/confirm": {"r1", "confirm"},
		"/reservations/r1/a/b":     {"", ""},
		"/reservations/":           {"", ""},
	}
	for path, want := range tests {
		id, action := splitResourcePath(path, "/reservations/")
		assert.Equal(t, want, [2]string{id, action}, path)
	}
}
