package middleware_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodline/internal/platform/middleware"
	"bloodline/internal/token"
	"bloodline/pkg/domain"
	"bloodline/pkg/requestcontext"
)

type seenActor struct {
	ID   domain.ActorID
	Role domain.Role
}

func newAuthedHandler(t *testing.T, svc *token.Service) (http.Handler, *seenActor) {
	t.Helper()
	var seen seenActor
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.ID = requestcontext.ActorID(r.Context())
		seen.Role = requestcontext.Role(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	return middleware.RequireActor(svc, logger)(inner), &seen
}

func TestRequireActorAcceptsValidToken(t *testing.T) {
	svc := token.NewService("test-signing-key", "bloodline")
	actorID := domain.ActorID(uuid.New())
	tokenString, err := svc.Generate(actorID, domain.RoleManager, time.Hour)
	require.NoError(t, err)

	handler, seen := newAuthedHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/donations", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, actorID, seen.ID)
	assert.Equal(t, domain.RoleManager, seen.Role)
}

func TestRequireActorRejectsMissingHeader(t *testing.T) {
	svc := token.NewService("test-signing-key", "bloodline")
	handler, _ := newAuthedHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/donations", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "unauthorized")
}

func TestRequireActorRejectsBadToken(t *testing.T) {
	svc := token.NewService("test-signing-key", "bloodline")
	handler, _ := newAuthedHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/donations", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireActorRejectsExpiredToken(t *testing.T) {
	svc := token.NewService("test-signing-key", "bloodline")
	tokenString, err := svc.Generate(domain.ActorID(uuid.New()), domain.RoleNurse, -time.Minute)
	require.NoError(t, err)

	handler, _ := newAuthedHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/donations", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
