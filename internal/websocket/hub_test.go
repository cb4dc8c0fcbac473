package websocket

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

type stubParser struct {
	userID uuid.UUID
	err    error
}

func (p stubParser) ParseToken(tokenStr string) (uuid.UUID, string, error) {
	return p.userID, "learner", p.err
}

func TestHandleWebSocket_RequiresToken(t *testing.T) {
	hub := NewHub(nil, stubParser{userID: uuid.New()})

	rr := httptest.NewRecorder()
	hub.HandleWebSocket(rr, httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}

func TestHandleWebSocket_RejectsInvalidToken(t *testing.T) {
	hub := NewHub(nil, stubParser{err: errors.New("token is expired")})

	rr := httptest.NewRecorder()
	hub.HandleWebSocket(rr, httptest.NewRequest(http.MethodGet, "/api/v1/ws?token=abc", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
	if n := hub.ConnectionCount(uuid.New()); n != 0 {
		t.Fatalf("expected no connections, got %d", n)
	}
}

func TestHandleWebSocket_RequiresUpgrade(t *testing.T) {
	userID := uuid.New()
	hub := NewHub(nil, stubParser{userID: userID})

	rr := httptest.NewRecorder()
	hub.HandleWebSocket(rr, httptest.NewRequest(http.MethodGet, "/api/v1/ws?token=valid", nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d for a plain HTTP request, got %d", http.StatusBadRequest, rr.Code)
	}
	if n := hub.ConnectionCount(userID); n != 0 {
		t.Fatalf("expected no registered connection, got %d", n)
	}
}
