package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mmuslimabdulj/inscribe/internal/domain"
	"github.com/mmuslimabdulj/inscribe/internal/logger"
	"github.com/mmuslimabdulj/inscribe/internal/repository"
	"github.com/mmuslimabdulj/inscribe/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("connection refused")

// blockingUsers never answers before ctx is done
type blockingUsers struct{ repository.UserRepository }

func (blockingUsers) GetByID(ctx context.Context, _ string) (*domain.User, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// brokenUsers fails every lookup
type brokenUsers struct{ repository.UserRepository }

func (brokenUsers) GetByID(context.Context, string) (*domain.User, error) {
	return nil, errStoreDown
}

type server struct {
	hub    *Hub
	tokens *SessionStore
	url    string
}

func newServer(t *testing.T, users repository.UserRepository, policy usecase.StoreFailurePolicy, opts Options) *server {
	t.Helper()

	log := logger.Discard()
	store := repository.NewMemoryStore()
	if users == nil {
		users = store.Users
	}
	sessions := usecase.NewSessionRegistry(users, usecase.NewPersonaGenerator(), policy, log)
	hub := NewHub(sessions, store, nil, opts, log)
	tokens := NewSessionStore(time.Hour)
	hub.SetSessionStore(tokens)
	go hub.Run()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Connect(conn, r.URL.Query().Get("token"))
	}))
	t.Cleanup(func() {
		srv.Close()
		hub.Stop()
		tokens.Close()
	})

	return &server{hub: hub, tokens: tokens, url: "ws" + strings.TrimPrefix(srv.URL, "http")}
}

func (s *server) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()

	url := s.url
	if token != "" {
		url += "?token=" + token
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) domain.Message {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg domain.Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func readType(t *testing.T, conn *websocket.Conn, want domain.MessageType, v any) {
	t.Helper()

	msg := read(t, conn)
	require.Equal(t, want, msg.Type, "payload: %s", msg.Payload)
	if v != nil {
		require.NoError(t, json.Unmarshal(msg.Payload, v))
	}
}

func write(t *testing.T, conn *websocket.Conn, typ domain.MessageType, payload string) {
	t.Helper()

	frame := `{"type":"` + string(typ) + `","payload":` + payload + `}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

// connect dials and consumes the init and session messages
func (s *server) connect(t *testing.T, token string) (*websocket.Conn, domain.InitPayload, string) {
	t.Helper()

	conn := s.dial(t, token)
	var init domain.InitPayload
	readType(t, conn, domain.MessageTypeInit, &init)
	var session domain.SessionPayload
	readType(t, conn, domain.MessageTypeSession, &session)
	return conn, init, session.Token
}

func TestConnect_TwoClientsDrawAndLeave(t *testing.T) {
	s := newServer(t, nil, usecase.Degrade, Options{})

	a, initA, _ := s.connect(t, "")
	require.Len(t, initA.Users, 1)
	idA := initA.Users[0].ID

	b, initB, _ := s.connect(t, "")
	require.Len(t, initB.Users, 2)
	assert.Equal(t, idA, initB.Users[0].ID)
	idB := initB.Users[1].ID

	var joined domain.UserInfo
	readType(t, a, domain.MessageTypeUserJoined, &joined)
	assert.Equal(t, initB.Users[1], joined)

	write(t, a, domain.MessageTypeDraw, `{"x":10.5,"y":"20","color":"<i>#fff</i>","size":500}`)

	var ev domain.DrawEvent
	readType(t, b, domain.MessageTypeDraw, &ev)
	assert.Equal(t, domain.DrawEvent{X: 10.5, Y: 20, Color: "#fff", Size: 50, Type: "draw"}, ev)
	assert.Equal(t, 1, s.hub.HistoryLen())

	write(t, b, domain.MessageTypeChat, `{"message":"hello"}`)
	var chat domain.ChatMessage
	readType(t, a, domain.MessageTypeChat, &chat)
	assert.Equal(t, idB, chat.UserID)
	readType(t, b, domain.MessageTypeChat, &chat)
	assert.Equal(t, "hello", chat.Message)

	require.NoError(t, a.Close())

	var left domain.UserLeftPayload
	readType(t, b, domain.MessageTypeUserLeft, &left)
	assert.Equal(t, idA, left.ID)
	assert.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestConnect_TokenReclaimsIdentity(t *testing.T) {
	s := newServer(t, nil, usecase.Degrade, Options{})

	first, init, token := s.connect(t, "")
	require.NotEmpty(t, token)
	me := init.Users[0]

	// Still connected: the token does not hijack the live session
	_, dup, _ := s.connect(t, token)
	assert.NotEqual(t, me.ID, dup.Users[len(dup.Users)-1].ID)
	readType(t, first, domain.MessageTypeUserJoined, nil)

	first.Close()
	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	_, again, _ := s.connect(t, token)
	assert.Equal(t, me, again.Users[len(again.Users)-1])
}

func TestConnect_UnknownTokenGetsFreshIdentity(t *testing.T) {
	s := newServer(t, nil, usecase.Degrade, Options{})

	_, init, token := s.connect(t, "not-a-token")
	assert.NotEmpty(t, token)
	assert.NotEqual(t, "not-a-token", init.Users[0].ID)
}

func TestConnect_JoinTimeoutClosesSocket(t *testing.T) {
	s := newServer(t, blockingUsers{}, usecase.Degrade, Options{JoinTimeout: 50 * time.Millisecond})

	conn := s.dial(t, "")
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()

	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
	assert.Equal(t, 0, s.hub.ClientCount())
}

func TestConnect_StoreDownRejects(t *testing.T) {
	s := newServer(t, brokenUsers{}, usecase.Reject, Options{})

	conn := s.dial(t, "")
	var notice domain.ErrorPayload
	readType(t, conn, domain.MessageTypeError, &notice)
	assert.Equal(t, internalErrorNotice, notice.Message)

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseInternalServerErr), "got %v", err)
	assert.Equal(t, 0, s.hub.ClientCount())
}

func TestConnect_StoreDownDegrades(t *testing.T) {
	s := newServer(t, brokenUsers{}, usecase.Degrade, Options{})

	_, init, _ := s.connect(t, "")
	require.Len(t, init.Users, 1)
	assert.True(t, strings.HasPrefix(init.Users[0].Name, "User"))
}

func TestConnect_OversizedFrameDisconnects(t *testing.T) {
	s := newServer(t, nil, usecase.Degrade, Options{MaxMessageSize: 64})

	a, _, _ := s.connect(t, "")
	write(t, a, domain.MessageTypeChat, `{"message":"`+strings.Repeat("x", 128)+`"}`)

	assert.Eventually(t, func() bool { return s.hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}
