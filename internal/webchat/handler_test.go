package webchat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/marketier-assistant/internal/booking"
	"github.com/wolfman30/marketier-assistant/internal/conversation"
	"github.com/wolfman30/marketier-assistant/pkg/logging"
)

func newTestServer(t *testing.T) (*httptest.Server, *conversation.Service, *Handler) {
	t.Helper()
	logger := logging.Discard()
	flow := conversation.NewBookingFlow(nil, booking.DefaultSlotPolicy(time.UTC), "", logger)
	svc := conversation.NewService(conversation.NewController(flow, nil, logger), conversation.NewMemorySessionStore(time.Hour), nil, logger)
	h := NewHandler(svc, logger)

	r := chi.NewRouter()
	r.Get("/chat/ws/{sessionID}", h.HandleWebSocket)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, svc, h
}

func dial(t *testing.T, srv *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws/" + sessionID
	conn, err := websocket.Dial(url, "", srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func receive(t *testing.T, conn *websocket.Conn) OutboundFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var frame OutboundFrame
	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	return frame
}

func send(t *testing.T, conn *websocket.Conn, frame InboundFrame) OutboundFrame {
	t.Helper()
	require.NoError(t, websocket.JSON.Send(conn, frame))
	typing := receive(t, conn)
	require.Equal(t, FrameTyping, typing.Type)
	return receive(t, conn)
}

func TestWebSocket_BookingConversation(t *testing.T) {
	srv, svc, _ := newTestServer(t)
	session, err := svc.StartSession(context.Background())
	require.NoError(t, err)

	conn := dial(t, srv, session.ID)
	hello := receive(t, conn)
	assert.Equal(t, FrameSession, hello.Type)
	assert.Equal(t, session.ID, hello.SessionID)
	require.Len(t, hello.Messages, 1)
	assert.Len(t, hello.QuickActions, 4)

	reply := send(t, conn, InboundFrame{Type: "quick_action", Action: "Schedule"})
	require.Equal(t, FrameReply, reply.Type)
	assert.Equal(t, conversation.FlowCollecting, reply.FlowState)

	reply = send(t, conn, InboundFrame{Type: "message", Text: "Jane Doe\njane@example.com\nAcme Inc\n555-123-4567"})
	require.Equal(t, FrameReply, reply.Type)
	require.NotNil(t, reply.Message)
	assert.Equal(t, conversation.KindTimeSelection, reply.Message.Kind)
	require.NotEmpty(t, reply.Message.Slots)

	reply = send(t, conn, InboundFrame{Type: "select_slot", SlotID: reply.Message.Slots[0].ID})
	require.Equal(t, FrameReply, reply.Type)
	assert.Equal(t, conversation.KindBookingConfirmed, reply.Message.Kind)
	assert.Equal(t, conversation.FlowIdle, reply.FlowState)

	stored, err := svc.Session(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Messages, 7)
}

func TestWebSocket_ErrorsAndPing(t *testing.T) {
	srv, svc, _ := newTestServer(t)
	session, err := svc.StartSession(context.Background())
	require.NoError(t, err)

	conn := dial(t, srv, session.ID)
	receive(t, conn)

	require.NoError(t, websocket.JSON.Send(conn, InboundFrame{Type: "ping"}))
	assert.Equal(t, FramePong, receive(t, conn).Type)

	frame := send(t, conn, InboundFrame{Type: "message", Text: "   "})
	assert.Equal(t, FrameError, frame.Type)
	assert.Equal(t, "Invalid input", frame.Error)

	frame = send(t, conn, InboundFrame{Type: "dance"})
	assert.Equal(t, FrameError, frame.Type)

	frame = send(t, conn, InboundFrame{Type: "message", Text: "How much does it cost?"})
	require.Equal(t, FrameReply, frame.Type)
	assert.Equal(t, conversation.SourceFallback, frame.Message.Source)
}

func TestWebSocket_UnknownSession(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/chat/ws/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebSocket_NewConnectionReplacesOld(t *testing.T) {
	srv, svc, h := newTestServer(t)
	session, err := svc.StartSession(context.Background())
	require.NoError(t, err)

	first := dial(t, srv, session.ID)
	receive(t, first)
	second := dial(t, srv, session.ID)
	receive(t, second)

	assert.Equal(t, FrameReplaced, receive(t, first).Type)
	assert.Eventually(t, func() bool { return h.ActiveConnections() == 1 }, 2*time.Second, 10*time.Millisecond)
}
