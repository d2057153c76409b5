package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"skillswap/internal/storage"
)

func dialHub(t *testing.T, hub *Hub, user, conversation int64) *websocket.Conn {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn, user, conversation)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestHubReplaysRecentMessages(t *testing.T) {
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	hub := NewHub(logger.Sugar())

	// broadcast lands in the replay ring before anyone subscribes
	hub.BroadcastMessage(storage.Message{ID: 1, ConversationID: 4, ReceiverID: 41, Content: "early"})

	conn := dialHub(t, hub, 41, 4)

	ev := readEvent(t, conn)
	require.Equal(t, EventMessage, ev.Type)
	require.NotNil(t, ev.Message)
	require.Equal(t, int64(1), ev.Message.ID)
	require.Equal(t, "early", ev.Message.Content)
}

func TestHubBroadcastToConversation(t *testing.T) {
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	hub := NewHub(logger.Sugar())

	hub.BroadcastMessage(storage.Message{ID: 1, ConversationID: 4, ReceiverID: 41, Content: "first"})

	conn := dialHub(t, hub, 41, 4)
	// once the replay arrives the subscription is live
	require.Equal(t, int64(1), readEvent(t, conn).Message.ID)

	hub.BroadcastMessage(storage.Message{ID: 2, ConversationID: 4, ReceiverID: 41, Content: "second"})

	ev := readEvent(t, conn)
	require.Equal(t, int64(2), ev.Message.ID)
}

func TestHubBroadcastOfferUpdate(t *testing.T) {
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	hub := NewHub(logger.Sugar())

	hub.BroadcastMessage(storage.Message{ID: 1, ConversationID: 4, ReceiverID: 41})

	conn := dialHub(t, hub, 41, 4)
	readEvent(t, conn)

	hub.BroadcastOfferUpdate(storage.Offer{ID: 5, ConversationID: 4, Status: storage.OfferAccepted})

	ev := readEvent(t, conn)
	require.Equal(t, EventOfferUpdate, ev.Type)
	require.NotNil(t, ev.Offer)
	require.Equal(t, storage.OfferAccepted, ev.Offer.Status)
}

func TestHubDuplicateBroadcastNotReplayedTwice(t *testing.T) {
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	hub := NewHub(logger.Sugar())

	hub.BroadcastMessage(storage.Message{ID: 1, ConversationID: 4, ReceiverID: 41})
	hub.BroadcastMessage(storage.Message{ID: 1, ConversationID: 4, ReceiverID: 41})

	conn := dialHub(t, hub, 41, 4)

	require.Equal(t, int64(1), readEvent(t, conn).Message.ID)

	// the ring holds the message once, so nothing else arrives
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	var ev Event
	require.Error(t, conn.ReadJSON(&ev))
}
