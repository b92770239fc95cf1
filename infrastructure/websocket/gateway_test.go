package websocket

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/services"
)

type testServer struct {
	server     *httptest.Server
	repository *repositories.MessageRepository
	registry   *runtime.Registry
}

func startTestServer(t *testing.T, backlogLimit int) *testServer {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	registry := runtime.NewRegistry()
	repository := repositories.NewMessageRepository(db, log)
	relay := runtime.NewRelay(log, repository, registry, 32, time.Second, time.Second)
	service := services.NewRelayService(relay, registry, repository)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = relay.Run(ctx) }()

	gateway := NewGateway(log, service, 32, backlogLimit)
	server := httptest.NewServer(gateway.Handler())
	t.Cleanup(server.Close)

	return &testServer{server: server, repository: repository, registry: registry}
}

func (ts *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame map[string]any
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var frame map[string]any
	require.Error(t, conn.ReadJSON(&frame))
}

func send(t *testing.T, conn *websocket.Conn, author, body string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]string{
		"event": "send-message", "author": author, "body": body,
	}))
}

func Test_Message_Is_Broadcast_To_All_Clients_Including_Sender(t *testing.T) {
	req := require.New(t)
	ts := startTestServer(t, 0)
	connA := ts.dial(t)
	connB := ts.dial(t)
	req.Eventually(func() bool { return ts.registry.Len() == 2 },
		time.Second, 10*time.Millisecond)

	send(t, connA, "alice", "hello")

	for _, conn := range []*websocket.Conn{connA, connB} {
		frame := readFrame(t, conn)
		req.Equal("message", frame["event"])
		req.Equal("alice", frame["author"])
		req.Equal("hello", frame["body"])
		req.NotEmpty(frame["id"])
		req.NotEmpty(frame["createdAt"])
	}

	// The broadcast content was durably persisted first
	messages, err := ts.repository.Recent(10)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("alice", messages[0].Author)
}

func Test_Empty_Author_Rejected_To_Sender_Only(t *testing.T) {
	req := require.New(t)
	ts := startTestServer(t, 0)
	connA := ts.dial(t)
	connB := ts.dial(t)
	req.Eventually(func() bool { return ts.registry.Len() == 2 },
		time.Second, 10*time.Millisecond)

	send(t, connA, "", "hi")

	frame := readFrame(t, connA)
	req.Equal("error", frame["event"])
	req.Equal("validation", frame["code"])

	expectSilence(t, connB)

	messages, err := ts.repository.Recent(10)
	req.NoError(err)
	req.Empty(messages)
}

func Test_Empty_Body_Rejected_To_Sender_Only(t *testing.T) {
	req := require.New(t)
	ts := startTestServer(t, 0)
	connA := ts.dial(t)

	send(t, connA, "a", "")

	frame := readFrame(t, connA)
	req.Equal("error", frame["event"])
	req.Equal("validation", frame["code"])
}

func Test_Malformed_Frame_Rejected(t *testing.T) {
	req := require.New(t)
	ts := startTestServer(t, 0)
	conn := ts.dial(t)

	req.NoError(conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	frame := readFrame(t, conn)
	req.Equal("error", frame["event"])
	req.Equal("validation", frame["code"])
}

func Test_Disconnected_Client_Does_Not_Break_Broadcast(t *testing.T) {
	req := require.New(t)
	ts := startTestServer(t, 0)
	connA := ts.dial(t)
	connB := ts.dial(t)
	connC := ts.dial(t)
	req.Eventually(func() bool { return ts.registry.Len() == 3 },
		time.Second, 10*time.Millisecond)

	req.NoError(connB.Close())
	req.Eventually(func() bool { return ts.registry.Len() == 2 },
		time.Second, 10*time.Millisecond)

	send(t, connA, "alice", "still here")

	for _, conn := range []*websocket.Conn{connA, connC} {
		frame := readFrame(t, conn)
		req.Equal("message", frame["event"])
		req.Equal("still here", frame["body"])
	}
}

func Test_New_Client_Receives_Backlog_In_Order(t *testing.T) {
	req := require.New(t)
	ts := startTestServer(t, 10)

	bodies := []string{"first", "second", "third"}
	for _, body := range bodies {
		_, err := ts.repository.Append(context.Background(), "alice", body)
		req.NoError(err)
	}

	conn := ts.dial(t)
	for _, body := range bodies {
		frame := readFrame(t, conn)
		req.Equal("message", frame["event"])
		req.Equal(body, frame["body"])
	}
}

func Test_Sender_Order_Is_Preserved_Across_Clients(t *testing.T) {
	req := require.New(t)
	ts := startTestServer(t, 0)
	connA := ts.dial(t)
	connB := ts.dial(t)
	req.Eventually(func() bool { return ts.registry.Len() == 2 },
		time.Second, 10*time.Millisecond)

	bodies := []string{"one", "two", "three", "four", "five"}
	for _, body := range bodies {
		send(t, connA, "alice", body)
	}

	for _, body := range bodies {
		frame := readFrame(t, connB)
		req.Equal(body, frame["body"])
	}
}
