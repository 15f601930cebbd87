package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// dialTestServer starts a WebSocket server running handle on the server
// side of each connection and returns a client dialled to it.
func dialTestServer(t *testing.T, maxMessageSize int64, handle func(*websocket.Conn)) *WebSocketClient {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewWebSocketClient(conn, maxMessageSize)
}

func TestWebSocketClient_ReadLine_SkipsEmptyMessages(t *testing.T) {
	client := dialTestServer(t, 0, func(conn *websocket.Conn) {
		for _, msg := range []string{"", "   ", "\n\n\n", "descend"} {
			conn.WriteMessage(websocket.TextMessage, []byte(msg))
		}
		time.Sleep(100 * time.Millisecond)
	})

	line, err := client.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine failed: %v", err)
	}
	if line != "descend" {
		t.Errorf("ReadLine() = %q, want %q", line, "descend")
	}
}

func TestWebSocketClient_ReadLine_MultiLineMessage(t *testing.T) {
	client := dialTestServer(t, 0, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte("e\n  clear \nloot"))
		time.Sleep(100 * time.Millisecond)
	})

	for _, want := range []string{"e", "clear", "loot"} {
		got, err := client.ReadLine()
		if err != nil {
			t.Fatalf("ReadLine failed: %v", err)
		}
		if got != want {
			t.Errorf("ReadLine() = %q, want %q", got, want)
		}
	}
}

func TestWebSocketClient_ReadLimit(t *testing.T) {
	client := dialTestServer(t, 16, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(strings.Repeat("x", 64)))
		time.Sleep(100 * time.Millisecond)
	})

	if _, err := client.ReadLine(); err == nil {
		t.Error("an oversized message should fail the read")
	}
}

func TestWebSocketClient_ConcurrentWrites(t *testing.T) {
	const writers, perWriter = 8, 20
	received := make(chan string, writers*perWriter)

	client := dialTestServer(t, 0, func(conn *websocket.Conn) {
		for i := 0; i < writers*perWriter; i++ {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- string(msg)
		}
	})

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if err := client.WriteLine(fmt.Sprintf("notice %d-%d", w, i)); err != nil {
					t.Errorf("WriteLine failed: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	timeout := time.After(2 * time.Second)
	for i := 0; i < writers*perWriter; i++ {
		select {
		case msg := <-received:
			if !strings.HasPrefix(msg, "notice ") {
				t.Fatalf("garbled message %q", msg)
			}
		case <-timeout:
			t.Fatalf("received %d of %d messages", i, writers*perWriter)
		}
	}
	if client.RemoteAddr() == "" {
		t.Error("RemoteAddr should not be empty")
	}
}
