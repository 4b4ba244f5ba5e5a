package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	gws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// dialPair upgrades a loopback connection and returns the server side
// wrapped in Conn plus the raw client side.
func dialPair(t *testing.T) (*Conn, *gws.Conn) {
	t.Helper()

	upgrader := gws.Upgrader{}
	serverConns := make(chan *Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sock, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- NewConn(sock)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := gws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	server := <-serverConns
	t.Cleanup(func() { server.Close() })
	return server, client
}

// A hub push (sweep worker goroutine) must be able to interleave with
// responses written from the connection's own read loop. Run under the
// race detector this fails loudly if either path bypasses the write
// lock.
func TestHubNotifyDuringConcurrentWrites(t *testing.T) {
	server, client := dialPair(t)

	hub := NewHub(zerolog.Nop())
	hub.Register(7, server)

	// Drain the client side so server writes never block on a full
	// buffer.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := client.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				server.WriteSuccess(map[string]string{"status": "saved"})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				hub.NotifyAutoSubmitted(7, "11111111-2222-3333-4444-555555555555")
			}
		}()
	}
	wg.Wait()

	server.Close()
	<-done
}

func TestHubRegisterDisplacesPrevious(t *testing.T) {
	first, firstClient := dialPair(t)
	second, secondClient := dialPair(t)

	hub := NewHub(zerolog.Nop())
	hub.Register(3, first)
	hub.Register(3, second)

	// The displaced socket is closed; its client sees EOF.
	if _, _, err := firstClient.ReadMessage(); err == nil {
		t.Fatal("displaced connection should be closed")
	}

	// Events land on the current socket only.
	hub.NotifyAutoSubmitted(3, "exam-1")
	var event AutoSubmittedEvent
	if err := secondClient.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event.Event != EventAutoSubmitted || event.ExamID != "exam-1" {
		t.Errorf("got %+v, want %s for exam-1", event, EventAutoSubmitted)
	}
}

func TestHubUnregisterOnlyDropsOwnConn(t *testing.T) {
	first, _ := dialPair(t)
	second, secondClient := dialPair(t)

	hub := NewHub(zerolog.Nop())
	hub.Register(5, first)
	hub.Register(5, second)

	// The displaced connection's deferred unregister must not evict the
	// replacement.
	hub.Unregister(5, first)

	hub.NotifyAutoSubmitted(5, "exam-2")
	var event AutoSubmittedEvent
	if err := secondClient.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event.ExamID != "exam-2" {
		t.Errorf("got exam %q, want exam-2", event.ExamID)
	}
}
