package realtime

import (
	"bufio"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/openacademy/trilhas-backend/internal/platform/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestSSEHubOrderingAndReconnect(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t), nil)
	channel := TurmaChannel("42")

	clientA := hub.NewSSEClient("1")
	hub.AddChannel(clientA, channel)

	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventInscriptionCreated, Data: map[string]any{"seq": 1}})
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventTurmaCountsChanged, Data: map[string]any{"seq": 2}})

	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != SSEEventInscriptionCreated {
		t.Fatalf("first event: got=%s", got.Event)
	}
	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != SSEEventTurmaCountsChanged {
		t.Fatalf("second event: got=%s", got.Event)
	}

	hub.CloseClient(clientA)
	hub.CloseClient(clientA)
	if _, ok := <-clientA.Outbound; ok {
		t.Fatalf("clientA outbound should be closed after disconnect")
	}
	if n := hub.Subscribers(channel); n != 0 {
		t.Fatalf("subscribers after close: %d", n)
	}

	clientB := hub.NewSSEClient("1")
	hub.AddChannel(clientB, channel)
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventInscriptionUpdated})
	if got := recvMessage(t, clientB.Outbound, time.Second); got.Event != SSEEventInscriptionUpdated {
		t.Fatalf("reconnect event: got=%s", got.Event)
	}
}

func TestSSEHubIsolatesChannelsAndDropsWhenFull(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t), nil)
	ana := hub.NewSSEClient("1")
	bia := hub.NewSSEClient("2")
	hub.AddChannel(ana, UserChannel("1"))
	hub.AddChannel(bia, UserChannel("2"))

	for i := 0; i < cap(ana.Outbound)+5; i++ {
		hub.Broadcast(SSEMessage{Channel: UserChannel("1"), Event: SSEEventUserVerified})
	}
	if len(ana.Outbound) != cap(ana.Outbound) {
		t.Fatalf("buffer should be full, len=%d", len(ana.Outbound))
	}
	if len(bia.Outbound) != 0 {
		t.Fatalf("other user's channel must stay empty")
	}

	hub.RemoveChannel(bia, UserChannel("2"))
	if hub.Subscribers(UserChannel("2")) != 0 {
		t.Fatalf("RemoveChannel should drop the subscription")
	}
}

func TestSSEHubServeHTTPWritesEvents(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t), nil)
	client := hub.NewSSEClient("1")
	hub.AddChannel(client, UserChannel("1"))

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/api/sse/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		hub.ServeHTTP(rec, req, client)
		close(done)
	}()
	hub.Broadcast(SSEMessage{Channel: UserChannel("1"), Event: SSEEventInscriptionCreated, Data: map[string]any{"id": "7"}})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type: %q", ct)
	}
	var sawEvent, sawData bool
	sc := bufio.NewScanner(strings.NewReader(rec.Body.String()))
	for sc.Scan() {
		line := sc.Text()
		if line == "event: InscriptionCreated" {
			sawEvent = true
		}
		if strings.HasPrefix(line, "data: ") && strings.Contains(line, `"id":"7"`) {
			sawData = true
		}
	}
	if !sawEvent || !sawData {
		t.Fatalf("unexpected stream body: %q", rec.Body.String())
	}
}

type fakeForwarder struct {
	msgs []SSEMessage
	err  error
}

func (f *fakeForwarder) Publish(_ context.Context, msg SSEMessage) error {
	f.msgs = append(f.msgs, msg)
	return f.err
}

func TestNotifierPrefersForwarderAndFallsBack(t *testing.T) {
	log := mustTestLogger(t)
	hub := NewSSEHub(log, nil)
	client := hub.NewSSEClient("1")
	hub.AddChannel(client, StaffChannel)

	fwd := &fakeForwarder{}
	NewNotifier(hub, fwd, log).Publish(context.Background(), SSEMessage{Channel: StaffChannel, Event: SSEEventTurmaStarted}, SSEMessage{})
	if len(fwd.msgs) != 1 || len(client.Outbound) != 0 {
		t.Fatalf("forwarder should carry the message: fwd=%d local=%d", len(fwd.msgs), len(client.Outbound))
	}

	fwd.err = context.DeadlineExceeded
	NewNotifier(hub, fwd, log).Publish(context.Background(), SSEMessage{Channel: StaffChannel, Event: SSEEventTurmaStarted})
	if got := recvMessage(t, client.Outbound, time.Second); got.Event != SSEEventTurmaStarted {
		t.Fatalf("fallback delivery: got=%s", got.Event)
	}
}
