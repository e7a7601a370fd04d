package live

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"

	apperrors "github.com/louisbranch/duality-sheet/internal/platform/errors"
)

type recordingHandler struct {
	mu      sync.Mutex
	changed map[string][]map[string]any
	removed []string
}

func (h *recordingHandler) CharacterChanged(id string, patch map[string]any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.changed == nil {
		h.changed = map[string][]map[string]any{}
	}
	h.changed[id] = append(h.changed[id], patch)
}

func (h *recordingHandler) CharacterRemoved(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removed = append(h.removed, id)
}

func (h *recordingHandler) patches(id string) []map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]map[string]any(nil), h.changed[id]...)
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// startServer runs handler for every accepted connection, passing the
// zero-based connection index.
func startServer(t *testing.T, handler func(n int, conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	var count atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.CloseNow()
		handler(int(count.Add(1)-1), conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Errorf("read message: %v", err)
		return Message{}
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Errorf("decode message: %v", err)
	}
	return msg
}

func writeMessage(t *testing.T, conn *websocket.Conn, typ MessageType, version int64, data any) {
	t.Helper()
	msg, err := NewMessage(typ, data)
	if err != nil {
		t.Errorf("new message: %v", err)
		return
	}
	msg.Version = version
	payload, _ := json.Marshal(msg)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
		t.Logf("write message: %v (may be expected on close)", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func runClient(t *testing.T, client *Client) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()
	t.Cleanup(cancel)
	return cancel, done
}

func TestClientAppliesMessagesAndNotifiesHandler(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := startServer(t, func(_ int, conn *websocket.Conn) {
		if msg := readMessage(t, conn); msg.Type != TypeRejoin {
			t.Errorf("first message = %s, want rejoin", msg.Type)
		}
		writeMessage(t, conn, TypeStateSync, 7, syncedState())
		writeMessage(t, conn, TypeCharacterDiffUpdate, 8, CharacterPayload{
			ID:   "char-1",
			Data: map[string]any{"marked_hp": 2},
		})
		writeMessage(t, conn, TypeCharacterRemoved, 9, CharacterPayload{ID: "char-2"})
		<-release
	})
	defer close(release)

	handler := &recordingHandler{}
	client := NewClient(wsURL(srv), "camp-1", handler)
	runClient(t, client)

	waitFor(t, func() bool { return client.State().Version == 9 })
	state := client.State()
	if got := state.Characters["char-1"]["marked_hp"]; got != float64(2) {
		t.Fatalf("marked_hp = %v, want 2", got)
	}
	if got := state.Characters["char-1"]["name"]; got != "Ilse" {
		t.Fatalf("name = %v, want Ilse", got)
	}
	if _, ok := state.Characters["char-2"]; ok {
		t.Fatal("char-2 should be removed")
	}
	if patches := handler.patches("char-1"); len(patches) != 2 {
		t.Fatalf("char-1 patches = %d, want 2", len(patches))
	}
	handler.mu.Lock()
	removed := append([]string(nil), handler.removed...)
	handler.mu.Unlock()
	if len(removed) != 1 || removed[0] != "char-2" {
		t.Fatalf("removed = %v, want [char-2]", removed)
	}
	if client.Status() != StatusConnected {
		t.Fatalf("status = %s, want connected", client.Status())
	}
}

func TestClientReconnectsAndRejoinsWithVersion(t *testing.T) {
	t.Parallel()

	rejoined := make(chan RejoinPayload, 1)
	release := make(chan struct{})
	srv := startServer(t, func(n int, conn *websocket.Conn) {
		msg := readMessage(t, conn)
		if n == 0 {
			writeMessage(t, conn, TypeStateSync, 12, State{Fear: 3})
			time.Sleep(20 * time.Millisecond)
			conn.Close(websocket.StatusInternalError, "restarting")
			return
		}
		var payload RejoinPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			t.Errorf("decode rejoin: %v", err)
		}
		rejoined <- payload
		<-release
	})
	defer close(release)

	client := NewClient(wsURL(srv), "camp-1", nil, WithSchedule(2, 10*time.Millisecond, 20*time.Millisecond))
	runClient(t, client)

	select {
	case payload := <-rejoined:
		if payload.Version != 12 || payload.CampaignID != "camp-1" {
			t.Fatalf("rejoin = %+v, want version 12 for camp-1", payload)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("client did not reconnect")
	}
	waitFor(t, func() bool { return client.Status() == StatusConnected })
	if got := client.State().Fear; got != 3 {
		t.Fatalf("fear = %d, want 3 kept across reconnect", got)
	}
}

func TestClientGivesUpAfterSchedule(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	client := NewClient(url, "camp-1", nil, WithSchedule(2, 5*time.Millisecond))
	_, done := runClient(t, client)

	select {
	case err := <-done:
		if code := apperrors.CodeOf(err); code != apperrors.CodeLiveDisconnected {
			t.Fatalf("code = %s, want %s (err %v)", code, apperrors.CodeLiveDisconnected, err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("client kept retrying")
	}
	if client.Status() != StatusDisconnected {
		t.Fatalf("status = %s, want disconnected", client.Status())
	}
}

func TestClientRejectedHandshakeIsTerminal(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(wsURL(srv), "camp-1", nil, WithSchedule(3, time.Millisecond))
	_, done := runClient(t, client)

	select {
	case err := <-done:
		if apperrors.CodeOf(err) != apperrors.CodeLiveDisconnected {
			t.Fatalf("err = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("client kept retrying")
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("handshakes = %d, want 1", got)
	}
}

func TestClientRefreshRequiredRefetches(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := startServer(t, func(_ int, conn *websocket.Conn) {
		readMessage(t, conn)
		writeMessage(t, conn, TypeStateSync, 1, syncedState())
		writeMessage(t, conn, TypeRefreshRequired, 0, nil)
		<-release
	})
	defer close(release)

	handler := &recordingHandler{}
	refresh := func(context.Context) (State, error) {
		return State{Version: 40, Characters: map[string]map[string]any{"char-1": {"id": "char-1", "name": "Fresh"}}}, nil
	}
	client := NewClient(wsURL(srv), "camp-1", handler, WithRefresher(refresh))
	runClient(t, client)

	waitFor(t, func() bool { return client.State().Version == 40 })
	state := client.State()
	if state.CampaignID != "camp-1" || state.Characters["char-1"]["name"] != "Fresh" {
		t.Fatalf("state = %+v", state)
	}
	waitFor(t, func() bool {
		handler.mu.Lock()
		defer handler.mu.Unlock()
		return len(handler.removed) == 1
	})
}

func TestClientUpdateState(t *testing.T) {
	t.Parallel()

	received := make(chan Message, 1)
	srv := startServer(t, func(_ int, conn *websocket.Conn) {
		for {
			msg := readMessage(t, conn)
			if msg.Type == TypeUpdateState || msg.Type == "" {
				received <- msg
				return
			}
		}
	})

	client := NewClient(wsURL(srv), "camp-1", nil)
	if err := client.UpdateState(context.Background(), map[string]any{"fear": 1}); apperrors.CodeOf(err) != apperrors.CodeLiveDisconnected {
		t.Fatalf("update before connect = %v, want disconnected", err)
	}
	runClient(t, client)
	waitFor(t, func() bool { return client.Status() == StatusConnected })

	if err := client.UpdateState(context.Background(), map[string]any{"fear": 5}); err != nil {
		t.Fatalf("update state: %v", err)
	}
	select {
	case msg := <-received:
		if msg.Type != TypeUpdateState || !strings.Contains(string(msg.Data), `"fear":5`) {
			t.Fatalf("message = %s %s", msg.Type, msg.Data)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not receive update")
	}
}

func TestClientRequiresURL(t *testing.T) {
	t.Parallel()

	err := NewClient("", "camp-1", nil).Run(context.Background())
	if !errors.Is(err, apperrors.New(apperrors.CodeLiveDisconnected, "")) {
		t.Fatalf("err = %v, want live disconnected", err)
	}
}
