package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/hooks/pkg/storage"
)

const (
	feedQueueSize   = 64
	feedWriteWait   = 10 * time.Second
	feedMaxReadSize = 4096
)

// FeedMessage is sent to change feed clients: once per watched key on
// subscribe, then after every change.
type FeedMessage struct {
	Key     string          `json:"key"`
	Value   json.RawMessage `json:"value,omitempty"`
	Present bool            `json:"present"`
	Error   string          `json:"error,omitempty"`
}

// FeedCommand is sent by clients to change the watched keys.
type FeedCommand struct {
	Op  string `json:"op"` // "watch" or "unwatch"
	Key string `json:"key"`
}

var errMediumNotWatchable = errors.New("storage medium does not support watching")

// feed is one change feed connection.
type feed struct {
	s       *Server
	ctx     context.Context
	conn    *websocket.Conn
	watcher storage.Watcher

	events chan FeedMessage

	mu      sync.Mutex
	cancels map[string]func()
}

// handleWatch upgrades to a websocket and streams changes to the keys
// named by ?key= parameters and later "watch" commands.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	watcher, ok := storage.AsWatcher(s.medium)
	if !ok {
		s.writeError(w, http.StatusNotImplemented, "E103", errMediumNotWatchable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied.
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(feedMaxReadSize)

	f := &feed{
		s:       s,
		ctx:     r.Context(),
		conn:    conn,
		watcher: watcher,
		events:  make(chan FeedMessage, feedQueueSize),
		cancels: make(map[string]func()),
	}
	for _, key := range r.URL.Query()["key"] {
		f.watch(key)
	}

	stop := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		f.writeLoop(stop)
	}()

	f.readLoop()

	close(stop)
	f.unwatchAll()
	<-writerDone
	conn.Close()
}

// readLoop handles commands until the connection closes.
func (f *feed) readLoop() {
	for {
		var cmd FeedCommand
		if err := f.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				f.s.logger.Warn("websocket read error", "error", err)
			}
			return
		}

		switch cmd.Op {
		case "watch":
			f.watch(cmd.Key)
		case "unwatch":
			f.unwatch(cmd.Key)
		default:
			f.enqueue(FeedMessage{Key: cmd.Key, Error: "unknown op " + cmd.Op})
		}
	}
}

// writeLoop is the connection's only writer.
func (f *feed) writeLoop(stop <-chan struct{}) {
	for {
		select {
		case msg := <-f.events:
			f.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := f.conn.WriteJSON(msg); err != nil {
				f.s.logger.Debug("websocket write failed", "error", err)
				f.conn.Close()
				return
			}
		case <-f.s.done:
			f.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(feedWriteWait))
			f.conn.Close()
			return
		case <-stop:
			return
		}
	}
}

// watch subscribes to key and queues its current value. Watching before
// reading means no change between the two is lost.
func (f *feed) watch(key string) {
	if key == "" {
		return
	}
	f.mu.Lock()
	if _, ok := f.cancels[key]; ok {
		f.mu.Unlock()
		return
	}
	f.cancels[key] = f.watcher.Watch(key, f.onEvent)
	f.mu.Unlock()

	value, ok, err := f.s.medium.Get(f.ctx, key)
	if err != nil {
		f.enqueue(FeedMessage{Key: key, Error: err.Error()})
		return
	}
	f.enqueue(message(key, value, ok))
}

func (f *feed) unwatch(key string) {
	f.mu.Lock()
	cancel, ok := f.cancels[key]
	delete(f.cancels, key)
	f.mu.Unlock()
	if ok {
		cancel()
	}
}

func (f *feed) unwatchAll() {
	f.mu.Lock()
	cancels := f.cancels
	f.cancels = map[string]func(){}
	f.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}

func (f *feed) onEvent(ev storage.Event) {
	f.enqueue(message(ev.Key, ev.Value, !ev.Removed))
}

// enqueue never blocks: watch callbacks run on the goroutine that wrote
// to the medium.
func (f *feed) enqueue(msg FeedMessage) {
	select {
	case f.events <- msg:
	default:
		f.s.logger.Warn("change feed queue full, dropping event", "key", msg.Key)
	}
}

// message builds a FeedMessage. Stored values that are not JSON are sent
// as JSON strings.
func message(key, value string, present bool) FeedMessage {
	msg := FeedMessage{Key: key, Present: present}
	if !present {
		return msg
	}
	if json.Valid([]byte(value)) {
		msg.Value = json.RawMessage(value)
	} else {
		msg.Value, _ = json.Marshal(value)
	}
	return msg
}
