package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/hooks/pkg/storage"
	"github.com/vango-dev/hooks/pkg/theme"
)

var quiet = WithLogger(slog.New(slog.DiscardHandler))

func newTestServer(t *testing.T, medium storage.Medium, config *Config) (*Server, *httptest.Server) {
	t.Helper()
	s := New(medium, config, quiet)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return s, ts
}

func do(t *testing.T, method, url, body string, header ...string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(b)
}

func TestValuesAPI(t *testing.T) {
	_, ts := newTestServer(t, storage.NewMemory(), nil)

	if resp, _ := do(t, http.MethodPut, ts.URL+"/api/values/prefs", `{"dense":true}`); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("PUT status = %d", resp.StatusCode)
	}
	resp, body := do(t, http.MethodGet, ts.URL+"/api/values/prefs", "")
	if resp.StatusCode != http.StatusOK || body != `{"dense":true}` {
		t.Fatalf("GET = %d %q", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	do(t, http.MethodPut, ts.URL+"/api/values/draft", `"hello"`)
	_, body = do(t, http.MethodGet, ts.URL+"/api/values", "")
	var list keysResponse
	if err := json.Unmarshal([]byte(body), &list); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"draft", "prefs"}, list.Keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	_, body = do(t, http.MethodGet, ts.URL+"/api/values?prefix=pr", "")
	if !strings.Contains(body, `["prefs"]`) {
		t.Errorf("prefix listing = %s", body)
	}

	if resp, _ := do(t, http.MethodDelete, ts.URL+"/api/values/prefs", ""); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d", resp.StatusCode)
	}
	if resp, _ := do(t, http.MethodGet, ts.URL+"/api/values/prefs", ""); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("GET after DELETE status = %d", resp.StatusCode)
	}
	// Removing an absent key is not an error.
	if resp, _ := do(t, http.MethodDelete, ts.URL+"/api/values/prefs", ""); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("second DELETE status = %d", resp.StatusCode)
	}
}

func TestValuesAPI_Rejects(t *testing.T) {
	_, ts := newTestServer(t, storage.NewMemory(), &Config{MaxValueBytes: 8})

	resp, body := do(t, http.MethodPut, ts.URL+"/api/values/k", `{bad`)
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(body, `"code":"E102"`) {
		t.Errorf("invalid JSON = %d %s", resp.StatusCode, body)
	}

	resp, _ = do(t, http.MethodPut, ts.URL+"/api/values/k", `"0123456789"`)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized value status = %d, want 413", resp.StatusCode)
	}
}

// plainMedium hides Memory's optional interfaces.
type plainMedium struct{ m *storage.Memory }

func (p plainMedium) Get(ctx context.Context, key string) (string, bool, error) {
	return p.m.Get(ctx, key)
}
func (p plainMedium) Set(ctx context.Context, key, value string) error { return p.m.Set(ctx, key, value) }
func (p plainMedium) Remove(ctx context.Context, key string) error     { return p.m.Remove(ctx, key) }

func TestValuesAPI_NotListable(t *testing.T) {
	_, ts := newTestServer(t, plainMedium{storage.NewMemory()}, nil)

	if resp, _ := do(t, http.MethodGet, ts.URL+"/api/values", ""); resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("list status = %d, want 501", resp.StatusCode)
	}
	if resp, _ := do(t, http.MethodGet, ts.URL+"/ws/values?key=a", ""); resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("watch status = %d, want 501", resp.StatusCode)
	}
}

func TestTheme(t *testing.T) {
	medium := storage.NewMemory()
	_, ts := newTestServer(t, medium, nil)
	dark := []string{theme.HeaderPrefersColorScheme, `"dark"`}

	resp, body := do(t, http.MethodGet, ts.URL+"/api/theme", "", dark...)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, `"darkModeEnabled":true`) || !strings.Contains(body, `"mode":"dark"`) {
		t.Errorf("body = %s, want dark from the client hint", body)
	}
	if got := resp.Header.Get("Accept-CH"); got != theme.HeaderPrefersColorScheme {
		t.Errorf("Accept-CH = %q", got)
	}
	if _, ok, _ := medium.Get(t.Context(), theme.Key); ok {
		t.Fatal("reading the theme stored a value")
	}

	_, body = do(t, http.MethodPost, ts.URL+"/api/theme/toggle", "", dark...)
	if !strings.Contains(body, `"darkModeEnabled":false`) {
		t.Errorf("toggle body = %s", body)
	}
	if v, _, _ := medium.Get(t.Context(), theme.Key); v != "false" {
		t.Errorf("stored = %q, want false", v)
	}

	// The stored preference wins over the hint.
	_, body = do(t, http.MethodGet, ts.URL+"/api/theme", "", dark...)
	if !strings.Contains(body, `"mode":"light"`) {
		t.Errorf("body = %s, want light", body)
	}

	_, body = do(t, http.MethodPut, ts.URL+"/api/theme", `{"darkModeEnabled":true}`)
	if !strings.Contains(body, `"darkModeEnabled":true`) {
		t.Errorf("PUT body = %s", body)
	}

	if resp, _ := do(t, http.MethodPut, ts.URL+"/api/theme", `{}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("PUT without field status = %d, want 400", resp.StatusCode)
	}
}

func TestSearch(t *testing.T) {
	_, ts := newTestServer(t, storage.NewMemory(), nil)

	tests := []struct {
		target   string
		status   int
		location string
		body     string
	}{
		{"/search", http.StatusOK, "", `{"q":"","page":1}`},
		{"/search?q=go", http.StatusOK, "", `{"q":"go","page":1}`},
		{"/search?q=go&page=3", http.StatusOK, "", `{"q":"go","page":3}`},
		{"/search?q=%20go%20&page=1", http.StatusSeeOther, "/search?q=go", ""},
		{"/search?q=", http.StatusSeeOther, "/search", ""},
		{"/search?page=abc", http.StatusSeeOther, "/search", ""},
		{"/search?page=02&q=x", http.StatusSeeOther, "/search?page=2&q=x", ""},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			resp, body := do(t, http.MethodGet, ts.URL+tt.target, "")
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if got := resp.Header.Get("Location"); got != tt.location {
				t.Errorf("Location = %q, want %q", got, tt.location)
			}
			if tt.body != "" && strings.TrimSpace(body) != tt.body {
				t.Errorf("body = %s, want %s", body, tt.body)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t, storage.NewMemory(), nil)

	do(t, http.MethodGet, ts.URL+"/healthz", "")
	do(t, http.MethodGet, ts.URL+"/api/values/missing", "")

	_, body := do(t, http.MethodGet, ts.URL+"/metrics", "")
	want := `hooks_http_requests_total{method="GET",route="/api/values/{key}",status="404"} 1`
	if !strings.Contains(body, want) {
		t.Errorf("metrics missing %q:\n%s", want, body)
	}
}

func dial(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/values" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func next(t *testing.T, conn *websocket.Conn) FeedMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg FeedMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	return msg
}

func TestChangeFeed(t *testing.T) {
	medium := storage.NewMemory()
	medium.Set(t.Context(), "b", `"stored"`)
	_, ts := newTestServer(t, medium, nil)

	conn := dial(t, ts, "?key=a")
	if diff := cmp.Diff(FeedMessage{Key: "a"}, next(t, conn)); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}

	do(t, http.MethodPut, ts.URL+"/api/values/a", `1`)
	want := FeedMessage{Key: "a", Value: json.RawMessage(`1`), Present: true}
	if diff := cmp.Diff(want, next(t, conn)); diff != "" {
		t.Fatalf("set event mismatch (-want +got):\n%s", diff)
	}

	if err := conn.WriteJSON(FeedCommand{Op: "watch", Key: "b"}); err != nil {
		t.Fatal(err)
	}
	want = FeedMessage{Key: "b", Value: json.RawMessage(`"stored"`), Present: true}
	if diff := cmp.Diff(want, next(t, conn)); diff != "" {
		t.Fatalf("watch snapshot mismatch (-want +got):\n%s", diff)
	}

	do(t, http.MethodDelete, ts.URL+"/api/values/a", "")
	if diff := cmp.Diff(FeedMessage{Key: "a"}, next(t, conn)); diff != "" {
		t.Fatalf("remove event mismatch (-want +got):\n%s", diff)
	}

	if err := conn.WriteJSON(FeedCommand{Op: "rename", Key: "b"}); err != nil {
		t.Fatal(err)
	}
	if msg := next(t, conn); msg.Error == "" {
		t.Errorf("unknown op: got %+v, want an error message", msg)
	}
}

func TestChangeFeed_Shutdown(t *testing.T) {
	s, ts := newTestServer(t, storage.NewMemory(), nil)
	conn := dial(t, ts, "?key=a")
	next(t, conn)

	if err := s.Shutdown(t.Context()); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Fatalf("read after shutdown = %v, want going away close", err)
	}
}

func TestMessage_NonJSONValue(t *testing.T) {
	msg := message("k", "plain text", true)
	if got := string(msg.Value); got != `"plain text"` {
		t.Errorf("Value = %s", got)
	}
}

func TestConfig(t *testing.T) {
	c := (&Config{Address: ":9000"}).withDefaults()
	want := DefaultConfig()
	want.Address = ":9000"
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("withDefaults mismatch (-want +got):\n%s", diff)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate = %v", err)
	}

	c.ShutdownTimeout = -time.Second
	if err := c.Validate(); err == nil {
		t.Error("negative timeout accepted")
	}
}
