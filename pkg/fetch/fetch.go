package fetch

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vango-dev/hooks/pkg/reactive"
)

// State is the phase a Resource is in.
type State int

const (
	Loading State = iota
	Ready
	Failed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is a snapshot of a Resource.
type Result[T any] struct {
	State State

	// Data is set in the Ready state.
	Data T

	// Err is set in the Failed state.
	Err string

	// StatusCode is the HTTP status, 0 when no response was received.
	StatusCode int
}

// Resource is the state of a GET request for a URL.
type Resource[T any] struct {
	dispatcher reactive.Dispatcher
	cfg        config

	result *reactive.Signal[Result[T]]

	mu       sync.Mutex
	url      string
	fetchID  uint64 // for ignoring outdated fetches
	cancel   context.CancelFunc
	effect   *reactive.Effect
	disposed bool
}

// New starts fetching url and returns the Resource tracking it.
func New[T any](d reactive.Dispatcher, url string, opts ...Option) *Resource[T] {
	r := newResource[T](d, opts)
	r.start(url)
	return r
}

// NewWithKey fetches the URL returned by url and fetches again whenever the
// signals url reads change.
//
//	userID := reactive.NewSignal(1)
//	user := fetch.NewWithKey[User](loop, func() string {
//	    return fmt.Sprintf("https://api.example.com/users/%d", userID.Get())
//	})
func NewWithKey[T any](d reactive.Dispatcher, url func() string, opts ...Option) *Resource[T] {
	r := newResource[T](d, opts)
	r.effect = reactive.CreateEffect(func() reactive.Cleanup {
		r.SetURL(url())
		return nil
	})
	return r
}

func newResource[T any](d reactive.Dispatcher, opts []Option) *Resource[T] {
	r := &Resource[T]{
		dispatcher: d,
		cfg:        newConfig(opts),
		result:     reactive.NewSignal(Result[T]{State: Loading}),
	}
	reactive.OnCleanup(r.Dispose)
	return r
}

// URL returns the URL currently being tracked.
func (r *Resource[T]) URL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.url
}

// SetURL switches to a new URL. The request for the previous URL is
// cancelled and the state resets to Loading. Setting the current URL is a
// no-op; use Refetch to load it again.
func (r *Resource[T]) SetURL(url string) {
	r.mu.Lock()
	same := r.url == url && r.fetchID > 0
	r.mu.Unlock()
	if same {
		return
	}
	r.start(url)
}

// Refetch loads the current URL again.
func (r *Resource[T]) Refetch() {
	r.start(r.URL())
}

func (r *Resource[T]) start(url string) {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return
	}
	if r.cancel != nil {
		r.cancel()
	}
	r.fetchID++
	id := r.fetchID
	r.url = url

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if r.cfg.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), r.cfg.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	r.cancel = cancel
	r.mu.Unlock()

	r.result.Set(Result[T]{State: Loading})
	go r.do(ctx, cancel, id, url)
}

// do performs one request and releases its context when it is done.
func (r *Resource[T]) do(ctx context.Context, cancel context.CancelFunc, id uint64, url string) {
	defer cancel()

	begin := time.Now()
	res := r.get(ctx, url)

	if ctx.Err() == context.Canceled {
		return
	}
	r.cfg.metrics.ObserveFetch(res.StatusCode, time.Since(begin))
	if res.State == Failed {
		r.cfg.logger.Debug("fetch failed", "url", url, "status", res.StatusCode, "error", res.Err)
	}

	r.dispatcher.Dispatch(func() {
		r.mu.Lock()
		current := id == r.fetchID && !r.disposed
		r.mu.Unlock()
		if current {
			r.result.Set(res)
		}
	})
}

func (r *Resource[T]) get(ctx context.Context, url string) Result[T] {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result[T]{State: Failed, Err: err.Error()}
	}
	for k, v := range r.cfg.header {
		req.Header[k] = v
	}

	resp, err := r.cfg.client.Do(req)
	if err != nil {
		return Result[T]{State: Failed, Err: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result[T]{
			State:      Failed,
			Err:        "Error fetching data: " + statusText(resp),
			StatusCode: resp.StatusCode,
		}
	}

	var data T
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Result[T]{State: Failed, Err: err.Error(), StatusCode: resp.StatusCode}
	}
	return Result[T]{State: Ready, Data: data, StatusCode: resp.StatusCode}
}

// statusText returns the reason phrase the server sent, e.g. "Not Found".
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// Result returns a snapshot of the state. Inside an effect the read is
// tracked.
func (r *Resource[T]) Result() Result[T] {
	return r.result.Get()
}

// State returns the current phase.
func (r *Resource[T]) State() State {
	return r.result.Get().State
}

// Loading reports whether a request is in flight.
func (r *Resource[T]) Loading() bool {
	return r.result.Get().State == Loading
}

// Data returns the decoded body once Ready.
func (r *Resource[T]) Data() (T, bool) {
	res := r.result.Get()
	return res.Data, res.State == Ready
}

// Error returns the failure message, or "" unless Failed.
func (r *Resource[T]) Error() string {
	return r.result.Get().Err
}

// StatusCode returns the HTTP status of the last response, if one arrived.
func (r *Resource[T]) StatusCode() (int, bool) {
	res := r.result.Get()
	return res.StatusCode, res.StatusCode != 0
}

// Dispose cancels the request in flight; its result is never applied.
func (r *Resource[T]) Dispose() {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return
	}
	r.disposed = true
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	effect := r.effect
	r.mu.Unlock()

	if effect != nil {
		effect.Dispose()
	}
}
