package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vango-dev/hooks/internal/errors"
	"github.com/vango-dev/hooks/pkg/queryparam"
	"github.com/vango-dev/hooks/pkg/reactive"
	"github.com/vango-dev/hooks/pkg/storage"
	"github.com/vango-dev/hooks/pkg/theme"
)

// writeJSON writes v with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("write response", "error", err)
	}
}

// writeError writes err as a HookError JSON body. Non-HookErrors are
// wrapped with code.
func (s *Server) writeError(w http.ResponseWriter, status int, code string, err error) {
	he := errors.FromError(err, code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "code", he.Code, "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, he.FormatJSON())
}

type keysResponse struct {
	Keys []string `json:"keys"`
}

func (s *Server) handleListValues(w http.ResponseWriter, r *http.Request) {
	keys, err := storage.Keys(r.Context(), s.medium)
	if stderrors.Is(err, storage.ErrNotListable) {
		s.writeError(w, http.StatusNotImplemented, "E103", err)
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "E103", err)
		return
	}
	if prefix := r.URL.Query().Get("prefix"); prefix != "" {
		filtered := keys[:0]
		for _, k := range keys {
			if strings.HasPrefix(k, prefix) {
				filtered = append(filtered, k)
			}
		}
		keys = filtered
	}
	if keys == nil {
		keys = []string{}
	}
	sort.Strings(keys)
	s.writeJSON(w, http.StatusOK, keysResponse{Keys: keys})
}

// handleGetValue returns the stored encoding as the response body.
func (s *Server) handleGetValue(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	value, ok, err := s.medium.Get(r.Context(), key)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "E103", errors.New("E103").WithKey(key).Wrap(err))
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, value)
}

// handlePutValue stores the request body, which must be a JSON document.
func (s *Server) handlePutValue(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxValueBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "E102",
				errors.New("E102").WithKey(key).WithDetail("value exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes"))
			return
		}
		s.writeError(w, http.StatusBadRequest, "E102", err)
		return
	}
	if !json.Valid(body) {
		s.writeError(w, http.StatusBadRequest, "E102",
			errors.New("E102").WithKey(key).WithDetail("request body is not a JSON document"))
		return
	}
	if err := s.medium.Set(r.Context(), key, string(body)); err != nil {
		s.writeError(w, http.StatusInternalServerError, "E104", errors.New("E104").WithKey(key).Wrap(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteValue(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := s.medium.Remove(r.Context(), key); err != nil {
		s.writeError(w, http.StatusInternalServerError, "E104", errors.New("E104").WithKey(key).Wrap(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type themeResponse struct {
	DarkModeEnabled bool       `json:"darkModeEnabled"`
	Mode            theme.Mode `json:"mode"`
}

// withPreference loads the theme preference under a request-scoped owner
// and runs fn with it. The owner is disposed when fn returns.
func (s *Server) withPreference(w http.ResponseWriter, r *http.Request, fn func(*theme.Preference) error) {
	theme.RequestHint(w)

	owner := reactive.NewOwner(nil)
	defer owner.Dispose()

	var (
		pref *theme.Preference
		err  error
	)
	reactive.WithOwner(owner, func() {
		pref, err = theme.New(r.Context(), s.medium, theme.FromRequest(r))
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "E103", err)
		return
	}
	if err := fn(pref); err != nil {
		s.writeError(w, http.StatusInternalServerError, "E104", err)
		return
	}
	s.writeJSON(w, http.StatusOK, themeResponse{
		DarkModeEnabled: pref.Enabled(),
		Mode:            pref.Mode(),
	})
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	s.withPreference(w, r, func(*theme.Preference) error { return nil })
}

func (s *Server) handlePutTheme(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DarkModeEnabled *bool `json:"darkModeEnabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DarkModeEnabled == nil {
		theme.RequestHint(w)
		s.writeError(w, http.StatusBadRequest, "E310",
			errors.New("E310").WithDetail(`expected {"darkModeEnabled": true|false}`))
		return
	}
	s.withPreference(w, r, func(p *theme.Preference) error {
		return p.Set(r.Context(), *req.DarkModeEnabled)
	})
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	s.withPreference(w, r, func(p *theme.Preference) error {
		return p.Toggle(r.Context())
	})
}

type searchResponse struct {
	Query string `json:"q"`
	Page  int    `json:"page"`
}

// handleSearch normalizes the q and page parameters. When a parameter had
// to change the browser is redirected to the canonical URL, so the address
// bar always shows the state the page renders.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	loc := queryparam.FromRequest(r)
	q := queryparam.New(loc, "q")
	page := queryparam.New(loc, "page")

	if raw, ok := q.Get(); ok {
		trimmed := strings.TrimSpace(raw)
		switch {
		case trimmed == "":
			q.Delete()
		case trimmed != raw:
			q.Set(trimmed)
		}
	}

	n := 1
	if raw, ok := page.Get(); ok {
		parsed, err := strconv.Atoi(raw)
		switch {
		case err != nil || parsed < 1:
			page.Delete()
		case parsed == 1:
			page.Delete()
		case raw != strconv.Itoa(parsed):
			page.Set(strconv.Itoa(parsed))
			n = parsed
		default:
			n = parsed
		}
	}

	if loc.Redirect(w, r) {
		return
	}
	s.writeJSON(w, http.StatusOK, searchResponse{Query: q.Value(), Page: n})
}
