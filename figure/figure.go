// Package figure resolves a display name to its avatar figure string by
// querying public mirrors in order and caching hits.
package figure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
)

const (
	DefaultTTL     = time.Hour
	RequestTimeout = 5 * time.Second
	UserAgent      = "HabboCatcher/1.0"
)

// DefaultMirrors are URL templates; %s is replaced with the escaped name.
var DefaultMirrors = []string{
	"https://origins.habbo.es/api/public/users?name=%s",
	"https://habbo.com.br/api/public/users?name=%s",
	"https://habbo.fr/api/public/users?name=%s",
	"https://habbo.de/api/public/users?name=%s",
}

var (
	ErrNotFound        = errors.New("user not found on any mirror")
	ErrInvalidResponse = errors.New("mirror response missing figureString or name")
)

// Figure is what callers get back for a name.
type Figure struct {
	FigureString string `json:"figureString"`
	Username     string `json:"username"`
}

type remoteUser struct {
	FigureString string `json:"figureString"`
	Name         string `json:"name"`
}

type entry struct {
	fig     Figure
	fetched time.Time
}

// Service looks up figures. It is safe for concurrent use.
type Service struct {
	mirrors []string
	ttl     time.Duration
	client  *http.Client
	log     zerolog.Logger
	now     func() time.Time

	mu    sync.RWMutex
	cache map[string]entry
}

// New returns a Service that tries mirrors in order and caches hits for ttl.
// An empty mirrors list uses DefaultMirrors.
func New(mirrors []string, ttl time.Duration, log zerolog.Logger) *Service {
	if len(mirrors) == 0 {
		mirrors = DefaultMirrors
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		mirrors: mirrors,
		ttl:     ttl,
		client:  &http.Client{},
		log:     log,
		now:     time.Now,
		cache:   make(map[string]entry),
	}
}

func cacheKey(name string) string {
	return cases.Fold().String(name)
}

// Lookup returns the figure for name, from cache when fresh.
func (s *Service) Lookup(ctx context.Context, name string) (Figure, error) {
	key := cacheKey(name)
	if fig, ok := s.cached(key); ok {
		s.log.Debug().Str("name", name).Msg("figure cache hit")
		return fig, nil
	}

	lastErr := ErrNotFound
	for _, tpl := range s.mirrors {
		u := fmt.Sprintf(tpl, url.QueryEscape(name))
		user, status, err := s.fetch(ctx, u)
		if err != nil {
			s.log.Debug().Err(err).Str("url", u).Msg("figure mirror failed")
			lastErr = err
			continue
		}
		if status < 200 || status > 299 {
			s.log.Debug().Int("status", status).Str("url", u).Msg("figure mirror miss")
			continue
		}
		if user.FigureString == "" || user.Name == "" {
			return Figure{}, ErrInvalidResponse
		}
		fig := Figure{FigureString: user.FigureString, Username: user.Name}
		s.store(key, fig)
		return fig, nil
	}
	s.log.Warn().Err(lastErr).Str("name", name).Msg("all figure mirrors failed")
	return Figure{}, ErrNotFound
}

func (s *Service) fetch(ctx context.Context, u string) (remoteUser, int, error) {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return remoteUser{}, 0, err
	}
	req.Header.Set("User-Agent", UserAgent)
	resp, err := s.client.Do(req)
	if err != nil {
		return remoteUser{}, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteUser{}, resp.StatusCode, nil
	}
	var user remoteUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return remoteUser{}, resp.StatusCode, fmt.Errorf("decode %s: %w", u, err)
	}
	return user, resp.StatusCode, nil
}

func (s *Service) cached(key string) (Figure, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.cache[key]
	if !ok || s.now().Sub(e.fetched) >= s.ttl {
		return Figure{}, false
	}
	return e.fig, true
}

func (s *Service) store(key string, fig Figure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = entry{fig: fig, fetched: s.now()}
}

// PurgeExpired drops stale cache entries and returns how many were removed.
func (s *Service) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	now := s.now()
	for k, e := range s.cache {
		if now.Sub(e.fetched) >= s.ttl {
			delete(s.cache, k)
			n++
		}
	}
	return n
}
