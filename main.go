package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/pitchside/pitchside/app"
	"github.com/pitchside/pitchside/container"
	"github.com/pitchside/pitchside/httpx"
	"github.com/pitchside/pitchside/routing"
)

func main() {
	application, err := app.New() // loads .env automatically
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	if err := application.Register(&communityProvider{}); err != nil {
		log.Fatalf("register providers: %v", err)
	}

	registerRoutes(application)

	if err := application.Run(context.Background()); err != nil {
		application.Logger().Fatal("application exited", zap.Error(err))
	}
}

// ── Routes ───────────────────────────────────────────────────────────────────

func registerRoutes(application *app.Application) {
	r := application.Router()

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		httpx.NewResponse(w).Success(map[string]any{
			"status":   "ok",
			"services": application.Keys(),
		})
	})

	r.Prefix("/api/v1", func(api *routing.Router) {
		api.Get("/matches", func(w http.ResponseWriter, req *http.Request) {
			matches := container.MustResolve[*matchStore](application.Container, "matches")
			httpx.NewResponse(w).Success(matches.List())
		})

		api.Post("/matches", func(w http.ResponseWriter, req *http.Request) {
			res := httpx.NewResponse(w)

			var body struct {
				Home  string `json:"home"`
				Away  string `json:"away"`
				Venue string `json:"venue"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				res.Error(http.StatusBadRequest, err.Error())
				return
			}
			if body.Home == "" || body.Away == "" {
				res.Error(http.StatusBadRequest, "home and away teams are required")
				return
			}

			matches := container.MustResolve[*matchStore](application.Container, "matches")
			// "booking.ref" is transient: every request gets a fresh reference.
			ref := container.MustResolve[string](application.Container, "booking.ref")
			res.Created(matches.Add(body.Home, body.Away, body.Venue, ref))
		})

		api.Get("/matches/{id}", func(w http.ResponseWriter, req *http.Request) {
			matches := container.MustResolve[*matchStore](application.Container, "matches")
			m, ok := matches.Get(routing.Param(req, "id"))
			if !ok {
				httpx.NewResponse(w).NotFound("no such match")
				return
			}
			httpx.NewResponse(w).Success(m)
		})
	})
}

// ── Demo services ────────────────────────────────────────────────────────────

// communityProvider registers the sports-community services: a lifecycle
// managed match store and a transient booking-reference generator.
type communityProvider struct {
	container.BaseProvider
}

func (communityProvider) Register(app *container.Container) error {
	if err := app.Singleton("matches", func(c *container.Container) any {
		return newMatchStore(container.MustResolve[*zap.Logger](c, "logger"))
	}); err != nil {
		return err
	}

	var refCounter atomic.Uint64
	return app.Transient("booking.ref", func(*container.Container) any {
		return fmt.Sprintf("BK-%05d", refCounter.Add(1))
	})
}

// Match is one community fixture.
type Match struct {
	ID    string `json:"id"`
	Home  string `json:"home"`
	Away  string `json:"away"`
	Venue string `json:"venue"`
	Ref   string `json:"booking_ref,omitempty"`
}

// matchStore is an in-memory match repository implementing
// container.Lifecycle: Initialize seeds the fixtures, Cleanup drops them.
type matchStore struct {
	log *zap.Logger

	mu      sync.RWMutex
	matches map[string]Match
	nextID  int
}

func newMatchStore(log *zap.Logger) *matchStore {
	return &matchStore{log: log}
}

func (s *matchStore) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches = map[string]Match{
		"1": {ID: "1", Home: "Riverside FC", Away: "Northgate United", Venue: "Riverside Park"},
		"2": {ID: "2", Home: "Harbour Rovers", Away: "Milltown Athletic", Venue: "Harbour Ground"},
	}
	s.nextID = len(s.matches) + 1
	s.log.Info("match store ready", zap.Int("seeded", len(s.matches)))
	return nil
}

func (s *matchStore) Cleanup() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.Info("match store closing", zap.Int("matches", len(s.matches)))
	s.matches = nil
	return nil
}

func (s *matchStore) List() []Match {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Match, 0, len(s.matches))
	for _, m := range s.matches {
		out = append(out, m)
	}
	return out
}

func (s *matchStore) Get(id string) (Match, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[id]
	return m, ok
}

func (s *matchStore) Add(home, away, venue, ref string) Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := strconv.Itoa(s.nextID)
	s.nextID++
	m := Match{ID: id, Home: home, Away: away, Venue: venue, Ref: ref}
	s.matches[id] = m
	return m
}
