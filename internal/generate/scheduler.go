package generate

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/dukerupert/diddit/internal/push"
	"github.com/dukerupert/diddit/internal/store"
	ws "github.com/dukerupert/diddit/internal/websocket"
)

// lookaheadDays is how far ahead the nightly job generates assignments.
const lookaheadDays = 7

// Scheduler runs background maintenance: an hourly overdue sweep and a daily
// lookahead generation pass over every household. The push service may be nil
// when VAPID keys are not configured.
type Scheduler struct {
	mu         sync.RWMutex
	generator  *Generator
	households *store.HouseholdStore
	store      *store.AssignmentStore
	hub        *ws.Hub
	pushSvc    *push.Service
	pushStore  *store.PushStore
	logger     *slog.Logger
	interval   time.Duration
	lastRunDay string
	cancel     context.CancelFunc
	done       chan struct{}
}

func NewScheduler(g *Generator, households *store.HouseholdStore, as *store.AssignmentStore, hub *ws.Hub, pushSvc *push.Service, pushStore *store.PushStore, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		generator:  g,
		households: households,
		store:      as,
		hub:        hub,
		pushSvc:    pushSvc,
		pushStore:  pushStore,
		logger:     logger,
		interval:   time.Hour,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.tick(time.Now())
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(time.Now())
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(now time.Time) {
	s.sweepOverdue(now)

	day := now.UTC().Format("2006-01-02")
	s.mu.Lock()
	ran := s.lastRunDay == day
	s.lastRunDay = day
	s.mu.Unlock()
	if !ran {
		s.generateLookahead(now)
	}
}

func (s *Scheduler) sweepOverdue(now time.Time) {
	counts, err := s.store.SweepOverdue(now)
	if err != nil {
		s.logger.Error("overdue sweep", "error", err)
		return
	}

	for householdID, n := range counts {
		s.logger.Info("marked assignments overdue", "household_id", householdID, "count", n)
		s.hub.Broadcast(householdID, ws.NewMessage("assignment", "overdue", 0, map[string]any{"count": n}))
		s.notify(householdID, push.Payload{
			Title: "Diddit",
			Body:  overdueBody(n),
			Tag:   "assignment-overdue",
		})
	}
}

func (s *Scheduler) generateLookahead(now time.Time) {
	ids, err := s.households.ListIDs()
	if err != nil {
		s.logger.Error("lookahead: list households", "error", err)
		return
	}

	start := now
	end := now.AddDate(0, 0, lookaheadDays-1)
	for _, householdID := range ids {
		result, err := s.generator.Generate(householdID, start, end)
		if err != nil {
			s.logger.Error("lookahead generation", "household_id", householdID, "error", err)
			continue
		}
		if result.Created == 0 {
			continue
		}
		s.hub.Broadcast(householdID, ws.NewMessage("assignment", "generated", 0, map[string]any{"created": result.Created}))
		s.notify(householdID, push.Payload{
			Title: "Diddit",
			Body:  generatedBody(result.Created),
			Tag:   "assignment-generated",
		})
	}
}

func (s *Scheduler) notify(householdID int64, payload push.Payload) {
	if s.pushSvc == nil {
		return
	}

	subs, err := s.pushStore.ListByHousehold(householdID)
	if err != nil {
		s.logger.Error("list push subscriptions", "household_id", householdID, "error", err)
		return
	}

	for i := range subs {
		err := s.pushSvc.Send(&subs[i], payload)
		if err == push.ErrExpired {
			if err := s.pushStore.DeleteByEndpoint(subs[i].Endpoint); err != nil {
				s.logger.Error("drop expired subscription", "error", err)
			}
			continue
		}
		if err != nil {
			s.logger.Error("send push", "household_id", householdID, "error", err)
		}
	}
}

func overdueBody(n int) string {
	if n == 1 {
		return "1 chore is overdue"
	}
	return strconv.Itoa(n) + " chores are overdue"
}

func generatedBody(n int) string {
	if n == 1 {
		return "1 new chore was scheduled"
	}
	return strconv.Itoa(n) + " new chores were scheduled"
}
