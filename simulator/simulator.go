package simulator

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"gator-social/internal/engine"
	"gator-social/internal/engine/actors"
	"gator-social/internal/logging"
	"gator-social/internal/models"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SimConfig struct {
	NumAccounts      int
	NumSpaces        int
	Operations       int
	Workers          int
	ShareProbability float64
	ZipfS            float64
	Seed             int64
	RequestTimeout   time.Duration
}

func DefaultSimConfig() SimConfig {
	return SimConfig{
		NumAccounts:      50,
		NumSpaces:        10,
		Operations:       5000,
		Workers:          5,
		ShareProbability: 0.1,
		ZipfS:            1.07,
		Seed:             1,
		RequestTimeout:   5 * time.Second,
	}
}

type SimulationStats struct {
	mu               sync.RWMutex
	StartTime        time.Time
	TotalRequests    int64
	SuccessRequests  int64
	FailedRequests   int64
	RejectedByCode   map[string]int64
	TotalPosts       int
	TotalShares      int
	TotalComments    int
	TotalReactions   int
	TotalFollows     int
	// Reaction flips and account unfollows that went through.
	TotalReactionUpdates int
	TotalUnfollows       int
	Unexpected           []string
	RequestLatencies     []time.Duration
}

// Summary is a point-in-time copy of the stats.
type Summary struct {
	Duration        time.Duration
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	RejectedByCode  map[string]int64
	Posts           int
	Shares          int
	Comments        int
	Reactions       int
	ReactionUpdates int
	Follows         int
	Unfollows       int
	Unexpected      int
	P50Latency      time.Duration
	P99Latency      time.Duration
}

// simAccount tracks what a simulated account has done so its next actions
// are mostly valid.
type simAccount struct {
	ID        uuid.UUID
	Spaces    []models.SpaceID
	Reactions map[models.PostID]models.ReactionID
	Following map[models.SpaceID]bool
}

// Simulator drives a random workload through the engine actor and then
// checks the store for consistency.
type Simulator struct {
	config SimConfig
	stats  *SimulationStats
	root   *actor.RootContext
	pid    *actor.PID
	engine *engine.Engine
	logger *zap.Logger

	mu       sync.RWMutex
	accounts []*simAccount
	spaces   []models.SpaceID
	posts    []models.PostID
	comments map[models.PostID][]models.CommentID
}

func NewSimulator(config SimConfig, root *actor.RootContext, pid *actor.PID, e *engine.Engine, logger *zap.Logger) *Simulator {
	return &Simulator{
		config: config,
		stats: &SimulationStats{
			RejectedByCode: map[string]int64{},
		},
		root:     root,
		pid:      pid,
		engine:   e,
		logger:   logging.OrNop(logger).Named("simulator"),
		comments: map[models.PostID][]models.CommentID{},
	}
}

// Run seeds accounts and spaces, then spreads Operations random actions
// across Workers goroutines.
func (s *Simulator) Run(ctx context.Context) error {
	s.stats.StartTime = time.Now()
	if err := s.initialize(); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	s.logger.Info("Initialization completed",
		zap.Int("accounts", len(s.accounts)),
		zap.Int("spaces", len(s.spaces)))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < s.config.Workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(s.config.Seed + int64(workerID) + 1))
			zipf := rand.NewZipf(rng, s.config.ZipfS, 1, uint64(s.config.NumSpaces+1))
			for range jobs {
				s.randomActivity(rng, zipf)
			}
		}(w)
	}

	var err error
feed:
	for i := 0; i < s.config.Operations; i++ {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return err
}

func (s *Simulator) initialize() error {
	if s.config.NumAccounts < 2 || s.config.NumSpaces < 1 {
		return fmt.Errorf("need at least 2 accounts and 1 space")
	}
	for i := 0; i < s.config.NumAccounts; i++ {
		s.accounts = append(s.accounts, &simAccount{
			ID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("sim-account-%d-%d", s.config.Seed, i))),
			Reactions: map[models.PostID]models.ReactionID{},
			Following: map[models.SpaceID]bool{},
		})
	}

	// Spaces go to the first tenth of accounts, round robin.
	creators := len(s.accounts) / 10
	if creators == 0 {
		creators = 1
	}
	for i := 0; i < s.config.NumSpaces; i++ {
		owner := s.accounts[i%creators]
		handle := fmt.Sprintf("%s_%d", themes[i%len(themes)], i)
		created, err := actors.RequestAs[*actors.CreatedResponse](s.root, s.pid,
			&actors.CreateSpaceMsg{Actor: models.AccountActor(owner.ID), Handle: handle}, s.config.RequestTimeout)
		if err != nil {
			return fmt.Errorf("create space %s: %w", handle, err)
		}
		id := models.SpaceID(created.ID)
		s.spaces = append(s.spaces, id)
		owner.Spaces = append(owner.Spaces, id)
		owner.Following[id] = true
	}
	return nil
}

var themes = []string{
	"gaming", "tech", "science", "music", "movies",
	"books", "sports", "food", "travel", "art",
}

func (s *Simulator) record(latency time.Duration, err error, code string) {
	s.stats.mu.Lock()
	defer s.stats.mu.Unlock()
	s.stats.TotalRequests++
	s.stats.RequestLatencies = append(s.stats.RequestLatencies, latency)
	if err != nil {
		s.stats.FailedRequests++
		s.stats.RejectedByCode[code]++
		return
	}
	s.stats.SuccessRequests++
}

func (s *Simulator) unexpected(detail string) {
	s.stats.mu.Lock()
	defer s.stats.mu.Unlock()
	s.stats.Unexpected = append(s.stats.Unexpected, detail)
}

func (s *Simulator) GetSummary() Summary {
	s.stats.mu.RLock()
	defer s.stats.mu.RUnlock()

	out := Summary{
		Duration:        time.Since(s.stats.StartTime),
		TotalRequests:   s.stats.TotalRequests,
		SuccessRequests: s.stats.SuccessRequests,
		FailedRequests:  s.stats.FailedRequests,
		RejectedByCode:  map[string]int64{},
		Posts:           s.stats.TotalPosts,
		Shares:          s.stats.TotalShares,
		Comments:        s.stats.TotalComments,
		Reactions:       s.stats.TotalReactions,
		ReactionUpdates: s.stats.TotalReactionUpdates,
		Follows:         s.stats.TotalFollows,
		Unfollows:       s.stats.TotalUnfollows,
		Unexpected:      len(s.stats.Unexpected),
	}
	for code, n := range s.stats.RejectedByCode {
		out.RejectedByCode[code] = n
	}
	if n := len(s.stats.RequestLatencies); n > 0 {
		sorted := append([]time.Duration(nil), s.stats.RequestLatencies...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		out.P50Latency = sorted[n/2]
		out.P99Latency = sorted[n*99/100]
	}
	return out
}
