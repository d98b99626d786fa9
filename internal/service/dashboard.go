package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/taskhub/internal/cache"
	"github.com/geocoder89/taskhub/internal/domain/project"
	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/geocoder89/taskhub/internal/utils"
)

const recentProjectsLimit = 5

type StatusCounts struct {
	Todo       int `json:"todo"`
	InProgress int `json:"inProgress"`
	Done       int `json:"done"`
}

type PriorityCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

type Counts struct {
	Projects        int            `json:"projects"`
	Tasks           int            `json:"tasks"`
	TasksByStatus   StatusCounts   `json:"tasksByStatus"`
	TasksByPriority PriorityCounts `json:"tasksByPriority"`
}

type Stats struct {
	Counts         Counts            `json:"counts"`
	RecentProjects []project.Project `json:"recentProjects"`
}

// DashboardService aggregates per-user counts. Results are cached for ttl and
// evicted by the project and task services on every write.
type DashboardService struct {
	projects ProjectStore
	tasks    TaskStore
	cache    cache.Store
	ttl      time.Duration
	log      *slog.Logger
	prom     *observability.Prom
}

func NewDashboardService(projects ProjectStore, tasks TaskStore, c cache.Store, ttl time.Duration, log *slog.Logger) *DashboardService {
	if log == nil {
		log = slog.Default()
	}
	return &DashboardService{projects: projects, tasks: tasks, cache: c, ttl: ttl, log: log}
}

func (s *DashboardService) WithProm(p *observability.Prom) *DashboardService {
	s.prom = p
	return s
}

func (s *DashboardService) observeCache(result string) {
	if s.prom != nil {
		s.prom.ObserveCache("dashboard_stats", result)
	}
}

func (s *DashboardService) Stats(ctx context.Context, actingUser string) (Stats, error) {
	key := utils.DashboardStatsKey(actingUser)

	if s.cache != nil && s.ttl > 0 {
		b, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.observeCache("error")
			s.log.WarnContext(ctx, "stats cache get failed", "key", key, "err", err)
		} else if ok {
			var cached Stats
			if err := json.Unmarshal(b, &cached); err == nil {
				s.observeCache("hit")
				return cached, nil
			}
		} else {
			s.observeCache("miss")
		}
	}

	st, err := s.compute(ctx, actingUser)
	if err != nil {
		return Stats{}, err
	}

	if s.cache != nil && s.ttl > 0 {
		if b, err := json.Marshal(st); err == nil {
			if err := s.cache.Set(ctx, key, b, s.ttl); err != nil {
				s.log.WarnContext(ctx, "stats cache set failed", "key", key, "err", err)
			}
		}
	}

	return st, nil
}

// Invalidate drops the cached stats of each user. Cache errors are logged only.
func (s *DashboardService) Invalidate(ctx context.Context, userIDs ...string) {
	if s.cache == nil || len(userIDs) == 0 {
		return
	}

	keys := make([]string, 0, len(userIDs))
	seen := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		keys = append(keys, utils.DashboardStatsKey(id))
	}

	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.WarnContext(ctx, "stats cache invalidate failed", "keys", keys, "err", err)
	}
}

func (s *DashboardService) compute(ctx context.Context, userID string) (Stats, error) {
	projects, err := s.projects.CountByUser(ctx, userID)
	if err != nil {
		return Stats{}, fmt.Errorf("count projects: %w", err)
	}

	tasks, err := s.tasks.CountByUser(ctx, userID)
	if err != nil {
		return Stats{}, fmt.Errorf("count tasks: %w", err)
	}

	byStatus, err := s.tasks.CountByStatus(ctx, userID)
	if err != nil {
		return Stats{}, fmt.Errorf("count tasks by status: %w", err)
	}

	byPriority, err := s.tasks.CountByPriority(ctx, userID)
	if err != nil {
		return Stats{}, fmt.Errorf("count tasks by priority: %w", err)
	}

	recent, err := s.projects.RecentByUser(ctx, userID, recentProjectsLimit)
	if err != nil {
		return Stats{}, fmt.Errorf("recent projects: %w", err)
	}
	if recent == nil {
		recent = []project.Project{}
	}

	return Stats{
		Counts: Counts{
			Projects: projects,
			Tasks:    tasks,
			TasksByStatus: StatusCounts{
				Todo:       byStatus[task.StatusTodo],
				InProgress: byStatus[task.StatusInProgress],
				Done:       byStatus[task.StatusDone],
			},
			TasksByPriority: PriorityCounts{
				High:   byPriority[task.PriorityHigh],
				Medium: byPriority[task.PriorityMedium],
				Low:    byPriority[task.PriorityLow],
			},
		},
		RecentProjects: recent,
	}, nil
}
