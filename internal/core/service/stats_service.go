package service

import (
	"context"

	"github.com/taskhive/task-api/internal/core/domain"
	"github.com/taskhive/task-api/internal/core/ports"
)

// StatsService aggregates the admin-facing platform counters.
type StatsService struct {
	users ports.UserRepository
	tasks ports.TaskRepository
}

func NewStatsService(users ports.UserRepository, tasks ports.TaskRepository) *StatsService {
	return &StatsService{users: users, tasks: tasks}
}

func (s *StatsService) Stats(ctx context.Context) (*ports.PlatformStats, error) {
	users, err := s.users.Count(ctx, "")
	if err != nil {
		return nil, err
	}
	admins, err := s.users.Count(ctx, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &ports.PlatformStats{Users: users, Admins: admins, Tasks: tasks}, nil
}
