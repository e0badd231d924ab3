package ports

import "context"

// PlatformStats are the admin-facing counters.
type PlatformStats struct {
	Users  int64 `json:"users"`
	Admins int64 `json:"admins"`
	Tasks  int64 `json:"tasks"`
}

type StatsService interface {
	Stats(ctx context.Context) (*PlatformStats, error)
}
