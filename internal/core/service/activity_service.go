package service

import (
	"context"

	"github.com/houstoncollective/streamadmin/internal/core/domain"
	"github.com/houstoncollective/streamadmin/internal/core/ports"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

// ActivityService serves the admin activity view, newest entries first.
type ActivityService struct {
	activity ports.ActivityRepository
}

func NewActivityService(activity ports.ActivityRepository) *ActivityService {
	return &ActivityService{activity: activity}
}

func (s *ActivityService) Recent(ctx context.Context, limit, offset int) ([]*domain.ActivityEntry, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.activity.List(ctx, limit, offset)
}
