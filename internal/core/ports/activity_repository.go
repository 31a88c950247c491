package ports

import (
	"context"

	"github.com/houstoncollective/streamadmin/internal/core/domain"
)

// ActivityRepository is the append-only audit trail. No update or delete is
// defined.
type ActivityRepository interface {
	Insert(ctx context.Context, entry *domain.ActivityEntry) error
	List(ctx context.Context, limit, offset int) ([]*domain.ActivityEntry, error)
}
