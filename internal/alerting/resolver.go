package alerting

import (
	"context"

	"github.com/alertline/alertline-api/internal/directory"
	"github.com/alertline/alertline-api/internal/models"
)

// TargetResolver turns an alert's visibility rule into the exact set of
// active recipient users. Empty target sets yield empty results, never
// errors; only directory failures propagate.
type TargetResolver struct {
	directory directory.Directory
}

func NewTargetResolver(dir directory.Directory) *TargetResolver {
	return &TargetResolver{directory: dir}
}

func (r *TargetResolver) Resolve(ctx context.Context, alert models.Alert) ([]models.User, error) {
	switch alert.Visibility {
	case models.VisibilityOrganization:
		return r.directory.ActiveUsers(ctx)
	case models.VisibilityTeam:
		return r.directory.ActiveUsersInTeams(ctx, alert.TargetTeams)
	case models.VisibilityUser:
		return r.directory.ActiveUsersByIDs(ctx, alert.TargetUsers)
	default:
		return nil, nil
	}
}
