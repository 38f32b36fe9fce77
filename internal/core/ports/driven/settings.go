package driven

import (
	"context"

	"github.com/pressvec/pressvec-cli/internal/core/domain"
)

// SettingsSource loads the remote settings document. Implementations
// cache after the first successful load; settings are immutable for
// the lifetime of a run.
type SettingsSource interface {
	Load(ctx context.Context) (*domain.Settings, error)
}
