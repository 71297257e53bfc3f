package dataaccess

import (
	"context"

	"github.com/Jacobbrewer1/husky/pkg/entities"
)

// PanelDal is the data access layer for support panels.
type PanelDal interface {
	// GetPanel gets the panel of a guild.
	GetPanel(ctx context.Context, guildID string) (*entities.Panel, error)

	// SavePanel inserts or replaces the panel of a guild.
	SavePanel(ctx context.Context, panel *entities.Panel) error
}
