// internal/app/features/groups/handler.go
package groups

import (
	"context"

	registrantstore "github.com/dalemusser/camphub/internal/app/store/registrants"
	"github.com/dalemusser/camphub/internal/domain/models"
	"go.uber.org/zap"
)

// Finder lists registrants; *registrantstore.Store satisfies it.
type Finder interface {
	Find(ctx context.Context, f registrantstore.Filter, o registrantstore.Order) ([]models.Registrant, error)
}

// Handler serves the tabbed group view.
type Handler struct {
	Store Finder
	Log   *zap.Logger
}

func NewHandler(store Finder, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Log: logger}
}
