// internal/app/features/auditlog/handler.go
package auditlog

import (
	"context"

	uierrors "github.com/dalemusser/camphub/internal/app/features/errors"
	"github.com/dalemusser/camphub/internal/app/store/audit"
	"github.com/dalemusser/camphub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// EventSource pages through stored audit events; *audit.Store satisfies it.
type EventSource interface {
	Query(ctx context.Context, f audit.QueryFilter) ([]audit.Event, error)
	Count(ctx context.Context, f audit.QueryFilter) (int64, error)
}

// UserLookup resolves actor IDs to names; *userstore.Store satisfies it.
type UserLookup interface {
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

type Handler struct {
	Events EventSource
	Users  UserLookup
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler constructs the activity log handler.
func NewHandler(events EventSource, users UserLookup, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Events: events,
		Users:  users,
		Log:    logger,
		ErrLog: errLog,
	}
}
