package metricsstore

import (
	"context"

	registrantstore "github.com/dalemusser/camphub/internal/app/store/registrants"
	"github.com/dalemusser/camphub/internal/app/system/rules"
	"github.com/dalemusser/camphub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// GroupCount is one dashboard tile.
type GroupCount struct {
	Group int
	Count int64
}

// Counts is the set of totals shown on the dashboard. Every registrant
// figure except Underage counts only registrants at or above the minimum age.
type Counts struct {
	Eligible   int64
	Unassigned int64
	Underage   int64
	Groups     []GroupCount // one entry per group, ascending
	Accounts   int64
}

// Assigned is the number of eligible registrants placed in a group.
func (c Counts) Assigned() int64 {
	var n int64
	for _, g := range c.Groups {
		n += g.Count
	}
	return n
}

// FetchDashboardCounts returns the counts used by the dashboard.
// Intentionally tolerant: on error it logs and returns 0 for that counter.
func FetchDashboardCounts(ctx context.Context, db *mongo.Database, logger *zap.Logger) Counts {
	if logger == nil {
		logger = zap.NewNop()
	}
	store := registrantstore.New(db, logger)
	out := Counts{Groups: make([]GroupCount, 0, rules.MaxGroup)}

	if n, err := store.Count(ctx, registrantstore.Filter{MinAge: rules.MinAge}); err == nil {
		out.Eligible = n
	} else {
		logger.Warn("dashboard: count eligible", zap.Error(err))
	}

	if n, err := store.Count(ctx, registrantstore.Filter{MinAge: rules.MinAge, Unassigned: true}); err == nil {
		out.Unassigned = n
	} else {
		logger.Warn("dashboard: count unassigned", zap.Error(err))
	}

	if n, err := db.Collection("registrants").CountDocuments(ctx, bson.M{"age": bson.M{"$lt": rules.MinAge}}); err == nil {
		out.Underage = n
	} else {
		logger.Warn("dashboard: count underage", zap.Error(err))
	}

	groups, err := store.GroupCounts(ctx, rules.MinAge)
	if err != nil {
		logger.Warn("dashboard: group counts", zap.Error(err))
	}
	for g := rules.MinGroup; g <= rules.MaxGroup; g++ {
		out.Groups = append(out.Groups, GroupCount{Group: g, Count: groups[g]})
	}

	if n, err := db.Collection("users").CountDocuments(ctx, bson.M{"status": models.StatusActive}); err == nil {
		out.Accounts = n
	} else {
		logger.Warn("dashboard: count accounts", zap.Error(err))
	}

	return out
}
