// internal/app/store/registrants/assign.go
package registrantstore

import (
	"context"
	"fmt"

	"github.com/dalemusser/camphub/internal/app/system/rules"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// AssignResult is returned by both assignment operations.
type AssignResult struct {
	Assigned int           // registrants placed by this call
	Groups   map[int]int64 // eligible headcount per group afterwards
}

// Invoke runs a named server-side operation. Unknown names return
// ErrUnknownOperation.
func (s *Store) Invoke(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case OpAssignAllUngrouped:
		return s.AssignAllUngrouped(ctx)
	case OpAssignOne:
		id, err := objectIDArg(args, "id")
		if err != nil {
			return nil, err
		}
		return s.AssignOne(ctx, id)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}
}

func objectIDArg(args map[string]any, key string) (primitive.ObjectID, error) {
	switch v := args[key].(type) {
	case primitive.ObjectID:
		return v, nil
	case string:
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return primitive.NilObjectID, fmt.Errorf("%w: %s is not a valid id", ErrBadArgument, key)
		}
		return id, nil
	default:
		return primitive.NilObjectID, fmt.Errorf("%w: missing %s", ErrBadArgument, key)
	}
}

// leastPopulated picks the group with the fewest members, lowest number on ties.
func leastPopulated(counts map[int]int64) int {
	best := rules.MinGroup
	for g := rules.MinGroup + 1; g <= rules.MaxGroup; g++ {
		if counts[g] < counts[best] {
			best = g
		}
	}
	return best
}

// place sets the group on one registrant only if it is still unassigned, so
// two concurrent runs cannot move a registrant twice.
func (s *Store) place(ctx context.Context, id primitive.ObjectID, group int) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "assigned_group": nil, "age": bson.M{"$gte": rules.MinAge}},
		bson.M{"$set": bson.M{"assigned_group": group, "updated_at": s.now()}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// AssignAllUngrouped places every eligible unassigned registrant, oldest
// registration first, into the currently smallest group.
func (s *Store) AssignAllUngrouped(ctx context.Context) (AssignResult, error) {
	counts, err := s.GroupCounts(ctx, rules.MinAge)
	if err != nil {
		return AssignResult{}, err
	}

	cur, err := s.c.Find(ctx,
		Filter{MinAge: rules.MinAge, Unassigned: true}.bson(),
		options.Find().SetSort(OrderCreated.sort()).SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return AssignResult{}, err
	}
	var ids []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &ids); err != nil {
		return AssignResult{}, err
	}

	out := AssignResult{Groups: counts}
	for _, row := range ids {
		g := leastPopulated(counts)
		ok, err := s.place(ctx, row.ID, g)
		if err != nil {
			return out, err
		}
		if ok {
			counts[g]++
			out.Assigned++
		}
	}
	s.log.Info("group assignment complete",
		zap.Int("candidates", len(ids)),
		zap.Int("assigned", out.Assigned))
	return out, nil
}

// AssignOne places a single registrant. A registrant that already has a
// group is left alone and reported with Assigned == 0.
func (s *Store) AssignOne(ctx context.Context, id primitive.ObjectID) (AssignResult, error) {
	r, err := s.GetByID(ctx, id)
	if err != nil {
		return AssignResult{}, err
	}
	if !rules.IsValidAge(r.Age) {
		return AssignResult{}, ErrNotEligible
	}
	counts, err := s.GroupCounts(ctx, rules.MinAge)
	if err != nil {
		return AssignResult{}, err
	}
	out := AssignResult{Groups: counts}
	if !r.IsUnassigned() {
		return out, nil
	}
	g := leastPopulated(counts)
	ok, err := s.place(ctx, id, g)
	if err != nil {
		return out, err
	}
	if ok {
		counts[g]++
		out.Assigned = 1
	}
	return out, nil
}
