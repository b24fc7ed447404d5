// internal/app/store/registrants/registrantstore.go
package registrantstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/camphub/internal/app/system/rules"
	"github.com/dalemusser/camphub/internal/app/system/txn"
	"github.com/dalemusser/camphub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const collection = "registrants"

// Remote operations reachable through Invoke.
const (
	OpAssignAllUngrouped = "assign_all_ungrouped_registrants"
	OpAssignOne          = "assign_group_to_registrant"
)

var (
	ErrUnknownOperation   = errors.New("registrants: unknown operation")
	ErrUnknownConflictKey = errors.New("registrants: unknown conflict key")
	ErrNotFound           = errors.New("registrants: registrant not found")
	ErrNotEligible        = errors.New("registrants: registrant is below the minimum age")
	ErrBadArgument        = errors.New("registrants: bad argument")
)

// conflictFields maps the configurable conflict keys to stored fields.
// full_name matches case-insensitively through the folded copy.
var conflictFields = map[string]string{
	"full_name":       "full_name_ci",
	"age":             "age",
	"gender":          "gender",
	"church_location": "church_location",
}

// ValidConflictKey reports whether k can be used as an upsert conflict key.
func ValidConflictKey(k string) bool {
	_, ok := conflictFields[k]
	return ok
}

// ParseConflictKeys splits a comma-separated key list, lowercasing and
// dropping blanks, and rejects keys ValidConflictKey does not accept.
func ParseConflictKeys(s string) ([]string, error) {
	var out []string
	for _, part := range strings.Split(s, ",") {
		k := strings.ToLower(strings.TrimSpace(part))
		if k == "" {
			continue
		}
		if !ValidConflictKey(k) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownConflictKey, k)
		}
		out = append(out, k)
	}
	return out, nil
}

// Filter narrows Find and Count. Zero values mean "no constraint".
type Filter struct {
	MinAge     int
	Group      int
	Unassigned bool
	Search     string
}

func (f Filter) bson() bson.M {
	q := bson.M{}
	if f.MinAge > 0 {
		q["age"] = bson.M{"$gte": f.MinAge}
	}
	switch {
	case f.Unassigned:
		q["assigned_group"] = nil
	case f.Group > 0:
		q["assigned_group"] = f.Group
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q["full_name_ci"] = bson.M{"$regex": regexp.QuoteMeta(text.Fold(s))}
	}
	return q
}

// Order selects the sort used by Find.
type Order int

const (
	OrderCreated Order = iota // oldest first, matches import order
	OrderNewest
	OrderName
	OrderGroup
)

func (o Order) sort() bson.D {
	switch o {
	case OrderNewest:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	case OrderName:
		return bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}}
	case OrderGroup:
		return bson.D{{Key: "assigned_group", Value: 1}, {Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
	}
}

type Store struct {
	c   *mongo.Collection
	log *zap.Logger
	now func() time.Time
}

func New(db *mongo.Database, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		c:   db.Collection(collection),
		log: logger,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) stamp(r *models.Registrant, now time.Time) {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	r.FullNameCI = text.Fold(r.FullName)
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
}

// Insert stores a single registrant and returns it with its new ID.
func (s *Store) Insert(ctx context.Context, r models.Registrant) (models.Registrant, error) {
	s.stamp(&r, s.now())
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		return models.Registrant{}, err
	}
	return r, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Registrant, error) {
	var r models.Registrant
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Registrant{}, ErrNotFound
		}
		return models.Registrant{}, err
	}
	return r, nil
}

func (s *Store) Find(ctx context.Context, f Filter, o Order) ([]models.Registrant, error) {
	cur, err := s.c.Find(ctx, f.bson(), options.Find().SetSort(o.sort()))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.Registrant, 0, 64)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, f Filter) (int64, error) {
	return s.c.CountDocuments(ctx, f.bson())
}

// GroupCounts returns how many registrants aged minAge or older sit in each
// group. Groups with nobody in them are present with a zero count.
func (s *Store) GroupCounts(ctx context.Context, minAge int) (map[int]int64, error) {
	match := bson.M{"assigned_group": bson.M{"$ne": nil}}
	if minAge > 0 {
		match["age"] = bson.M{"$gte": minAge}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": "$assigned_group", "n": bson.M{"$sum": 1}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	counts := make(map[int]int64, rules.MaxGroup)
	for g := rules.MinGroup; g <= rules.MaxGroup; g++ {
		counts[g] = 0
	}
	for cur.Next(ctx) {
		var row struct {
			Group int   `bson:"_id"`
			N     int64 `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.Group] = row.N
	}
	return counts, cur.Err()
}

// UpsertMany writes the batch in one transaction where the deployment allows
// it. Without conflict keys every row is inserted. With keys, a row whose key
// fields match an existing registrant replaces that registrant's data fields;
// assigned_group and import_batch are never touched, so undoing an import
// removes only the registrants it created. The result counts every row written.
func (s *Store) UpsertMany(ctx context.Context, rows []models.Registrant, conflictKeys []string) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	fields := make([]string, 0, len(conflictKeys))
	for _, k := range conflictKeys {
		f, ok := conflictFields[k]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownConflictKey, k)
		}
		fields = append(fields, f)
	}

	now := s.now()
	var affected int64
	err := txn.Run(ctx, s.c.Database().Client(), s.log, func(ctx context.Context) error {
		affected = 0
		if len(fields) == 0 {
			return s.insertAll(ctx, rows, now, &affected)
		}
		return s.upsertAll(ctx, rows, fields, now, &affected)
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func (s *Store) insertAll(ctx context.Context, rows []models.Registrant, now time.Time, affected *int64) error {
	docs := make([]any, 0, len(rows))
	for _, r := range rows {
		r.ID = primitive.NilObjectID
		s.stamp(&r, now)
		docs = append(docs, r)
	}
	res, err := s.c.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	if err != nil {
		return err
	}
	*affected = int64(len(res.InsertedIDs))
	return nil
}

func (s *Store) upsertAll(ctx context.Context, rows []models.Registrant, fields []string, now time.Time, affected *int64) error {
	writes := make([]mongo.WriteModel, 0, len(rows))
	for _, r := range rows {
		doc := bson.M{
			"full_name":       r.FullName,
			"full_name_ci":    text.Fold(r.FullName),
			"age":             r.Age,
			"gender":          r.Gender,
			"church_location": r.ChurchLocation,
			"updated_at":      now,
		}
		key := bson.M{}
		for _, f := range fields {
			key[f] = doc[f]
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(key).
			SetUpdate(bson.M{
				"$set":         doc,
				"$setOnInsert": bson.M{"created_at": now, "import_batch": r.ImportBatch},
			}).
			SetUpsert(true))
	}
	res, err := s.c.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return err
	}
	*affected = res.UpsertedCount + res.MatchedCount
	return nil
}

// DeleteByBatch removes every registrant written by one import.
func (s *Store) DeleteByBatch(ctx context.Context, batch string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"import_batch": batch})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
