package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/camphub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db    *mongo.Database
	t     *testing.T
	clock time.Time
}

var fixtureEpoch = time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "correct horse battery"

// CreateUser inserts an active user with TestPassword as its password.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		FullName:     fullName,
		FullNameCI:   text.Fold(fullName),
		Email:        text.Fold(email),
		PasswordHash: string(hash),
		AuthMethod:   models.AuthPassword,
		Role:         role,
		Status:       models.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateAdmin creates an admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleAdmin)
}

// CreateViewer creates a read-only user.
func (f *Fixtures) CreateViewer(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleViewer)
}

// CreateDisabledUser creates an admin whose account is disabled.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	u := f.CreateUser(ctx, fullName, email, models.RoleAdmin)
	_, err := f.db.Collection("users").UpdateByID(ctx, u.ID,
		map[string]any{"$set": map[string]any{"status": models.StatusDisabled}})
	if err != nil {
		f.t.Fatalf("failed to disable test user: %v", err)
	}
	u.Status = models.StatusDisabled
	return u
}

// CreateRegistrant inserts a registrant. group may be 0 for unassigned.
// Registrants are stamped one millisecond apart in call order so tests can
// rely on creation order.
func (f *Fixtures) CreateRegistrant(ctx context.Context, name string, age int, gender, location string, group int) models.Registrant {
	f.t.Helper()

	if f.clock.IsZero() {
		f.clock = fixtureEpoch
	} else {
		f.clock = f.clock.Add(time.Millisecond)
	}
	r := models.Registrant{
		ID:             primitive.NewObjectID(),
		FullName:       name,
		FullNameCI:     text.Fold(name),
		Age:            age,
		Gender:         gender,
		ChurchLocation: location,
		CreatedAt:      f.clock,
		UpdatedAt:      f.clock,
	}
	if group > 0 {
		g := group
		r.AssignedGroup = &g
	}
	if _, err := f.db.Collection("registrants").InsertOne(ctx, r); err != nil {
		f.t.Fatalf("failed to create test registrant: %v", err)
	}
	return r
}
