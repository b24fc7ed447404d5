package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/dalemusser/camphub/internal/app/store/users"
	"github.com/dalemusser/camphub/internal/app/system/indexes"
	"github.com/dalemusser/camphub/internal/domain/models"
	"github.com/dalemusser/camphub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const goodPassword = "long-enough-password"

func TestStore_Create_Admin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		FullName: "  Admin   User ",
		Email:    " Admin@Example.com ",
		Role:     "ADMIN",
	}, goodPassword)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.FullName != "Admin User" || created.FullNameCI != "admin user" {
		t.Errorf("name not normalized: %q / %q", created.FullName, created.FullNameCI)
	}
	if created.Email != "admin@example.com" {
		t.Errorf("email not normalized: %q", created.Email)
	}
	if created.Role != models.RoleAdmin || created.Status != models.StatusActive {
		t.Errorf("role/status: %q/%q", created.Role, created.Status)
	}
	if created.PasswordHash == "" || created.PasswordHash == goodPassword {
		t.Error("expected a bcrypt hash")
	}
	if created.AuthMethod != "password" {
		t.Errorf("AuthMethod = %q", created.AuthMethod)
	}
}

func TestStore_Create_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tests := []struct {
		name     string
		user     models.User
		password string
	}{
		{"bad role", models.User{FullName: "X", Email: "x@example.com", Role: "owner"}, goodPassword},
		{"bad status", models.User{FullName: "X", Email: "x@example.com", Role: "admin", Status: "paused"}, goodPassword},
		{"short password", models.User{FullName: "X", Email: "x@example.com", Role: "admin"}, "short"},
		{"no email", models.User{FullName: "X", Role: "admin"}, goodPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.Create(ctx, tt.user, tt.password); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestStore_Create_GoogleOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, models.User{FullName: "G", Email: "g@example.com", Role: "viewer"}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.AuthMethod != "google" || u.PasswordHash != "" {
		t.Errorf("got method %q hash %q", u.AuthMethod, u.PasswordHash)
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	store := userstore.New(db)

	if _, err := store.Create(ctx, models.User{FullName: "A", Email: "dup@example.com", Role: "admin"}, goodPassword); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	_, err := store.Create(ctx, models.User{FullName: "B", Email: "DUP@example.com", Role: "viewer"}, goodPassword)
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_GetByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, err := store.Create(ctx, models.User{FullName: "Ana", Email: "ana@example.org", Role: models.RoleAdmin}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	b, err := store.Create(ctx, models.User{FullName: "Ben", Email: "ben@example.org", Role: models.RoleViewer}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	users, err := store.GetByIDs(ctx, []primitive.ObjectID{a.ID, b.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("got %d users, want 2", len(users))
	}

	none, err := store.GetByIDs(ctx, nil)
	if err != nil || none != nil {
		t.Errorf("empty ids: %v, %v", none, err)
	}
}

func TestStore_Authenticate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx, "Ana Admin", "ana@example.com")
	fixtures.CreateDisabledUser(ctx, "Dee Disabled", "dee@example.com")

	u, err := store.Authenticate(ctx, "ANA@example.com", testutil.TestPassword)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if u.ID != admin.ID {
		t.Errorf("wrong user %v", u.ID)
	}

	u, err = store.Authenticate(ctx, "ana@example.com", "wrong password")
	if !errors.Is(err, userstore.ErrInvalidCredentials) || u == nil {
		t.Errorf("wrong password: u=%v err=%v", u, err)
	}

	u, err = store.Authenticate(ctx, "nobody@example.com", testutil.TestPassword)
	if !errors.Is(err, userstore.ErrInvalidCredentials) || u != nil {
		t.Errorf("unknown email: u=%v err=%v", u, err)
	}

	if _, err := store.Authenticate(ctx, "dee@example.com", testutil.TestPassword); !errors.Is(err, userstore.ErrUserDisabled) {
		t.Errorf("disabled: err=%v", err)
	}
}

func TestStore_TouchLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx, "Ana", "ana@example.com")
	if err := store.TouchLogin(ctx, admin.ID); err != nil {
		t.Fatalf("TouchLogin: %v", err)
	}
	u, err := store.GetByID(ctx, admin.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.LastLoginAt == nil {
		t.Error("expected LastLoginAt to be set")
	}
}

func TestStore_EnsureAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.EnsureAdmin(ctx, "Boot Admin", "boot@example.com", goodPassword)
	if err != nil || !created {
		t.Fatalf("first EnsureAdmin: created=%v err=%v", created, err)
	}
	created, err = store.EnsureAdmin(ctx, "Other", "other@example.com", goodPassword)
	if err != nil || created {
		t.Errorf("second EnsureAdmin: created=%v err=%v", created, err)
	}
	if n, _ := store.CountAdmins(ctx); n != 1 {
		t.Errorf("CountAdmins = %d, want 1", n)
	}
}

func TestFetcher_FetchUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	viewer := fixtures.CreateViewer(ctx, "Vic Viewer", "vic@example.com")
	disabled := fixtures.CreateDisabledUser(ctx, "Dee", "dee@example.com")
	f := userstore.NewFetcher(db)

	su, err := f.FetchUser(ctx, viewer.ID.Hex())
	if err != nil || su == nil {
		t.Fatalf("FetchUser: %v %v", su, err)
	}
	if su.Name != "Vic Viewer" || su.Role != models.RoleViewer || su.Email != "vic@example.com" {
		t.Errorf("unexpected session user %+v", su)
	}

	for _, id := range []string{disabled.ID.Hex(), primitive.NewObjectID().Hex(), "garbage"} {
		su, err := f.FetchUser(ctx, id)
		if err != nil || su != nil {
			t.Errorf("FetchUser(%s) = %v, %v; want nil, nil", id, su, err)
		}
	}
}
