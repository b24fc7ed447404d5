package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/camphub/internal/app/system/normalize"
	"github.com/dalemusser/camphub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt cost for stored hashes.
const PasswordCost = 12

// MinPasswordLength applies to passwords set through Create.
const MinPasswordLength = 10

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserDisabled       = errors.New("this account is disabled")

	errBadRole      = errors.New(`role must be "admin"|"viewer"`)
	errBadStatus    = errors.New(`status must be "active"|"disabled"`)
	errShortPass    = errors.New("password must be at least 10 characters")
	errMissingEmail = errors.New("email is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByIDs loads the users with the given IDs in no particular order.
// Unknown IDs are skipped.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create normalizes and validates u, hashes password when non-empty and
// inserts the user. Google-only accounts pass an empty password.
func (s *Store) Create(ctx context.Context, u models.User, password string) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)
	u.Status = normalize.Status(u.Status)
	if u.Status == "" {
		u.Status = models.StatusActive
	}
	if u.Email == "" {
		return models.User{}, errMissingEmail
	}

	switch u.Role {
	case models.RoleAdmin, models.RoleViewer:
	default:
		return models.User{}, errBadRole
	}
	switch u.Status {
	case models.StatusActive, models.StatusDisabled:
	default:
		return models.User{}, errBadStatus
	}

	if password != "" {
		if len(password) < MinPasswordLength {
			return models.User{}, errShortPass
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
		if err != nil {
			return models.User{}, err
		}
		u.PasswordHash = string(hash)
		u.AuthMethod = models.AuthPassword
	} else if u.AuthMethod == "" {
		u.AuthMethod = models.AuthGoogle
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// Authenticate checks an email/password pair. Unknown emails and wrong
// passwords both return ErrInvalidCredentials; the returned user is non-nil
// for a wrong password so callers can audit against the account.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return u, ErrInvalidCredentials
	}
	if normalize.Status(u.Status) == models.StatusDisabled {
		return u, ErrUserDisabled
	}
	return u, nil
}

// TouchLogin records a successful sign-in.
func (s *Store) TouchLogin(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"last_login_at": now, "updated_at": now}})
	return err
}

// CountAdmins returns the number of active admins.
func (s *Store) CountAdmins(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"role": models.RoleAdmin, "status": models.StatusActive})
}

// EnsureAdmin creates the bootstrap admin when no active admin exists.
// It reports whether a user was created.
func (s *Store) EnsureAdmin(ctx context.Context, fullName, email, password string) (bool, error) {
	n, err := s.CountAdmins(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	_, err = s.Create(ctx, models.User{FullName: fullName, Email: email, Role: models.RoleAdmin}, password)
	if errors.Is(err, ErrDuplicateEmail) {
		return false, nil
	}
	return err == nil, err
}
