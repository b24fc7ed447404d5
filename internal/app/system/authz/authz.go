// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/camphub/internal/app/system/auth"
	"github.com/dalemusser/camphub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (lowercased), name, Mongo ObjectID, and a found flag.
// A missing user or a malformed ID yields "visitor", "", NilObjectID, false.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Fail closed on a corrupted session.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// IsAdmin reports whether the current request's user is an admin.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleAdmin
}

// Identity is the session/role view the spreadsheet pages need: whether the
// caller is signed in and whether they may change data.
type Identity struct {
	IsAuthenticated bool
	HasAdmin        bool
	UserID          primitive.ObjectID
	Name            string
}

// IdentitySource resolves the caller's identity. Handlers take one so tests
// can substitute a fixed identity.
type IdentitySource interface {
	Identity(r *http.Request) Identity
}

// CurrentIdentity reads the identity placed in context by the session middleware.
func CurrentIdentity(r *http.Request) Identity {
	role, name, id, ok := UserCtx(r)
	return Identity{
		IsAuthenticated: ok,
		HasAdmin:        ok && role == models.RoleAdmin,
		UserID:          id,
		Name:            name,
	}
}

// SessionIdentity is the IdentitySource backed by CurrentIdentity.
type SessionIdentity struct{}

func (SessionIdentity) Identity(r *http.Request) Identity { return CurrentIdentity(r) }
