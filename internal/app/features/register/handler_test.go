package register_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	uierrors "github.com/dalemusser/camphub/internal/app/features/errors"
	"github.com/dalemusser/camphub/internal/app/features/register"
	"github.com/dalemusser/camphub/internal/domain/models"
	"github.com/dalemusser/camphub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeInserter struct {
	got []models.Registrant
	err error
}

func (f *fakeInserter) Insert(_ context.Context, r models.Registrant) (models.Registrant, error) {
	if f.err != nil {
		return models.Registrant{}, f.err
	}
	r.ID = primitive.NewObjectID()
	f.got = append(f.got, r)
	return r, nil
}

func newHandler(store register.Inserter) *register.Handler {
	logger := zap.NewNop()
	return register.NewHandler(store, nil, uierrors.NewErrorLogger(logger), nil, logger)
}

func postForm(values url.Values, user testutil.TestUser) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return testutil.WithUser(req, user)
}

func validForm() url.Values {
	return url.Values{
		"full_name":       {"  Maria Santos "},
		"age":             {"16"},
		"gender":          {"female"},
		"church_location": {"Biñan"},
	}
}

func TestHandleSubmit_Valid(t *testing.T) {
	store := &fakeInserter{}
	h := newHandler(store)

	rec := httptest.NewRecorder()
	h.HandleSubmit(rec, postForm(validForm(), testutil.AdminUser()))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/register" {
		t.Errorf("Location: got %q", loc)
	}
	if len(store.got) != 1 {
		t.Fatalf("inserted %d, want 1", len(store.got))
	}
	got := store.got[0]
	if got.FullName != "Maria Santos" || got.Age != 16 || got.Gender != "Female" || got.ChurchLocation != "Biñan" {
		t.Errorf("registrant: %+v", got)
	}
	if got.AssignedGroup != nil {
		t.Error("registration must not set a group")
	}
}

func TestHandleSubmit_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value string
	}{
		{"blank name", "full_name", "   "},
		{"under age", "age", "11"},
		{"non-numeric age", "age", "twelve"},
		{"unknown gender", "gender", "other"},
		{"unknown location", "church_location", "Manila"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeInserter{}
			h := newHandler(store)
			form := validForm()
			form.Set(tt.field, tt.value)

			rec := httptest.NewRecorder()
			func() {
				defer func() { _ = recover() }()
				h.HandleSubmit(rec, postForm(form, testutil.AdminUser()))
			}()

			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("status: got %d, want 422", rec.Code)
			}
			if len(store.got) != 0 {
				t.Error("invalid form must not be stored")
			}
		})
	}
}

func TestHandleSubmit_ViewerForbidden(t *testing.T) {
	store := &fakeInserter{}
	h := newHandler(store)

	rec := httptest.NewRecorder()
	func() {
		defer func() { _ = recover() }()
		h.HandleSubmit(rec, postForm(validForm(), testutil.ViewerUser()))
	}()

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rec.Code)
	}
	if len(store.got) != 0 {
		t.Error("viewer must not create registrants")
	}
}

func TestHandleSubmit_StoreError(t *testing.T) {
	h := newHandler(&fakeInserter{err: errors.New("write failed")})

	rec := httptest.NewRecorder()
	func() {
		defer func() { _ = recover() }()
		h.HandleSubmit(rec, postForm(validForm(), testutil.AdminUser()))
	}()

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rec.Code)
	}
}
