package viewdata_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/camphub/internal/app/system/rules"
	"github.com/dalemusser/camphub/internal/app/system/viewdata"
	"github.com/dalemusser/camphub/internal/testutil"
)

type fixedFlashes []string

func (f fixedFlashes) Flashes(http.ResponseWriter, *http.Request) []string { return f }

func TestNewBaseVM_Visitor(t *testing.T) {
	viewdata.Init("", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/groups?tab=2", nil)
	vm := viewdata.NewBaseVM(req, "Groups", "/dashboard")

	if vm.SiteName != rules.EventName {
		t.Errorf("SiteName = %q, want default %q", vm.SiteName, rules.EventName)
	}
	if vm.IsLoggedIn || vm.IsAdmin {
		t.Errorf("visitor should not be logged in or admin: %+v", vm)
	}
	if vm.Role != "visitor" {
		t.Errorf("Role = %q, want visitor", vm.Role)
	}
	if vm.Title != "Groups" {
		t.Errorf("Title = %q", vm.Title)
	}
	if vm.CSRFToken != "" {
		t.Errorf("CSRFToken without middleware = %q, want empty", vm.CSRFToken)
	}
}

func TestNewBaseVM_AdminAndViewer(t *testing.T) {
	viewdata.Init("Summer Camp", "", nil)
	t.Cleanup(func() { viewdata.Init("", "", nil) })

	admin := viewdata.NewBaseVM(testutil.NewAuthenticatedRequest(http.MethodGet, "/", testutil.AdminUser()), "Home", "/")
	if !admin.IsLoggedIn || !admin.IsAdmin {
		t.Errorf("admin flags = %v/%v", admin.IsLoggedIn, admin.IsAdmin)
	}
	if admin.SiteName != "Summer Camp" {
		t.Errorf("SiteName = %q", admin.SiteName)
	}

	viewer := viewdata.NewBaseVM(testutil.NewAuthenticatedRequest(http.MethodGet, "/", testutil.ViewerUser()), "Home", "/")
	if !viewer.IsLoggedIn || viewer.IsAdmin {
		t.Errorf("viewer flags = %v/%v", viewer.IsLoggedIn, viewer.IsAdmin)
	}
	if viewer.UserName != "Test Viewer" {
		t.Errorf("UserName = %q", viewer.UserName)
	}
}

func TestInit_SanitizesNotice(t *testing.T) {
	viewdata.Init("", `<b>Bring a flashlight</b><script>alert(1)</script>`, nil)
	t.Cleanup(func() { viewdata.Init("", "", nil) })

	vm := viewdata.NewBaseVM(httptest.NewRequest(http.MethodGet, "/", nil), "", "/")
	got := string(vm.Notice)
	if !strings.Contains(got, "<b>Bring a flashlight</b>") {
		t.Errorf("Notice lost allowed markup: %q", got)
	}
	if strings.Contains(got, "script") {
		t.Errorf("Notice kept script: %q", got)
	}
}

func TestNewPage_PopsFlashes(t *testing.T) {
	viewdata.Init("", "", fixedFlashes{"Imported 3 rows"})
	t.Cleanup(func() { viewdata.Init("", "", nil) })

	rec := httptest.NewRecorder()
	vm := viewdata.NewPage(rec, httptest.NewRequest(http.MethodGet, "/", nil), "", "/")
	if len(vm.Flashes) != 1 || vm.Flashes[0] != "Imported 3 rows" {
		t.Errorf("Flashes = %v", vm.Flashes)
	}
}
