// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"html/template"
	"net/http"
	"sync"

	"github.com/dalemusser/camphub/internal/app/system/authz"
	"github.com/dalemusser/camphub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/camphub/internal/app/system/rules"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
)

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := myPageData{
//	    BaseVM: viewdata.NewBaseVM(r, "Page Title", "/default-back"),
//	}
type BaseVM struct {
	// Site
	SiteName string
	Notice   template.HTML // sanitized banner text, may be empty

	// User context (from auth middleware)
	IsLoggedIn bool
	IsAdmin    bool
	Role       string
	UserName   string

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	// CSRF protection
	CSRFToken string // Token for form submission

	// One-shot messages queued by the previous request
	Flashes []string
}

// FlashSource pops queued flash messages; auth.SessionManager satisfies it.
type FlashSource interface {
	Flashes(w http.ResponseWriter, r *http.Request) []string
}

type site struct {
	name    string
	notice  template.HTML
	flashes FlashSource
}

var (
	mu      sync.RWMutex
	current = site{name: rules.EventName}
)

// Init sets the site-wide values every page shows. Call once from bootstrap.
// notice may contain simple markup; it is sanitized here.
func Init(siteName, notice string, flashes FlashSource) {
	mu.Lock()
	defer mu.Unlock()
	if siteName == "" {
		siteName = rules.EventName
	}
	current = site{
		name:    siteName,
		notice:  htmlsanitize.SanitizeToHTML(notice),
		flashes: flashes,
	}
}

// SiteName returns the configured event name.
func SiteName() string {
	mu.RLock()
	defer mu.RUnlock()
	return current.name
}

// NewBaseVM creates a fully populated BaseVM for a page.
//
// Parameters:
//   - r: the HTTP request
//   - title: the page title
//   - backDefault: default URL for the back button if none in request
func NewBaseVM(r *http.Request, title, backDefault string) BaseVM {
	mu.RLock()
	s := current
	mu.RUnlock()

	role, name, _, signedIn := authz.UserCtx(r)

	return BaseVM{
		SiteName:    s.name,
		Notice:      s.notice,
		IsLoggedIn:  signedIn,
		IsAdmin:     signedIn && authz.IsAdmin(r),
		Role:        role,
		UserName:    name,
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
	}
}

// NewPage is NewBaseVM plus any flash messages waiting in the session.
// It may write a cookie, so call it before rendering.
func NewPage(w http.ResponseWriter, r *http.Request, title, backDefault string) BaseVM {
	vm := NewBaseVM(r, title, backDefault)

	mu.RLock()
	src := current.flashes
	mu.RUnlock()
	if src != nil {
		vm.Flashes = src.Flashes(w, r)
	}
	return vm
}
