package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func serveWith(t *testing.T, mw func(http.Handler) http.Handler, principal *Principal) *httptest.ResponseRecorder {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	if principal != nil {
		req = req.WithContext(ContextWithPrincipal(req.Context(), *principal))
	}
	rr := httptest.NewRecorder()
	mw(next).ServeHTTP(rr, req)
	return rr
}

func TestRequireAllRejectsMissingPrincipal(t *testing.T) {
	rr := serveWith(t, Middleware{}.RequireAll(PermManageUsers), nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireAllRejectsMissingPermission(t *testing.T) {
	p := NewPrincipal("u1", "", []Role{{Permissions: []Permission{PermReadTask}}}, true)
	rr := serveWith(t, Middleware{}.RequireAll(PermManageUsers), &p)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequireAnyAllowsOnePermission(t *testing.T) {
	p := NewPrincipal("u1", "", []Role{{Permissions: []Permission{PermReadTask}}}, true)
	rr := serveWith(t, Middleware{}.RequireAny(PermManageUsers, PermReadTask), &p)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}
