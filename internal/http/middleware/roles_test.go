package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/pankaj085/lotuslynx/internal/domain"
)

func contextWithUser(t *testing.T, user *domain.User) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if user != nil {
		c.Set(currentUserKey, *user)
	}
	return c, recorder
}

func TestRequireRoleAllowsEqualOrHigher(t *testing.T) {
	cases := []struct {
		role   domain.Role
		min    domain.Role
		status int
	}{
		{domain.RoleUser, domain.RoleUser, http.StatusOK},
		{domain.RoleUser, domain.RoleEditor, http.StatusForbidden},
		{domain.RoleUser, domain.RoleAdmin, http.StatusForbidden},
		{domain.RoleEditor, domain.RoleEditor, http.StatusOK},
		{domain.RoleEditor, domain.RoleAdmin, http.StatusForbidden},
		{domain.RoleAdmin, domain.RoleUser, http.StatusOK},
		{domain.RoleAdmin, domain.RoleAdmin, http.StatusOK},
	}

	for _, tc := range cases {
		c, recorder := contextWithUser(t, &domain.User{ID: 1, Role: tc.role})
		RequireRole(tc.min)(c)
		if tc.status == http.StatusOK {
			require.False(t, c.IsAborted(), "role %s vs min %s", tc.role, tc.min)
		} else {
			require.True(t, c.IsAborted(), "role %s vs min %s", tc.role, tc.min)
			require.Equal(t, tc.status, recorder.Code)
		}
	}
}

func TestRequireRoleWithoutUser(t *testing.T) {
	c, recorder := contextWithUser(t, nil)
	RequireRole(domain.RoleUser)(c)
	require.True(t, c.IsAborted())
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestCurrentUserRoundTrip(t *testing.T) {
	user := domain.User{ID: 42, Username: "alice", Role: domain.RoleEditor}
	c, _ := contextWithUser(t, &user)

	got, ok := CurrentUser(c)
	require.True(t, ok)
	require.Equal(t, user, got)

	empty, _ := contextWithUser(t, nil)
	_, ok = CurrentUser(empty)
	require.False(t, ok)
}
