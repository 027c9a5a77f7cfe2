package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pankaj085/lotuslynx/internal/domain"
	"github.com/pankaj085/lotuslynx/internal/password"
	"github.com/pankaj085/lotuslynx/internal/repository"
	"github.com/pankaj085/lotuslynx/internal/service"
	"github.com/pankaj085/lotuslynx/internal/token"
)

type stubUserRepo struct {
	user domain.User
	err  error
}

func (s *stubUserRepo) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	if s.err != nil {
		return domain.User{}, s.err
	}
	if username != s.user.Username {
		return domain.User{}, fmt.Errorf("get user: %w", pgx.ErrNoRows)
	}
	return s.user, nil
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return domain.User{}, fmt.Errorf("get user: %w", pgx.ErrNoRows)
}

func (s *stubUserRepo) GetByID(ctx context.Context, id int64) (domain.User, error) {
	return domain.User{}, fmt.Errorf("get user: %w", pgx.ErrNoRows)
}

func (s *stubUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	return user, nil
}

func (s *stubUserRepo) SetRole(ctx context.Context, id int64, role domain.Role) error { return nil }

func (s *stubUserRepo) SetDisabled(ctx context.Context, id int64, disabled bool) error { return nil }

var _ repository.UserRepository = (*stubUserRepo)(nil)

func newBearerContext(t *testing.T, accessToken string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if accessToken != "" {
		c.Request.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return c, recorder
}

func newAuthMiddleware(t *testing.T, users repository.UserRepository) (*Auth, *token.Codec) {
	t.Helper()
	codec, err := token.NewCodec([]byte("0123456789abcdef0123456789abcdef"), "HS256", time.Minute, time.Hour)
	require.NoError(t, err)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	svc := service.NewAuthService(users, password.NewHasher(password.DefaultCost), codec, node, zap.NewNop())
	return &Auth{AuthService: svc, Logger: zap.NewNop()}, codec
}

func TestRequireUserAttachesAccount(t *testing.T) {
	repo := &stubUserRepo{user: domain.User{ID: 1, Username: "alice", Role: domain.RoleUser}}
	auth, codec := newAuthMiddleware(t, repo)

	raw, err := codec.Encode("alice", token.KindAccess)
	require.NoError(t, err)

	c, _ := newBearerContext(t, raw)
	auth.RequireUser(c)
	require.False(t, c.IsAborted())

	user, ok := CurrentUser(c)
	require.True(t, ok)
	require.Equal(t, "alice", user.Username)
}

func TestRequireUserRejectsMissingOrBadToken(t *testing.T) {
	repo := &stubUserRepo{user: domain.User{ID: 1, Username: "alice"}}
	auth, codec := newAuthMiddleware(t, repo)

	c, recorder := newBearerContext(t, "")
	auth.RequireUser(c)
	require.True(t, c.IsAborted())
	require.Equal(t, http.StatusUnauthorized, recorder.Code)

	c, recorder = newBearerContext(t, "garbage")
	auth.RequireUser(c)
	require.True(t, c.IsAborted())
	require.Equal(t, http.StatusUnauthorized, recorder.Code)

	// Valid signature but the account no longer exists.
	raw, err := codec.Encode("ghost", token.KindAccess)
	require.NoError(t, err)
	c, recorder = newBearerContext(t, raw)
	auth.RequireUser(c)
	require.True(t, c.IsAborted())
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	require.Contains(t, recorder.Body.String(), "unauthenticated")
}

func TestRequireUserStorageFailureIsServerError(t *testing.T) {
	// A backend outage must surface as 500, not as a rejected token.
	repo := &stubUserRepo{err: errors.New("connection refused")}
	auth, codec := newAuthMiddleware(t, repo)

	raw, err := codec.Encode("alice", token.KindAccess)
	require.NoError(t, err)

	c, recorder := newBearerContext(t, raw)
	auth.RequireUser(c)
	require.True(t, c.IsAborted())
	require.Equal(t, http.StatusInternalServerError, recorder.Code)
	require.Contains(t, recorder.Body.String(), "server_error")
	require.NotContains(t, recorder.Body.String(), "connection refused")
}
