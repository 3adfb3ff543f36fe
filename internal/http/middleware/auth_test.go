package middleware

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	dbpkg "logsight/internal/db"
	httpctx "logsight/internal/http/ctx"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, dbpkg.Migrate(gdb))
	return gdb
}

func seedSession(t *testing.T, gdb *gorm.DB, ttl time.Duration) (*dbpkg.User, *dbpkg.Session) {
	t.Helper()
	u := &dbpkg.User{Email: "op@example.com", PasswordHash: "x"}
	require.NoError(t, gdb.Create(u).Error)
	s, err := dbpkg.CreateSession(gdb, u.ID, ttl)
	require.NoError(t, err)
	return u, s
}

// probe records whether the wrapped handler ran and which user it saw.
func probe(called *bool, sawUser **dbpkg.User) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		*called = true
		if sawUser != nil {
			if u, ok := httpctx.UserFromCtx(ctx); ok {
				*sawUser = u
			}
		}
		ctx.SetStatusCode(fasthttp.StatusOK)
	}
}

func TestSessionAuth_MissingCookie(t *testing.T) {
	gdb := newTestDB(t)

	called := false
	ctx := &fasthttp.RequestCtx{}
	SessionAuth(gdb)(probe(&called, nil))(ctx)

	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	assert.Equal(t, "application/json", string(ctx.Response.Header.ContentType()))

	// The rejection body is well-formed JSON with an "error" field, the
	// same shape the handlers marshal.
	var body map[string]string
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &body))
	assert.Equal(t, "authentication required", body["error"])
}

func TestSessionAuth_ValidSession(t *testing.T) {
	gdb := newTestDB(t)
	user, session := seedSession(t, gdb, time.Hour)

	called := false
	var saw *dbpkg.User
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetCookie(SessionCookie, session.Token)
	SessionAuth(gdb)(probe(&called, &saw))(ctx)

	assert.True(t, called)
	require.NotNil(t, saw)
	assert.Equal(t, user.ID, saw.ID)
}

func TestSessionAuth_ExpiredSession(t *testing.T) {
	gdb := newTestDB(t)
	_, session := seedSession(t, gdb, -time.Minute)

	called := false
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetCookie(SessionCookie, session.Token)
	SessionAuth(gdb)(probe(&called, nil))(ctx)

	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "invalid or expired session")
}

func TestOptionalSession_Anonymous(t *testing.T) {
	gdb := newTestDB(t)

	called := false
	var saw *dbpkg.User
	ctx := &fasthttp.RequestCtx{}
	OptionalSession(gdb)(probe(&called, &saw))(ctx)

	assert.True(t, called, "no cookie proceeds anonymously")
	assert.Nil(t, saw)
}

func TestOptionalSession_InvalidTokenRejected(t *testing.T) {
	gdb := newTestDB(t)

	called := false
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetCookie(SessionCookie, "bogus-token")
	OptionalSession(gdb)(probe(&called, nil))(ctx)

	assert.False(t, called, "a presented-but-invalid token is a hard 401, not anonymous")
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestOptionalSession_ValidToken(t *testing.T) {
	gdb := newTestDB(t)
	user, session := seedSession(t, gdb, time.Hour)

	called := false
	var saw *dbpkg.User
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetCookie(SessionCookie, session.Token)
	OptionalSession(gdb)(probe(&called, &saw))(ctx)

	assert.True(t, called)
	require.NotNil(t, saw)
	assert.Equal(t, user.ID, saw.ID)
}

func TestRedirectIfAuthenticated(t *testing.T) {
	gdb := newTestDB(t)
	_, session := seedSession(t, gdb, time.Hour)

	called := false
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetCookie(SessionCookie, session.Token)
	RedirectIfAuthenticated(gdb, "/events")(probe(&called, nil))(ctx)

	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusSeeOther, ctx.Response.StatusCode())
	assert.Equal(t, "/events", string(ctx.Response.Header.Peek("Location")))

	// Without a session the wrapped handler serves normally.
	called = false
	ctx = &fasthttp.RequestCtx{}
	RedirectIfAuthenticated(gdb, "/events")(probe(&called, nil))(ctx)
	assert.True(t, called)
}

func TestCORS(t *testing.T) {
	called := false
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	CORS(probe(&called, nil))(ctx)

	assert.True(t, called)
	assert.Equal(t, "*", string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")))
	assert.Equal(t, "GET, POST, DELETE, OPTIONS", string(ctx.Response.Header.Peek("Access-Control-Allow-Methods")))

	// Preflight short-circuits before the handler.
	called = false
	ctx = &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(fasthttp.MethodOptions)
	CORS(probe(&called, nil))(ctx)

	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusNoContent, ctx.Response.StatusCode())
	assert.Equal(t, "*", string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")))
}
