package handlers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	dbpkg "logsight/internal/db"
	appmw "logsight/internal/http/middleware"
)

func seedOperator(t *testing.T, gdb *gorm.DB, email, password string) *dbpkg.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &dbpkg.User{Email: email, PasswordHash: string(hash)}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

func TestLogin_Success(t *testing.T) {
	gdb := newTestDB(t)
	user := seedOperator(t, gdb, "op@example.com", "s3cret")

	ctx := newRequestCtx("POST", "/login", `{"email":"op@example.com","password":"s3cret"}`)
	Login(gdb, testConfig())(ctx)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.Equal(t, user.ID, resp["userId"])

	cookie := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(cookie)
	cookie.SetKey(appmw.SessionCookie)
	require.True(t, ctx.Response.Header.Cookie(cookie))
	token := string(cookie.Value())
	require.NotEmpty(t, token)

	// The cookie value is a live session token.
	got, err := dbpkg.SessionUser(gdb, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestLogin_WrongPassword(t *testing.T) {
	gdb := newTestDB(t)
	seedOperator(t, gdb, "op@example.com", "s3cret")

	ctx := newRequestCtx("POST", "/login", `{"email":"op@example.com","password":"wrong"}`)
	Login(gdb, testConfig())(ctx)

	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "invalid email or password")
}

func TestLogin_UnknownEmail(t *testing.T) {
	gdb := newTestDB(t)

	ctx := newRequestCtx("POST", "/login", `{"email":"nobody@example.com","password":"x"}`)
	Login(gdb, testConfig())(ctx)

	// Same 401 as a wrong password; accounts cannot be enumerated.
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "invalid email or password")
}

func TestLogin_BadRequest(t *testing.T) {
	gdb := newTestDB(t)

	ctx := newRequestCtx("POST", "/login", `{"email":"op@example.com"}`)
	Login(gdb, testConfig())(ctx)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

	ctx = newRequestCtx("POST", "/login", `not json`)
	Login(gdb, testConfig())(ctx)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
}

func TestLogout_RevokesSession(t *testing.T) {
	gdb := newTestDB(t)
	user := seedOperator(t, gdb, "op@example.com", "s3cret")
	session, err := dbpkg.CreateSession(gdb, user.ID, time.Hour)
	require.NoError(t, err)

	ctx := newRequestCtx("POST", "/logout", "")
	ctx.Request.Header.SetCookie(appmw.SessionCookie, session.Token)
	Logout(gdb)(ctx)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	_, err = dbpkg.SessionUser(gdb, session.Token)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestLogout_WithoutSession(t *testing.T) {
	gdb := newTestDB(t)

	ctx := newRequestCtx("POST", "/logout", "")
	Logout(gdb)(ctx)

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
}
