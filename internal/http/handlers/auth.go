package handlers

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"logsight/internal/config"
	dbpkg "logsight/internal/db"
	httpctx "logsight/internal/http/ctx"
	appmw "logsight/internal/http/middleware"
)

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /login: verifies credentials, issues a session row,
// and sets the session cookie. Unknown email and wrong password are
// deliberately the same 401.
func Login(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var payload loginPayload
		if err := json.Unmarshal(ctx.PostBody(), &payload); err != nil {
			errJSON(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
			return
		}
		if payload.Email == "" || payload.Password == "" {
			errJSON(ctx, fasthttp.StatusBadRequest, "email and password are required")
			return
		}

		user, err := dbpkg.FindUserByEmail(db, payload.Email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				errJSON(ctx, fasthttp.StatusUnauthorized, "invalid email or password")
				return
			}
			storeErrJSON(ctx, err, cfg.Debug)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
			errJSON(ctx, fasthttp.StatusUnauthorized, "invalid email or password")
			return
		}

		ttl := time.Duration(cfg.SessionTTLHours) * time.Hour
		session, err := dbpkg.CreateSession(db, user.ID, ttl)
		if err != nil {
			storeErrJSON(ctx, err, cfg.Debug)
			return
		}

		var c fasthttp.Cookie
		c.SetKey(appmw.SessionCookie)
		c.SetValue(session.Token)
		c.SetPath("/")
		c.SetHTTPOnly(true)
		c.SetExpire(session.ExpiresAt)
		ctx.Response.Header.SetCookie(&c)

		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{
			"message": "logged in",
			"userId":  user.ID,
		})
	}
}

// Logout handles POST /logout: revokes the presented session, if any,
// and clears the cookie. Safe to call without a session.
func Logout(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		token, ok := httpctx.SessionTokenFromCtx(ctx)
		if !ok {
			token = string(ctx.Request.Header.Cookie(appmw.SessionCookie))
		}
		if token != "" {
			_ = dbpkg.DeleteSession(db, token)
		}

		var c fasthttp.Cookie
		c.SetKey(appmw.SessionCookie)
		c.SetValue("")
		c.SetPath("/")
		c.SetMaxAge(-1)
		ctx.Response.Header.SetCookie(&c)

		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{"message": "logged out"})
	}
}

// LoginInfo handles GET /login for unauthenticated callers; the
// RedirectIfAuthenticated wrapper sends signed-in callers elsewhere.
func LoginInfo() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{
			"message": "authenticate by POSTing {email, password} to /login",
		})
	}
}
