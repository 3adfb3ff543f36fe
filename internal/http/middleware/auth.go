package middleware

import (
	"errors"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	dbpkg "logsight/internal/db"
	httpctx "logsight/internal/http/ctx"
	"logsight/internal/http/respond"
)

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "session_token"

// SessionAuth guards requires-auth routes. The session cookie must be
// present and resolve to an unexpired session; otherwise the request is
// rejected with a JSON 401 before the handler runs.
func SessionAuth(db *gorm.DB) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			token := string(ctx.Request.Header.Cookie(SessionCookie))
			if token == "" {
				unauthorized(ctx, "authentication required")
				return
			}

			user, err := dbpkg.SessionUser(db, token)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					unauthorized(ctx, "invalid or expired session")
					return
				}
				storeError(ctx)
				return
			}

			httpctx.SetSessionToken(ctx, token)
			httpctx.SetUser(ctx, user)
			next(ctx)
		}
	}
}

// OptionalSession serves routes that are public but still honor identity
// when one is presented. No cookie means the request proceeds anonymously;
// a cookie that fails validation is a 401 rather than a silent downgrade
// to anonymous.
func OptionalSession(db *gorm.DB) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			token := string(ctx.Request.Header.Cookie(SessionCookie))
			if token == "" {
				next(ctx)
				return
			}

			user, err := dbpkg.SessionUser(db, token)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					unauthorized(ctx, "invalid or expired session")
					return
				}
				storeError(ctx)
				return
			}

			httpctx.SetSessionToken(ctx, token)
			httpctx.SetUser(ctx, user)
			next(ctx)
		}
	}
}

// RedirectIfAuthenticated wraps the login route: a caller that already
// holds a valid session is sent to the events listing instead.
func RedirectIfAuthenticated(db *gorm.DB, target string) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			token := string(ctx.Request.Header.Cookie(SessionCookie))
			if token != "" {
				if _, err := dbpkg.SessionUser(db, token); err == nil {
					ctx.Redirect(target, fasthttp.StatusSeeOther)
					return
				}
			}
			next(ctx)
		}
	}
}

func unauthorized(ctx *fasthttp.RequestCtx, msg string) {
	respond.Error(ctx, fasthttp.StatusUnauthorized, msg)
}

func storeError(ctx *fasthttp.RequestCtx) {
	respond.Error(ctx, fasthttp.StatusInternalServerError, "database error")
}
