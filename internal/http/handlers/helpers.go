package handlers

import (
	"log"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"

	dbpkg "logsight/internal/db"
	httpctx "logsight/internal/http/ctx"
	"logsight/internal/http/respond"
)

// MustUser returns the current user from context, or sends a JSON 401 and
// returns (nil, false).
func MustUser(ctx *fasthttp.RequestCtx) (*dbpkg.User, bool) {
	user, ok := httpctx.UserFromCtx(ctx)
	if !ok || user == nil {
		errJSON(ctx, fasthttp.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return user, true
}

// RequestLogger returns fasthttp middleware that logs method, path, status,
// duration, and counts every handled request by method and final status.
func RequestLogger(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)
		status := ctx.Response.StatusCode()
		httpRequestsTotal.WithLabelValues(string(ctx.Method()), strconv.Itoa(status)).Inc()
		log.Printf("%s %s -> %d (%s) ip=%s", ctx.Method(), ctx.Path(), status, time.Since(start), ctx.RemoteAddr())
	}
}

func jsonResponse(ctx *fasthttp.RequestCtx, code int, data any) {
	respond.JSON(ctx, code, data)
}

// errJSON writes a failure response. Every error body carries at least an
// "error" field; no endpoint surfaces a bare stack trace.
func errJSON(ctx *fasthttp.RequestCtx, code int, msg string) {
	respond.Error(ctx, code, msg)
}

// storeErrJSON maps a datastore failure to a sanitized 500. Debug mode
// includes the underlying error text.
func storeErrJSON(ctx *fasthttp.RequestCtx, err error, debug bool) {
	msg := "internal server error"
	if debug && err != nil {
		msg = err.Error()
	}
	errJSON(ctx, fasthttp.StatusInternalServerError, msg)
}
