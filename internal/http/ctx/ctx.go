package ctx

import (
	"github.com/valyala/fasthttp"

	dbpkg "logsight/internal/db"
)

const (
	UserKey         = "user"
	SessionTokenKey = "sessionToken"
)

func SetSessionToken(ctx *fasthttp.RequestCtx, token string) {
	ctx.SetUserValue(SessionTokenKey, token)
}

func SessionTokenFromCtx(ctx *fasthttp.RequestCtx) (string, bool) {
	v := ctx.UserValue(SessionTokenKey)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func SetUser(ctx *fasthttp.RequestCtx, user *dbpkg.User) {
	ctx.SetUserValue(UserKey, user)
}

func UserFromCtx(ctx *fasthttp.RequestCtx) (*dbpkg.User, bool) {
	v := ctx.UserValue(UserKey)
	if v == nil {
		return nil, false
	}
	u, ok := v.(*dbpkg.User)
	return u, ok
}
