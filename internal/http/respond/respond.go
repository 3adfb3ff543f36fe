// Package respond writes the service's JSON response bodies. Handlers and
// middleware share it so every error body is marshaled the same way and
// carries at least an "error" field.
package respond

import (
	"encoding/json"

	"github.com/valyala/fasthttp"
)

// JSON writes data with the given status code.
func JSON(ctx *fasthttp.RequestCtx, code int, data any) {
	ctx.SetStatusCode(code)
	ctx.SetContentType("application/json")
	body, _ := json.Marshal(data)
	ctx.SetBody(body)
}

// Error writes a failure body of the form {"error": msg}.
func Error(ctx *fasthttp.RequestCtx, code int, msg string) {
	JSON(ctx, code, map[string]any{"error": msg})
}
