package handlers

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	"logsight/internal/config"
	dbpkg "logsight/internal/db"
	httpctx "logsight/internal/http/ctx"
)

// IngestPayload is the public ingestion body. Metadata is kept raw so
// whatever JSON the client sent is preserved verbatim as opaque text;
// it is never validated as well-formed structured data.
type IngestPayload struct {
	Message       string          `json:"message"`
	Stack         *string         `json:"stack"`
	Level         string          `json:"level"`
	Metadata      json.RawMessage `json:"metadata"`
	ServerURL     *string         `json:"serverUrl"`
	UserSecretKey *string         `json:"userSecretKey"`
	UserID        string          `json:"userId"`
}

// IngestEvent handles POST /events. Validation is strict here, in
// contrast to the permissive listing filters: a missing message or a
// level outside the closed set is a 400, never defaulted or coerced.
// defaultOwnerID, when non-empty, owns events whose payload carries no
// userId; when empty such payloads are rejected.
func IngestEvent(db *gorm.DB, cfg *config.Config, defaultOwnerID string) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var payload IngestPayload
		if err := json.Unmarshal(ctx.PostBody(), &payload); err != nil {
			eventsRejectedTotal.WithLabelValues("malformed_json").Inc()
			errJSON(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
			return
		}

		if payload.Message == "" {
			eventsRejectedTotal.WithLabelValues("missing_message").Inc()
			errJSON(ctx, fasthttp.StatusBadRequest, "message is required")
			return
		}

		level := payload.Level
		if level == "" {
			level = dbpkg.LevelError
		} else if !dbpkg.ValidLevel(level) {
			eventsRejectedTotal.WithLabelValues("invalid_level").Inc()
			errJSON(ctx, fasthttp.StatusBadRequest, "level must be error, warning, or info")
			return
		}

		userID := payload.UserID
		if userID == "" {
			if defaultOwnerID == "" {
				eventsRejectedTotal.WithLabelValues("missing_user_id").Inc()
				errJSON(ctx, fasthttp.StatusBadRequest, "userId is required")
				return
			}
			userID = defaultOwnerID
		}

		var metadata *string
		if len(payload.Metadata) > 0 && !bytes.Equal(payload.Metadata, []byte("null")) {
			s := string(payload.Metadata)
			metadata = &s
		}

		event := &dbpkg.Event{
			Message:       payload.Message,
			Stack:         payload.Stack,
			Level:         level,
			Metadata:      metadata,
			ServerURL:     payload.ServerURL,
			UserID:        userID,
			UserSecretKey: payload.UserSecretKey,
		}

		if err := dbpkg.CreateEvent(db, event); err != nil {
			storeErrJSON(ctx, err, cfg.Debug)
			return
		}

		eventsIngestedTotal.WithLabelValues(level).Inc()
		jsonResponse(ctx, fasthttp.StatusCreated, event)
	}
}

// ListPublicEvents handles GET /events: no identity check, every filter
// dimension available.
func ListPublicEvents(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		args := ctx.QueryArgs()
		params := dbpkg.FilterParams{
			Level:     string(args.Peek("level")),
			StartDate: string(args.Peek("startDate")),
			EndDate:   string(args.Peek("endDate")),
			ServerURL: string(args.Peek("serverUrl")),
			UserID:    string(args.Peek("userId")),
			Limit:     string(args.Peek("limit")),
			Offset:    string(args.Peek("offset")),
		}

		respondEventPage(ctx, db, cfg, dbpkg.BuildEventFilter(params, cfg.MaxPageSize))
	}
}

// ListMyEvents handles GET /events/mine. Only level/limit/offset are
// read from the query; the predicate is pinned to the caller's id, so no
// combination of parameters exposes another account's events.
func ListMyEvents(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}

		args := ctx.QueryArgs()
		params := dbpkg.FilterParams{
			Level:  string(args.Peek("level")),
			Limit:  string(args.Peek("limit")),
			Offset: string(args.Peek("offset")),
		}

		filter := dbpkg.BuildEventFilter(params, cfg.MaxPageSize)
		filter.UserID = user.ID

		respondEventPage(ctx, db, cfg, filter)
	}
}

func respondEventPage(ctx *fasthttp.RequestCtx, db *gorm.DB, cfg *config.Config, filter dbpkg.EventFilter) {
	events, total, err := dbpkg.FindEvents(db, filter)
	if err != nil {
		storeErrJSON(ctx, err, cfg.Debug)
		return
	}

	jsonResponse(ctx, fasthttp.StatusOK, map[string]any{
		"events": events,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// EventByID handles GET /events/{id}: a single event scoped to its
// owner. Someone else's event is indistinguishable from a missing one.
func EventByID(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}
		id, ok := pathID(ctx)
		if !ok {
			return
		}

		event, err := dbpkg.FindOwnedEvent(db, id, user.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				errJSON(ctx, fasthttp.StatusNotFound, "event not found")
				return
			}
			storeErrJSON(ctx, err, cfg.Debug)
			return
		}

		jsonResponse(ctx, fasthttp.StatusOK, event)
	}
}

// DeleteEvent handles DELETE /events/{id}. With a session the delete is
// ownership-scoped; anonymously it is by exact id, since publicly
// ingested rows are not ownership-tracked. A presented-but-invalid
// session never reaches this handler (OptionalSession rejects it).
func DeleteEvent(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		id, ok := pathID(ctx)
		if !ok {
			return
		}

		var deleted bool
		var err error
		if user, authed := httpctx.UserFromCtx(ctx); authed {
			deleted, err = dbpkg.DeleteOwnedEvent(db, id, user.ID)
		} else {
			deleted, err = dbpkg.DeleteEventByID(db, id)
		}
		if err != nil {
			storeErrJSON(ctx, err, cfg.Debug)
			return
		}
		if !deleted {
			errJSON(ctx, fasthttp.StatusNotFound, "event not found")
			return
		}

		eventsDeletedTotal.Inc()
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{
			"message":   "event deleted",
			"deletedId": id,
		})
	}
}

// ClearAllEvents handles DELETE /events: removes every event row
// unconditionally for an authenticated caller and reports how many went.
func ClearAllEvents(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}

		count, err := dbpkg.DeleteAllEvents(db)
		if err != nil {
			storeErrJSON(ctx, err, cfg.Debug)
			return
		}

		eventsDeletedTotal.Add(float64(count))
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{
			"message":      "all events cleared",
			"deletedCount": count,
		})
	}
}

func pathID(ctx *fasthttp.RequestCtx) (string, bool) {
	idVal := ctx.UserValue("id")
	if idVal == nil {
		errJSON(ctx, fasthttp.StatusBadRequest, "id required")
		return "", false
	}
	id, ok := idVal.(string)
	if !ok || id == "" {
		errJSON(ctx, fasthttp.StatusBadRequest, "invalid id")
		return "", false
	}
	return id, true
}
