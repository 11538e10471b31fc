package httpadapter

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"strings"

	"arbiter/internal/app/detect"
	"arbiter/internal/app/pending"
	"arbiter/internal/app/ports"
	"arbiter/internal/app/resolve"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

const masterKeyHeader = "X-Master-Key"

type Handler struct {
	DetectUC  detect.UseCase
	ApplyUC   resolve.ApplyUseCase
	PendingUC pending.UseCase
	KPI       kpiSnapshotProvider
	MasterKey string
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware())

	conflicts := s.Group("/api/conflicts")
	conflicts.POST("/detect", h.detect)
	conflicts.POST("/resolve", h.resolveManual)
	conflicts.GET("/pending", h.pendingByGuild)

	s.GET("/ops/kpi", h.kpi)
}

type detectRequest struct {
	GuildID string                             `json:"guild_id"`
	Actions map[string][]detect.SubmittedAction `json:"actions"`
}

type resolveRequest struct {
	ConflictID string         `json:"conflict_id"`
	OutcomeKey string         `json:"outcome_key"`
	Params     map[string]any `json:"params,omitempty"`
	ResolvedBy string         `json:"resolved_by,omitempty"`
}

func (h Handler) detect(c context.Context, ctx *app.RequestContext) {
	var body detectRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	resp, err := h.DetectUC.Execute(c, detect.Request{
		GuildID: body.GuildID,
		Actions: body.Actions,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) resolveManual(c context.Context, ctx *app.RequestContext) {
	if err := h.requireMasterKey(ctx); err != nil {
		writeError(ctx, err)
		return
	}

	var body resolveRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if strings.TrimSpace(body.ConflictID) == "" || strings.TrimSpace(body.OutcomeKey) == "" {
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", "conflict_id and outcome_key are required")
		return
	}

	result := h.ApplyUC.Execute(c, resolve.ApplyRequest{
		ConflictID: body.ConflictID,
		OutcomeKey: body.OutcomeKey,
		Params:     body.Params,
		ResolvedBy: body.ResolvedBy,
	})
	if result.NotFound {
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", result.Message)
		return
	}
	ctx.JSON(consts.StatusOK, result)
}

func (h Handler) pendingByGuild(c context.Context, ctx *app.RequestContext) {
	resp, err := h.PendingUC.Execute(c, pending.Request{
		GuildID: string(ctx.Query("guild_id")),
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

func (h Handler) kpi(_ context.Context, ctx *app.RequestContext) {
	if h.KPI == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "kpi provider not configured")
		return
	}
	ctx.JSON(consts.StatusOK, h.KPI.SnapshotAny())
}

var ErrMissingMasterKey = errors.New("missing x-master-key header")
var ErrInvalidMasterKey = errors.New("invalid master key")
var ErrMasterKeyNotConfigured = errors.New("master key not configured")

func (h Handler) requireMasterKey(ctx *app.RequestContext) error {
	if h.MasterKey == "" {
		return ErrMasterKeyNotConfigured
	}
	key := strings.TrimSpace(string(ctx.GetHeader(masterKeyHeader)))
	if key == "" {
		return ErrMissingMasterKey
	}
	if subtle.ConstantTimeCompare([]byte(key), []byte(h.MasterKey)) != 1 {
		return ErrInvalidMasterKey
	}
	return nil
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func writeError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, ErrMissingMasterKey):
		writeErrorBody(ctx, consts.StatusUnauthorized, "missing_master_key", err.Error())
	case errors.Is(err, ErrInvalidMasterKey):
		writeErrorBody(ctx, consts.StatusUnauthorized, "invalid_master_key", err.Error())
	case errors.Is(err, ErrMasterKeyNotConfigured):
		writeErrorBody(ctx, consts.StatusServiceUnavailable, "master_key_not_configured", err.Error())
	case errors.Is(err, detect.ErrInvalidRequest),
		errors.Is(err, pending.ErrInvalidRequest):
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, ports.ErrNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ports.ErrConflict):
		writeErrorBody(ctx, consts.StatusConflict, "conflict", err.Error())
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
