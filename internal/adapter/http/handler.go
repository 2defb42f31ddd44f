package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"fableturn/internal/app/auth"
	"fableturn/internal/app/observe"
	"fableturn/internal/app/ports"
	"fableturn/internal/app/replay"
	"fableturn/internal/app/status"
	"fableturn/internal/app/turn"
	"fableturn/internal/domain/narrate"
)

const playerIDHeader = "X-Player-ID"
const playerKeyHeader = "X-Player-Key"
const requestIDHeader = "X-Request-ID"

var (
	ErrMissingPlayerCredentials = errors.New("missing player credentials")
	ErrMissingPlayerIDHeader    = errors.New("missing x-player-id header")
	ErrMissingPlayerKeyHeader   = errors.New("missing x-player-key header")
)

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

type Handler struct {
	RegisterUC auth.RegisterUseCase
	AuthUC     auth.VerifyUseCase
	TurnUC     turn.UseCase
	ObserveUC  observe.UseCase
	StatusUC   status.UseCase
	ReplayUC   replay.UseCase
	KPI        kpiSnapshotProvider
	Logger     *zap.Logger
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware())
	s.Use(requestIDMiddleware())

	campaign := s.Group("/api/campaign")
	campaign.POST("/turn", h.turn)
	campaign.POST("/observe", h.observe)
	campaign.POST("/status", h.status)
	campaign.GET("/replay", h.replay)

	s.POST("/api/player/register", h.register)
	s.GET("/ops/kpi", h.kpi)
}

type turnRequest struct {
	CampaignID   string                `json:"campaign_id"`
	BoardID      string                `json:"board_id"`
	ClientKey    string                `json:"client_key,omitempty"`
	Message      string                `json:"message,omitempty"`
	Mode         string                `json:"mode,omitempty"`
	Freeform     bool                  `json:"freeform,omitempty"`
	ActionIntent string                `json:"action_intent,omitempty"`
	Events       []narrate.CombatEvent `json:"events,omitempty"`
	DeadActors   map[string]bool       `json:"dead_actors,omitempty"`
}

type observeRequest struct {
	CampaignID string `json:"campaign_id"`
	BoardID    string `json:"board_id"`
}

type statusRequest struct {
	CampaignID string `json:"campaign_id"`
	BoardID    string `json:"board_id"`
}

func (h Handler) turn(c context.Context, ctx *app.RequestContext) {
	playerID, err := h.requireAuthenticatedPlayer(c, ctx)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	var body turnRequest
	if err := decodeJSON(ctx, &body); err != nil {
		h.writeErrorBody(ctx, consts.StatusBadRequest, "invalid_request", "invalid json", nil)
		return
	}

	resp, err := h.TurnUC.Execute(c, turn.Request{
		CampaignID:   body.CampaignID,
		PlayerID:     playerID,
		BoardID:      body.BoardID,
		ClientKey:    body.ClientKey,
		Message:      body.Message,
		Mode:         body.Mode,
		Freeform:     body.Freeform,
		ActionIntent: body.ActionIntent,
		Events:       body.Events,
		DeadActors:   body.DeadActors,
	})
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	// Serve the serialized bytes directly so idempotent replays stay
	// byte-identical with the first delivery.
	ctx.Data(consts.StatusOK, "application/json; charset=utf-8", resp.Raw)
}

func (h Handler) observe(c context.Context, ctx *app.RequestContext) {
	if _, err := h.requireAuthenticatedPlayer(c, ctx); err != nil {
		h.writeError(ctx, err)
		return
	}

	var body observeRequest
	if err := decodeJSON(ctx, &body); err != nil {
		h.writeErrorBody(ctx, consts.StatusBadRequest, "invalid_request", "invalid json", nil)
		return
	}

	resp, err := h.ObserveUC.Execute(c, observe.Request{CampaignID: body.CampaignID, BoardID: body.BoardID})
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) status(c context.Context, ctx *app.RequestContext) {
	if _, err := h.requireAuthenticatedPlayer(c, ctx); err != nil {
		h.writeError(ctx, err)
		return
	}

	var body statusRequest
	if err := decodeJSON(ctx, &body); err != nil {
		h.writeErrorBody(ctx, consts.StatusBadRequest, "invalid_request", "invalid json", nil)
		return
	}

	resp, err := h.StatusUC.Execute(c, status.Request{CampaignID: body.CampaignID, BoardID: body.BoardID})
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) replay(c context.Context, ctx *app.RequestContext) {
	if _, err := h.requireAuthenticatedPlayer(c, ctx); err != nil {
		h.writeError(ctx, err)
		return
	}

	limit, _ := strconv.Atoi(string(ctx.Query("limit")))
	fromIndex, _ := strconv.ParseInt(string(ctx.Query("from_index")), 10, 64)
	toIndex, _ := strconv.ParseInt(string(ctx.Query("to_index")), 10, 64)
	resp, err := h.ReplayUC.Execute(c, replay.Request{
		CampaignID: string(ctx.Query("campaign_id")),
		Limit:      limit,
		FromIndex:  fromIndex,
		ToIndex:    toIndex,
	})
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) register(c context.Context, ctx *app.RequestContext) {
	resp, err := h.RegisterUC.Execute(c, auth.RegisterRequest{})
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusCreated, resp)
}

func (h Handler) kpi(_ context.Context, ctx *app.RequestContext) {
	if h.KPI == nil {
		h.writeErrorBody(ctx, consts.StatusNotFound, "invalid_request", "kpi provider not configured", nil)
		return
	}
	ctx.JSON(consts.StatusOK, h.KPI.SnapshotAny())
}

func (h Handler) requireAuthenticatedPlayer(c context.Context, ctx *app.RequestContext) (string, error) {
	playerID := strings.TrimSpace(string(ctx.GetHeader(playerIDHeader)))
	playerKey := strings.TrimSpace(string(ctx.GetHeader(playerKeyHeader)))
	if playerID == "" && playerKey == "" {
		return "", ErrMissingPlayerCredentials
	}
	if playerID == "" {
		return "", ErrMissingPlayerIDHeader
	}
	if playerKey == "" {
		return "", ErrMissingPlayerKeyHeader
	}
	if err := h.AuthUC.Execute(c, auth.VerifyRequest{
		PlayerID:  playerID,
		PlayerKey: playerKey,
	}); err != nil {
		return "", err
	}
	return playerID, nil
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func (h Handler) writeError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, ErrMissingPlayerCredentials),
		errors.Is(err, ErrMissingPlayerIDHeader),
		errors.Is(err, ErrMissingPlayerKeyHeader):
		h.writeErrorBody(ctx, consts.StatusUnauthorized, "auth_required", err.Error(), nil)
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.writeErrorBody(ctx, consts.StatusUnauthorized, "auth_invalid", err.Error(), nil)
	case errors.Is(err, turn.ErrInvalidRequest),
		errors.Is(err, auth.ErrInvalidRequest),
		errors.Is(err, observe.ErrInvalidRequest),
		errors.Is(err, status.ErrInvalidRequest),
		errors.Is(err, replay.ErrInvalidRequest):
		h.writeErrorBody(ctx, consts.StatusBadRequest, "invalid_request", err.Error(), nil)
	case errors.Is(err, ports.ErrNotFound):
		h.writeErrorBody(ctx, consts.StatusNotFound, "board_not_found", "board or campaign runtime not found", nil)
	case errors.Is(err, ports.ErrConflict):
		h.writeErrorBody(ctx, consts.StatusConflict, "turn_conflict", "turn index already committed, refresh and retry", nil)
	case errors.Is(err, ports.ErrNotReady):
		h.writeErrorBody(ctx, consts.StatusServiceUnavailable, "turn_engine_not_ready", err.Error(), nil)
	default:
		if h.Logger != nil {
			h.Logger.Error("unhandled request error", zap.Error(err))
		}
		h.writeErrorBody(ctx, consts.StatusInternalServerError, "turn_commit_failed", "internal error", nil)
	}
}

func (h Handler) writeErrorBody(ctx *app.RequestContext, statusCode int, code, message string, details map[string]any) {
	body := map[string]any{
		"error":     message,
		"code":      code,
		"requestId": ctx.Response.Header.Get(requestIDHeader),
	}
	if len(details) > 0 {
		body["details"] = details
	}
	ctx.JSON(statusCode, body)
}

func requestIDMiddleware() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		id := strings.TrimSpace(string(ctx.GetHeader(requestIDHeader)))
		if id == "" {
			id = uuid.NewString()
		}
		ctx.Response.Header.Set(requestIDHeader, id)
		ctx.Next(c)
	}
}
