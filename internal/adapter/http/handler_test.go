package httpadapter

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	idemcache "fableturn/internal/adapter/idemcache/inmemory"
	metricsinmem "fableturn/internal/adapter/metrics/inmemory"
	"fableturn/internal/adapter/narrator/scripted"
	"fableturn/internal/adapter/repo/memory"
	"fableturn/internal/app/auth"
	"fableturn/internal/app/ports"
	"fableturn/internal/app/turn"
	"fableturn/internal/domain/narrate"
)

func hashForTest(salt []byte, key string) []byte {
	b := append(append([]byte{}, salt...), key...)
	sum := sha256.Sum256(b)
	return sum[:]
}

type fakeCredentialStore struct {
	cred ports.PlayerCredentialRecord
}

func (s fakeCredentialStore) Create(context.Context, ports.PlayerCredentialRecord) error {
	return nil
}

func (s fakeCredentialStore) GetByPlayerID(_ context.Context, playerID string) (ports.PlayerCredentialRecord, error) {
	if s.cred.PlayerID != playerID {
		return ports.PlayerCredentialRecord{}, ports.ErrNotFound
	}
	return s.cred, nil
}

func TestRequireAuthenticatedPlayer_FromHeaders(t *testing.T) {
	salt := []byte("salt")
	key := "k1"
	h := Handler{
		AuthUC: auth.VerifyUseCase{Credentials: fakeCredentialStore{
			cred: ports.PlayerCredentialRecord{
				PlayerID: "player-1",
				KeySalt:  salt,
				KeyHash:  hashForTest(salt, key),
				Status:   auth.CredentialStatusActive,
			},
		}},
	}
	ctx := &app.RequestContext{}
	ctx.Request.Header.Set(playerIDHeader, "player-1")
	ctx.Request.Header.Set(playerKeyHeader, key)

	playerID, err := h.requireAuthenticatedPlayer(context.Background(), ctx)
	if err != nil {
		t.Fatalf("requireAuthenticatedPlayer error: %v", err)
	}
	if playerID != "player-1" {
		t.Fatalf("unexpected player id: %q", playerID)
	}
}

func TestRequireAuthenticatedPlayer_MissingHeaders(t *testing.T) {
	h := Handler{}
	ctx := &app.RequestContext{}

	if _, err := h.requireAuthenticatedPlayer(context.Background(), ctx); !errors.Is(err, ErrMissingPlayerCredentials) {
		t.Fatalf("expected ErrMissingPlayerCredentials, got %v", err)
	}

	ctx.Request.Header.Set(playerIDHeader, "player-1")
	if _, err := h.requireAuthenticatedPlayer(context.Background(), ctx); !errors.Is(err, ErrMissingPlayerKeyHeader) {
		t.Fatalf("expected ErrMissingPlayerKeyHeader, got %v", err)
	}
}

func TestRequireAuthenticatedPlayer_InvalidCredentials(t *testing.T) {
	h := Handler{
		AuthUC: auth.VerifyUseCase{Credentials: fakeCredentialStore{}},
	}
	ctx := &app.RequestContext{}
	ctx.Request.Header.Set(playerIDHeader, "player-1")
	ctx.Request.Header.Set(playerKeyHeader, "wrong")

	if _, err := h.requireAuthenticatedPlayer(context.Background(), ctx); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId"`
}

func decodeErrorBody(t *testing.T, ctx *app.RequestContext) errorBody {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(ctx.Response.Body(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, ctx.Response.Body())
	}
	return body
}

func TestWriteError_Mapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{ErrMissingPlayerCredentials, consts.StatusUnauthorized, "auth_required"},
		{auth.ErrInvalidCredentials, consts.StatusUnauthorized, "auth_invalid"},
		{turn.ErrInvalidRequest, consts.StatusBadRequest, "invalid_request"},
		{ports.ErrNotFound, consts.StatusNotFound, "board_not_found"},
		{ports.ErrConflict, consts.StatusConflict, "turn_conflict"},
		{ports.ErrNotReady, consts.StatusServiceUnavailable, "turn_engine_not_ready"},
		{errors.New("boom"), consts.StatusInternalServerError, "turn_commit_failed"},
	}
	h := Handler{}
	for _, tc := range cases {
		ctx := &app.RequestContext{}
		h.writeError(ctx, tc.err)
		if ctx.Response.StatusCode() != tc.status {
			t.Fatalf("%v: status %d, want %d", tc.err, ctx.Response.StatusCode(), tc.status)
		}
		if body := decodeErrorBody(t, ctx); body.Code != tc.code {
			t.Fatalf("%v: code %q, want %q", tc.err, body.Code, tc.code)
		}
	}
}

const scriptedTurnReply = `{
  "narration": "The harbor wind carries salt and rumor through the narrow streets as you shoulder past the evening crowd.",
  "scene": {"location": "harbor"},
  "runtime_delta": {},
  "ui_actions": [
    {"label": "Visit Maren's stall", "intent": "shop_action", "payload": {"vendorId": "vendor-1"}},
    {"label": "Walk the docks", "intent": "quest_action"}
  ]
}`

func newTurnHandler(t *testing.T) Handler {
	t.Helper()
	store := memory.NewStore()
	store.SeedBoard(ports.BoardRecord{
		BoardID:      "board-1",
		CampaignID:   "camp-1",
		Mode:         "town",
		Title:        "Greyharbor",
		Vendors:      []narrate.Vendor{{ID: "vendor-1", Name: "Maren"}},
		PartyHPRatio: 1,
		Version:      1,
	})
	salt := []byte("salt")
	creds := fakeCredentialStore{cred: ports.PlayerCredentialRecord{
		PlayerID: "player-1",
		KeySalt:  salt,
		KeyHash:  hashForTest(salt, "key-1"),
		Status:   auth.CredentialStatusActive,
	}}
	return Handler{
		AuthUC: auth.VerifyUseCase{Credentials: creds},
		TurnUC: turn.UseCase{
			TxManager:     memory.NewTxManager(store),
			BoardRepo:     memory.NewBoardRepo(store),
			TurnRepo:      memory.NewTurnRepo(store),
			CharacterRepo: memory.NewCharacterRepo(store),
			CompanionRepo: memory.NewCompanionRepo(store),
			RewardRepo:    memory.NewRewardGrantRepo(store),
			Narrator:      scripted.New(scriptedTurnReply),
			Cache:         idemcache.NewCache(20*time.Second, nil),
			Metrics:       metricsinmem.NewRecorder(),
			Config: turn.Config{
				SeedSalt:          "salt",
				MinNarrationWords: 5,
				MaxNarrationWords: 160,
			},
		},
	}
}

func TestTurnEndpoint_CommitsAndReturnsContract(t *testing.T) {
	h := newTurnHandler(t)
	ctx := &app.RequestContext{}
	ctx.Request.Header.Set(playerIDHeader, "player-1")
	ctx.Request.Header.Set(playerKeyHeader, "key-1")
	ctx.Request.SetBody([]byte(`{"campaign_id":"camp-1","board_id":"board-1","message":"look around"}`))

	h.turn(context.Background(), ctx)

	if ctx.Response.StatusCode() != consts.StatusOK {
		t.Fatalf("status %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	var resp struct {
		SchemaVersion int              `json:"schema_version"`
		Narration     string           `json:"narration"`
		UIActions     []narrate.Action `json:"ui_actions"`
		Meta          struct {
			TurnIndex          int64 `json:"turn_index"`
			ValidationAttempts int   `json:"dm_validation_attempts"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(ctx.Response.Body(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SchemaVersion != 1 || resp.Narration == "" {
		t.Fatalf("unexpected response: %s", ctx.Response.Body())
	}
	if resp.Meta.TurnIndex != 0 || resp.Meta.ValidationAttempts != 1 {
		t.Fatalf("unexpected meta: %+v", resp.Meta)
	}
	if len(resp.UIActions) < 2 {
		t.Fatalf("actions: %+v", resp.UIActions)
	}
}

func TestTurnEndpoint_UnknownBoard(t *testing.T) {
	h := newTurnHandler(t)
	ctx := &app.RequestContext{}
	ctx.Request.Header.Set(playerIDHeader, "player-1")
	ctx.Request.Header.Set(playerKeyHeader, "key-1")
	ctx.Request.SetBody([]byte(`{"campaign_id":"camp-1","board_id":"board-404"}`))

	h.turn(context.Background(), ctx)

	if ctx.Response.StatusCode() != consts.StatusNotFound {
		t.Fatalf("status %d", ctx.Response.StatusCode())
	}
	if body := decodeErrorBody(t, ctx); body.Code != "board_not_found" {
		t.Fatalf("code %q", body.Code)
	}
}
