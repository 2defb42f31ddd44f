package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"fableturn/internal/app/ports"
)

type fakeCredentialRepo struct {
	last     ports.PlayerCredentialRecord
	failures int
}

func (r *fakeCredentialRepo) Create(_ context.Context, credential ports.PlayerCredentialRecord) error {
	if r.failures > 0 {
		r.failures--
		return ports.ErrConflict
	}
	r.last = credential
	return nil
}

func (r *fakeCredentialRepo) GetByPlayerID(_ context.Context, playerID string) (ports.PlayerCredentialRecord, error) {
	if r.last.PlayerID != playerID {
		return ports.PlayerCredentialRecord{}, ports.ErrNotFound
	}
	return r.last, nil
}

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func TestRegister_CreatesCredential(t *testing.T) {
	creds := &fakeCredentialRepo{}
	uc := RegisterUseCase{
		Credentials: creds,
		TxManager:   fakeTxManager{},
		Now:         func() time.Time { return time.Unix(1700000000, 0).UTC() },
	}

	resp, err := uc.Execute(context.Background(), RegisterRequest{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.PlayerID == "" || resp.PlayerKey == "" || resp.IssuedAt == "" {
		t.Fatalf("empty response: %+v", resp)
	}
	if !strings.HasPrefix(resp.PlayerID, "plr_20231114_") {
		t.Fatalf("player id format: %q", resp.PlayerID)
	}
	if creds.last.PlayerID != resp.PlayerID {
		t.Fatalf("credential not stored: %+v", creds.last)
	}
	if creds.last.Status != CredentialStatusActive {
		t.Fatalf("status = %q", creds.last.Status)
	}
}

func TestRegister_RetriesOnIDCollision(t *testing.T) {
	creds := &fakeCredentialRepo{failures: 1}
	uc := RegisterUseCase{Credentials: creds, TxManager: fakeTxManager{}}

	resp, err := uc.Execute(context.Background(), RegisterRequest{})
	if err != nil {
		t.Fatalf("register after collision: %v", err)
	}
	if creds.last.PlayerID != resp.PlayerID {
		t.Fatalf("credential not stored on retry")
	}
}

func TestVerify_RoundTrip(t *testing.T) {
	creds := &fakeCredentialRepo{}
	reg := RegisterUseCase{Credentials: creds, TxManager: fakeTxManager{}}
	resp, err := reg.Execute(context.Background(), RegisterRequest{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	verify := VerifyUseCase{Credentials: creds}
	if err := verify.Execute(context.Background(), VerifyRequest{PlayerID: resp.PlayerID, PlayerKey: resp.PlayerKey}); err != nil {
		t.Fatalf("verify issued key: %v", err)
	}
	if err := verify.Execute(context.Background(), VerifyRequest{PlayerID: resp.PlayerID, PlayerKey: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong key: want ErrInvalidCredentials, got %v", err)
	}
	if err := verify.Execute(context.Background(), VerifyRequest{PlayerID: "plr_nope", PlayerKey: "x"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown player: want ErrInvalidCredentials, got %v", err)
	}
}

func TestVerify_InactiveCredential(t *testing.T) {
	creds := &fakeCredentialRepo{}
	reg := RegisterUseCase{Credentials: creds, TxManager: fakeTxManager{}}
	resp, err := reg.Execute(context.Background(), RegisterRequest{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	creds.last.Status = "revoked"

	verify := VerifyUseCase{Credentials: creds}
	if err := verify.Execute(context.Background(), VerifyRequest{PlayerID: resp.PlayerID, PlayerKey: resp.PlayerKey}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("revoked: want ErrInvalidCredentials, got %v", err)
	}
}

func TestVerify_BlankRequest(t *testing.T) {
	verify := VerifyUseCase{Credentials: &fakeCredentialRepo{}}
	if err := verify.Execute(context.Background(), VerifyRequest{}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("want ErrInvalidRequest, got %v", err)
	}
}
