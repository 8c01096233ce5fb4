package sandbox

import (
	"context"
	"errors"
	"testing"

	"github.com/terra-clan/mentor-engine/internal/models"
	"github.com/terra-clan/mentor-engine/internal/storage"
)

func TestMarkerCheckerPass(t *testing.T) {
	passed, msg, err := MarkerChecker{}.Check(context.Background(), "c1", "print('expected_solution')")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !passed {
		t.Error("submission containing the marker must pass")
	}
	if msg == "" {
		t.Error("expected a message for the student")
	}
}

func TestMarkerCheckerFail(t *testing.T) {
	passed, msg, err := MarkerChecker{}.Check(context.Background(), "c1", "print('guess')")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if passed {
		t.Error("submission without the marker must fail")
	}
	if msg != "Incorrect solution. Try again!" {
		t.Errorf("unexpected failure message: %q", msg)
	}
}

func TestSubmitCreatesProofOnPass(t *testing.T) {
	repo := storage.NewMemoryRepository()
	svc := NewService(repo, MarkerChecker{})
	ctx := context.Background()

	user := &models.UserIdentity{ID: "u1"}

	result, err := svc.Submit(ctx, user, "code with expected_solution", "c1", 2)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !result.Success {
		t.Fatal("expected success")
	}
	if result.ProofID == "" {
		t.Fatal("expected a proof id")
	}

	proof := repo.GetProof(result.ProofID)
	if proof == nil {
		t.Fatal("proof record not stored")
	}
	if proof.UserID != "u1" || proof.ChallengeID != "c1" {
		t.Errorf("unexpected proof context: %+v", proof)
	}
	if proof.AssistsUsed != 2 {
		t.Errorf("proof must record the reported assist count, got %d", proof.AssistsUsed)
	}
}

func TestSubmitNoProofOnFail(t *testing.T) {
	repo := storage.NewMemoryRepository()
	svc := NewService(repo, MarkerChecker{})

	result, err := svc.Submit(context.Background(), &models.UserIdentity{ID: "u1"}, "wrong answer", "c1", 0)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.Success {
		t.Error("expected failure")
	}
	if result.ProofID != "" {
		t.Error("failed submission must not create a proof")
	}
}

func TestSubmitRepeatedCreatesIndependentProofs(t *testing.T) {
	repo := storage.NewMemoryRepository()
	svc := NewService(repo, MarkerChecker{})
	ctx := context.Background()
	user := &models.UserIdentity{ID: "u1"}

	first, err := svc.Submit(ctx, user, "expected_solution", "c1", 0)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	second, err := svc.Submit(ctx, user, "expected_solution", "c1", 0)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if first.ProofID == second.ProofID {
		t.Error("repeated submissions must create independent proof records")
	}
}

type failingChecker struct{}

func (failingChecker) Check(context.Context, string, string) (bool, string, error) {
	return false, "", errors.New("docker daemon unreachable")
}

func TestSubmitCheckerError(t *testing.T) {
	repo := storage.NewMemoryRepository()
	svc := NewService(repo, failingChecker{})

	_, err := svc.Submit(context.Background(), &models.UserIdentity{ID: "u1"}, "code", "c1", 0)
	if err == nil {
		t.Fatal("checker infrastructure failure must surface as an error")
	}
}

func TestSubmitFlagsAssistCountMismatch(t *testing.T) {
	repo := storage.NewMemoryRepository()
	ctx := context.Background()

	// Two logged assist events, client will report zero. The mismatch is
	// flagged but the reported value wins.
	if _, err := repo.CreateTicket(ctx, "u1", "c1", models.KindSnippetRequest); err != nil {
		t.Fatalf("CreateTicket failed: %v", err)
	}
	if _, err := repo.CreateTicket(ctx, "u1", "c1", models.KindPeerRequest); err != nil {
		t.Fatalf("CreateTicket failed: %v", err)
	}

	svc := NewService(repo, MarkerChecker{})
	result, err := svc.Submit(ctx, &models.UserIdentity{ID: "u1"}, "expected_solution", "c1", 0)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	proof := repo.GetProof(result.ProofID)
	if proof == nil {
		t.Fatal("proof record not stored")
	}
	if proof.AssistsUsed != 0 {
		t.Errorf("reported count must be stored as-is, got %d", proof.AssistsUsed)
	}
}
