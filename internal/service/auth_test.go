package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/sakif/spacetime/internal/apperror"
	"github.com/sakif/spacetime/internal/auth"
	"github.com/sakif/spacetime/internal/model"
)

// =========================================================================
// FAKES
// =========================================================================

// fakeExchanger returns a canned profile (or error) for any code, and
// counts calls so tests can assert the one-round-trip contract.
type fakeExchanger struct {
	profile *auth.GitHubUser
	err     error
	calls   int
}

func (f *fakeExchanger) Exchange(ctx context.Context, code string) (*auth.GitHubUser, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

// fakeUserRepo is an in-memory repository.UserRepository. The
// conflictOnCreate switch simulates losing the unique-constraint race:
// Create fails with ErrConflict AND the row appears (as if a concurrent
// request inserted it).
type fakeUserRepo struct {
	byID             map[string]*model.User
	byGitHubID       map[int64]*model.User
	nextID           int
	createErr        error
	conflictOnCreate bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:       make(map[string]*model.User),
		byGitHubID: make(map[int64]*model.User),
		nextID:     1,
	}
}

func (f *fakeUserRepo) insert(user *model.User) *model.User {
	stored := *user
	stored.ID = fmt.Sprintf("user-%d", f.nextID)
	f.nextID++
	stored.CreatedAt = time.Now()
	f.byID[stored.ID] = &stored
	f.byGitHubID[stored.GitHubID] = &stored
	return &stored
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, exists := f.byGitHubID[user.GitHubID]; exists {
		return apperror.Conflict("user", "github_id")
	}
	if f.conflictOnCreate {
		// The "other" request wins the race: its row lands, ours conflicts.
		winner := *user
		winner.Name = "race-winner"
		f.insert(&winner)
		return apperror.Conflict("user", "github_id")
	}
	*user = *f.insert(user)
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return u, nil
}

func (f *fakeUserRepo) GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	u, ok := f.byGitHubID[githubID]
	if !ok {
		return nil, apperror.NotFound("user", fmt.Sprint(githubID))
	}
	return u, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestAuthService(t *testing.T, exchanger IdentityExchanger, repo *fakeUserRepo) (*AuthService, *auth.TokenService) {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return NewAuthService(exchanger, repo, tokens, testLogger()), tokens
}

func octocatProfile() *auth.GitHubUser {
	name := "The Octocat"
	return &auth.GitHubUser{
		ID:        42,
		Name:      &name,
		Login:     "octocat",
		AvatarURL: "https://avatars.githubusercontent.com/u/42",
	}
}

// =========================================================================
// REGISTER TESTS
// =========================================================================

func TestRegister_FirstLoginCreatesUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc, tokens := newTestAuthService(t, &fakeExchanger{profile: octocatProfile()}, repo)

	token, err := svc.Register(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if token == "" {
		t.Fatal("Register() returned empty token")
	}

	user, err := repo.GetByGitHubID(context.Background(), 42)
	if err != nil {
		t.Fatalf("user not created: %v", err)
	}
	if user.Name != "The Octocat" {
		t.Errorf("user.Name = %q, want %q", user.Name, "The Octocat")
	}

	// The token's subject must be the internal user ID and the display
	// claims must match the stored row.
	claims, err := tokens.Validate(token)
	if err != nil {
		t.Fatalf("Validate() on issued token: %v", err)
	}
	if claims.Subject != user.ID {
		t.Errorf("token subject = %q, want %q", claims.Subject, user.ID)
	}
	if claims.Name != user.Name || claims.AvatarURL != user.AvatarURL {
		t.Error("token display claims don't match the stored user")
	}
}

// Repeat authentication for the same identity must not create a second
// row, and the claims come from the STORED record — not the freshly
// fetched profile.
func TestRegister_RepeatLoginReusesStoredUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc, tokens := newTestAuthService(t, &fakeExchanger{profile: octocatProfile()}, repo)

	if _, err := svc.Register(context.Background(), "abc123"); err != nil {
		t.Fatalf("first Register(): %v", err)
	}
	firstUser, _ := repo.GetByGitHubID(context.Background(), 42)

	// Same identity comes back with a changed display name. Both
	// services share the repo and secret, only the exchanger differs.
	newName := "Renamed Octocat"
	renamed := octocatProfile()
	renamed.Name = &newName
	svc2, _ := newTestAuthService(t, &fakeExchanger{profile: renamed}, repo)

	token, err := svc2.Register(context.Background(), "def456")
	if err != nil {
		t.Fatalf("second Register(): %v", err)
	}

	if len(repo.byGitHubID) != 1 {
		t.Fatalf("user rows = %d, want exactly 1", len(repo.byGitHubID))
	}

	claims, err := tokens.Validate(token)
	if err != nil {
		t.Fatalf("Validate(): %v", err)
	}
	if claims.Subject != firstUser.ID {
		t.Errorf("subject = %q, want original user %q", claims.Subject, firstUser.ID)
	}
	if claims.Name != "The Octocat" {
		t.Errorf("claims.Name = %q, want stored name %q", claims.Name, "The Octocat")
	}
}

// The loser of a concurrent-registration race recovers by re-reading the
// winner's row; the conflict never surfaces.
func TestRegister_ConcurrentRegistrationRecovers(t *testing.T) {
	repo := newFakeUserRepo()
	repo.conflictOnCreate = true
	svc, tokens := newTestAuthService(t, &fakeExchanger{profile: octocatProfile()}, repo)

	token, err := svc.Register(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Register() should recover from the insert race, got %v", err)
	}

	if len(repo.byGitHubID) != 1 {
		t.Fatalf("user rows = %d, want exactly 1", len(repo.byGitHubID))
	}

	winner, _ := repo.GetByGitHubID(context.Background(), 42)
	claims, err := tokens.Validate(token)
	if err != nil {
		t.Fatalf("Validate(): %v", err)
	}
	if claims.Subject != winner.ID {
		t.Errorf("subject = %q, want the winning row's ID %q", claims.Subject, winner.ID)
	}
	if claims.Name != "race-winner" {
		t.Errorf("claims.Name = %q, want the winning row's name", claims.Name)
	}
}

func TestRegister_EmptyCode(t *testing.T) {
	repo := newFakeUserRepo()
	ex := &fakeExchanger{profile: octocatProfile()}
	svc, _ := newTestAuthService(t, ex, repo)

	_, err := svc.Register(context.Background(), "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Register(\"\") error = %v, want ErrValidation", err)
	}
	if ex.calls != 0 {
		t.Error("exchange should not be attempted for an empty code")
	}
}

// A failed exchange must never create a user.
func TestRegister_ExchangeFailureCreatesNothing(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, &fakeExchanger{err: apperror.Upstream("exchanging authorization code")}, repo)

	_, err := svc.Register(context.Background(), "bad-code")
	if !errors.Is(err, apperror.ErrUpstream) {
		t.Errorf("Register() error = %v, want ErrUpstream", err)
	}
	if len(repo.byGitHubID) != 0 {
		t.Error("no user should exist after a failed exchange")
	}
}

func TestRegister_RepositoryError(t *testing.T) {
	repo := newFakeUserRepo()
	repo.createErr = errors.New("database is on fire")
	svc, _ := newTestAuthService(t, &fakeExchanger{profile: octocatProfile()}, repo)

	if _, err := svc.Register(context.Background(), "abc123"); err == nil {
		t.Fatal("Register() should propagate repository errors")
	}
}

// =========================================================================
// GetUserByID TESTS
// =========================================================================

func TestGetUserByID(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, &fakeExchanger{profile: octocatProfile()}, repo)

	if _, err := svc.Register(context.Background(), "abc123"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	created, _ := repo.GetByGitHubID(context.Background(), 42)

	user, err := svc.GetUserByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if user.Login != "octocat" {
		t.Errorf("Login = %q, want %q", user.Login, "octocat")
	}
}

func TestGetUserByID_EmptyID(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, &fakeExchanger{}, repo)

	if _, err := svc.GetUserByID(context.Background(), ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("GetUserByID(\"\") error = %v, want ErrValidation", err)
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, &fakeExchanger{}, repo)

	if _, err := svc.GetUserByID(context.Background(), "ghost"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}
