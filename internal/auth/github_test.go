package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sakif/spacetime/internal/apperror"
)

// fakeProvider stands up an httptest server that plays GitHub: a token
// endpoint and a profile endpoint. profileJSON is what /user returns;
// rejectCode makes the token endpoint fail the exchange.
type fakeProviderOpts struct {
	profileJSON   string
	profileStatus int
	rejectCode    bool
}

func fakeProvider(t *testing.T, opts fakeProviderOpts) *GitHubProvider {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		if opts.rejectCode {
			// GitHub reports bad codes as a 200 with an error body, but
			// oauth2 also treats plain HTTP failures as exchange errors.
			http.Error(w, "bad_verification_code", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"gho_testtoken","token_type":"bearer"}`)
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer gho_testtoken" {
			t.Errorf("profile request Authorization = %q, want bearer token", got)
		}
		status := opts.profileStatus
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, opts.profileJSON)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return newGitHubProviderForTest(
		srv.URL+"/login/oauth/access_token",
		srv.URL+"/user",
	)
}

const validProfile = `{
	"id": 42,
	"name": "The Octocat",
	"login": "octocat",
	"avatar_url": "https://avatars.githubusercontent.com/u/42"
}`

func TestExchange_Success(t *testing.T) {
	p := fakeProvider(t, fakeProviderOpts{profileJSON: validProfile})

	ghUser, err := p.Exchange(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}

	if ghUser.ID != 42 {
		t.Errorf("ID = %d, want 42", ghUser.ID)
	}
	if ghUser.Login != "octocat" {
		t.Errorf("Login = %q, want %q", ghUser.Login, "octocat")
	}
	if ghUser.DisplayName() != "The Octocat" {
		t.Errorf("DisplayName() = %q, want %q", ghUser.DisplayName(), "The Octocat")
	}
}

func TestExchange_NullNameFallsBackToLogin(t *testing.T) {
	p := fakeProvider(t, fakeProviderOpts{profileJSON: `{
		"id": 7, "name": null, "login": "ghost",
		"avatar_url": "https://avatars.githubusercontent.com/u/7"
	}`})

	ghUser, err := p.Exchange(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if ghUser.DisplayName() != "ghost" {
		t.Errorf("DisplayName() = %q, want login fallback %q", ghUser.DisplayName(), "ghost")
	}
}

func TestExchange_RejectedCode(t *testing.T) {
	p := fakeProvider(t, fakeProviderOpts{rejectCode: true})

	_, err := p.Exchange(context.Background(), "expired-code")
	if err == nil {
		t.Fatal("Exchange() should fail when the provider rejects the code")
	}
	if !errors.Is(err, apperror.ErrUpstream) {
		t.Errorf("rejected code error = %v, want ErrUpstream", err)
	}
}

func TestExchange_ProfileFetchFails(t *testing.T) {
	p := fakeProvider(t, fakeProviderOpts{
		profileJSON:   `{"message":"server error"}`,
		profileStatus: http.StatusInternalServerError,
	})

	_, err := p.Exchange(context.Background(), "abc123")
	if err == nil {
		t.Fatal("Exchange() should fail on a non-200 profile response")
	}
	if !errors.Is(err, apperror.ErrUpstream) {
		t.Errorf("profile failure error = %v, want ErrUpstream", err)
	}
}

func TestExchange_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		profile string
	}{
		{
			name:    "missing id",
			profile: `{"login":"octocat","avatar_url":"https://example.com/a.png"}`,
		},
		{
			name:    "missing login",
			profile: `{"id":42,"avatar_url":"https://example.com/a.png"}`,
		},
		{
			name:    "relative avatar URL",
			profile: `{"id":42,"login":"octocat","avatar_url":"/avatars/42.png"}`,
		},
		{
			name:    "empty avatar URL",
			profile: `{"id":42,"login":"octocat","avatar_url":""}`,
		},
		{
			name:    "not JSON at all",
			profile: `<html>surprise</html>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fakeProvider(t, fakeProviderOpts{profileJSON: tt.profile})

			_, err := p.Exchange(context.Background(), "abc123")
			if err == nil {
				t.Fatal("Exchange() should reject a malformed profile")
			}
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("schema violation error = %v, want ErrValidation", err)
			}
		})
	}
}
