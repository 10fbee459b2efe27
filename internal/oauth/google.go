package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var ErrNoEmail = errors.New("google profile has no email")

const userinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Profile is the slice of the Google userinfo response we care about.
type Profile struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// GoogleClient drives the authorization-code flow against Google and
// fetches the signed-in user's profile.
type GoogleClient struct {
	cfg *oauth2.Config
}

func NewGoogleClient(cfg GoogleConfig) *GoogleClient {
	return &GoogleClient{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthCodeURL builds the consent-screen redirect. state is the caller's
// CSRF token and comes back on the callback.
func (g *GoogleClient) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// FetchProfile exchanges the callback code and reads the userinfo endpoint.
func (g *GoogleClient) FetchProfile(ctx context.Context, code string) (Profile, error) {
	token, err := g.cfg.Exchange(ctx, code)

	if err != nil {
		return Profile{}, fmt.Errorf("code exchange: %w", err)
	}

	httpClient := g.cfg.Client(ctx, token)
	httpClient.Timeout = 5 * time.Second

	resp, err := httpClient.Get(userinfoURL)

	if err != nil {
		return Profile{}, fmt.Errorf("userinfo fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("userinfo fetch: unexpected status %d", resp.StatusCode)
	}

	var p Profile

	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("userinfo decode: %w", err)
	}

	if p.Email == "" {
		return Profile{}, ErrNoEmail
	}

	return p, nil
}
