package strava

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

const (
	// Strava OAuth endpoints
	AuthURL  = "https://www.strava.com/oauth/authorize"
	TokenURL = "https://www.strava.com/oauth/token"

	// Tokens are refreshed this long before they expire
	refreshBuffer = 60 * time.Second
)

// Credentials holds the OAuth client credentials and the long-lived refresh token
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	TokenURL     string // defaults to TokenURL
}

// NewOAuthConfig creates an oauth2.Config for the Strava endpoints
func NewOAuthConfig(c Credentials) *oauth2.Config {
	tokenURL := c.TokenURL
	if tokenURL == "" {
		tokenURL = TokenURL
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   AuthURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes: []string{"read,activity:read_all"},
	}
}

// TokenSource refreshes access tokens from a refresh token.
// Strava rotates refresh tokens, so onRefresh is called with every new token
// to let the caller persist it.
type TokenSource struct {
	config    *oauth2.Config
	token     *oauth2.Token
	onRefresh func(*oauth2.Token) error
	mu        sync.Mutex
}

// NewTokenSource creates a TokenSource starting from the refresh token in c
func NewTokenSource(c Credentials, onRefresh func(*oauth2.Token) error) *TokenSource {
	return &TokenSource{
		config:    NewOAuthConfig(c),
		token:     &oauth2.Token{RefreshToken: c.RefreshToken},
		onRefresh: onRefresh,
	}
}

// Token returns a valid token, refreshing if necessary
func (ts *TokenSource) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token.AccessToken != "" && time.Until(ts.token.Expiry) > refreshBuffer {
		return ts.token, nil
	}

	// Force a refresh by handing oauth2 an expired copy
	expired := *ts.token
	expired.AccessToken = ""
	newToken, err := ts.config.TokenSource(context.Background(), &expired).Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing strava token: %w", err)
	}

	if ts.onRefresh != nil && newToken.RefreshToken != ts.token.RefreshToken {
		if err := ts.onRefresh(newToken); err != nil {
			return nil, fmt.Errorf("persisting strava token: %w", err)
		}
	}

	ts.token = newToken
	return newToken, nil
}
