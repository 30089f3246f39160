package credentials

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jbaldivieso/coach/internal/client"
	"github.com/jbaldivieso/coach/internal/strava"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// ErrRefreshFailed marks a refresh-token failure. There is no point retrying:
// a dead refresh token needs the one-time authorization flow re-run by hand.
var ErrRefreshFailed = errors.New("refresh token rejected")

// Manager hands out a usable access token, refreshing and persisting it
// transparently when the stored one has expired.
type Manager struct {
	path string
	log  logrus.FieldLogger
}

// NewManager returns a Manager over the credential file at path.
func NewManager(path string, log logrus.FieldLogger) *Manager {
	return &Manager{path: path, log: log}
}

// Token probes the API with the stored access token and returns it if it is
// accepted. On a 401 it refreshes once, persists the new access token (the
// refresh token line is never touched) and re-probes. Any other probe failure
// is a transient upstream error.
func (m *Manager) Token(ctx context.Context) (string, error) {
	creds, err := Load(m.path)
	if err != nil {
		return "", err
	}

	err = m.probe(ctx, creds.AccessToken)
	if err == nil {
		return creds.AccessToken, nil
	}

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		return "", fmt.Errorf("probing access token: %w", err)
	}

	m.log.Info("access token expired, refreshing")

	cfg := strava.NewOauthConfig(creds.ClientID, creds.ClientSecret)
	token, err := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken}).Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	if err := SaveAccessToken(m.path, token.AccessToken); err != nil {
		return "", fmt.Errorf("persisting refreshed access token: %w", err)
	}

	if err := m.probe(ctx, token.AccessToken); err != nil {
		return "", fmt.Errorf("probing refreshed access token: %w", err)
	}

	return token.AccessToken, nil
}

// probe makes the cheapest authenticated call the API offers.
func (m *Manager) probe(ctx context.Context, token string) error {
	u, err := url.Parse(strava.BaseURL)
	if err != nil {
		return err
	}

	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	hc.Timeout = 30 * time.Second
	sc := client.NewClient(u, hc)

	_, err = strava.GetAthlete(ctx, sc)
	return err
}
