// Package credentials manages the flat key=value file holding the Strava
// client id/secret and token pair, and keeps the access token usable by
// probing the API and refreshing on rejection.
package credentials

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	KeyClientID     = "STRAVA_CLIENT_ID"
	KeyClientSecret = "STRAVA_CLIENT_SECRET"
	KeyAccessToken  = "STRAVA_ACCESS_TOKEN"
	KeyRefreshToken = "STRAVA_REFRESH_TOKEN"
)

// Credentials is the credential pair plus the API client identity, as stored
// in the credential file.
type Credentials struct {
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
}

// Load reads the credential file. The client id and secret must be present;
// the tokens may be empty before the first authorization.
func Load(path string) (*Credentials, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading credential file %s: %w", path, err)
	}

	c := &Credentials{
		ClientID:     env[KeyClientID],
		ClientSecret: env[KeyClientSecret],
		AccessToken:  env[KeyAccessToken],
		RefreshToken: env[KeyRefreshToken],
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		return nil, fmt.Errorf("credential file %s is missing %s or %s", path, KeyClientID, KeyClientSecret)
	}

	return c, nil
}

// SaveAccessToken rewrites only the access token line of the credential file,
// leaving every other line, including the refresh token, untouched.
func SaveAccessToken(path, token string) error {
	return rewrite(path, map[string]string{KeyAccessToken: token})
}

// SaveTokens rewrites both token lines. Only the one-time authorization flow
// writes the refresh token.
func SaveTokens(path, access, refresh string) error {
	return rewrite(path, map[string]string{
		KeyAccessToken:  access,
		KeyRefreshToken: refresh,
	})
}

// rewrite replaces the value of each given key in place, preserving all other
// lines verbatim and in order. Keys not present are appended. The file is
// replaced atomically so a crash mid-write cannot corrupt it.
func rewrite(path string, set map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading credential file %s: %w", path, err)
	}

	seen := make(map[string]bool, len(set))
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		for key, value := range set {
			if strings.HasPrefix(line, key+"=") {
				lines[i] = key + "=" + value
				seen[key] = true
			}
		}
	}
	for key, value := range set {
		if !seen[key] {
			if len(lines) > 0 && lines[len(lines)-1] == "" {
				lines = lines[:len(lines)-1]
			}
			lines = append(lines, key+"="+value, "")
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp credential file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(strings.Join(lines, "\n")); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp credential file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("setting credential file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp credential file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing credential file %s: %w", path, err)
	}

	return nil
}
