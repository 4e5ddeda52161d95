package simplefin

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/common"
)

// AuthState is the saved result of claiming a setup token.
type AuthState struct {
	ClaimedAt time.Time `json:"claimed_at"`
	AccessURL string    `json:"access_url"`
	TokenHint string    `json:"token_hint"`
}

// LoadOrClaimAuth returns the access URL saved at statePath, claiming token
// and saving the result when none exists.
func LoadOrClaimAuth(ctx context.Context, statePath, token string) (*AuthState, error) {
	auth, err := loadAuthState(statePath)
	if err == nil && auth.AccessURL != "" {
		slog.Debug("Using saved SimpleFIN access URL",
			"claimed_at", auth.ClaimedAt.Format("2006-01-02"),
			"state_file", statePath)
		return auth, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read SimpleFIN auth state: %w", err)
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: SimpleFIN setup token is required", common.ErrMissingConfig)
	}

	accessURL, err := ClaimAccessURL(ctx, &http.Client{Timeout: 30 * time.Second}, token)
	if err != nil {
		return nil, err
	}

	auth = &AuthState{
		AccessURL: accessURL,
		ClaimedAt: time.Now().UTC(),
		TokenHint: tokenHint(token),
	}
	if err := saveAuthState(statePath, auth); err != nil {
		return nil, fmt.Errorf("failed to save SimpleFIN auth state: %w", err)
	}
	slog.Info("Claimed SimpleFIN access URL", "state_file", statePath)
	return auth, nil
}

// ClaimAccessURL exchanges a base64 setup token for an access URL. A token
// can be claimed once.
func ClaimAccessURL(ctx context.Context, httpClient *http.Client, token string) (string, error) {
	token = strings.TrimSpace(token)
	decoded, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		decoded, err = base64.StdEncoding.DecodeString(token)
		if err != nil {
			return "", fmt.Errorf("%w: SimpleFIN token is not base64: %w", common.ErrInvalidConfig, err)
		}
	}

	claimURL := strings.TrimSpace(string(decoded))
	if !strings.HasPrefix(claimURL, "http://") && !strings.HasPrefix(claimURL, "https://") {
		return "", fmt.Errorf("%w: SimpleFIN token does not hold a URL", common.ErrInvalidConfig)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claimURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create claim request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to claim SimpleFIN token: %w", common.ErrSourceConnection, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("failed to read claim response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: SimpleFIN claim returned %d: %s",
			common.ErrSourceConnection, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	accessURL := strings.TrimSpace(string(body))
	if !strings.HasPrefix(accessURL, "http://") && !strings.HasPrefix(accessURL, "https://") {
		return "", fmt.Errorf("%w: claim returned an invalid access URL", common.ErrSourceConnection)
	}
	return accessURL, nil
}

func loadAuthState(path string) (*AuthState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var auth AuthState
	if err := json.Unmarshal(data, &auth); err != nil {
		return nil, err
	}
	return &auth, nil
}

func saveAuthState(path string, auth *AuthState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(auth, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// tokenHint keeps enough of the token to recognize it later.
func tokenHint(token string) string {
	if len(token) > 16 {
		return token[:8] + "..." + token[len(token)-8:]
	}
	return "short_token"
}
