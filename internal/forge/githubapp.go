package forge

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-github/v45/github"
)

// GitHubAppConfig configures a GitHubClient authenticated as a GitHub App
// installation rather than with a static personal-access token. The pull
// request workflow (SPEC_FULL.md §4.10) prefers this when an installation
// id is configured, since installation tokens are scoped to one repo and
// expire automatically.
type GitHubAppConfig struct {
	AppID          int64
	InstallationID int64
	PrivateKeyPEM  []byte
	Owner          string
	Repo           string
}

// NewGitHubAppClient signs a short-lived app JWT, exchanges it for an
// installation access token, and builds a GitHubClient from it.
func NewGitHubAppClient(ctx context.Context, cfg GitHubAppConfig) (*GitHubClient, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(cfg.PrivateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("forge: parse GitHub App private key: %w", err)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now.Add(-30 * time.Second)),
		ExpiresAt: jwt.NewNumericDate(now.Add(9 * time.Minute)),
		Issuer:    fmt.Sprintf("%d", cfg.AppID),
	}
	appJWT, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return nil, fmt.Errorf("forge: sign GitHub App JWT: %w", err)
	}

	appClient := github.NewClient(nil)
	appClient = appClient.WithAuthToken(appJWT)

	token, _, err := appClient.Apps.CreateInstallationToken(ctx, cfg.InstallationID, nil)
	if err != nil {
		return nil, fmt.Errorf("forge: create installation token: %w", err)
	}

	return NewGitHubClient(ctx, GitHubConfig{Token: token.GetToken(), Owner: cfg.Owner, Repo: cfg.Repo})
}
