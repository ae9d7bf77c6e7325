package forge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewGitHubAppClientInvalidPEMFails(t *testing.T) {
	_, err := NewGitHubAppClient(context.Background(), GitHubAppConfig{
		AppID:          1,
		InstallationID: 2,
		PrivateKeyPEM:  []byte("not a real key"),
		Owner:          "acme",
		Repo:           "widgets",
	})
	assert.Error(t, err)
}
