package sheets

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestTokenFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens", "sheets.json")
	token := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, saveToken(path, token))

	loaded, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, token.AccessToken, loaded.AccessToken)
	assert.Equal(t, token.RefreshToken, loaded.RefreshToken)
	assert.True(t, token.Expiry.Equal(loaded.Expiry))
}

func TestLoadToken_Missing(t *testing.T) {
	_, err := LoadToken(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestGetOrCreateToken_UsesValidSavedToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheets.json")
	require.NoError(t, saveToken(path, &oauth2.Token{
		AccessToken: "still-valid",
		Expiry:      time.Now().Add(time.Hour),
	}))

	token, err := GetOrCreateToken(context.Background(), OAuth2Config{TokenFile: path})
	require.NoError(t, err)
	assert.Equal(t, "still-valid", token.AccessToken)
}

func TestOAuth2Config_RedirectURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080/callback", OAuth2Config{}.oauthConfig().RedirectURL)
	assert.Equal(t, "http://127.0.0.1:9999/callback", OAuth2Config{ListenAddr: "127.0.0.1:9999"}.oauthConfig().RedirectURL)
}
