package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"

	"github.com/calendav/assistant-backend/internal/config"
)

type clientSecrets map[string]creds

type creds struct {
	ClientId                string   `json:"client_id"`
	ProjectId               string   `json:"project_id"`
	AuthUri                 string   `json:"auth_uri"`
	TokenUri                string   `json:"token_uri"`
	AuthProviderX509CertUrl string   `json:"auth_provider_x509_cert_url"`
	ClientSecret            string   `json:"client_secret"`
	RedirectUris            []string `json:"redirect_uris"`
}

// tokenSource builds an oauth token source from the client secret file and a
// previously stored token. Obtaining the initial token is an offline step; the
// server only refreshes it.
func tokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	file, err := os.Open(config.ClientSecretPath())
	if err != nil {
		return nil, fmt.Errorf("can't open client secret: %w", err)
	}
	defer file.Close()

	cs := make(clientSecrets)
	if err := json.NewDecoder(file).Decode(&cs); err != nil {
		return nil, fmt.Errorf("can't parse secrets: %w", err)
	}

	secret, ok := cs["installed"]
	if !ok {
		secret, ok = cs["web"]
	}
	if !ok {
		return nil, fmt.Errorf("no installed or web credentials in %s", config.ClientSecretPath())
	}

	conf := oauth2.Config{
		ClientID:     secret.ClientId,
		ClientSecret: secret.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{calendar.CalendarScope},
	}

	tokenFile, err := os.Open(config.TokenPath())
	if err != nil {
		return nil, fmt.Errorf("can't open token: %w", err)
	}
	defer tokenFile.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(tokenFile).Decode(token); err != nil {
		return nil, fmt.Errorf("can't parse token: %w", err)
	}

	return conf.TokenSource(ctx, token), nil
}
