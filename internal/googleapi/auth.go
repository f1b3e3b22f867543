// Package googleapi provides OAuth2 client bootstrap shared by the Google
// Workspace collaborators (Gmail, Sheets, Drive).
package googleapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// NewHTTPClient builds an authenticated HTTP client from a Google Cloud
// credentials.json and a cached token file. When no cached token exists it
// runs the browser OAuth flow and saves the result for next time.
func NewHTTPClient(ctx context.Context, credentialsPath, tokenPath string, scopes ...string) (*http.Client, error) {
	credBytes, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	oauthConfig, err := google.ConfigFromJSON(credBytes, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	token, err := getToken(ctx, oauthConfig, tokenPath)
	if err != nil {
		return nil, fmt.Errorf("unable to get token: %w", err)
	}

	return oauthConfig.Client(ctx, token), nil
}

// getToken retrieves an OAuth2 token from file or initiates the OAuth flow.
func getToken(ctx context.Context, config *oauth2.Config, tokenPath string) (*oauth2.Token, error) {
	token, err := loadToken(tokenPath)
	if err == nil {
		return token, nil
	}

	token, err = getTokenFromWeb(ctx, config)
	if err != nil {
		return nil, err
	}

	if err := saveToken(tokenPath, token); err != nil {
		fmt.Printf("Warning: unable to save token: %v\n", err)
	}

	return token, nil
}

// getTokenFromWeb initiates the OAuth2 flow via browser with a localhost
// callback.
func getTokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	config.RedirectURL = "http://localhost:8090/callback"

	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Go to the following link in your browser:\n%v\n\n", authURL)

	codeChan := make(chan string)
	errChan := make(chan error)

	mux := http.NewServeMux()
	server := &http.Server{Addr: ":8090", Handler: mux}

	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errChan <- fmt.Errorf("no code in callback")
			return
		}
		fmt.Fprintf(w, "Authentication successful! You can close this window.")
		codeChan <- code
	})

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var code string
	select {
	case code = <-codeChan:
	case err := <-errChan:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	server.Shutdown(ctx)

	token, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to exchange code: %w", err)
	}

	return token, nil
}

// loadToken loads a token from file.
func loadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, err
	}

	return token, nil
}

// saveToken saves a token to file.
func saveToken(path string, token *oauth2.Token) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(token)
}
