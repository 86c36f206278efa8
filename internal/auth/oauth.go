package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Endpoint is the Stack Exchange OAuth2 endpoint. The token endpoint
// expects client credentials in the request body.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://stackoverflow.com/oauth",
	TokenURL:  "https://stackoverflow.com/oauth/access_token/json",
	AuthStyle: oauth2.AuthStyleInParams,
}

// Scopes requested from Stack Exchange. write_access is needed to post
// association comments.
var Scopes = []string{"write_access", "private_info", "no_expiry"}

// OAuthConfig returns the OAuth2 configuration for the given redirect URL.
func OAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       Scopes,
		Endpoint:     Endpoint,
		RedirectURL:  redirectURL,
	}
}

// RunLoopbackOAuth performs the OAuth2 browser flow for a CLI user.
// It starts a local HTTP server, opens the browser for user consent,
// and exchanges the authorization code for a token.
func RunLoopbackOAuth(ctx context.Context, clientID, clientSecret string) (*oauth2.Token, error) {
	// Find an available port.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("starting local server: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	conf := OAuthConfig(clientID, clientSecret, fmt.Sprintf("http://localhost:%d/callback", port))
	state := uuid.NewString()

	// Channel to receive the auth code from the callback.
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code, err := callbackCode(r, state)
		if err != nil {
			fmt.Fprintf(w, "<html><body><h2>Authorization failed</h2><p>%s</p><p>You can close this tab.</p></body></html>", err)
			errCh <- err
			return
		}
		fmt.Fprint(w, "<html><body><h2>Authorization successful!</h2><p>You can close this tab and return to the terminal.</p></body></html>")
		codeCh <- code
	})

	server := &http.Server{Handler: mux}

	// Start serving in the background.
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("local server error: %w", err)
		}
	}()
	defer server.Close()

	authURL := conf.AuthCodeURL(state)
	fmt.Printf("\nOpening browser for Stack Exchange authorization...\n")
	fmt.Printf("If the browser doesn't open, visit this URL:\n%s\n\n", authURL)
	openBrowser(authURL)

	// Wait for the callback or timeout.
	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Minute):
		return nil, fmt.Errorf("authorization timed out after 5 minutes")
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return token, nil
}

// callbackCode validates the state of an OAuth callback and returns its code.
func callbackCode(r *http.Request, wantState string) (string, error) {
	q := r.URL.Query()
	if msg := q.Get("error"); msg != "" {
		if desc := q.Get("error_description"); desc != "" {
			msg += ": " + desc
		}
		return "", fmt.Errorf("OAuth callback error: %s", msg)
	}
	if q.Get("state") != wantState {
		return "", fmt.Errorf("OAuth callback error: state mismatch")
	}
	code := q.Get("code")
	if code == "" {
		return "", fmt.Errorf("OAuth callback error: no authorization code received")
	}
	return code, nil
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	_ = cmd.Start()
}
