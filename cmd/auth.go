package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/soassoc/internal/auth"
	"github.com/ziadkadry99/soassoc/internal/stackexchange"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the Stack Exchange access token used by the CLI",
	Long: `Store and manage the Stack Exchange access token used when the web
server runs with auth.disabled and by the MCP server.

Credentials are stored in ~/.soassoc/credentials.json. The
SOASSOC_ACCESS_TOKEN environment variable takes precedence.`,
}

var authStackExchangeCmd = &cobra.Command{
	Use:   "stackexchange",
	Short: "Authorize with Stack Exchange via OAuth2",
	Long: `Opens your browser for Stack Exchange authorization.

The token is granted write_access so associations can post comments.
You need a Stack Apps client id and secret, which can be registered at
https://stackapps.com/apps/oauth/register`,
	RunE: runAuthStackExchange,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether an access token is available",
	RunE:  runAuthStatus,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := auth.ClearCredentials(); err != nil {
			return err
		}
		fmt.Println("Stored credentials removed.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authStackExchangeCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)
}

func runAuthStackExchange(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	clientID := cfg.StackExchange.ClientID
	clientSecret := cfg.StackExchange.ClientSecret

	reader := bufio.NewReader(os.Stdin)
	if clientID == "" {
		fmt.Print("Stack Apps client id: ")
		input, _ := reader.ReadString('\n')
		clientID = strings.TrimSpace(input)
		if clientID == "" {
			return fmt.Errorf("client id is required")
		}
	}
	if clientSecret == "" {
		fmt.Print("Stack Apps client secret: ")
		input, _ := reader.ReadString('\n')
		clientSecret = strings.TrimSpace(input)
		if clientSecret == "" {
			return fmt.Errorf("client secret is required")
		}
	}

	token, err := auth.RunLoopbackOAuth(cmd.Context(), clientID, clientSecret)
	if err != nil {
		return fmt.Errorf("OAuth flow failed: %w", err)
	}

	client := stackexchange.NewClient(cfg.StackExchange, nil)
	me, err := client.Me(cmd.Context(), cfg.StackExchange.TargetSite, token.AccessToken)
	if err != nil {
		return fmt.Errorf("loading profile: %w", err)
	}

	creds, err := auth.LoadCredentials()
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}
	creds.StackExchange = &auth.StackExchangeCredentials{
		AccessToken: token.AccessToken,
		AccountID:   me.AccountID,
		DisplayName: me.DisplayName,
		ObtainedAt:  time.Now().UTC(),
	}
	if err := auth.SaveCredentials(creds); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}

	fmt.Printf("Signed in as %s (account %d).\n", me.DisplayName, me.AccountID)
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	path, _ := auth.CredentialPath()
	fmt.Printf("Credentials file: %s\n\n", path)

	if os.Getenv(auth.AccessTokenEnvVar) != "" {
		fmt.Printf("stackexchange    configured (env var %s)\n", auth.AccessTokenEnvVar)
		return nil
	}
	creds, err := auth.LoadCredentials()
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}
	if se := creds.StackExchange; se != nil && se.AccessToken != "" {
		fmt.Printf("stackexchange    configured (stored, %s, since %s)\n",
			se.DisplayName, se.ObtainedAt.Format(time.DateOnly))
		return nil
	}
	fmt.Println("stackexchange    not configured")
	return nil
}
