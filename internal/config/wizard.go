package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// DefaultPath is where the wizard writes its configuration.
const DefaultPath = ".soassoc.yml"

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .soassoc.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to soassoc! Let's configure the association server.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Target site.
	sitePrompt := promptui.Select{
		Label: "Select the site candidates come from",
		Items: KnownTargetSites,
	}
	_, site, err := sitePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("site selection: %w", err)
	}
	cfg.StackExchange.TargetSite = site
	cfg.Locale = LocaleForSite(site)

	// 2. Stack Exchange app credentials.
	keyPrompt := promptui.Prompt{
		Label:   "Stack Exchange app key (blank for anonymous quota)",
		Default: os.Getenv(EnvPrefix + "STACKEXCHANGE__KEY"),
	}
	if cfg.StackExchange.Key, err = keyPrompt.Run(); err != nil {
		return nil, fmt.Errorf("app key: %w", err)
	}

	clientIDPrompt := promptui.Prompt{
		Label: "Stack Exchange OAuth client id (blank to skip sign-in)",
	}
	if cfg.StackExchange.ClientID, err = clientIDPrompt.Run(); err != nil {
		return nil, fmt.Errorf("client id: %w", err)
	}
	if cfg.StackExchange.ClientID == "" {
		cfg.Auth.Disabled = true
	}

	// 3. Search engine.
	engineIDPrompt := promptui.Prompt{
		Label: "Google Custom Search engine id (cx)",
	}
	if cfg.Search.EngineID, err = engineIDPrompt.Run(); err != nil {
		return nil, fmt.Errorf("engine id: %w", err)
	}

	// 4. Port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			p, err := strconv.Atoi(s)
			if err != nil || p <= 0 || p > 65535 {
				return fmt.Errorf("invalid port")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)
	cfg.Server.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Secrets stay in the environment.
	fmt.Println()
	if cfg.StackExchange.ClientID != "" {
		fmt.Printf("Note: set %sSTACKEXCHANGE__CLIENT_SECRET before running soassoc server.\n", EnvPrefix)
	}
	fmt.Printf("Note: set %sSEARCH__API_KEY before searching.\n", EnvPrefix)

	if err := cfg.Save(DefaultPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", DefaultPath)
	return cfg, nil
}
