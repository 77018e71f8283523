package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/alphabot-ai/noticeboard/internal/auth"
	"github.com/alphabot-ai/noticeboard/internal/client"
	"github.com/alphabot-ai/noticeboard/internal/config"
	httpapp "github.com/alphabot-ai/noticeboard/internal/http"
	"github.com/alphabot-ai/noticeboard/internal/rate"
	"github.com/alphabot-ai/noticeboard/internal/store/sqlite"
	"github.com/alphabot-ai/noticeboard/internal/telemetry"
)

// Set via -ldflags at build time.
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

const defaultServerURL = "http://localhost:8080"

// CLIConfig holds the client configuration persisted per member.
type CLIConfig struct {
	BaseURL    string `json:"base_url"`
	Username   string `json:"username"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
	Token      string `json:"token"`
	TokenExp   string `json:"token_expires"`
}

func main() {
	app := &cli.App{
		Name:    "noticeboard",
		Usage:   "Article board with key-based member login",
		Version: Version,
		Action:  runServer,
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server"},
				Usage:   "Start the Noticeboard server (default if no command)",
				Action:  runServer,
			},
			{
				Name:  "register",
				Usage: "Generate a keypair, register and authenticate",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "member username (required on first run)"},
					&cli.StringFlag{Name: "url", Value: defaultServerURL, Usage: "server URL"},
					&cli.StringFlag{Name: "bio", Usage: "optional bio"},
				},
				Action: cmdRegister,
			},
			{
				Name:    "auth",
				Aliases: []string{"login"},
				Usage:   "Re-authenticate when the token expires",
				Action:  cmdAuth,
			},
			{
				Name:  "post",
				Usage: "Write a new article",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "subject", Required: true},
					&cli.StringFlag{Name: "content", Required: true},
				},
				Action: cmdPost,
			},
			{
				Name:  "edit",
				Usage: "Modify one of your articles",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "id", Required: true},
					&cli.StringFlag{Name: "subject", Required: true},
					&cli.StringFlag{Name: "content", Required: true},
				},
				Action: cmdEdit,
			},
			{
				Name:    "remove",
				Aliases: []string{"rm"},
				Usage:   "Remove one of your articles",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "id", Required: true},
				},
				Action: cmdRemove,
			},
			{
				Name:  "revoke-key",
				Usage: "Revoke one of your keys",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "id", Required: true},
				},
				Action: cmdRevokeKey,
			},
			{
				Name:    "read",
				Aliases: []string{"list"},
				Usage:   "Read articles",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "id", Usage: "show a single article"},
				},
				Action: cmdRead,
			},
			{
				Name:    "status",
				Aliases: []string{"whoami"},
				Usage:   "Show current config and token status",
				Action:  cmdStatus,
			},
			{
				Name:      "use",
				Usage:     "Switch to a different member",
				ArgsUsage: "<username>",
				Action:    cmdUse,
			},
			{
				Name:   "members",
				Usage:  "List locally configured members",
				Action: cmdMembers,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServer(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := telemetry.NewLogger(os.Stdout, cfg.SlogLevel())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName:    "noticeboard",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error("telemetry shutdown", "error", err)
		}
	}()

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	authSvc := auth.NewService(store, cfg.HashSecret, cfg.TokenTTL, cfg.ChallengeTTL)
	server := httpapp.NewServer(store, authSvc, rate.NewMemory(), cfg, httpapp.BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
	}, logger)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("noticeboard listening", "addr", cfg.Addr, "version", Version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func cmdRegister(c *cli.Context) error {
	name := strings.TrimSpace(c.String("name"))

	cfg, err := loadCLIConfig()
	if err != nil || (name != "" && name != cfg.Username) {
		if name == "" {
			return errors.New("--name is required for first-time registration")
		}
		creds, err := client.GenerateCredentials(name)
		if err != nil {
			return fmt.Errorf("generate keypair: %w", err)
		}
		cfg = CLIConfig{
			BaseURL:    strings.TrimSuffix(c.String("url"), "/"),
			Username:   name,
			PublicKey:  creds.PublicKey,
			PrivateKey: creds.PrivateKeyBase64(),
		}
		if err := saveCLIConfig(cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Printf("✓ Generated keypair for '%s'\n", name)
	}

	creds, err := client.CredentialsFromKeys(cfg.Username, cfg.PublicKey, cfg.PrivateKey)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}

	api := client.New(cfg.BaseURL)
	memberID, err := api.Register(creds, c.String("bio"))
	switch {
	case errors.Is(err, client.ErrAlreadyRegistered):
		fmt.Printf("✓ Already registered as '%s'\n", cfg.Username)
	case err != nil:
		return err
	default:
		fmt.Printf("✓ Registered '%s' (member %d)\n", cfg.Username, memberID)
	}

	if err := api.Authenticate(creds); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: auto-auth failed: %v\n", err)
		fmt.Println("Run 'noticeboard auth' to authenticate")
		return nil
	}
	return storeToken(cfg, api)
}

func cmdAuth(c *cli.Context) error {
	cfg, creds, api, err := loadClientWithCreds()
	if err != nil {
		return fmt.Errorf("%w (run 'noticeboard register' first)", err)
	}
	if err := api.Authenticate(creds); err != nil {
		return err
	}
	return storeToken(cfg, api)
}

func storeToken(cfg CLIConfig, api *client.Client) error {
	cfg.Token = api.Token
	cfg.TokenExp = api.TokenExp.Format(time.RFC3339)
	if err := saveCLIConfig(cfg); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	fmt.Printf("✓ Authenticated as '%s' (expires %s)\n", cfg.Username, cfg.TokenExp)
	return nil
}

func cmdPost(c *cli.Context) error {
	api, err := loadAuthenticatedClient()
	if err != nil {
		return err
	}
	article, err := api.WriteArticle(c.String("subject"), c.String("content"))
	if err != nil {
		return err
	}
	fmt.Printf("✓ Posted #%d: %s\n", article.ID, article.Subject)
	return nil
}

func cmdEdit(c *cli.Context) error {
	api, err := loadAuthenticatedClient()
	if err != nil {
		return err
	}
	article, err := api.ModifyArticle(c.Int64("id"), c.String("subject"), c.String("content"))
	if err != nil {
		return err
	}
	fmt.Printf("✓ Updated #%d: %s\n", article.ID, article.Subject)
	return nil
}

func cmdRemove(c *cli.Context) error {
	api, err := loadAuthenticatedClient()
	if err != nil {
		return err
	}
	id := c.Int64("id")
	if err := api.RemoveArticle(id); err != nil {
		return err
	}
	fmt.Printf("✓ Removed #%d\n", id)
	return nil
}

func cmdRevokeKey(c *cli.Context) error {
	api, err := loadAuthenticatedClient()
	if err != nil {
		return err
	}
	id := c.Int64("id")
	if err := api.RevokeKey(id); err != nil {
		return err
	}
	fmt.Printf("✓ Revoked key %d\n", id)
	return nil
}

func cmdRead(c *cli.Context) error {
	cfg, _ := loadCLIConfig()
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultServerURL
	}
	api := client.New(baseURL)

	if id := c.Int64("id"); id != 0 {
		article, err := api.GetArticle(id)
		if err != nil {
			return err
		}
		fmt.Printf("\n#%d %s\n", article.ID, article.Subject)
		fmt.Printf("  by %s | %s\n\n", article.MemberName, article.CreatedAt.Format(time.RFC822))
		fmt.Printf("  %s\n", article.Content)
		return nil
	}

	articles, err := api.ListArticles()
	if err != nil {
		return err
	}
	if len(articles) == 0 {
		fmt.Println("No articles yet")
		return nil
	}
	fmt.Printf("\nNoticeboard (%d articles)\n\n", len(articles))
	for _, a := range articles {
		fmt.Printf("#%d %s\n", a.ID, a.Subject)
		fmt.Printf("   by %s | %s\n\n", a.MemberName, a.CreatedAt.Format(time.RFC822))
	}
	return nil
}

func cmdStatus(c *cli.Context) error {
	cfg, err := loadCLIConfig()
	if err != nil {
		fmt.Println("Status: Not initialized")
		fmt.Println("\nRun: noticeboard register --name <name>")
		return nil
	}

	fmt.Printf("Member: %s\n", cfg.Username)
	fmt.Printf("Server: %s\n", cfg.BaseURL)
	fmt.Printf("Key:    %s\n", shortKey(cfg.PublicKey))

	if cfg.Token == "" {
		fmt.Println("Token:  Not authenticated")
		return nil
	}
	exp, _ := time.Parse(time.RFC3339, cfg.TokenExp)
	if time.Now().After(exp) {
		fmt.Println("Token:  Expired")
		fmt.Println("\nRun: noticeboard auth")
		return nil
	}
	fmt.Printf("Token:  Valid until %s\n", cfg.TokenExp)
	return nil
}

func cmdUse(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		if current := getCurrentMember(); current != "" {
			fmt.Printf("Current member: %s\n", current)
		} else {
			fmt.Println("No member selected")
		}
		return nil
	}
	if _, err := os.Stat(memberConfigPath(name)); os.IsNotExist(err) {
		return fmt.Errorf("member '%s' not found (run 'noticeboard members')", name)
	}
	if err := setCurrentMember(name); err != nil {
		return err
	}
	fmt.Printf("✓ Switched to '%s'\n", name)
	return nil
}

func cmdMembers(c *cli.Context) error {
	members, err := listMembers()
	if err != nil {
		return err
	}
	if len(members) == 0 {
		fmt.Println("No members configured")
		fmt.Println("\nRun: noticeboard register --name <name>")
		return nil
	}
	current := getCurrentMember()
	for _, m := range members {
		if m == current {
			fmt.Printf("  * %s (current)\n", m)
		} else {
			fmt.Printf("    %s\n", m)
		}
	}
	return nil
}

func shortKey(key string) string {
	if len(key) > 20 {
		return key[:20] + "..."
	}
	return key
}

func noticeboardDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".noticeboard")
}

func currentMemberPath() string {
	return filepath.Join(noticeboardDir(), "current")
}

func memberConfigPath(name string) string {
	return filepath.Join(noticeboardDir(), "members", name, "config.json")
}

func getCurrentMember() string {
	data, err := os.ReadFile(currentMemberPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func setCurrentMember(name string) error {
	if err := os.MkdirAll(noticeboardDir(), 0700); err != nil {
		return err
	}
	return os.WriteFile(currentMemberPath(), []byte(name), 0600)
}

func listMembers() ([]string, error) {
	dir := filepath.Join(noticeboardDir(), "members")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, e.Name(), "config.json")); err == nil {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func loadCLIConfig() (CLIConfig, error) {
	current := getCurrentMember()
	if current == "" {
		return CLIConfig{}, errors.New("no member selected")
	}
	data, err := os.ReadFile(memberConfigPath(current))
	if err != nil {
		return CLIConfig{}, errors.New("not initialized")
	}
	var cfg CLIConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return CLIConfig{}, err
	}
	return cfg, nil
}

func saveCLIConfig(cfg CLIConfig) error {
	path := memberConfigPath(cfg.Username)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, _ := json.MarshalIndent(cfg, "", "  ")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return err
	}
	return setCurrentMember(cfg.Username)
}

func loadClientWithCreds() (CLIConfig, *client.Credentials, *client.Client, error) {
	cfg, err := loadCLIConfig()
	if err != nil {
		return CLIConfig{}, nil, nil, err
	}
	creds, err := client.CredentialsFromKeys(cfg.Username, cfg.PublicKey, cfg.PrivateKey)
	if err != nil {
		return CLIConfig{}, nil, nil, err
	}
	return cfg, creds, client.New(cfg.BaseURL), nil
}

func loadAuthenticatedClient() (*client.Client, error) {
	cfg, err := loadCLIConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Token == "" {
		return nil, errors.New("not authenticated - run 'noticeboard auth'")
	}
	exp, _ := time.Parse(time.RFC3339, cfg.TokenExp)
	if time.Now().After(exp) {
		return nil, errors.New("token expired - run 'noticeboard auth'")
	}
	api := client.New(cfg.BaseURL)
	api.Token = cfg.Token
	api.TokenExp = exp
	return api, nil
}
