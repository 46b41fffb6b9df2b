package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shandysiswandi/geotoken/internal/client"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	serverKey     = "server"
	timeoutKey    = "timeout"
	credentialKey = "credential"
	logLevelKey   = "log_level"

	defaultServer = "http://localhost:8080"

	msgSessionExpired = "Session expired. Please login again."
)

type cliConfig struct {
	v      *viper.Viper
	loaded bool

	server  string
	timeout time.Duration
	store   *client.CredentialStore
}

func newRootCommand() *cobra.Command {
	cfg := &cliConfig{v: viper.New()}

	cmd := &cobra.Command{
		Use:           "geotoken",
		Short:         "Produce and consume location-stamped tokens",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return cfg.load()
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("server", defaultServer, "geotoken server base URL")
	flags.Duration("timeout", client.DefaultTimeout, "HTTP client timeout")
	flags.String("credential", "", "credential file (default $HOME/.geotoken/credential.json)")
	flags.String("log-level", "warn", "log level (debug|info|warn|error)")

	mustBindFlag(cfg.v, serverKey, "GEOTOKEN_SERVER", flags.Lookup("server"))
	mustBindFlag(cfg.v, timeoutKey, "GEOTOKEN_TIMEOUT", flags.Lookup("timeout"))
	mustBindFlag(cfg.v, credentialKey, "GEOTOKEN_CREDENTIAL", flags.Lookup("credential"))
	mustBindFlag(cfg.v, logLevelKey, "GEOTOKEN_LOG_LEVEL", flags.Lookup("log-level"))

	cmd.AddCommand(
		newLoginCommand(cfg),
		newRegisterCommand(cfg),
		newLogoutCommand(cfg),
		newProduceCommand(cfg),
		newConsumeCommand(cfg),
		newHistoryCommand(cfg),
		newExportCommand(cfg),
	)

	return cmd
}

func mustBindFlag(v *viper.Viper, key, env string, flag *pflag.Flag) {
	if flag == nil {
		panic(fmt.Sprintf("flag for key %s not found", key))
	}
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
	if env != "" {
		if err := v.BindEnv(key, env); err != nil {
			panic(err)
		}
	}
}

func (c *cliConfig) load() error {
	if c.loaded {
		return nil
	}

	c.server = strings.TrimSpace(c.v.GetString(serverKey))
	if c.server == "" {
		c.server = defaultServer
	}

	c.timeout = c.v.GetDuration(timeoutKey)
	if c.timeout <= 0 {
		c.timeout = client.DefaultTimeout
	}

	path := strings.TrimSpace(c.v.GetString(credentialKey))
	if path == "" {
		def, err := client.DefaultCredentialPath()
		if err != nil {
			return err
		}
		path = def
	}
	c.store = client.NewCredentialStore(path)

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.v.GetString(logLevelKey))); err != nil {
		return fmt.Errorf("invalid log level %q", c.v.GetString(logLevelKey))
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	c.loaded = true
	return nil
}

func (c *cliConfig) newClient(opts ...client.Option) *client.Client {
	base := []client.Option{client.WithHTTPClient(newHTTPClient(c.timeout))}
	return client.New(c.server, append(base, opts...)...)
}

// authed returns a client carrying the cached credential.
func (c *cliConfig) authed() (*client.Client, *client.Credential, error) {
	cred, err := c.store.Load()
	if errors.Is(err, client.ErrNoCredential) {
		return nil, nil, errors.New("not logged in, run: geotoken login --contact <email|phone>")
	}
	if err != nil {
		return nil, nil, err
	}
	return c.newClient(client.WithToken(cred.AuthToken)), cred, nil
}

// sessionError drops the cached credential when the server rejected it.
func (c *cliConfig) sessionError(cmd *cobra.Command, err error) error {
	if err == nil || !errors.Is(err, client.ErrSessionExpired) {
		return err
	}
	if delErr := c.store.Delete(); delErr != nil {
		slog.Warn("failed to delete credential", "error", delErr)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), msgSessionExpired)
	return client.ErrSessionExpired
}
