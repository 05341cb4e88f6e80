// Package cli contains the wtldr commands.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nhle/wtldr/internal/credential"
	"github.com/nhle/wtldr/internal/ingest"
	"github.com/nhle/wtldr/internal/logging"
	"github.com/nhle/wtldr/internal/model"
	"github.com/nhle/wtldr/internal/output"
	"github.com/nhle/wtldr/internal/source/email"
	"github.com/nhle/wtldr/internal/store"
)

// version is set at build time via ldflags
var version = "dev"

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
}

// app holds state shared by every command of one invocation.
type app struct {
	cfgFile string
	verbose bool
	dbPath  string

	cfg       *model.AppConfig
	log       zerolog.Logger
	logCloser io.Closer
	printer   *output.Printer
}

// Execute builds the command tree and runs it.
func Execute() error {
	return execute(newRootCmd())
}

// execute runs root and then releases the invocation's resources. Cobra
// skips post-run hooks when a command fails, so the log file is closed here.
func execute(root *cobra.Command, a *app) error {
	err := root.Execute()
	if closeErr := a.close(); err == nil {
		err = closeErr
	}
	return err
}

// newRootCmd returns the wtldr command tree and its shared state.
func newRootCmd() (*cobra.Command, *app) {
	a := &app{log: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "wtldr",
		Short: "Collect TLDR newsletter summaries from your mailbox",
		Long: `wtldr fetches TLDR newsletters over IMAP, stores them in SQLite and
splits each issue into per-article summaries with their links.

Example usage:
  wtldr init                   # Create the database and a default config
  wtldr credential set         # Store the IMAP password in the keyring
  wtldr run                    # Fetch new issues and extract summaries
  wtldr summaries --json       # Print unprocessed summaries
  wtldr watch                  # Keep polling until interrupted`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ~/.config/wtldr/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "database path (overrides config)")

	rootCmd.AddCommand(
		newInitCmd(a),
		newFetchCmd(a),
		newExtractCmd(a),
		newRunCmd(a),
		newWatchCmd(a),
		newSummariesCmd(a),
		newRunsCmd(a),
		newParseCmd(a),
		newCredentialCmd(a),
		newVersionCmd(),
	)

	return rootCmd, a
}

// init loads configuration and sets up logging.
func (a *app) init(cmd *cobra.Command) error {
	path := a.cfgFile
	if path == "" {
		path = model.DefaultConfigPath()
	}
	a.cfgFile = path

	cfg, err := model.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.dbPath != "" {
		cfg.Database.Path = a.dbPath
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	a.cfg = cfg

	log, closer, err := logging.New(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.log = log
	a.logCloser = closer
	a.printer = output.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())

	a.log.Debug().
		Str("config", path).
		Str("database", cfg.Database.Path).
		Msg("configuration loaded")

	return nil
}

func (a *app) close() error {
	if a.logCloser == nil {
		return nil
	}
	err := a.logCloser.Close()
	a.logCloser = nil
	return err
}

// openStore opens the configured database, creating its directory.
func (a *app) openStore() (*store.SQLiteStore, error) {
	path := a.cfg.Database.Path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	return store.NewSQLiteStore(path)
}

// mailbox builds the IMAP client from config and stored credentials.
func (a *app) mailbox() (*email.IMAPClient, error) {
	mc := a.cfg.Mail
	if mc.Host == "" || mc.Username == "" {
		return nil, fmt.Errorf("mail.host and mail.username must be set in %s", a.cfgFile)
	}

	password, err := credential.MailPassword(mc.Username, model.ConfigDir())
	if err != nil {
		return nil, err
	}

	return email.NewIMAPClient(email.Config{
		Host:     mc.Host,
		Port:     mc.Port,
		Username: mc.Username,
		Password: password,
		TLS:      mc.TLS,
		Mailbox:  mc.Mailbox,
	}), nil
}

// pipeline returns a Pipeline over s. With withMailbox unset the pipeline
// can only extract.
func (a *app) pipeline(s store.Store, withMailbox bool) (*ingest.Pipeline, error) {
	cfg := ingest.Config{
		Sender:            a.cfg.Mail.NewsletterSender,
		ArchiveAfterFetch: a.cfg.Mail.ArchiveAfterFetch,
	}
	if !withMailbox {
		return ingest.NewPipeline(nil, s, cfg, a.log), nil
	}

	client, err := a.mailbox()
	if err != nil {
		return nil, err
	}
	return ingest.NewPipeline(client, s, cfg, a.log), nil
}
