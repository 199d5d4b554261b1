package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/kentakayama/two-step-auth/internal/chardev"
	"github.com/kentakayama/two-step-auth/internal/config"
	"github.com/kentakayama/two-step-auth/internal/domain/model"
	"github.com/kentakayama/two-step-auth/internal/infra/sqlite"
	"github.com/kentakayama/two-step-auth/internal/twostep"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

const (
	logPrefix  = "2FA_Status: "
	exitInput  = "1"
	readBufLen = 256
)

var (
	cfgFile      string
	expiryWindow time.Duration
	auditDB      string
	// OsExit is a function that can be mocked in tests.
	OsExit = os.Exit
	// sessionOptions are appended to every session the command creates.
	sessionOptions []twostep.Option
)

// RootCmd runs the interactive two-step prompt.
var RootCmd = &cobra.Command{
	Use:   "twostepauth",
	Short: "Gate an action behind a short-lived numeric key.",
	Long: `twostepauth issues a one-time numeric key, writes it to the log and
prompts for it until the right key is entered, the key expires or the user
enters 1 to give up. Reading an expired key issues a new one.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runPrompt(cmd); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			OsExit(1)
		}
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file")
	RootCmd.PersistentFlags().DurationVar(&expiryWindow, "expiry", config.DefaultExpiryWindow, "how long an issued key stays valid")
	RootCmd.PersistentFlags().StringVar(&auditDB, "audit-db", "", "sqlite file recording validation attempts")
	RootCmd.AddCommand(historyCmd)
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.AuthConfig, error) {
	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = *loaded
	}

	if cmd.Flags().Changed("expiry") {
		cfg.ExpiryWindow = expiryWindow
	}
	if cmd.Flags().Changed("audit-db") {
		cfg.AuditDBPath = auditDB
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.Logger = log.New(cmd.ErrOrStderr(), logPrefix, log.LstdFlags)
	return &cfg, nil
}

// openDevice builds the session, with auditing when configured, and returns
// a close function releasing everything it opened.
func openDevice(ctx context.Context, cfg *config.AuthConfig) (*chardev.Device, func() error, error) {
	opts := append([]twostep.Option(nil), sessionOptions...)

	closers := []func() error{}
	if cfg.AuditDBPath != "" {
		db, err := sqlite.InitDB(ctx, cfg.AuditDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open audit database: %w", err)
		}
		closers = append(closers, func() error { return sqlite.CloseDB(db) })
		opts = append(opts, twostep.WithAttemptRepository(sqlite.NewAttemptRepository(db)))
	}

	session, err := twostep.NewSession(*cfg, opts...)
	if err != nil {
		err = fmt.Errorf("failed to create session: %w", err)
		for _, c := range closers {
			err = multierr.Append(err, c())
		}
		return nil, nil, err
	}
	dev := chardev.New(session, cfg.Logger)

	closeFn := func() error {
		// the timer goes first so no expiry fires on released state
		err := dev.Close()
		for _, c := range closers {
			err = multierr.Append(err, c())
		}
		return err
	}
	return dev, closeFn, nil
}

func runPrompt(cmd *cobra.Command) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dev, closeFn, err := openDevice(commandContext(cmd), cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, closeFn())
	}()

	if err := dev.Ioctl(chardev.GenerateKey, nil); err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Please check the log for the key\nEnter %s to exit\n", exitInput)
	return promptLoop(cmd.InOrStdin(), out, dev)
}

func promptLoop(in io.Reader, out io.Writer, dev *chardev.Device) error {
	scanner := bufio.NewScanner(in)
	buf := make([]byte, readBufLen)
	for {
		fmt.Fprint(out, "Enter Key: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == exitInput {
			fmt.Fprintln(out, "Exiting without key input")
			return nil
		}

		if _, err := dev.Write([]byte(input)); err != nil {
			fmt.Fprintln(out, "Invalid Input")
		}

		var code int32
		if err := dev.Ioctl(chardev.ValidateKey, &code); err != nil {
			return fmt.Errorf("failed to validate key: %w", err)
		}

		n, err := dev.Read(buf)
		if err != nil {
			return fmt.Errorf("failed to read status: %w", err)
		}
		fmt.Fprint(out, string(buf[:n]))

		if model.Result(code) == model.ResultMatched {
			return nil
		}
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
