package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/kentakayama/two-step-auth/internal/infra/sqlite"
	"github.com/kentakayama/two-step-auth/internal/util"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded validation attempts, newest first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistory(cmd)
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of attempts to list")
}

func runHistory(cmd *cobra.Command) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.AuditDBPath == "" {
		return errors.New("no audit database configured (use --audit-db or auditDBPath)")
	}
	if historyLimit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", historyLimit)
	}

	ctx := commandContext(cmd)
	db, err := sqlite.InitDB(ctx, cfg.AuditDBPath)
	if err != nil {
		return fmt.Errorf("failed to open audit database: %w", err)
	}
	defer func() {
		err = multierr.Append(err, sqlite.CloseDB(db))
	}()

	attempts, err := sqlite.NewAttemptRepository(db).ListRecent(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list attempts: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tCHALLENGE\tRESULT\tDETAIL")
	for _, a := range attempts {
		detail, err := util.RenderCBOR(a.Detail)
		if err != nil {
			detail = fmt.Sprintf("<%v>", err)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", a.ID, a.CreatedAt.UTC().Format(time.RFC3339), a.ChallengeID, a.Result, detail)
	}
	return w.Flush()
}
