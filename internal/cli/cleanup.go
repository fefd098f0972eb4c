package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

func newCleanupCmd() *cobra.Command {
	var (
		idemDays    int
		sessionDays int
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Purge expired idempotency rows and stale sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadValidConfig()
			if err != nil {
				return err
			}
			if idemDays == 0 {
				idemDays = cfg.Retention.IdempotencyDays
			}
			if sessionDays == 0 {
				sessionDays = cfg.Retention.SessionDays
			}

			svc, db, err := buildService(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := svc.Cleanup(context.Background(),
				time.Duration(idemDays)*24*time.Hour,
				time.Duration(sessionDays)*24*time.Hour,
			)
			if err != nil {
				return err
			}

			log.Info().
				Int("idempotency_rows", res.IdempotencyRows).
				Int("sessions", res.Sessions).
				Msg("cleanup done")
			return nil
		},
	}

	cmd.Flags().IntVar(&idemDays, "idempotency-days", 0, "idempotency row TTL in days")
	cmd.Flags().IntVar(&sessionDays, "session-days", 0, "session TTL in days")

	return cmd
}
