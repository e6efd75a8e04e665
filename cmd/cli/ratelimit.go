package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	appservice "github.com/turtacn/kpidash/internal/application/service"
	"github.com/turtacn/kpidash/internal/config"
	"github.com/turtacn/kpidash/internal/infrastructure/persistence/redis"
	"github.com/turtacn/kpidash/internal/infrastructure/ratelimit"
	"github.com/turtacn/kpidash/pkg/constants"
	"github.com/turtacn/kpidash/pkg/logger"
)

type configLoader func() (*config.Config, logger.Logger, error)

// admissionOpener returns the admission service and a release func.
type admissionOpener func(ctx context.Context) (*appservice.AdmissionService, func(), error)

func configuredAdmission(load configLoader) admissionOpener {
	return func(ctx context.Context) (*appservice.AdmissionService, func(), error) {
		cfg, log, err := load()
		if err != nil {
			return nil, nil, err
		}
		if !cfg.Redis.Enabled() {
			return nil, nil, fmt.Errorf("redis.url and redis.token are required: counters of the in-process store are not reachable from here")
		}
		conn := redis.NewRedisConnection(cfg.Redis, log)
		if err := conn.Connect(ctx); err != nil {
			return nil, nil, err
		}
		store, err := ratelimit.NewStore(conn.GetClient(), log)
		if err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		admission, err := appservice.NewAdmissionService(store, cfg.RateLimit.Tiers(), log)
		if err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		return admission, func() { _ = conn.Close() }, nil
	}
}

func newRateLimitCmd(open admissionOpener) *cobra.Command {
	var tier string
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Inspect and reset rate limit counters",
		Long: `Every tier keeps its own counter per client. Select the tier with --tier and
pass the client key the server derives, for example:

  kpidash ratelimit status --tier auth ip:203.0.113.7
  kpidash ratelimit reset --tier expensive_query user:3f0c...:kpi`,
	}
	cmd.PersistentFlags().StringVar(&tier, "tier", string(constants.RouteTierAPI), "rate limit tier (auth, api or expensive_query)")

	statusCmd := &cobra.Command{
		Use:   "status <key>",
		Short: "Show the live counter of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			admission, release, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			record, err := admission.Status(cmd.Context(), constants.RouteTier(tier), args[0])
			if err != nil {
				return fmt.Errorf("read counter: %w", err)
			}
			out := cmd.OutOrStdout()
			if record == nil {
				fmt.Fprintf(out, "%s %s: no live window (%s)\n", tier, args[0], admission.Backend())
				return nil
			}
			fmt.Fprintf(out, "%s %s: count=%d reset_at=%s (in %s) (%s)\n",
				tier,
				args[0],
				record.Count,
				record.ResetAt.UTC().Format(time.RFC3339),
				time.Until(record.ResetAt).Round(time.Second),
				admission.Backend(),
			)
			return nil
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset <key>",
		Short: "Clear the counter of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			admission, release, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			if err := admission.Reset(cmd.Context(), constants.RouteTier(tier), args[0]); err != nil {
				return fmt.Errorf("reset counter: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: counter reset\n", tier, args[0])
			return nil
		},
	}

	cmd.AddCommand(statusCmd, resetCmd)
	return cmd
}
