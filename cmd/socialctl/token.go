package main

import (
	"fmt"
	"time"

	"gator-social/internal/middleware"
	"gator-social/internal/scenario"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newTokenCommand(opts *RootOptions) *cobra.Command {
	var ttl time.Duration
	var alias bool

	cmd := &cobra.Command{
		Use:   "token <account>",
		Short: "Mint a bearer token for an account",
		Long: `Token signs a JWT with JWT_SECRET for the given account UUID. With --alias
the argument is a scenario alias and is mapped to the same account ID the
scenario runner uses.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			account, err := resolveAccount(args[0], alias)
			if err != nil {
				return err
			}
			auth, err := middleware.NewAuthenticator(cfg.Server.JWTSecret)
			if err != nil {
				return err
			}
			token, err := auth.GenerateToken(account, ttl)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.Format == "json" {
				data, err := sonic.Marshal(map[string]string{
					"account": account.String(),
					"token":   token,
				})
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}
			_, err = fmt.Fprintln(out, token)
			return err
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", middleware.DefaultTokenTTL, "token lifetime")
	cmd.Flags().BoolVar(&alias, "alias", false, "treat the argument as a scenario account alias")
	return cmd
}

func resolveAccount(arg string, alias bool) (uuid.UUID, error) {
	if alias {
		return scenario.AccountID(arg), nil
	}
	account, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid account %q: %w", arg, err)
	}
	return account, nil
}
