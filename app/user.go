package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/upmail/upmail/internal/auth"
	"github.com/upmail/upmail/internal/db"
	"github.com/upmail/upmail/internal/uniuri"
)

func init() { //nolint: gochecknoinits
	passwordCmd.Flags().StringVar(&newPassword, "password", "", "new password, generated when empty")

	userCmd.AddCommand(passwordCmd)
	rootCmd.AddCommand(userCmd)
}

var (
	newPassword string

	userCmd = &cobra.Command{
		Use:   "user",
		Short: "Manage admin UI accounts",
	}

	passwordCmd = &cobra.Command{
		Use:     "password <username>",
		Short:   "Set the password of an account",
		Args:    cobra.ExactArgs(1),
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			gdb, err := db.Open(&cfg)
			if err != nil {
				return err //nolint:wrapcheck
			}

			password := newPassword
			if password == "" {
				if password, err = uniuri.Password(); err != nil {
					return err //nolint:wrapcheck
				}
			}

			if err = auth.NewLocalProvider(gdb).SetPassword(args[0], password); err != nil {
				return err //nolint:wrapcheck
			}

			if newPassword == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "new password of %s: %s\n", args[0], password)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "password of %s changed\n", args[0])
			}

			return nil
		},
	}
)
