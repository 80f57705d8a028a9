package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/upmail/upmail/internal/credential"
	"github.com/upmail/upmail/internal/db"
	"github.com/upmail/upmail/internal/mail"
	"github.com/upmail/upmail/internal/mailer"
)

func init() { //nolint: gochecknoinits
	sendCmd.Flags().StringSliceVar(&sendTo, "to", nil, "recipient, repeat or separate with commas")
	sendCmd.Flags().StringVar(&sendSubject, "subject", "", "subject line")
	sendCmd.Flags().StringVar(&sendMessage, "message", "", "message body, read from stdin when empty")
	sendCmd.Flags().StringArrayVar(&sendHeaders, "header", nil, `header line like "Cc: a@example.com", repeatable`)

	_ = sendCmd.MarkFlagRequired("to")
	_ = sendCmd.MarkFlagRequired("subject")

	rootCmd.AddCommand(sendCmd)
}

// ErrSendFailed is returned when the message was logged as failed.
var ErrSendFailed = errors.New("sending failed, see the email log for details")

var (
	sendTo      []string
	sendSubject string
	sendMessage string
	sendHeaders []string

	sendCmd = &cobra.Command{
		Use:     "send",
		Short:   "Send one message through the dispatch pipeline",
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			message := sendMessage
			if message == "" {
				body, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err //nolint:wrapcheck
				}

				message = string(body)
			}

			return send(cmd.Context(), cmd.OutOrStdout(), mail.Envelope{
				To:      mail.AddressList(sendTo),
				Subject: sendSubject,
				Message: strings.TrimRight(message, "\n"),
				Headers: mail.HeaderList(sendHeaders),
			})
		},
	}
)

func send(ctx context.Context, out io.Writer, env mail.Envelope) error {
	gdb, err := db.Open(&cfg)
	if err != nil {
		return err //nolint:wrapcheck
	}

	store, err := credential.NewStore(cfg.Mailer.EncryptionSecret)
	if err != nil {
		return err //nolint:wrapcheck
	}

	if !mailer.New(gdb, store, cfg.Mailer).Send(ctx, env) {
		return ErrSendFailed
	}

	fmt.Fprintf(out, "message to %s handed over\n", env.Recipients())

	return nil
}
