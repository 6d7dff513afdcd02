package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/spf13/cobra"

	"github.com/jdelaire/inferbot/internal/keychain"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the bot token stored in the system keychain",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "Read a bot token from stdin and store it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tok, err := readToken(cmd.InOrStdin())
			if err != nil {
				return err
			}
			if err := keychain.Set(keychain.TokenAccount, tok); err != nil {
				return fmt.Errorf("store token: %w", err)
			}
			ancli.PrintOK("bot token stored in keychain\n")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Remove the stored bot token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := keychain.Delete(keychain.TokenAccount); err != nil {
				return fmt.Errorf("delete token: %w", err)
			}
			ancli.PrintOK("bot token removed from keychain\n")
			return nil
		},
	})

	return cmd
}

func readToken(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return "", fmt.Errorf("read token: no input")
	}
	return sc.Text(), nil
}
