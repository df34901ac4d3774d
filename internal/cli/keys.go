package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newKeysCommand(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage provider API keys in the system keyring",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <provider> [key]",
		Short: "Store an API key (read from stdin when omitted)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 2 {
				key = args[1]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read key from stdin: %w", err)
				}
				key = line
			}
			key = strings.TrimSpace(key)
			return withApp(open, cmd, func(app Application) error {
				ring, err := app.Keys()
				if err != nil {
					return err
				}
				if err := ring.StoreApiKey(strings.ToLower(args[0]), []byte(key)); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("stored key for "+args[0]))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List providers with a stored key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(open, cmd, func(app Application) error {
				ring, err := app.Keys()
				if err != nil {
					return err
				}
				providers, err := ring.ListApiKeys()
				if err != nil {
					return err
				}
				for _, p := range providers {
					fmt.Fprintln(cmd.OutOrStdout(), p)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <provider>",
		Short: "Remove a stored key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(open, cmd, func(app Application) error {
				ring, err := app.Keys()
				if err != nil {
					return err
				}
				return ring.DeleteApiKey(strings.ToLower(args[0]))
			})
		},
	})
	return cmd
}
