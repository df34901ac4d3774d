package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newMemoryCommand(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect or clear per-session edit memory",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List sessions with stored memory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(open, cmd, func(app Application) error {
				sessions, err := app.Memory().Sessions(cmdContext(cmd))
				if err != nil {
					return err
				}
				for _, s := range sessions {
					fmt.Fprintln(cmd.OutOrStdout(), s)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <session>",
		Short: "Print the memory of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(open, cmd, func(app Application) error {
				snap, err := app.Memory().Load(cmdContext(cmd), args[0])
				if err != nil {
					return err
				}
				if snap.IsEmpty() {
					fmt.Fprintf(cmd.OutOrStdout(), "no memory for session %s\n", args[0])
					return nil
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(snap)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear <session>",
		Short: "Delete the memory of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(open, cmd, func(app Application) error {
				if err := app.Memory().Clear(cmdContext(cmd), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("cleared "+args[0]))
				return nil
			})
		},
	})
	return cmd
}
