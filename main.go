package main

import (
	"os"

	"github.com/spf13/cobra"

	"quickedit/internal/cli"
)

func main() {
	err := cli.Execute(func(cmd *cobra.Command) (cli.Application, error) {
		app, err := NewApp(cmd)
		if err != nil {
			return nil, err
		}
		return app, nil
	})
	if err != nil {
		os.Exit(1)
	}
}
