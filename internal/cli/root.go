// Package cli holds the cobra commands of the quickedit binary.
package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"quickedit/internal/config"
	"quickedit/internal/services"
)

// Application is the wired process the commands run against.
type Application interface {
	Config() *config.Config
	Log() logrus.FieldLogger
	Edits() *services.EditService
	Memory() services.MemoryService
	Projects() *services.ProjectService
	Git() *services.GitService
	// Keys opens the credential store on first use.
	Keys() (*services.KeyringService, error)
	Close() error
}

// Opener builds the Application for the command being run.
type Opener func(cmd *cobra.Command) (Application, error)

// NewRootCommand assembles the command tree.
func NewRootCommand(open Opener) *cobra.Command {
	root := &cobra.Command{
		Use:   "quickedit",
		Short: "Apply small natural-language edits to a web front-end project",
		Long: `quickedit turns a change request such as "make the header button blue" into
targeted edits of stylesheets, markup and components. Simple requests go to a
small, fast model; larger ones get more context and a larger model.`,
		SilenceUsage: true,
	}
	config.InitFlags(root)

	root.AddCommand(
		newEditCommand(open),
		newAnalyzeCommand(open),
		newServeCommand(open),
		newMemoryCommand(open),
		newKeysCommand(open),
	)
	return root
}

// Execute runs the command tree against os.Args.
func Execute(open Opener) error {
	return NewRootCommand(open).Execute()
}

// withApp opens the application for cmd, runs fn and closes it.
func withApp(open Opener, cmd *cobra.Command, fn func(app Application) error) error {
	app, err := open(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			app.Log().WithError(cerr).Warn("shutdown")
		}
	}()
	return fn(app)
}
