package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"quickedit/internal/models"
	"quickedit/internal/services"
	"quickedit/internal/utils"
)

type editOptions struct {
	dir     string
	gitRef  string
	since   string
	globs   []string
	session string
	write   bool
	jsonOut bool
	quiet   bool
}

func newEditCommand(open Opener) *cobra.Command {
	opts := &editOptions{}
	cmd := &cobra.Command{
		Use:   "edit <request>",
		Short: "Run one change request against a project",
		Long: `The 'edit' command loads the project files, runs the request through the
modification pipeline and prints a diff preview of every changed file. Files are
only written back with --write.`,
		Example: `  quickedit edit "change the button color to #03A5C0"
  quickedit edit --git-ref HEAD~1 "make the title bold"
  quickedit edit --changed-since main "match the new header colors"
  quickedit edit --glob 'src/**/*.css' --write "increase the card padding"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(open, cmd, func(app Application) error {
				return runEdit(cmd, app, strings.Join(args, " "), opts)
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.dir, "dir", "d", ".", "project directory")
	f.StringVar(&opts.gitRef, "git-ref", "", "load files from this git revision instead of the working tree")
	f.StringVar(&opts.since, "changed-since", "", "rank files changed since this git revision as if the request named them")
	f.StringSliceVarP(&opts.globs, "glob", "g", nil, "glob patterns selecting project files (supports **)")
	f.StringVarP(&opts.session, "session", "s", "default", "session id used for memory")
	f.BoolVarP(&opts.write, "write", "w", false, "write updated files back to --dir")
	f.BoolVar(&opts.jsonOut, "json", false, "print the result as JSON")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "do not print progress")
	return cmd
}

func loadProject(app Application, dir, gitRef string, globs []string) (map[string]string, error) {
	if gitRef != "" {
		return app.Git().ReadFilesAtRef(dir, gitRef, services.IsProjectFile)
	}
	return app.Projects().LoadDir(dir, globs)
}

// annotateFromGit records the revision the files were read at and, with
// --changed-since, the files changed between that revision and the one
// loaded. A working tree outside git only fails when --changed-since is set.
func annotateFromGit(app Application, opts *editOptions, req *models.EditRequest) error {
	git := app.Git()
	to := opts.gitRef
	if to == "" {
		head, err := git.LatestCommit(opts.dir)
		if err != nil {
			if opts.since != "" {
				return fmt.Errorf("--changed-since: %w", err)
			}
			app.Log().WithError(err).Debug("project is not a git checkout")
			return nil
		}
		to = head
	}
	req.Revision = to
	if opts.since == "" {
		return nil
	}

	changed, err := git.ChangedFiles(opts.dir, opts.since, to)
	if err != nil {
		return err
	}
	for _, p := range changed {
		if _, ok := req.ProjectFiles[p]; ok {
			req.FocusFiles = append(req.FocusFiles, p)
		}
	}
	app.Log().WithFields(logrus.Fields{"since": opts.since, "files": len(req.FocusFiles)}).Debug("focusing changed files")
	return nil
}

func runEdit(cmd *cobra.Command, app Application, message string, opts *editOptions) error {
	files, err := loadProject(app, opts.dir, opts.gitRef, opts.globs)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no project files found in %s", opts.dir)
	}

	ctx, cancel := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sink := progressSink(cmd.ErrOrStderr())
	if opts.quiet || opts.jsonOut {
		sink = nil
	}
	req := models.EditRequest{Message: message, ProjectFiles: files, SessionID: opts.session}
	if err := annotateFromGit(app, opts, &req); err != nil {
		return err
	}
	result, err := app.Edits().Process(ctx, req, sink)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		renderResult(out, result)
	}

	if opts.write && result.Success {
		changed := make(map[string]string, len(result.AffectedFiles))
		for _, a := range result.AffectedFiles {
			if content, ok := result.UpdatedFiles[a.Path]; ok {
				changed[a.Path] = content
			}
		}
		if err := utils.WriteFiles(opts.dir, changed); err != nil {
			return fmt.Errorf("write files: %w", err)
		}
		app.Log().WithFields(logrus.Fields{"dir": opts.dir, "files": len(changed)}).Info("files written")
		if !opts.jsonOut {
			fmt.Fprintln(out, okStyle.Render(fmt.Sprintf("Wrote %d file(s)", len(changed))))
		}
	}
	return nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
