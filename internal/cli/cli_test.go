package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/cloudwego/eino/components/model"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickedit/internal/config"
	"quickedit/internal/llm/client"
	"quickedit/internal/models"
	"quickedit/internal/services"
	"quickedit/internal/tests/mocks"
	"quickedit/internal/utils"
)

const recolorResponse = `{"intent":"Recolor the button","summary":"Updated .button","files_affected":["src/index.css"],
"modifications":[{"type":"css","file":"src/index.css","target":".button","property":"color","value":"#03A5C0"}]}`

type testApp struct {
	cfg    *config.Config
	log    *logrus.Logger
	edits  *services.EditService
	memory services.MemoryService
	keys   *services.KeyringService
	closed bool
}

func (a *testApp) Config() *config.Config                  { return a.cfg }
func (a *testApp) Log() logrus.FieldLogger                 { return a.log }
func (a *testApp) Edits() *services.EditService            { return a.edits }
func (a *testApp) Memory() services.MemoryService          { return a.memory }
func (a *testApp) Projects() *services.ProjectService      { return services.NewProjectService(a.log) }
func (a *testApp) Git() *services.GitService               { return services.NewGitService() }
func (a *testApp) Keys() (*services.KeyringService, error) { return a.keys, nil }
func (a *testApp) Close() error                            { a.closed = true; return nil }

func newTestApp(t *testing.T, response string) *testApp {
	t.Helper()
	log, _ := test.NewNullLogger()
	profiles := services.NewProfileService("openai", "")
	require.NoError(t, profiles.Startup(context.Background()))
	chat := &mocks.ChatModelMock{Chunks: []string{response}}
	factory := client.ModelFactoryFunc(func(context.Context, models.GenerationProfile) (model.BaseChatModel, error) {
		return chat, nil
	})
	memory := services.NewMemoryService(&mocks.SessionMemoryRepositoryMock{}, 20)
	cfg := config.DefaultConfig
	return &testApp{
		cfg:    &cfg,
		log:    log,
		edits:  services.NewEditService(services.EditServiceOptions{Generator: client.NewGenerator(factory, profiles, log), Memory: memory, Log: log}),
		memory: memory,
		keys:   services.NewKeyringService(keyring.NewArrayKeyring(nil)),
	}
}

func run(t *testing.T, app *testApp, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(func(*cobra.Command) (Application, error) { return app, nil })
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, utils.WriteFiles(dir, map[string]string{
		"index.html":    "<div id=\"root\"></div>",
		"src/App.tsx":   "export default function App() {\n  return <button className=\"button\">Go</button>\n}\n",
		"src/index.css": ".button { color: #333; }",
	}))
	return dir
}

func TestEditCommand_WritesChangedFiles(t *testing.T) {
	app := newTestApp(t, recolorResponse)
	dir := writeProject(t)

	out, err := run(t, app, "", "edit", "--dir", dir, "--write", "--session", "cli-test", "change", "the", "button", "color", "to", "#03A5C0")
	require.NoError(t, err)
	assert.Contains(t, out, "src/index.css")
	assert.Contains(t, out, "Wrote 1 file(s)")
	assert.True(t, app.closed)

	data, err := os.ReadFile(filepath.Join(dir, "src", "index.css"))
	require.NoError(t, err)
	assert.Equal(t, ".button { color: #03A5C0; }", string(data))

	snap, err := app.memory.Load(context.Background(), "cli-test")
	require.NoError(t, err)
	require.NotEmpty(t, snap.RecentChanges)
	assert.Equal(t, "src/index.css", snap.RecentChanges[0].File)
}

func commitProject(t *testing.T, repo *git.Repository, msg string) string {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.AddWithOptions(&git.AddOptions{All: true}))
	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "dev", Email: "dev@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return hash.String()
}

func TestEditCommand_ChangedSinceRecordsRevision(t *testing.T) {
	app := newTestApp(t, recolorResponse)
	dir := writeProject(t)
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	commitProject(t, repo, "initial")
	require.NoError(t, utils.WriteFiles(dir, map[string]string{"src/index.css": ".button { color: #444; }"}))
	head := commitProject(t, repo, "darker button")

	req := models.EditRequest{ProjectFiles: map[string]string{"src/index.css": "", "src/App.tsx": ""}}
	require.NoError(t, annotateFromGit(app, &editOptions{dir: dir, since: "HEAD~1"}, &req))
	assert.Equal(t, head, req.Revision)
	assert.Equal(t, []string{"src/index.css"}, req.FocusFiles)

	_, err = run(t, app, "", "edit", "--dir", dir, "--changed-since", "HEAD~1", "--write", "--session", "git", "recolor it")
	require.NoError(t, err)

	snap, err := app.memory.Load(context.Background(), "git")
	require.NoError(t, err)
	require.NotEmpty(t, snap.RecentChanges)
	assert.Equal(t, head, snap.RecentChanges[0].Revision)
}

func TestEditCommand_ChangedSinceNeedsGit(t *testing.T) {
	_, err := run(t, newTestApp(t, recolorResponse), "", "edit", "--dir", writeProject(t), "--changed-since", "HEAD~1", "recolor it")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--changed-since")
}

func TestEditCommand_DryRunLeavesFiles(t *testing.T) {
	app := newTestApp(t, recolorResponse)
	dir := writeProject(t)

	out, err := run(t, app, "", "edit", "--dir", dir, "--json", "change the button color to #03A5C0")
	require.NoError(t, err)
	assert.Contains(t, out, `"success": true`)

	data, err := os.ReadFile(filepath.Join(dir, "src", "index.css"))
	require.NoError(t, err)
	assert.Equal(t, ".button { color: #333; }", string(data))
}

func TestEditCommand_EmptyProject(t *testing.T) {
	_, err := run(t, newTestApp(t, recolorResponse), "", "edit", "--dir", t.TempDir(), "make it blue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no project files")
}

func TestAnalyzeCommand(t *testing.T) {
	dir := writeProject(t)
	out, err := run(t, newTestApp(t, ""), "", "analyze", "--dir", dir, "change the button color to blue")
	require.NoError(t, err)
	assert.Contains(t, out, "Complexity:")
	assert.Contains(t, out, "quick_modification")
	assert.Contains(t, out, "src/index.css")
}

func TestMemoryCommands(t *testing.T) {
	app := newTestApp(t, "")
	_, err := app.memory.Record(context.Background(), "s1", []models.RecentChange{{File: "src/index.css", Description: "recolored"}})
	require.NoError(t, err)

	out, err := run(t, app, "", "memory", "list")
	require.NoError(t, err)
	assert.Equal(t, "s1\n", out)

	out, err = run(t, app, "", "memory", "show", "s1")
	require.NoError(t, err)
	assert.Contains(t, out, "src/index.css")

	_, err = run(t, app, "", "memory", "clear", "s1")
	require.NoError(t, err)
	out, err = run(t, app, "", "memory", "show", "s1")
	require.NoError(t, err)
	assert.Contains(t, out, "no memory for session s1")
}

func TestKeysCommands(t *testing.T) {
	app := newTestApp(t, "")

	_, err := run(t, app, "", "keys", "set", "OpenAI", "sk-test")
	require.NoError(t, err)
	_, err = run(t, app, "sk-claude\n", "keys", "set", "anthropic")
	require.NoError(t, err)

	out, err := run(t, app, "", "keys", "list")
	require.NoError(t, err)
	assert.Equal(t, "anthropic\nopenai\n", out)

	key, err := app.keys.GetApiKey("anthropic")
	require.NoError(t, err)
	assert.Equal(t, "sk-claude", key)

	_, err = run(t, app, "", "keys", "delete", "openai")
	require.NoError(t, err)
	out, err = run(t, app, "", "keys", "list")
	require.NoError(t, err)
	assert.Equal(t, "anthropic\n", out)
}
