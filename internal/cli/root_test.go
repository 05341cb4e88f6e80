package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/wtldr/internal/model"
	"github.com/nhle/wtldr/internal/store"
	"github.com/nhle/wtldr/tests/testutil"
)

type cliEnv struct {
	dir    string
	config string
	db     string
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	dir := t.TempDir()
	return cliEnv{
		dir:    dir,
		config: filepath.Join(dir, "config.yaml"),
		db:     filepath.Join(dir, "data", "wtldr.db"),
	}
}

// run executes the CLI with the env's config and database.
func (e cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	root, a := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append([]string{"--config", e.config, "--db", e.db}, args...))

	err := execute(root, a)
	return out.String(), err
}

func (e cliEnv) store(t *testing.T) *store.SQLiteStore {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(e.db), 0o755))
	s, err := store.NewSQLiteStore(e.db)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRootCmd_SubcommandsList(t *testing.T) {
	buf := new(bytes.Buffer)
	root, _ := newRootCmd()
	root.SetOut(buf)
	root.SetArgs([]string{"--help"})

	require.NoError(t, root.Execute())

	out := buf.String()
	for _, cmd := range []string{"init", "fetch", "extract", "run", "watch", "summaries", "runs", "parse", "credential", "version"} {
		assert.Contains(t, out, cmd)
	}
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	root, _ := newRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetArgs([]string{"nonexistent-command"})

	assert.Error(t, root.Execute())
}

func TestVersionCmd_Short(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}

func TestInitCmd(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote config")
	assert.Contains(t, out, "schema v2")
	assert.FileExists(t, env.config)
	assert.FileExists(t, env.db)

	cfg, err := model.LoadConfig(env.config)
	require.NoError(t, err)
	assert.Equal(t, "dan@tldrnewsletter.com", cfg.Mail.NewsletterSender)

	out, err = env.run(t, "init")
	require.NoError(t, err)
	assert.NotContains(t, out, "wrote config")
}

func TestParseCmd(t *testing.T) {
	env := newCLIEnv(t)
	eml := filepath.Join(env.dir, "issue.eml")
	raw := testutil.RawNewsletter(testutil.NewsletterSender, "Tue, 14 May 2024 10:26:00 +0000", testutil.NewsletterBody)
	require.NoError(t, os.WriteFile(eml, raw, 0o644))

	out, err := env.run(t, "parse", eml)
	require.NoError(t, err)
	assert.Contains(t, out, "GPT-4o crushes leaderboard")
	assert.Contains(t, out, "Title One (5 minute read)\nPara one.")
	assert.Contains(t, out, "http://b.com")

	out, err = env.run(t, "parse", "--json", eml)
	require.NoError(t, err)
	var sums []model.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &sums))
	require.Len(t, sums, 2)
	assert.Equal(t, "http://a.com", sums[0].URL)

	assert.NoFileExists(t, env.db)
}

func TestParseCmd_MissingFile(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "parse", filepath.Join(env.dir, "nope.eml"))
	assert.Error(t, err)
}

func TestSummariesCmd_MarkProcessed(t *testing.T) {
	env := newCLIEnv(t)
	ctx := context.Background()

	s := env.store(t)
	_, err := s.InsertMessage(ctx, testutil.NewMessage(1))
	require.NoError(t, err)
	require.NoError(t, s.AddSummaries(ctx, 1, []model.Summary{
		{Text: "a", URL: "http://a.com", Kind: model.SummaryKindTLDR},
		{Text: "b", URL: "http://b.com", Kind: model.SummaryKindTLDR},
	}))
	require.NoError(t, s.Close())

	out, err := env.run(t, "summaries", "--json", "--mark-processed")
	require.NoError(t, err)
	var sums []model.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &sums))
	require.Len(t, sums, 2)
	assert.Equal(t, "a", sums[0].Text)

	out, err = env.run(t, "summaries", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)

	out, err = env.run(t, "summaries")
	require.NoError(t, err)
	assert.Contains(t, out, "no summaries")
}

func TestExtractCmd(t *testing.T) {
	env := newCLIEnv(t)
	s := env.store(t)
	_, err := s.InsertMessage(context.Background(), testutil.NewMessage(1))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	out, err := env.run(t, "extract")
	require.NoError(t, err)
	assert.Contains(t, out, "1 messages, 2 summaries")
}

func TestRunsCmd(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "no ingest runs")

	s := env.store(t)
	require.NoError(t, s.CreateIngestRun(context.Background(), model.IngestRun{
		ID:        "run-abc",
		StartedAt: time.Date(2024, time.May, 14, 11, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, s.Close())

	out, err = env.run(t, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "run-abc")
	assert.Contains(t, out, "2024-05-14 11:00:00")
}

func TestFetchCmd_RequiresMailSettings(t *testing.T) {
	env := newCLIEnv(t)
	t.Setenv("WTLDR_MAIL_HOST", "")
	t.Setenv("WTLDR_MAIL_USERNAME", "")

	_, err := env.run(t, "fetch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mail.host")
}

func TestExecute_ClosesLogFileWhenCommandFails(t *testing.T) {
	env := newCLIEnv(t)
	logDir := filepath.Join(env.dir, "logs")
	require.NoError(t, os.WriteFile(env.config, []byte("logging:\n  dir: "+logDir+"\n"), 0o644))

	root, a := newRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"--config", env.config, "--db", env.db, "parse", filepath.Join(env.dir, "nope.eml")})

	err := execute(root, a)
	require.Error(t, err)
	assert.Nil(t, a.logCloser)

	entries, err := os.ReadDir(logDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReadPassword(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "line", in: "secret\n", want: "secret"},
		{name: "crlf", in: "secret\r\n", want: "secret"},
		{name: "no trailing newline", in: "secret", want: "secret"},
		{name: "only first line", in: "one\ntwo\n", want: "one"},
		{name: "empty", in: "", wantErr: true},
		{name: "blank line", in: "\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readPassword(strings.NewReader(tt.in), new(bytes.Buffer))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
