package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gong-export-go/internal/dataset"
	"gong-export-go/internal/gong"
	"gong-export-go/internal/pipeline"
	"gong-export-go/internal/types"
)

const testCredential = "Basic dGVzdDp0ZXN0"

// fakeGong serves a two-call organization: c1 with an external guest and a
// transcript, c2 without either.
func fakeGong(t *testing.T) *httptest.Server {
	t.Helper()
	routes := map[string]string{
		"/v2/users":             `{"users":[{"id":"u1","emailAddress":"ann@acme.com","firstName":"Ann"}],"records":{}}`,
		"/v2/settings/trackers": `{"trackers":[{"trackerId":"t1","trackerName":"Pricing"}]}`,
		"/v2/workspaces":        `{"workspaces":[{"id":"w1","name":"Sales"}]}`,
		"/v2/calls": `{"calls":[
			{"id":"c1","title":"Kickoff","started":"2025-03-03T10:00:00Z","duration":125},
			{"id":"c2","title":"Internal sync","started":"2025-03-04T10:00:00Z","duration":60}
		],"records":{}}`,
		"/v2/calls/extensive": `{"calls":[{
			"metaData":{"id":"c1","title":"Kickoff"},
			"parties":[
				{"speakerId":"s1","name":"Ann Lee","emailAddress":"ann@acme.com"},
				{"speakerId":"s2","name":"Cy Ward","emailAddress":"cy@client.com"}
			]
		}]}`,
		"/v2/calls/transcript": `{"callTranscripts":[{"callId":"c1","transcript":[
			{"speakerId":"s1","sentences":[{"start":0,"end":1000,"text":"Welcome to the kickoff"}]},
			{"speakerId":"s2","sentences":[{"start":2000,"end":3000,"text":"Glad to be here today"}]}
		]}]}`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != testCredential {
			http.Error(w, `{"errors":["unauthorized"]}`, http.StatusUnauthorized)
			return
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	t.Setenv("GONG_BASE_URL", srv.URL)
	t.Setenv("GONG_RATE_LIMIT_DELAY", "0s")
	t.Setenv("GONG_MAX_RETRIES", "0")
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("LOG_LEVEL", "error")
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConnectCommand(t *testing.T) {
	fakeGong(t)

	out, err := run(t, "connect", "--credential", testCredential)
	require.NoError(t, err)

	var res types.ConnectResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []string{"acme.com"}, res.InternalDomains)
	assert.Len(t, res.Trackers, 1)
	assert.Empty(t, res.Warnings)
}

func TestConnectCommandRejected(t *testing.T) {
	fakeGong(t)

	_, err := run(t, "connect", "--credential", "Basic wrong")
	require.Error(t, err)
	assert.True(t, gong.IsAuth(err))
	assert.Equal(t, ExitAuth, exitCode(err))
}

func TestListCommandWritesIndex(t *testing.T) {
	fakeGong(t)
	index := filepath.Join(t.TempDir(), "calls.xlsx")

	out, err := run(t, "list", "--credential", testCredential, "--search", "kickoff", "--xlsx", index)
	require.NoError(t, err)

	assert.Contains(t, out, "Kickoff")
	assert.NotContains(t, out, "Internal sync")
	assert.Contains(t, out, "1 of 2 calls")

	ids, err := dataset.LoadSelection(index)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, ids)
}

func TestExportCommandGzip(t *testing.T) {
	fakeGong(t)
	dir := t.TempDir()

	out, err := run(t, "export", "--credential", testCredential, "--ids", "c1", "--format", "jsonl", "--out", dir, "--gzip")
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 calls")

	matches, err := filepath.Glob(filepath.Join(dir, "gong-transcripts-1calls-*.jsonl.gz"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	f, err := os.Open(matches[0])
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	content, err := io.ReadAll(zr)
	require.NoError(t, err)

	assert.Contains(t, string(content), "0:00 | Ann [I]")
	assert.Contains(t, string(content), "0:02 | Cy [E]")
	assert.Contains(t, string(content), "GLAD TO BE HERE TODAY")
	assert.Equal(t, 1, bytes.Count(content, []byte("\n")))
}

func TestExportCommandStdout(t *testing.T) {
	fakeGong(t)

	out, err := run(t, "export", "--credential", testCredential, "--search", "kickoff", "--metadata=false", "--out", "-")
	require.NoError(t, err)

	assert.Contains(t, out, "# Call Transcripts Export")
	assert.Contains(t, out, "## Call: Kickoff")
	assert.NotContains(t, out, "**Account:**")
}

func TestExportCommandNothingSelected(t *testing.T) {
	fakeGong(t)

	_, err := run(t, "export", "--credential", testCredential, "--ids", "missing", "--out", "-")
	assert.ErrorIs(t, err, pipeline.ErrNoCalls)
	assert.Equal(t, ExitEmpty, exitCode(err))
}

func TestExportOptionsFromFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format: xml\ninclude_ai_brief: false\n"), 0o600))

	var ef exportFlags
	cmd := &cobra.Command{}
	ef.bind(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--options", path, "--condense=false"}))

	opts, err := ef.options(cmd)
	require.NoError(t, err)
	assert.Equal(t, types.FormatXML, opts.Format)
	assert.False(t, opts.IncludeAIBrief)
	assert.False(t, opts.CondenseInternal)
	assert.True(t, opts.RemoveFiller)

	require.NoError(t, cmd.ParseFlags([]string{"--format", "pdf"}))
	_, err = ef.options(cmd)
	assert.ErrorContains(t, err, "invalid export options")
}

func TestQueryFlags(t *testing.T) {
	q := queryFlags{from: "2025-03-01", to: "2025-03-07", workspace: "w1"}
	got, err := q.query()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), got.From)
	assert.Equal(t, time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC), got.To)
	assert.Equal(t, "w1", got.WorkspaceID)

	q = queryFlags{from: "2025-03-07", to: "2025-03-01"}
	_, err = q.query()
	assert.Error(t, err)

	q = queryFlags{from: "March"}
	_, err = q.query()
	assert.ErrorContains(t, err, "--from")
}

func TestWriteDocument(t *testing.T) {
	var plain, zipped bytes.Buffer
	require.NoError(t, writeDocument(&plain, "hello", false))
	require.NoError(t, writeDocument(&zipped, "hello", true))

	assert.Equal(t, "hello", plain.String())
	zr, err := gzip.NewReader(&zipped)
	require.NoError(t, err)
	b, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, exitCode(nil))
	assert.Equal(t, ExitError, exitCode(errors.New("boom")))
	assert.Equal(t, ExitAuth, exitCode(&gong.Error{Kind: gong.KindAuth, Status: 401}))
}

func TestMarkSelected(t *testing.T) {
	all := []types.ProcessedCall{{ID: "a"}, {ID: "b", Selected: true}}
	got := markSelected(all, []types.ProcessedCall{{ID: "a"}})
	assert.True(t, got[0].Selected)
	assert.False(t, got[1].Selected)
	assert.True(t, all[1].Selected)
}
