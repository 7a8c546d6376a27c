package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TanyaEf/rest-client/pkg/archive"
	"github.com/TanyaEf/rest-client/pkg/config"
	"github.com/TanyaEf/rest-client/pkg/model"
	"github.com/TanyaEf/rest-client/pkg/xmldoc"
)

type runResult struct {
	stdout string
	stderr string
	err    error
}

// run executes a fresh command tree with an isolated config home.
func run(t *testing.T, env map[string]string, args ...string) runResult {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	root := newRootCommand(BuildInfo{Version: "1.2.3", Commit: "abc123", BuildDate: "2026-01-01"},
		func(key string) string { return env[key] })
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return runResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeFixtures(t *testing.T) (reqPath, resPath string) {
	t.Helper()
	dir := t.TempDir()

	req := &model.Request{
		Method:      "POST",
		URL:         "https://api.example.com/login",
		HTTPVersion: "1.1",
		Headers:     model.Headers{{Name: "Accept", Value: "application/json"}},
		Body: &model.RequestBody{
			ContentType: "application/json",
			Charset:     "UTF-8",
			Data:        []byte(`{"user":"admin"}`),
		},
	}
	resp := &model.Response{
		StatusCode:    200,
		StatusLine:    "HTTP/1.1 200 OK",
		Headers:       model.Headers{{Name: "content-type", Value: "text/plain; charset=ISO-8859-1"}},
		Body:          []byte("caf\xe9"),
		ExecutionTime: 150 * time.Millisecond,
		TestResult:    &model.TestResult{Runs: 3, Failures: 1},
	}

	reqPath = filepath.Join(dir, "login.rcq")
	resPath = filepath.Join(dir, "login.rcs")
	require.NoError(t, xmldoc.WriteRequestFile(reqPath, req))
	require.NoError(t, xmldoc.WriteResponseFile(resPath, resp))
	return reqPath, resPath
}

func packFixture(t *testing.T) string {
	t.Helper()
	reqPath, resPath := writeFixtures(t)
	out := filepath.Join(t.TempDir(), "login"+archive.Extension)

	res := run(t, nil, "pack", "-q", reqPath, "-s", resPath, "-o", out)
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Packed "+out)
	return out
}

func TestPackUnpackInspect(t *testing.T) {
	out := packFixture(t)

	t.Run("inspect table", func(t *testing.T) {
		res := run(t, nil, "inspect", out)
		require.NoError(t, res.err)
		assert.Contains(t, res.stdout, "NAME")
		assert.Contains(t, res.stdout, archive.RequestEntry)
		assert.Contains(t, res.stdout, archive.ResponseEntry)
		assert.NotContains(t, res.stderr, "Warning")
	})

	t.Run("inspect json", func(t *testing.T) {
		res := run(t, nil, "inspect", out, "--json")
		require.NoError(t, res.err)

		var entries []archive.EntryInfo
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &entries))
		require.Len(t, entries, 2)
		assert.Equal(t, archive.RequestEntry, entries[0].Name)
		assert.Equal(t, archive.ResponseEntry, entries[1].Name)
	})

	t.Run("unpack summary", func(t *testing.T) {
		res := run(t, nil, "unpack", out)
		require.NoError(t, res.err)
		assert.Contains(t, res.stdout, "POST https://api.example.com/login (HTTP/1.1)")
		assert.Contains(t, res.stdout, "Accept: application/json")
		assert.Contains(t, res.stdout, "HTTP/1.1 200 OK (150ms)")
		assert.Contains(t, res.stdout, "café")
		assert.Contains(t, res.stdout, "3 run, 1 failures, 0 errors")
	})

	t.Run("unpack json", func(t *testing.T) {
		res := run(t, nil, "unpack", out, "--json")
		require.NoError(t, res.err)

		var pair model.ReqRes
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &pair))
		require.NotNil(t, pair.Request)
		require.NotNil(t, pair.Response)
		assert.Equal(t, "POST", pair.Request.Method)
		assert.Equal(t, 200, pair.Response.StatusCode)
	})

	t.Run("unpack out-dir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "extracted")
		res := run(t, nil, "unpack", out, "--out-dir", dir)
		require.NoError(t, res.err)

		req, err := xmldoc.ReadRequestFile(filepath.Join(dir, archive.RequestEntry))
		require.NoError(t, err)
		assert.Equal(t, "https://api.example.com/login", req.URL)

		resp, err := xmldoc.ReadResponseFile(filepath.Join(dir, archive.ResponseEntry))
		require.NoError(t, err)
		assert.Equal(t, []byte("caf\xe9"), resp.Body)
	})
}

func TestPackToStdout(t *testing.T) {
	reqPath, resPath := writeFixtures(t)

	res := run(t, nil, "pack", "-q", reqPath, "-s", resPath, "-o", "-")
	require.NoError(t, res.err)

	data := []byte(res.stdout)
	pair, err := archive.New().UnpackFrom(context.Background(), bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, "POST", pair.Request.Method)
}

func TestPackJSON(t *testing.T) {
	reqPath, resPath := writeFixtures(t)
	out := filepath.Join(t.TempDir(), "out.rcc")

	res := run(t, nil, "pack", "-q", reqPath, "-s", resPath, "-o", out, "--json")
	require.NoError(t, res.err)

	var got packResult
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &got))
	assert.Equal(t, out, got.Archive)
	assert.Len(t, got.Entries, 2)
}

func TestPackErrors(t *testing.T) {
	reqPath, resPath := writeFixtures(t)
	dir := t.TempDir()

	invalid := filepath.Join(dir, "relative.rcq")
	require.NoError(t, xmldoc.WriteRequestFile(invalid, &model.Request{Method: "GET", URL: "/relative"}))

	tests := []struct {
		name    string
		args    []string
		wantErr string
		wantIs  error
	}{
		{
			name:    "missing flags",
			args:    []string{"pack", "-q", reqPath},
			wantErr: "required flag",
		},
		{
			name:    "missing request file",
			args:    []string{"pack", "-q", filepath.Join(dir, "nope.rcq"), "-s", resPath, "-o", filepath.Join(dir, "a.rcc")},
			wantErr: "failed to read request",
		},
		{
			name:   "invalid request",
			args:   []string{"pack", "-q", invalid, "-s", resPath, "-o", filepath.Join(dir, "b.rcc")},
			wantIs: model.ErrInvalidRequest,
		},
		{
			name:    "request where response expected",
			args:    []string{"pack", "-q", reqPath, "-s", reqPath, "-o", filepath.Join(dir, "c.rcc")},
			wantErr: "failed to read response",
		},
		{
			name:   "missing output directory",
			args:   []string{"pack", "-q", reqPath, "-s", resPath, "-o", filepath.Join(dir, "missing", "d.rcc")},
			wantIs: archive.ErrArchiveWrite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, nil, tt.args...)
			require.Error(t, res.err)
			if tt.wantErr != "" {
				assert.Contains(t, res.err.Error(), tt.wantErr)
			}
			if tt.wantIs != nil {
				assert.ErrorIs(t, res.err, tt.wantIs)
			}
		})
	}
}

func TestPackNoValidate(t *testing.T) {
	_, resPath := writeFixtures(t)
	dir := t.TempDir()

	reqPath := filepath.Join(dir, "relative.rcq")
	require.NoError(t, xmldoc.WriteRequestFile(reqPath, &model.Request{Method: "GET", URL: "/relative"}))

	res := run(t, nil, "pack", "-q", reqPath, "-s", resPath, "-o", filepath.Join(dir, "out.rcc"), "--no-validate")
	require.NoError(t, res.err)
}

func TestUnpackMissingArchive(t *testing.T) {
	res := run(t, nil, "unpack", filepath.Join(t.TempDir(), "missing.rcc"))
	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, archive.ErrNotFound)
}

func TestInspectCorruptArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.rcc")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))

	res := run(t, nil, "inspect", path)
	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, archive.ErrArchiveRead)
}

func TestStatusCodeCommand(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{args: []string{"HTTP/1.1 404 Not Found"}, want: "404"},
		{args: []string{"HTTP/1.1", "201", "Created"}, want: "201"},
		{args: []string{"garbage"}, want: "-1"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			res := run(t, nil, append([]string{"status-code"}, tt.args...)...)
			require.NoError(t, res.err)
			assert.Equal(t, tt.want, strings.TrimSpace(res.stdout))
		})
	}
}

func TestCharsetCommand(t *testing.T) {
	res := run(t, nil, "charset", "text/html; charset=ISO-8859-1")
	require.NoError(t, res.err)
	assert.Equal(t, "ISO-8859-1\n", res.stdout)

	res = run(t, nil, "charset", "application/json")
	require.NoError(t, res.err)
	assert.Empty(t, res.stdout)

	res = run(t, nil, "charset", "text/plain; charset=utf-8", "--json")
	require.NoError(t, res.err)
	assert.JSONEq(t, `{"charset": "utf-8"}`, res.stdout)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "restclient.yaml")

	res := run(t, nil, "config", "init", path)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Wrote "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	res = run(t, nil, "config", "init", path)
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "already exists")

	res = run(t, nil, "config", "init", path, "--force")
	require.NoError(t, res.err)
}

func TestConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "restclient.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scratchDir: /from/file\nlog:\n  level: error\n  format: text\n"), 0o644))
	scratchDir := t.TempDir()

	env := map[string]string{
		config.EnvLogLevel:     "warn",
		config.EnvMaxEntrySize: "1024",
	}

	res := run(t, env, "config", "show", "--config", path, "--scratch-dir", scratchDir, "--json")
	require.NoError(t, res.err, res.stderr)

	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &cfg))
	assert.Equal(t, scratchDir, cfg.ScratchDir, "flag wins over file")
	assert.Equal(t, "warn", cfg.Log.Level, "env wins over file")
	assert.Equal(t, int64(1024), cfg.MaxEntrySize)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestConfigShowYAML(t *testing.T) {
	res := run(t, nil, "config", "show")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "level: info")
	assert.Contains(t, res.stdout, "format: text")
}

func TestInvalidConfig(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		res := run(t, nil, "config", "show", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, res.err, config.ErrFileNotFound)
	})

	t.Run("bad log level flag", func(t *testing.T) {
		res := run(t, nil, "config", "show", "--log-level", "loud")
		assert.ErrorIs(t, res.err, config.ErrInvalid)
	})

	t.Run("bad env value", func(t *testing.T) {
		res := run(t, map[string]string{config.EnvMaxEntrySize: "lots"}, "config", "show")
		assert.ErrorIs(t, res.err, config.ErrInvalid)
	})
}

func TestLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "restclient.log")
	out := packFixture(t)

	res := run(t, map[string]string{config.EnvLogFile: logPath}, "unpack", out, "--json")
	require.NoError(t, res.err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"configuration resolved"`)
}

func TestVersionCommand(t *testing.T) {
	res := run(t, nil, "version")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "restclient v1.2.3 (abc123")

	res = run(t, nil, "version", "--json")
	require.NoError(t, res.err)

	var out VersionOutput
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.Equal(t, "1.2.3", out.Version)
	assert.Equal(t, "2026-01-01", out.Date)
	assert.NotEmpty(t, out.Go)
}

func TestWritePairKeepsExistingFilesOnFailure(t *testing.T) {
	dir := t.TempDir()
	reqPath := filepath.Join(dir, archive.RequestEntry)
	resPath := filepath.Join(dir, archive.ResponseEntry)
	require.NoError(t, os.WriteFile(reqPath, []byte("my request"), 0o644))
	require.NoError(t, os.WriteFile(resPath, []byte("my response"), 0o644))

	pair := &model.ReqRes{
		Request:  &model.Request{Method: "GET", URL: "http://localhost/"},
		Response: &model.Response{StatusCode: 200, StatusLine: "HTTP/1.1 200 \x01"},
	}

	var out bytes.Buffer
	err := writePair(&out, dir, pair)
	require.Error(t, err)
	assert.ErrorIs(t, err, xmldoc.ErrUnencodable)
	assert.Empty(t, out.String())

	got, err := os.ReadFile(reqPath)
	require.NoError(t, err)
	assert.Equal(t, "my request", string(got))
	got, err = os.ReadFile(resPath)
	require.NoError(t, err)
	assert.Equal(t, "my response", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "staged files are removed")
}

func TestWritePairReplacesExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, archive.RequestEntry), []byte("old"), 0o644))

	pair := &model.ReqRes{
		Request:  &model.Request{Method: "GET", URL: "http://localhost/"},
		Response: &model.Response{StatusCode: 204, StatusLine: "HTTP/1.1 204 No Content"},
	}
	require.NoError(t, writePair(io.Discard, dir, pair))

	req, err := xmldoc.ReadRequestFile(filepath.Join(dir, archive.RequestEntry))
	require.NoError(t, err)
	assert.Equal(t, "GET", req.Method)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestHelperCommandsEmitValidJSON(t *testing.T) {
	res := run(t, nil, "charset", "text/plain; charset=a\x01\"b", "--json")
	require.NoError(t, res.err)

	var cs struct {
		Charset string `json:"charset"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &cs))
	assert.Equal(t, "a\x01\"b", cs.Charset)

	res = run(t, nil, "status-code", "HTTP/1.1 418 I'm a teapot", "--json")
	require.NoError(t, res.err)
	assert.JSONEq(t, `{"statusCode": 418}`, res.stdout)
}
