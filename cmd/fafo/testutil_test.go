package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

const watchRef = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

const (
	fakeInfoJSON = `{"id": "dQw4w9WgXcQ", "title": "Never Gonna Give You Up", ` +
		`"webpage_url": "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "description": "Official video.", ` +
		`"thumbnail": "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg", "duration": 212, "uploader": "Rick Astley"}`
	fakeSearchJSON = `{"id": "never", "entries": [` +
		`{"id": "dQw4w9WgXcQ", "title": "Never Gonna Give You Up", "url": "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "duration": 212, "channel": "Rick Astley"}, ` +
		`{"id": "yPYZpwSpKmA", "title": "Together Forever", "url": "https://www.youtube.com/watch?v=yPYZpwSpKmA", "duration": 205, "channel": "Rick Astley"}]}`
)

// fakeYTDLP is a stand-in yt-dlp executable. It appends its arguments to
// <script>.args and answers searches and the watchRef video; anything else
// fails the way yt-dlp does for an unavailable video.
const fakeYTDLP = `#!/bin/sh
echo "$@" >> "$0.args"
for arg in "$@"; do
  case "$arg" in
    ytsearch*) echo '` + fakeSearchJSON + `'; exit 0 ;;
    *dQw4w9WgXcQ*) echo '` + fakeInfoJSON + `'; exit 0 ;;
  esac
done
echo "ERROR: [youtube] Video unavailable" >&2
exit 1
`

// testEnv is a config file and database in a temp dir, with a fake
// extraction backend in the primary slot.
type testEnv struct {
	t       *testing.T
	dir     string
	config  string
	ytdlp   string
	backend *httptest.Server
	calls   atomic.Int32
}

// newTestEnv starts a backend that answers with handler. A nil handler
// serves a 720p stream for every request.
func newTestEnv(t *testing.T, handler http.HandlerFunc) *testEnv {
	t.Helper()
	env := &testEnv{t: t, dir: t.TempDir()}
	if handler == nil {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"title":"video","stream_url":"https://cdn.example/v720.mp4","height":720}`))
		}
	}
	env.backend = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(env.backend.Close)

	if runtime.GOOS == "windows" {
		t.Skip("fake yt-dlp is a shell script")
	}
	env.ytdlp = filepath.Join(env.dir, "yt-dlp")
	require.NoError(t, os.WriteFile(env.ytdlp, []byte(fakeYTDLP), 0755))

	env.config = filepath.Join(env.dir, "config.toml")
	content := `[log]
level = "error"

[database]
path = "` + filepath.Join(env.dir, "fafo.db") + `"

[playback]
request_timeout = "2s"

[strategies]
primary = "remote"
secondary = ""

[strategies.ytdlp]
executable = "` + env.ytdlp + `"

[strategies.remote]
base_url = "` + env.backend.URL + `"
`
	require.NoError(t, os.WriteFile(env.config, []byte(content), 0644))
	return env
}

// appendConfig adds content to the end of the env's config file.
func (e *testEnv) appendConfig(content string) {
	e.t.Helper()
	data, err := os.ReadFile(e.config)
	require.NoError(e.t, err)
	require.NoError(e.t, os.WriteFile(e.config, append(data, content...), 0644))
}

// editConfig replaces old with replacement in the env's config file.
func (e *testEnv) editConfig(old, replacement string) {
	e.t.Helper()
	data, err := os.ReadFile(e.config)
	require.NoError(e.t, err)
	require.Contains(e.t, string(data), old)
	edited := strings.Replace(string(data), old, replacement, 1)
	require.NoError(e.t, os.WriteFile(e.config, []byte(edited), 0644))
}

// ytdlpCalls returns the argument lines the fake yt-dlp was invoked with.
func (e *testEnv) ytdlpCalls() []string {
	e.t.Helper()
	data, err := os.ReadFile(e.ytdlp + ".args")
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(e.t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

// run executes the CLI with the env's config and returns stdout and stderr.
func (e *testEnv) run(args ...string) (string, string, error) {
	e.t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--config", e.config}, args...)
	err := run(context.Background(), full, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

// mustRun runs the CLI and fails the test on error.
func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, errOut, err := e.run(args...)
	require.NoError(e.t, err, "stderr: %s", errOut)
	return out
}

// mustJSON runs the CLI with --json and decodes stdout into v.
func (e *testEnv) mustJSON(v any, args ...string) {
	e.t.Helper()
	out := e.mustRun(append([]string{"--json"}, args...)...)
	require.NoError(e.t, json.Unmarshal([]byte(out), v), "output: %s", out)
}

// addItem creates an item and returns its id.
func (e *testEnv) addItem(title, ref string, flags ...string) string {
	e.t.Helper()
	var created struct {
		ID string `json:"id"`
	}
	e.mustJSON(&created, append([]string{"items", "add", title, ref}, flags...)...)
	require.NotEmpty(e.t, created.ID)
	return created.ID
}
