package shell

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescp17/liteshell/internal/environment"
	"github.com/rescp17/liteshell/pkg/calls"
	"github.com/rescp17/liteshell/pkg/dispatch"
	"github.com/rescp17/liteshell/pkg/surface"
	"github.com/rescp17/liteshell/pkg/surface/scriptsurface"
	"github.com/rescp17/liteshell/pkg/surface/socketsurface"
)

type testApp struct {
	app       *App
	ui        *scriptsurface.Surface
	emissions chan scriptsurface.Emission
	baseURL   string
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEnv(t *testing.T) *environment.Environment {
	t.Helper()
	work := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(work, "index.html"), []byte("<h1>hello</h1>"), 0o644))
	env, err := environment.Init(environment.Options{
		WorkDir:  work,
		TempBase: t.TempDir(),
		DataBase: t.TempDir(),
	})
	require.NoError(t, err)
	return env
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	emissions := make(chan scriptsurface.Emission, 64)
	ui, err := scriptsurface.New(
		scriptsurface.WithLogger(discardLogger()),
		scriptsurface.WithObserver(func(e scriptsurface.Emission) { emissions <- e }),
	)
	require.NoError(t, err)
	t.Cleanup(func() { ui.Close() })

	app := New(newEnv(t), ui, WithLogger(discardLogger()))
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go app.Serve(l)
	t.Cleanup(func() { app.Close() })

	return &testApp{app: app, ui: ui, emissions: emissions, baseURL: "http://" + l.Addr().String()}
}

func (ta *testApp) runLoop(t *testing.T) <-chan error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	done := make(chan error, 1)
	go func() { done <- ta.app.Run(ctx) }()
	return done
}

func (ta *testApp) call(t *testing.T, method string, params any) calls.Response {
	t.Helper()
	body, err := json.Marshal(map[string]any{"id": 1, "method": method, "params": params})
	require.NoError(t, err)
	resp, err := http.Post(ta.baseURL+"/", "application/json", strings.NewReader(string(body)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out calls.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (ta *testApp) nextEmission(t *testing.T) scriptsurface.Emission {
	t.Helper()
	select {
	case e := <-ta.emissions:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no emission observed")
		return scriptsurface.Emission{}
	}
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("event loop did not stop")
		return nil
	}
}

func TestApp_ServesEntryAndRuntime(t *testing.T) {
	ta := newTestApp(t)

	resp, err := http.Get(ta.baseURL + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "<h1>hello</h1>", string(body))

	resp, err = http.Get(ta.baseURL + RuntimePath)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "javascript")
	assert.Equal(t, surface.RuntimeScript, string(body))

	assert.Equal(t, ta.baseURL+"/", ta.app.URL())
}

func TestApp_NativeEventsReachSurfaceInOrder(t *testing.T) {
	ta := newTestApp(t)
	done := ta.runLoop(t)

	require.NoError(t, ta.app.Post(dispatch.WindowFocusChanged{Focused: true}))
	require.NoError(t, ta.app.Post(dispatch.ThemeChanged{Theme: dispatch.ThemeDark}))
	require.NoError(t, ta.app.Post(dispatch.MenuActivated{ID: 7}))

	e := ta.nextEmission(t)
	assert.Equal(t, dispatch.EventWindowFocused, e.Name)
	assert.JSONEq(t, `{"focused":true}`, string(e.Payload))

	e = ta.nextEmission(t)
	assert.Equal(t, dispatch.EventThemeChanged, e.Name)
	assert.JSONEq(t, `{"theme":"dark"}`, string(e.Payload))

	e = ta.nextEmission(t)
	assert.Equal(t, dispatch.EventMenuClicked, e.Name)
	assert.JSONEq(t, `{"menuId":7}`, string(e.Payload))

	require.NoError(t, ta.app.Post(dispatch.CloseRequested{}))
	assert.NoError(t, waitDone(t, done))
}

func TestApp_EventEmitCallGoesThroughLoop(t *testing.T) {
	ta := newTestApp(t)
	ta.runLoop(t)

	resp := ta.call(t, "event.emit", map[string]any{"name": "note.saved", "payload": map[string]any{"id": 3}})
	require.True(t, resp.OK, "%+v", resp.Error)

	e := ta.nextEmission(t)
	assert.Equal(t, "note.saved", e.Name)
	assert.JSONEq(t, `{"id":3}`, string(e.Payload))

	resp = ta.call(t, "event.emit", map[string]any{"name": ""})
	assert.False(t, resp.OK)
	require.NotNil(t, resp.Error)
	assert.Equal(t, calls.CodeInvalidParams, resp.Error.Code)
}

func TestApp_ExitCallStopsLoop(t *testing.T) {
	ta := newTestApp(t)
	done := ta.runLoop(t)

	resp := ta.call(t, "app.exit", nil)
	require.True(t, resp.OK)
	assert.NoError(t, waitDone(t, done))
}

func TestApp_InfoCalls(t *testing.T) {
	ta := newTestApp(t)
	env := ta.app.Environment()

	resp := ta.call(t, "app.info", nil)
	require.True(t, resp.OK)
	info, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, env.Project.Name, info["name"])
	assert.Equal(t, env.Project.UUID, info["uuid"])
	assert.Equal(t, env.WorkDir, info["workDir"])
	assert.Equal(t, ta.app.InstanceID(), info["instanceId"])

	resp = ta.call(t, "app.systemInfo", nil)
	require.True(t, resp.OK)
	sys, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, sys, "os")
	assert.Contains(t, sys, "uptime")
}

func TestApp_FileSystemCalls(t *testing.T) {
	ta := newTestApp(t)
	work := ta.app.Environment().WorkDir

	resp := ta.call(t, "fs.write", map[string]any{"path": "notes/today.txt", "content": "buy milk"})
	require.True(t, resp.OK, "%+v", resp.Error)
	data, err := os.ReadFile(filepath.Join(work, "notes", "today.txt"))
	require.NoError(t, err)
	assert.Equal(t, "buy milk", string(data))

	resp = ta.call(t, "fs.read", map[string]any{"path": "notes/today.txt"})
	require.True(t, resp.OK)
	assert.Equal(t, "buy milk", resp.Result)

	resp = ta.call(t, "fs.exists", map[string]any{"path": "notes"})
	require.True(t, resp.OK)
	assert.Equal(t, map[string]any{"exists": true, "isDir": true}, resp.Result)

	resp = ta.call(t, "fs.exists", map[string]any{"path": "missing.txt"})
	require.True(t, resp.OK)
	assert.Equal(t, map[string]any{"exists": false, "isDir": false}, resp.Result)

	resp = ta.call(t, "fs.read", map[string]any{"path": "missing.txt"})
	assert.False(t, resp.OK)
	require.NotNil(t, resp.Error)
	assert.Equal(t, calls.CodeInternal, resp.Error.Code)

	resp = ta.call(t, "fs.read", nil)
	assert.False(t, resp.OK)
	assert.Equal(t, calls.CodeInvalidParams, resp.Error.Code)
}

func TestApp_ClosedSurfaceStopsLoop(t *testing.T) {
	ta := newTestApp(t)
	done := ta.runLoop(t)

	require.NoError(t, ta.ui.Close())
	require.NoError(t, ta.app.Post(dispatch.WindowFocusChanged{Focused: false}))

	assert.ErrorIs(t, waitDone(t, done), surface.ErrClosed)
}

func TestApp_MountsSurfaceRoutes(t *testing.T) {
	ui := socketsurface.New(socketsurface.WithLogger(discardLogger()))
	defer ui.Close()
	app := New(newEnv(t), ui, WithLogger(discardLogger()))

	req, err := http.NewRequest(http.MethodGet, socketsurface.ClientPath, nil)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "javascript")
}

func TestApp_URLPrefersDebugEntry(t *testing.T) {
	env := newEnv(t)
	env.DebugEntry = "http://localhost:5173/"
	app := New(env, nil, WithLogger(discardLogger()))
	assert.Equal(t, "http://localhost:5173/", app.URL())
}

func TestApp_StartReportsURLImmediately(t *testing.T) {
	app := New(newEnv(t), nil, WithLogger(discardLogger()))
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := app.Start(l)
	assert.Equal(t, "http://"+l.Addr().String()+"/", app.URL())

	require.NoError(t, app.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
