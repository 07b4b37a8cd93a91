package shell

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/rescp17/liteshell/internal/util"
	"github.com/rescp17/liteshell/pkg/calls"
	"github.com/rescp17/liteshell/pkg/dispatch"
	"github.com/rescp17/liteshell/pkg/surface"
)

// AppInfo is the result of app.info.
type AppInfo struct {
	Name       string `json:"name"`
	Version    string `json:"version,omitempty"`
	UUID       string `json:"uuid"`
	WorkDir    string `json:"workDir"`
	DataDir    string `json:"dataDir"`
	TempDir    string `json:"tempDir"`
	InstanceID string `json:"instanceId"`
}

type emitParams struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

type pathParams struct {
	Path string `json:"path"`
}

type writeParams struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// ExistsResult is the result of fs.exists.
type ExistsResult struct {
	Exists bool `json:"exists"`
	IsDir  bool `json:"isDir"`
}

var errEmptyPath = errors.New("path must not be empty")

func (a *App) registerBuiltins() {
	a.router.Handle("app.info", a.appInfo)
	a.router.Handle("app.exit", a.appExit)
	a.router.Handle("app.systemInfo", a.systemInfo)
	a.router.Handle("event.emit", a.eventEmit)
	a.router.Handle("fs.read", a.fsRead)
	a.router.Handle("fs.write", a.fsWrite)
	a.router.Handle("fs.exists", a.fsExists)
}

func (a *App) appInfo(context.Context, json.RawMessage) (any, error) {
	p := a.env.Project
	return AppInfo{
		Name:       p.Name,
		Version:    p.Version,
		UUID:       p.UUID,
		WorkDir:    a.env.WorkDir,
		DataDir:    a.env.DataDir,
		TempDir:    a.env.TempDir,
		InstanceID: a.instanceID,
	}, nil
}

// appExit asks the loop to stop once the callback is handled.
func (a *App) appExit(context.Context, json.RawMessage) (any, error) {
	err := a.queue.Post(dispatch.Callback(func(_ surface.Surface, _ dispatch.Target, flow *dispatch.ControlFlow) {
		*flow = dispatch.Exit
	}))
	if err != nil {
		return nil, err
	}
	return map[string]bool{"exiting": true}, nil
}

func (a *App) systemInfo(context.Context, json.RawMessage) (any, error) {
	return a.monitor.Info(), nil
}

// eventEmit routes a UI-originated event back to the UI through the loop so
// it is ordered with native events.
func (a *App) eventEmit(_ context.Context, params json.RawMessage) (any, error) {
	var p emitParams
	if err := calls.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Name == "" {
		return nil, calls.InvalidParams(errors.New("name must not be empty"))
	}
	payload := p.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}

	err := a.queue.Post(dispatch.Callback(func(ui surface.Surface, _ dispatch.Target, _ *dispatch.ControlFlow) {
		if err := surface.Emit(ui, p.Name, payload); err != nil {
			a.logger.Warn("Failed to emit UI event", "event", p.Name, "error", err)
		}
	}))
	if err != nil {
		return nil, err
	}
	return map[string]bool{"queued": true}, nil
}

func (a *App) resolve(path string) (string, error) {
	if path == "" {
		return "", calls.InvalidParams(errEmptyPath)
	}
	return a.env.ResolvePath(path), nil
}

func (a *App) fsRead(_ context.Context, params json.RawMessage) (any, error) {
	var p pathParams
	if err := calls.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	path, err := a.resolve(p.Path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (a *App) fsWrite(_ context.Context, params json.RawMessage) (any, error) {
	var p writeParams
	if err := calls.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	path, err := a.resolve(p.Path)
	if err != nil {
		return nil, err
	}
	if err := util.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(p.Content), 0o644); err != nil {
		return nil, err
	}
	return map[string]int{"written": len(p.Content)}, nil
}

func (a *App) fsExists(_ context.Context, params json.RawMessage) (any, error) {
	var p pathParams
	if err := calls.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	path, err := a.resolve(p.Path)
	if err != nil {
		return nil, err
	}
	exists, isDir, err := util.CheckDirectory(path)
	if err != nil {
		return nil, err
	}
	return ExistsResult{Exists: exists, IsDir: isDir}, nil
}
