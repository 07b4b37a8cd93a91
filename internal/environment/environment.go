package environment

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rescp17/liteshell/internal/config"
	"github.com/rescp17/liteshell/internal/util"
)

// Options are the command line inputs that shape the environment.
type Options struct {
	// WorkDir is joined onto the current directory. Empty means the
	// directory of the running executable.
	WorkDir string
	// DebugEntry replaces the bridge URL as the page a window loads.
	DebugEntry string
	Devtools   bool

	// TempBase and DataBase override os.TempDir and os.UserConfigDir.
	TempBase string
	DataBase string
}

// Environment holds the resolved locations for one application run.
type Environment struct {
	WorkDir    string
	TempDir    string
	DataDir    string
	DebugEntry string
	Devtools   bool

	Project     *config.Project
	ProjectFile string
}

// Init resolves the work dir, loads or creates the project file inside it
// and creates the temp and data directories.
func Init(opts Options) (*Environment, error) {
	workDir, err := resolveWorkDir(opts.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve work dir: %w", err)
	}

	project, projectFile, err := config.GetOrCreate(workDir)
	if err != nil {
		return nil, err
	}

	tempBase := opts.TempBase
	if tempBase == "" {
		tempBase = os.TempDir()
	}
	dataBase := opts.DataBase
	if dataBase == "" {
		if dataBase, err = os.UserConfigDir(); err != nil {
			return nil, fmt.Errorf("failed to locate user config dir: %w", err)
		}
	}

	dirName := project.Name + "." + project.UUID
	env := &Environment{
		WorkDir:     workDir,
		TempDir:     filepath.Join(tempBase, dirName),
		DataDir:     filepath.Join(dataBase, dirName),
		DebugEntry:  opts.DebugEntry,
		Devtools:    opts.Devtools || project.Window.Devtools,
		Project:     project,
		ProjectFile: projectFile,
	}
	for _, dir := range []string{env.TempDir, env.DataDir} {
		if err := util.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return env, nil
}

func resolveWorkDir(p string) (string, error) {
	if p != "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return util.ResolveDir(cwd, p)
	}
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// EntryPath is the file served for "/".
func (e *Environment) EntryPath() string {
	return filepath.Join(e.WorkDir, filepath.FromSlash(e.Project.Entry))
}

// AssetRoot is the directory static assets are served from.
func (e *Environment) AssetRoot() string {
	return e.WorkDir
}

// ResolvePath joins a relative path onto the work dir.
func (e *Environment) ResolvePath(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(e.WorkDir, filepath.FromSlash(p))
}
