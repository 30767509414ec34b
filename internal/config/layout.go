package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const (
	PortConfigFile    = "server_config.json"
	DefaultConfigFile = "server_default_config.json"
	DefaultPort       = 8500
)

/**
 * Layout of a portable Shift Handover Log bundle
 * @property {string} BaseDir - Bundle root, also the working directory of the Node.js process
 * @property {string} NodeExe - Portable Node.js executable
 * @property {string} ServerScript - Server entry point (server/index.js)
 * @property {string} ClientBuildDir - Compiled frontend
 * @property {string} DataDir - Database and uploads, created on demand
 */
type Layout struct {
	BaseDir        string `json:"baseDir"`
	NodeDir        string `json:"nodeDir"`
	NodeExe        string `json:"nodeExe"`
	ServerDir      string `json:"serverDir"`
	ServerScript   string `json:"serverScript"`
	ClientBuildDir string `json:"clientBuildDir"`
	DataDir        string `json:"dataDir"`
}

func defaultNodeExe() string {
	if runtime.GOOS == "windows" {
		return "node.exe"
	}
	return "node"
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

/**
 * Resolve the bundle layout once at startup
 * @param {string} cwd - Directory the launcher was started from
 * @param {string} override - Explicit base directory (app.base_dir or --base-dir), empty for detection
 * @param {string} nodeExe - Node.js executable file name
 * @returns {Layout} Absolute paths of every bundle component
 * @description
 * - override wins when set
 * - cwd is the base when it contains server/index.js (running from inside dist)
 * - cwd/dist is the base when it contains server/index.js (running from the project root)
 * - cwd otherwise, so that the precondition check reports what is missing
 */
func ResolveLayout(cwd, override, nodeExe string) Layout {
	base := cwd
	switch {
	case override != "":
		base = override
	case exists(filepath.Join(cwd, "server", "index.js")):
		base = cwd
	case exists(filepath.Join(cwd, "dist", "server", "index.js")):
		base = filepath.Join(cwd, "dist")
	}
	if abs, err := filepath.Abs(base); err == nil {
		base = abs
	}
	if nodeExe == "" {
		nodeExe = defaultNodeExe()
	}

	nodeDir := filepath.Join(base, "nodejs")
	exe := filepath.Join(nodeDir, nodeExe)
	// unix portable archives keep the binary under bin/
	if !exists(exe) && exists(filepath.Join(nodeDir, "bin", nodeExe)) {
		exe = filepath.Join(nodeDir, "bin", nodeExe)
	}
	serverDir := filepath.Join(base, "server")
	return Layout{
		BaseDir:        base,
		NodeDir:        nodeDir,
		NodeExe:        exe,
		ServerDir:      serverDir,
		ServerScript:   filepath.Join(serverDir, "index.js"),
		ClientBuildDir: filepath.Join(base, "client", "build"),
		DataDir:        filepath.Join(base, "data"),
	}
}

// PortConfigPath is the location of the last-used port record
func (l Layout) PortConfigPath() string {
	return filepath.Join(l.BaseDir, PortConfigFile)
}

func (l Layout) DefaultConfigPath() string {
	return filepath.Join(l.BaseDir, DefaultConfigFile)
}

func (l Layout) LogDir() string {
	return filepath.Join(l.DataDir, "logs")
}

/**
 * Check that the runtime and bundle are in place
 * @returns {[]string} Human readable problems, empty when the bundle is usable
 * @description
 * - Missing Node.js runtime, server folder, server script or client build are problems
 * - A missing data folder is not, see EnsureDataDir
 */
func (l Layout) Check() []string {
	var problems []string
	if !exists(l.NodeExe) {
		problems = append(problems, fmt.Sprintf("Node.js not found at %s, extract portable Node.js to the 'nodejs/' folder", l.NodeExe))
	}
	if !exists(l.ServerDir) {
		problems = append(problems, "Folder 'server' not found")
	} else if !exists(l.ServerScript) {
		problems = append(problems, fmt.Sprintf("Server file not found: %s", l.ServerScript))
	}
	if !exists(l.ClientBuildDir) {
		problems = append(problems, "Folder 'client/build' not found (frontend not compiled)")
	}
	return problems
}

// EnsureDataDir creates the data folder, reporting whether it had to be created
func (l Layout) EnsureDataDir() (bool, error) {
	if exists(l.DataDir) {
		return false, nil
	}
	if err := os.MkdirAll(l.DataDir, 0755); err != nil {
		return false, fmt.Errorf("create data folder: %w", err)
	}
	return true, nil
}
