package root

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"handover-launcher/internal/config"
	"handover-launcher/internal/logger"
	"handover-launcher/internal/store"
	"handover-launcher/services"
)

var (
	SoftwareVer   = ""
	BuildTime     = ""
	BuildTag      = ""
	BuildCommitId = ""
)

var baseDir string

// AnnotationConsoleLog makes a command tee its log to stderr
const AnnotationConsoleLog = "console-log"

var RootCmd = &cobra.Command{
	Use:   "handover-launcher",
	Short: "Shift Handover Log launcher",
	Long: `handover-launcher starts the Shift Handover Log server from a portable bundle
(nodejs/, server/, client/build/), watches it and stops it cleanly.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg := config.App()
		_, console := cmd.Annotations[AnnotationConsoleLog]
		logger.InitLogger(&cfg.Log, logDir(Layout()), console)
	},
}

// ExitCodeError ends the process with Code, Err is printed when set
type ExitCodeError struct {
	Code int
	Err  error
}

func (e *ExitCodeError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitCodeError) Unwrap() error {
	return e.Err
}

// Exit 返回只携带退出码的错误，消息已由命令自己输出
func Exit(code int) error {
	return &ExitCodeError{Code: code}
}

/**
 * Resolve the bundle layout for this invocation
 * @returns {config.Layout} Layout from --base-dir, app.base_dir or detection around the working directory
 */
func Layout() config.Layout {
	cfg := config.App()
	override := baseDir
	if override == "" {
		override = cfg.App.BaseDir
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return config.ResolveLayout(cwd, override, cfg.App.NodeExe)
}

// logDir keeps logs inside the bundle, or in the temp folder when no bundle was found
func logDir(layout config.Layout) string {
	if _, err := os.Stat(layout.ServerDir); err == nil {
		return layout.LogDir()
	}
	return filepath.Join(os.TempDir(), "handover-launcher")
}

/**
 * Build the launcher used by run, ui and serve
 * @returns {*services.Launcher} Launcher bound to the resolved layout
 * @returns {*store.PortStore} Store of the same layout
 */
func NewLauncher() (*services.Launcher, *store.PortStore) {
	layout := Layout()
	st := store.New(layout)
	return services.NewLauncher(layout, config.App(), st), st
}

// Executable 返回当前程序路径，用于注册开机任务
func Executable() string {
	exe, err := os.Executable()
	if err != nil {
		return os.Args[0]
	}
	if abs, err := filepath.EvalSymlinks(exe); err == nil {
		return abs
	}
	return exe
}

// NewAutoStart builds the scheduled task integration for the resolved layout
func NewAutoStart(st *store.PortStore) *services.AutoStart {
	return services.NewAutoStart(services.ExecRunner{}, st, Executable(), Layout().BaseDir)
}

func NewFirewall(st *store.PortStore) *services.Firewall {
	return services.NewFirewall(services.ExecRunner{}, st)
}

func init() {
	RootCmd.PersistentFlags().StringVar(&baseDir, "base-dir", "", "Bundle directory (contains nodejs/, server/, client/build/)")
}
