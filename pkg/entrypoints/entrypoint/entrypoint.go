package entrypoint

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/spf13/afero"
	"github.com/wrouesnel/kongutil"
	"github.com/wrouesnel/signcfg/version"
	"go.uber.org/zap"
)

type cliConfig struct {
	Version kong.VersionFlag `help:"Show version number"`

	Logging struct {
		Level  string `help:"logging level" default:"info"`
		Format string `help:"logging format (${enum})" enum:"console,json" default:"console"`
	} `embed:"" prefix:"log-"`

	RootDir        string `help:"Project root directory (default: discovered from the working directory)"`
	ModuleDir      string `help:"Module directory (default: <root-dir>/app)"`
	PropertiesFile string `help:"Keystore properties file (default: <root-dir>/key.properties)"`

	Resolve ResolveConfig `cmd:"" help:"Resolve the release signing configuration"`
	Select  SelectConfig  `cmd:"" help:"Print the signing configuration packaging should use"`
	Check   CheckConfig   `cmd:"" help:"Resolve signing for several modules of one project"`
	Init    InitConfig    `cmd:"" help:"Write a key.properties template"`
}

//nolint:gochecknoglobals
var CLI cliConfig

// Entrypoint is the real application entrypoint. This structure allows test packages to E2E-style tests invoking commands
// as though they are on the command line, but using built-in coverage tools. Stub-main under the `cmd` package calls this
// function.
func Entrypoint(stdIn io.ReadCloser, stdOut io.Writer, stdErr io.Writer) int {
	return entrypoint(os.Args[1:], afero.NewOsFs(), stdIn, stdOut, stdErr)
}

func entrypoint(args []string, fs afero.Fs, stdIn io.ReadCloser, stdOut io.Writer, stdErr io.Writer) int {
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	CLI = cliConfig{}

	var configDirs []string
	deferredLogs := []string{}

	configfileEnvVar := fmt.Sprintf("%s_%s", strings.ToUpper(version.Name), "CONFIGFILE")
	if os.Getenv(configfileEnvVar) != "" {
		configDirs = []string{os.Getenv(configfileEnvVar)}
	} else {
		configDirs, deferredLogs = configDirListGet()
	}

	exited := false
	exitCode := 0
	vars := kong.Vars{"version": version.Version}
	parser, err := kong.New(&CLI,
		kong.Name(version.Name),
		kong.Description(version.Description),
		kong.DefaultEnvars(version.Name),
		kong.Configuration(kongutil.Hybrid, configDirs...),
		kong.Writers(stdOut, stdErr),
		kong.Exit(func(code int) {
			exited = true
			exitCode = code
		}),
		vars)
	if err != nil {
		_, _ = fmt.Fprintf(stdErr, "Failure while building command line parser: %v\n", err)
		return 1
	}

	ctx, err := parser.Parse(args)
	if exited {
		// --help and --version end here
		return exitCode
	}
	if err != nil {
		_, _ = fmt.Fprintf(stdErr, "%s: error: %v\n", version.Name, err)
		return 1
	}

	// Initialize logging as soon as possible
	logConfig := zap.NewProductionConfig()
	if err := logConfig.Level.UnmarshalText([]byte(CLI.Logging.Level)); err != nil {
		deferredLogs = append(deferredLogs, err.Error())
	}
	logConfig.Encoding = CLI.Logging.Format

	logger, err := logConfig.Build()
	if err != nil {
		// Error unhandled since this is a very early failure
		_, _ = io.WriteString(stdErr, "Failure while building logger")
		return 1
	}
	defer func() { _ = logger.Sync() }()

	logger.Debug("Configuring signal handling")
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	sigCtx, cancelFn := context.WithCancel(appCtx)
	defer cancelFn()
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("Caught signal - exiting", zap.String("signal", sig.String()))
			cancelFn()
		case <-sigCtx.Done():
		}
	}()

	// Install as the global logger
	undo := zap.ReplaceGlobals(logger)
	defer undo()

	// Emit deferred logs
	logger.Debug("Using config paths", zap.Strings("configDirs", configDirs))
	for _, line := range deferredLogs {
		logger.Error(line)
	}

	if err := dispatchCommands(ctx, sigCtx, fs, stdIn, stdOut); err != nil {
		logger.Error("Error from command", zap.Error(err))
		return 1
	}

	logger.Debug("Exiting normally")
	return 0
}
