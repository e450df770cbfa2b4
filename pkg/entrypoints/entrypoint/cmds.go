package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/spf13/afero"
	"github.com/wrouesnel/signcfg/pkg/signcfg"
	"go.uber.org/zap"
)

// ErrCommand marks an error returned by a command.
type ErrCommand struct{}

func (e ErrCommand) Error() string {
	return "command failed"
}

type ErrCommandNotImplemented struct {
	Command string
}

func (e ErrCommandNotImplemented) Error() string {
	return fmt.Sprintf("%s not implemented", e.Command)
}

// CmdContext carries what every command needs.
type CmdContext struct {
	ctx    context.Context
	logger *zap.Logger
	fs     afero.Fs
	stdIn  io.ReadCloser
	stdOut io.Writer
}

// Main command dispatcher for the program entrypoint. New commands should be added here, or they won't be
// invocable.
//
//nolint:revive
func dispatchCommands(ctx *kong.Context, appCtx context.Context, fs afero.Fs, stdIn io.ReadCloser, stdOut io.Writer) error {
	cmdCtx := &CmdContext{
		ctx:    appCtx,
		logger: zap.L().With(zap.String("command", ctx.Command())),
		fs:     fs,
		stdIn:  stdIn,
		stdOut: stdOut,
	}

	var err error
	switch ctx.Command() {
	case "resolve":
		err = Resolve(cmdCtx)
	case "select":
		err = Select(cmdCtx)
	case "check <module-dirs>":
		err = Check(cmdCtx)
	case "init":
		err = Init(cmdCtx)
	default:
		err = &ErrCommandNotImplemented{Command: ctx.Command()}
		cmdCtx.logger.Error("Command not implemented")
	}

	if err != nil {
		cmdCtx.logger.Error("Error from command", zap.Error(err))
		return err
	}
	return nil
}

// projectRoot returns --root-dir or discovers it from the working directory.
func projectRoot(cmdCtx *CmdContext) (string, error) {
	if CLI.RootDir != "" {
		return CLI.RootDir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", errors.Join(&ErrCommand{}, err)
	}
	root := signcfg.FindProjectRoot(cmdCtx.fs, wd)
	cmdCtx.logger.Debug("Discovered project root", zap.String("root_dir", root))
	return root, nil
}

// resolverConfig builds the resolver input from the global flags.
func resolverConfig(cmdCtx *CmdContext, moduleDir string) (signcfg.ResolverConfig, error) {
	root, err := projectRoot(cmdCtx)
	if err != nil {
		return signcfg.ResolverConfig{}, err
	}
	cfg := signcfg.DefaultResolverConfig(root, moduleDir, CLI.PropertiesFile)
	cmdCtx.logger.Debug("Resolver configuration",
		zap.String("root_dir", cfg.RootDir),
		zap.String("module_dir", cfg.ModuleDir),
		zap.String("properties_path", cfg.PropertiesPath))
	return cfg, nil
}
