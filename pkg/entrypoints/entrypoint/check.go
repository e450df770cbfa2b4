package entrypoint

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/fatih/color"
	"github.com/wrouesnel/signcfg/pkg/keystore"
	"github.com/wrouesnel/signcfg/pkg/signcfg"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

//nolint:gochecknoglobals
type CheckConfig struct {
	RequireRelease bool     `help:"Treat a fallback to debug signing as a failure"`
	ModuleDirs     []string `arg:"" help:"Module directories to check - specify - to read list from stdin"`
}

type checkResult struct {
	moduleDir string
	resolved  signcfg.ResolvedSigningConfig
	err       error
}

func (r checkResult) line() string {
	var status, detail string
	var parseErr *keystore.ParseError
	var missingErr *keystore.MissingPropertyError
	switch {
	case errors.As(r.err, &parseErr):
		status, detail = color.RedString("FAILPARSE"), parseErr.Err.Error()
	case errors.As(r.err, &missingErr):
		status, detail = color.RedString("FAILPROP"), missingErr.Error()
	case errors.Is(r.err, signcfg.ErrNoReleaseKeystore):
		status, detail = color.RedString("NORELEASE"), fallbackReason(r.resolved)
	case r.err != nil:
		status, detail = color.RedString("FAILREAD"), r.err.Error()
	case r.resolved.HasReleaseKeystore:
		status, detail = color.GreenString("RELEASE"), r.resolved.StoreFile
	default:
		status, detail = color.YellowString("DEBUG"), fallbackReason(r.resolved)
	}
	detail = strings.ReplaceAll(detail, "\n", "\\n")
	return fmt.Sprintf("%s:%s:%s\n", color.CyanString(r.moduleDir), status, detail)
}

// Check implements resolving several modules of the same project at once.
func Check(cmdCtx *CmdContext) error {
	l := cmdCtx.logger

	seen := mapset.NewSet[string]()
	moduleDirs := []string{}
	err := readPaths(cmdCtx, CLI.Check.ModuleDirs, func(path string) error {
		if seen.Add(path) {
			moduleDirs = append(moduleDirs, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	l.Debug("Modules to check", zap.Int("num_modules", len(moduleDirs)))

	configs := make([]signcfg.ResolverConfig, len(moduleDirs))
	for idx, moduleDir := range moduleDirs {
		cfg, err := resolverConfig(cmdCtx, moduleDir)
		if err != nil {
			return err
		}
		configs[idx] = cfg
	}

	results := make([]checkResult, len(moduleDirs))
	sem := semaphore.NewWeighted(int64(runtime.NumCPU()))
	wg := new(sync.WaitGroup)
	for idx, moduleDir := range moduleDirs {
		if err := sem.Acquire(cmdCtx.ctx, 1); err != nil {
			results[idx] = checkResult{moduleDir: moduleDir, err: err}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			ml := l.With(zap.String("module_dir", moduleDir))
			resolved, err := signcfg.NewResolver(cmdCtx.fs, ml).Resolve(configs[idx])
			if err == nil && CLI.Check.RequireRelease {
				err = signcfg.RequireRelease(resolved)
			}
			results[idx] = checkResult{moduleDir: moduleDir, resolved: resolved, err: err}
		}()
	}
	wg.Wait()

	var checkErr error
	for _, result := range results {
		if _, err := cmdCtx.stdOut.Write([]byte(result.line())); err != nil {
			return errors.Join(&ErrCommand{}, err)
		}
		if result.err != nil {
			checkErr = multierr.Append(checkErr, fmt.Errorf("%s: %w", result.moduleDir, result.err))
		}
	}

	if checkErr != nil {
		l.Warn("Some modules failed", zap.Int("num_failed", len(multierr.Errors(checkErr))))
		return errors.Join(&ErrCommand{}, checkErr)
	}
	return nil
}
