package entrypoint

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// readPaths calls cb for each path, then for each line of stdin if "-" was
// among them. Stdin is always read last.
func readPaths(cmdCtx *CmdContext, paths []string, cb func(path string) error) error {
	readStdin := lo.Contains(paths, "-")

	for _, path := range paths {
		if path == "-" {
			continue
		}
		if err := cb(path); err != nil {
			cmdCtx.logger.Error("Aborting error during path handling",
				zap.String("path", path), zap.Error(err))
			return errors.Join(&ErrCommand{}, err)
		}
	}

	if readStdin {
		sc := bufio.NewScanner(cmdCtx.stdIn)
		for sc.Scan() {
			path := strings.TrimSpace(sc.Text())
			if path == "" {
				// Just skip empty lines
				continue
			}

			if err := cb(path); err != nil {
				cmdCtx.logger.Error("Aborting error during path handling",
					zap.String("path", path), zap.Error(err))
				return errors.Join(&ErrCommand{}, err)
			}
		}
		if err := sc.Err(); err != nil && !errors.Is(err, io.EOF) {
			return errors.Join(&ErrCommand{}, err)
		}
	}
	return nil
}
