package entrypoint

import (
	"fmt"
	"os"
	"path"

	gap "github.com/muesli/go-app-paths"
	"github.com/samber/lo"
	"github.com/wrouesnel/signcfg/version"
)

//nolint:gochecknoglobals
var supportedConfigFormats = []string{"json", "yml", "yaml", "toml"}

func configFileName(prefix string, ext string) string {
	return fmt.Sprintf("%s%s.%s", prefix, version.Name, ext)
}

// configDirListGet returns candidate config files, most specific first: the
// working directory, then $HOME, then the platform config directories.
func configDirListGet() ([]string, []string) {
	deferredLogs := []string{}

	scope := gap.NewScope(gap.User, version.Name)
	baseConfigDirs, err := scope.ConfigDirs()
	if err != nil {
		deferredLogs = append(deferredLogs, err.Error())
	}

	curDirConfigFiles := lo.Map(supportedConfigFormats, func(ext string, _ int) string {
		return configFileName(".", ext)
	})

	homeDirConfigFiles := lo.Map(curDirConfigFiles, func(configFileName string, _ int) string {
		return path.Join(os.Getenv("HOME"), configFileName)
	})

	normConfigFiles := lo.FlatMap(baseConfigDirs, func(configDir string, _ int) []string {
		return lo.Map(supportedConfigFormats, func(ext string, _ int) string {
			return path.Join(configDir, configFileName("", ext))
		})
	})

	configFiles := curDirConfigFiles
	configFiles = append(configFiles, homeDirConfigFiles...)
	configFiles = append(configFiles, normConfigFiles...)

	return configFiles, deferredLogs
}
