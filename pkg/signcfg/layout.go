package signcfg

import (
	"os"
	"path/filepath"

	"github.com/chigopher/pathlib"
	"github.com/integralist/go-findroot/find"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/wrouesnel/signcfg/pkg/keystore"
)

// DefaultModuleName is the conventional application module under the project root.
const DefaultModuleName = "app"

// settingsFiles mark the root of a Gradle build.
//
//nolint:gochecknoglobals
var settingsFiles = []string{"settings.gradle", "settings.gradle.kts"}

// gitRoot finds the repository enclosing the process working directory.
//
//nolint:gochecknoglobals
var gitRoot = func() (string, error) {
	stat, err := find.Repo()
	if err != nil {
		return "", err
	}
	return stat.Path, nil
}

//nolint:gochecknoglobals
var workingDir = os.Getwd

// FindProjectRoot walks up from start to the first directory holding a Gradle
// settings file. Failing that, when start is the working directory, the
// enclosing git repository is used, and failing that start itself.
func FindProjectRoot(fs afero.Fs, start string) string {
	dir := pathlib.NewPath(start, pathlib.PathWithAfero(fs)).Clean()
	for {
		found := lo.ContainsBy(settingsFiles, func(name string) bool {
			exists, err := dir.Join(name).Exists()
			return err == nil && exists
		})
		if found {
			return dir.String()
		}
		parent := filepath.Dir(dir.String())
		if parent == dir.String() {
			break
		}
		dir = pathlib.NewPath(parent, pathlib.PathWithAfero(fs))
	}

	// The git lookup only sees the real working directory.
	if wd, err := workingDir(); err == nil && filepath.Clean(wd) == filepath.Clean(start) {
		if root, err := gitRoot(); err == nil && root != "" {
			return root
		}
	}
	return start
}

// DefaultResolverConfig fills in conventional locations relative to rootDir
// for any of moduleDir and propertiesPath left empty.
func DefaultResolverConfig(rootDir string, moduleDir string, propertiesPath string) ResolverConfig {
	if moduleDir == "" {
		moduleDir = filepath.Join(rootDir, DefaultModuleName)
	}
	if propertiesPath == "" {
		propertiesPath = filepath.Join(rootDir, keystore.DefaultFileName)
	}
	return ResolverConfig{
		PropertiesPath: propertiesPath,
		ModuleDir:      moduleDir,
		RootDir:        rootDir,
	}
}
