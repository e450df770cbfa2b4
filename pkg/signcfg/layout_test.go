package signcfg

import (
	"errors"

	"github.com/spf13/afero"
	. "gopkg.in/check.v1"
)

type LayoutSuite struct {
	fs             afero.Fs
	origGitRoot    func() (string, error)
	origWorkingDir func() (string, error)
}

var _ = Suite(&LayoutSuite{})

func (s *LayoutSuite) SetUpTest(c *C) {
	s.fs = afero.NewMemMapFs()
	s.origGitRoot = gitRoot
	s.origWorkingDir = workingDir
	gitRoot = func() (string, error) { return "", errors.New("not a git repository") }
	workingDir = func() (string, error) { return "/", nil }
}

func (s *LayoutSuite) TearDownTest(c *C) {
	gitRoot = s.origGitRoot
	workingDir = s.origWorkingDir
}

func (s *LayoutSuite) TestFindProjectRootFromModule(c *C) {
	c.Assert(s.fs.MkdirAll("/repo/android/app/src", 0755), IsNil)
	c.Assert(afero.WriteFile(s.fs, "/repo/android/settings.gradle.kts", []byte(""), 0644), IsNil)

	c.Assert(FindProjectRoot(s.fs, "/repo/android/app/src"), Equals, "/repo/android")
	c.Assert(FindProjectRoot(s.fs, "/repo/android"), Equals, "/repo/android")
}

func (s *LayoutSuite) TestFindProjectRootGroovySettings(c *C) {
	c.Assert(s.fs.MkdirAll("/repo/app", 0755), IsNil)
	c.Assert(afero.WriteFile(s.fs, "/repo/settings.gradle", []byte(""), 0644), IsNil)

	c.Assert(FindProjectRoot(s.fs, "/repo/app"), Equals, "/repo")
}

func (s *LayoutSuite) TestFindProjectRootGitFallback(c *C) {
	c.Assert(s.fs.MkdirAll("/repo/tools", 0755), IsNil)
	gitRoot = func() (string, error) { return "/repo", nil }
	workingDir = func() (string, error) { return "/repo/tools/", nil }

	c.Assert(FindProjectRoot(s.fs, "/repo/tools"), Equals, "/repo")
}

func (s *LayoutSuite) TestFindProjectRootGitOnlyForWorkingDir(c *C) {
	c.Assert(s.fs.MkdirAll("/elsewhere/tools", 0755), IsNil)
	gitRoot = func() (string, error) { return "/repo", nil }
	workingDir = func() (string, error) { return "/repo/tools", nil }

	c.Assert(FindProjectRoot(s.fs, "/elsewhere/tools"), Equals, "/elsewhere/tools")
}

func (s *LayoutSuite) TestFindProjectRootStartFallback(c *C) {
	c.Assert(s.fs.MkdirAll("/somewhere", 0755), IsNil)

	c.Assert(FindProjectRoot(s.fs, "/somewhere"), Equals, "/somewhere")
}

func (s *LayoutSuite) TestDefaultResolverConfig(c *C) {
	cfg := DefaultResolverConfig("/repo/android", "", "")
	c.Assert(cfg, DeepEquals, ResolverConfig{
		PropertiesPath: "/repo/android/key.properties",
		ModuleDir:      "/repo/android/app",
		RootDir:        "/repo/android",
	})

	cfg = DefaultResolverConfig("/repo/android", "/repo/android/wear", "/secure/key.properties")
	c.Assert(cfg.ModuleDir, Equals, "/repo/android/wear")
	c.Assert(cfg.PropertiesPath, Equals, "/secure/key.properties")
}
