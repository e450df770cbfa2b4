package entrypoint

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/wrouesnel/signcfg/pkg/keystore"
	"github.com/wrouesnel/signcfg/version"
	. "gopkg.in/check.v1"
)

// Hook up gocheck into the "go test" runner.
func Test(t *testing.T) { TestingT(t) }

type EntrypointSuite struct {
	fs afero.Fs
}

var _ = Suite(&EntrypointSuite{})

const projectProperties = `storePassword=st'ore
keyPassword=k3y
keyAlias=upload
storeFile=upload-keystore.jks
`

func (s *EntrypointSuite) SetUpSuite(c *C) {
	color.NoColor = true
}

func (s *EntrypointSuite) SetUpTest(c *C) {
	s.fs = afero.NewMemMapFs()
	c.Assert(s.fs.MkdirAll("/p/app", 0755), IsNil)
	c.Assert(s.fs.MkdirAll("/p/wear", 0755), IsNil)
}

func (s *EntrypointSuite) writeFile(c *C, path string, content string) {
	c.Assert(afero.WriteFile(s.fs, path, []byte(content), 0600), IsNil)
}

func (s *EntrypointSuite) run(stdin string, args ...string) (int, string) {
	stdOut := new(bytes.Buffer)
	stdErr := new(bytes.Buffer)
	args = append([]string{"--log-level=error", "--root-dir=/p"}, args...)
	code := entrypoint(args, s.fs, io.NopCloser(strings.NewReader(stdin)), stdOut, stdErr)
	return code, stdOut.String()
}

func (s *EntrypointSuite) TestVersion(c *C) {
	code, out := s.run("", "--version")
	c.Assert(code, Equals, 0)
	c.Assert(out, Matches, "(?s).*"+version.Version+".*")
}

func (s *EntrypointSuite) TestSelectDebugWithoutProperties(c *C) {
	code, out := s.run("", "select")
	c.Assert(code, Equals, 0)
	c.Assert(out, Equals, "debug\n")
}

func (s *EntrypointSuite) TestSelectRelease(c *C) {
	s.writeFile(c, "/p/key.properties", projectProperties)
	s.writeFile(c, "/p/app/upload-keystore.jks", "jks")

	code, out := s.run("", "select")
	c.Assert(code, Equals, 0)
	c.Assert(out, Equals, "release\n")
}

func (s *EntrypointSuite) TestSelectRequireRelease(c *C) {
	s.writeFile(c, "/p/key.properties", projectProperties)

	code, out := s.run("", "select", "--require-release")
	c.Assert(code, Equals, 1)
	c.Assert(out, Equals, "")
}

func (s *EntrypointSuite) TestResolveJSON(c *C) {
	s.writeFile(c, "/p/key.properties", projectProperties)
	s.writeFile(c, "/p/upload-keystore.jks", "jks")

	code, out := s.run("", "resolve", "--format=json", "--reveal-secrets")
	c.Assert(code, Equals, 0)

	output := resolveOutput{}
	c.Assert(json.Unmarshal([]byte(out), &output), IsNil)
	c.Assert(output.SigningConfig, Equals, "release")
	c.Assert(output.HasReleaseKeystore, Equals, true)
	c.Assert(output.StoreFile, Equals, "/p/upload-keystore.jks")
	c.Assert(output.KeyAlias, Equals, "upload")
	c.Assert(output.KeyPassword, Equals, "k3y")
	c.Assert(output.StorePassword, Equals, "st'ore")
	c.Assert(output.PropertiesFile, Equals, "/p/key.properties")
	c.Assert(output.Candidates, HasLen, 2)
}

func (s *EntrypointSuite) TestResolveRedactsByDefault(c *C) {
	s.writeFile(c, "/p/key.properties", projectProperties)
	s.writeFile(c, "/p/app/upload-keystore.jks", "jks")

	code, out := s.run("", "resolve", "--format=yaml")
	c.Assert(code, Equals, 0)
	c.Assert(strings.Contains(out, "k3y"), Equals, false)
	c.Assert(strings.Contains(out, "********"), Equals, true)
}

func (s *EntrypointSuite) TestResolveText(c *C) {
	s.writeFile(c, "/p/key.properties", projectProperties)

	code, out := s.run("", "resolve")
	c.Assert(code, Equals, 0)
	c.Assert(out, Equals, strings.Join([]string{
		"signingConfig:DEBUG",
		"propertiesFile:/p/key.properties",
		"candidate:module:MISSING:/p/app/upload-keystore.jks",
		"candidate:root:MISSING:/p/upload-keystore.jks",
		"candidate:module-parent:MISSING:/p/upload-keystore.jks",
	}, "\n")+"\n")
}

func (s *EntrypointSuite) TestResolveEnv(c *C) {
	s.writeFile(c, "/p/key.properties", projectProperties)
	s.writeFile(c, "/p/app/upload-keystore.jks", "jks")

	code, out := s.run("", "resolve", "--format=env", "--reveal-secrets")
	c.Assert(code, Equals, 0)
	c.Assert(out, Equals, strings.Join([]string{
		"HAS_RELEASE_KEYSTORE='true'",
		"KEY_ALIAS='upload'",
		"KEY_PASSWORD='k3y'",
		"SIGNING_CONFIG='release'",
		"STORE_FILE='/p/app/upload-keystore.jks'",
		`STORE_PASSWORD='st'\''ore'`,
	}, "\n")+"\n")
}

func (s *EntrypointSuite) TestResolveMalformed(c *C) {
	s.writeFile(c, "/p/key.properties", "storeFile=\\u00\n")

	code, _ := s.run("", "resolve")
	c.Assert(code, Equals, 1)
}

func (s *EntrypointSuite) TestResolveMissingSecret(c *C) {
	s.writeFile(c, "/p/key.properties", "storeFile=upload-keystore.jks\nkeyAlias=upload\n")
	s.writeFile(c, "/p/app/upload-keystore.jks", "jks")

	code, _ := s.run("", "select")
	c.Assert(code, Equals, 1)
}

func (s *EntrypointSuite) TestCheck(c *C) {
	s.writeFile(c, "/p/key.properties", projectProperties)
	s.writeFile(c, "/p/app/upload-keystore.jks", "jks")

	code, out := s.run("/p/wear\n\n/p/app\n", "check", "/p/app", "-")
	c.Assert(code, Equals, 0)
	c.Assert(out, Equals, strings.Join([]string{
		"/p/app:RELEASE:/p/app/upload-keystore.jks",
		"/p/wear:DEBUG:store file not found: /p/wear/upload-keystore.jks /p/upload-keystore.jks /p/upload-keystore.jks",
	}, "\n")+"\n")
}

func (s *EntrypointSuite) TestCheckRequireRelease(c *C) {
	s.writeFile(c, "/p/key.properties", projectProperties)
	s.writeFile(c, "/p/app/upload-keystore.jks", "jks")

	code, out := s.run("", "check", "--require-release", "/p/app", "/p/wear")
	c.Assert(code, Equals, 1)
	c.Assert(strings.Contains(out, "/p/app:RELEASE:"), Equals, true)
	c.Assert(strings.Contains(out, "/p/wear:NORELEASE:"), Equals, true)
}

func (s *EntrypointSuite) TestCheckParseFailure(c *C) {
	s.writeFile(c, "/p/key.properties", "keyAlias=\\uZZZZ\n")

	code, out := s.run("", "check", "/p/app")
	c.Assert(code, Equals, 1)
	c.Assert(out, Matches, "/p/app:FAILPARSE:.*\n")
}

func (s *EntrypointSuite) TestInit(c *C) {
	code, out := s.run("", "init", "--key-password=k 3y", "--store-password=s:t")
	c.Assert(code, Equals, 0)
	c.Assert(out, Equals, "/p/key.properties\n")

	info, err := s.fs.Stat("/p/key.properties")
	c.Assert(err, IsNil)
	c.Assert(info.Mode().Perm(), Equals, os.FileMode(0600))

	s.writeFile(c, "/p/app/upload-keystore.jks", "jks")
	code, out = s.run("", "resolve", "--format=json", "--reveal-secrets")
	c.Assert(code, Equals, 0)
	output := resolveOutput{}
	c.Assert(json.Unmarshal([]byte(out), &output), IsNil)
	c.Assert(output.KeyPassword, Equals, "k 3y")
	c.Assert(output.StorePassword, Equals, "s:t")
	c.Assert(output.KeyAlias, Equals, "upload")

	// Refuses to overwrite
	code, _ = s.run("", "init")
	c.Assert(code, Equals, 1)

	code, _ = s.run("", "init", "--force", "--key-alias=other")
	c.Assert(code, Equals, 0)
	data, err := afero.ReadFile(s.fs, "/p/key.properties")
	c.Assert(err, IsNil)
	props, err := keystore.ParseKeystoreProperties("/p/key.properties", data)
	c.Assert(err, IsNil)
	alias, _ := props.Get(keystore.KeyKeyAlias)
	c.Assert(alias, Equals, "other")
}

func (s *EntrypointSuite) TestInitForceRestrictsMode(c *C) {
	c.Assert(afero.WriteFile(s.fs, "/p/key.properties", []byte("keyAlias=old\n"), 0644), IsNil)

	code, _ := s.run("", "init", "--force")
	c.Assert(code, Equals, 0)

	info, err := s.fs.Stat("/p/key.properties")
	c.Assert(err, IsNil)
	c.Assert(info.Mode().Perm(), Equals, os.FileMode(0600))
}

func (s *EntrypointSuite) TestRenderKeystoreProperties(c *C) {
	now := time.Date(2024, 3, 5, 7, 8, 9, 0, time.UTC)
	content, err := renderKeystoreProperties(now, map[string]string{
		keystore.KeyStoreFile: "keys/upload.jks",
		keystore.KeyKeyAlias:  "upload",
	})
	c.Assert(err, IsNil)
	c.Assert(strings.HasPrefix(string(content), "# Generated by signcfg on 2024-03-05 07:08:09\n"), Equals, true)

	props, err := keystore.ParseKeystoreProperties("", content)
	c.Assert(err, IsNil)
	c.Assert(props.Keys(), DeepEquals, []string{
		keystore.KeyStorePassword, keystore.KeyKeyPassword, keystore.KeyKeyAlias, keystore.KeyStoreFile,
	})
	storeFile, _ := props.Get(keystore.KeyStoreFile)
	c.Assert(storeFile, Equals, "keys/upload.jks")
}

func (s *EntrypointSuite) TestShellQuote(c *C) {
	c.Assert(shellQuote("plain"), Equals, "'plain'")
	c.Assert(shellQuote("it's"), Equals, `'it'\''s'`)
	c.Assert(shellQuote(""), Equals, "''")
}
