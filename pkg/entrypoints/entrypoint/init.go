package entrypoint

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chigopher/pathlib"
	"github.com/magiconair/properties"
	"github.com/ncruces/go-strftime"
	"github.com/wrouesnel/signcfg/pkg/keystore"
	"github.com/wrouesnel/signcfg/version"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals
type InitConfig struct {
	Force         bool   `help:"Overwrite an existing properties file"`
	StoreFile     string `help:"Keystore path, relative to the module directory" default:"upload-keystore.jks"`
	KeyAlias      string `help:"Key alias" default:"upload"`
	KeyPassword   string `help:"Key password"`
	StorePassword string `help:"Keystore password"`
}

// Init writes a key.properties template to the properties path.
func Init(cmdCtx *CmdContext) error {
	l := cmdCtx.logger

	cfg, err := resolverConfig(cmdCtx, CLI.ModuleDir)
	if err != nil {
		return err
	}

	propertiesFile := pathlib.NewPath(cfg.PropertiesPath, pathlib.PathWithAfero(cmdCtx.fs)).Clean()
	l = l.With(zap.String("properties_path", propertiesFile.String()))

	exists, err := propertiesFile.Exists()
	if err != nil {
		return errors.Join(&ErrCommand{}, err)
	}
	if exists && !CLI.Init.Force {
		l.Error("Properties file already exists - use --force to overwrite")
		return errors.Join(&ErrCommand{}, fmt.Errorf("%s already exists", propertiesFile.String()))
	}

	content, err := renderKeystoreProperties(time.Now(), map[string]string{
		keystore.KeyStorePassword: CLI.Init.StorePassword,
		keystore.KeyKeyPassword:   CLI.Init.KeyPassword,
		keystore.KeyKeyAlias:      CLI.Init.KeyAlias,
		keystore.KeyStoreFile:     CLI.Init.StoreFile,
	})
	if err != nil {
		return errors.Join(&ErrCommand{}, err)
	}

	parent := propertiesFile.Parent()
	l.Debug("Ensuring output directory exists", zap.String("output_dir", parent.String()))
	if err := parent.MkdirAllMode(os.FileMode(0755)); err != nil {
		return errors.Join(&ErrCommand{}, errors.New("could not make output directory"), err)
	}

	// Holds passwords
	if err := propertiesFile.WriteFileMode(content, os.FileMode(0600)); err != nil {
		return errors.Join(&ErrCommand{}, err)
	}
	// An overwritten file keeps its old mode
	if err := cmdCtx.fs.Chmod(propertiesFile.String(), os.FileMode(0600)); err != nil {
		return errors.Join(&ErrCommand{}, err)
	}

	l.Info("Wrote keystore properties")
	fmt.Fprintf(cmdCtx.stdOut, "%s\n", propertiesFile.String())
	return nil
}

// renderKeystoreProperties writes values in properties format under a
// generated-by header, in the conventional key order.
func renderKeystoreProperties(now time.Time, values map[string]string) ([]byte, error) {
	props := properties.NewProperties()
	props.DisableExpansion = true
	for _, key := range []string{keystore.KeyStorePassword, keystore.KeyKeyPassword, keystore.KeyKeyAlias, keystore.KeyStoreFile} {
		if _, _, err := props.Set(key, values[key]); err != nil {
			return nil, err
		}
	}

	buf := new(bytes.Buffer)
	fmt.Fprintf(buf, "# Generated by %s on %s\n", version.Name, strftime.Format("%Y-%m-%d %H:%M:%S", now))
	buf.WriteString("# Keep this file out of version control.\n")
	if _, err := props.Write(buf, properties.UTF8); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
