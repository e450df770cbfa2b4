package signcfg

import (
	"errors"

	"github.com/spf13/afero"
	"github.com/wrouesnel/signcfg/pkg/keystore"
	"go.uber.org/zap"
)

// ResolverConfig names the files and directories resolution works against.
// Everything is passed in explicitly; nothing is read from the environment.
type ResolverConfig struct {
	// PropertiesPath is the key.properties file, conventionally at RootDir.
	PropertiesPath string
	// ModuleDir is the directory of the module being packaged.
	ModuleDir string
	// RootDir is the project root directory.
	RootDir string
}

// SigningConfigName identifies the signing configuration the packaging stage uses.
type SigningConfigName string

const (
	SigningConfigRelease SigningConfigName = "release"
	SigningConfigDebug   SigningConfigName = "debug"
)

// ResolvedSigningConfig is the outcome of a single resolution. The store file
// and the three secrets are either all set or all empty.
type ResolvedSigningConfig struct {
	HasReleaseKeystore bool
	StoreFile          string
	KeyAlias           string
	KeyPassword        keystore.Secret
	StorePassword      keystore.Secret

	// PropertiesFound reports whether the properties file existed.
	PropertiesFound bool
	// StoreFileProperty is the raw storeFile value, if any.
	StoreFileProperty string
	// Candidates lists each location tried, in order.
	Candidates []Candidate
}

// ErrNoReleaseKeystore is returned by RequireRelease when resolution fell back
// to debug signing.
var ErrNoReleaseKeystore = errors.New("no release keystore available")

type Resolver struct {
	fs     afero.Fs
	logger *zap.Logger
}

// NewResolver initializes a resolver reading from fs. A nil logger disables logging.
func NewResolver(fs afero.Fs, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		fs:     fs,
		logger: logger,
	}
}

// Resolve determines whether a usable release keystore exists.
//
// A missing properties file, a missing storeFile property, or a store file
// that exists under none of the candidate directories all fall back to debug
// signing. A malformed properties file, or a missing secret once the store
// file has been found, is an error.
func (r *Resolver) Resolve(cfg ResolverConfig) (ResolvedSigningConfig, error) {
	l := r.logger.With(zap.String("properties_path", cfg.PropertiesPath))

	props, found, err := keystore.LoadKeystoreProperties(r.fs, cfg.PropertiesPath)
	if err != nil {
		l.Error("Could not load keystore properties", zap.Error(err))
		return ResolvedSigningConfig{}, err
	}
	if !found {
		l.Debug("No keystore properties file")
		return ResolvedSigningConfig{}, nil
	}

	result := ResolvedSigningConfig{PropertiesFound: true}

	storeFile, ok := props.Get(keystore.KeyStoreFile)
	if !ok || storeFile == "" {
		l.Debug("No storeFile property")
		return result, nil
	}
	result.StoreFileProperty = storeFile

	resolved, tried, err := firstExisting(r.fs, cfg, storeFile)
	result.Candidates = tried
	if err != nil {
		l.Error("Could not check store file candidates", zap.Error(err))
		return ResolvedSigningConfig{}, err
	}
	if resolved == nil {
		l.Debug("Store file not found at any candidate location",
			zap.String("store_file", storeFile), zap.Int("candidates", len(tried)))
		return result, nil
	}

	keyAlias, err := props.Require(keystore.KeyKeyAlias)
	if err != nil {
		return ResolvedSigningConfig{}, err
	}
	keyPassword, err := props.Require(keystore.KeyKeyPassword)
	if err != nil {
		return ResolvedSigningConfig{}, err
	}
	storePassword, err := props.Require(keystore.KeyStorePassword)
	if err != nil {
		return ResolvedSigningConfig{}, err
	}

	result.HasReleaseKeystore = true
	result.StoreFile = resolved.String()
	result.KeyAlias = keyAlias
	result.KeyPassword = keystore.Secret(keyPassword)
	result.StorePassword = keystore.Secret(storePassword)

	l.Debug("Resolved release keystore",
		zap.String("store_file", result.StoreFile),
		zap.String("key_alias", result.KeyAlias),
		zap.Stringer("key_password", result.KeyPassword),
		zap.Stringer("store_password", result.StorePassword))
	return result, nil
}

// SelectBuildSigningConfig picks the signing configuration for packaging.
func SelectBuildSigningConfig(resolved ResolvedSigningConfig) SigningConfigName {
	if resolved.HasReleaseKeystore {
		return SigningConfigRelease
	}
	return SigningConfigDebug
}

// RequireRelease rejects a result which fell back to debug signing.
func RequireRelease(resolved ResolvedSigningConfig) error {
	if !resolved.HasReleaseKeystore {
		return ErrNoReleaseKeystore
	}
	return nil
}
