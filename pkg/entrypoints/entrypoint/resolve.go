package entrypoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-yaml"
	"github.com/samber/lo"
	"github.com/wrouesnel/signcfg/pkg/keystore"
	"github.com/wrouesnel/signcfg/pkg/signcfg"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals
type ResolveConfig struct {
	Format         string `help:"output format (${enum})" enum:"text,json,yaml,env" default:"text"`
	RevealSecrets  bool   `help:"Print passwords instead of redacting them"`
	RequireRelease bool   `help:"Fail if no release keystore is available"`
}

//nolint:gochecknoglobals
type SelectConfig struct {
	RequireRelease bool `help:"Fail if no release keystore is available"`
}

type candidateOutput struct {
	Base   string `json:"base" yaml:"base"`
	Path   string `json:"path" yaml:"path"`
	Exists bool   `json:"exists" yaml:"exists"`
}

// resolveOutput is the serialized form of a resolution. Key names follow the
// key.properties keys so build scripts can map them directly.
type resolveOutput struct {
	SigningConfig      string            `json:"signingConfig" yaml:"signingConfig"`
	HasReleaseKeystore bool              `json:"hasReleaseKeystore" yaml:"hasReleaseKeystore"`
	StoreFile          string            `json:"storeFile,omitempty" yaml:"storeFile,omitempty"`
	KeyAlias           string            `json:"keyAlias,omitempty" yaml:"keyAlias,omitempty"`
	KeyPassword        string            `json:"keyPassword,omitempty" yaml:"keyPassword,omitempty"`
	StorePassword      string            `json:"storePassword,omitempty" yaml:"storePassword,omitempty"`
	PropertiesFile     string            `json:"propertiesFile" yaml:"propertiesFile"`
	PropertiesFound    bool              `json:"propertiesFound" yaml:"propertiesFound"`
	Candidates         []candidateOutput `json:"candidates,omitempty" yaml:"candidates,omitempty"`
}

func newResolveOutput(cfg signcfg.ResolverConfig, resolved signcfg.ResolvedSigningConfig, reveal bool) resolveOutput {
	secret := func(s keystore.Secret) string {
		if reveal {
			return s.Reveal()
		}
		return s.String()
	}
	return resolveOutput{
		SigningConfig:      string(signcfg.SelectBuildSigningConfig(resolved)),
		HasReleaseKeystore: resolved.HasReleaseKeystore,
		StoreFile:          resolved.StoreFile,
		KeyAlias:           resolved.KeyAlias,
		KeyPassword:        secret(resolved.KeyPassword),
		StorePassword:      secret(resolved.StorePassword),
		PropertiesFile:     cfg.PropertiesPath,
		PropertiesFound:    resolved.PropertiesFound,
		Candidates: lo.Map(resolved.Candidates, func(item signcfg.Candidate, _ int) candidateOutput {
			return candidateOutput(item)
		}),
	}
}

// fallbackReason explains why a resolution ended in debug signing.
func fallbackReason(resolved signcfg.ResolvedSigningConfig) string {
	switch {
	case resolved.HasReleaseKeystore:
		return ""
	case !resolved.PropertiesFound:
		return "no keystore properties file"
	case resolved.StoreFileProperty == "":
		return "no storeFile property"
	default:
		tried := lo.Map(resolved.Candidates, func(item signcfg.Candidate, _ int) string {
			return item.Path
		})
		return fmt.Sprintf("store file not found: %s", strings.Join(tried, " "))
	}
}

// runResolver performs one resolution and applies --require-release.
func runResolver(cmdCtx *CmdContext, cfg signcfg.ResolverConfig, requireRelease bool) (signcfg.ResolvedSigningConfig, error) {
	resolver := signcfg.NewResolver(cmdCtx.fs, cmdCtx.logger)
	resolved, err := resolver.Resolve(cfg)
	if err != nil {
		return resolved, errors.Join(&ErrCommand{}, err)
	}
	if !resolved.HasReleaseKeystore {
		cmdCtx.logger.Info("Falling back to debug signing", zap.String("reason", fallbackReason(resolved)))
	}
	if requireRelease {
		if err := signcfg.RequireRelease(resolved); err != nil {
			return resolved, errors.Join(&ErrCommand{}, err)
		}
	}
	return resolved, nil
}

// Resolve implements printing the resolved signing configuration.
func Resolve(cmdCtx *CmdContext) error {
	cfg, err := resolverConfig(cmdCtx, CLI.ModuleDir)
	if err != nil {
		return err
	}

	resolved, err := runResolver(cmdCtx, cfg, CLI.Resolve.RequireRelease)
	if err != nil {
		return err
	}

	output := newResolveOutput(cfg, resolved, CLI.Resolve.RevealSecrets)
	if err := writeResolveOutput(cmdCtx.stdOut, CLI.Resolve.Format, output); err != nil {
		return errors.Join(&ErrCommand{}, err)
	}
	return nil
}

// Select implements printing the signing configuration name.
func Select(cmdCtx *CmdContext) error {
	cfg, err := resolverConfig(cmdCtx, CLI.ModuleDir)
	if err != nil {
		return err
	}

	resolved, err := runResolver(cmdCtx, cfg, CLI.Select.RequireRelease)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmdCtx.stdOut, signcfg.SelectBuildSigningConfig(resolved))
	return err
}

func writeResolveOutput(w io.Writer, format string, output resolveOutput) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(output)
	case "yaml":
		b, err := yaml.Marshal(output)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case "env":
		return writeEnv(w, output)
	default:
		return writeText(w, output)
	}
}

func writeText(w io.Writer, output resolveOutput) error {
	status := color.YellowString("DEBUG")
	if output.HasReleaseKeystore {
		status = color.GreenString("RELEASE")
	}
	lines := []string{
		fmt.Sprintf("%s:%s", color.CyanString("signingConfig"), status),
		fmt.Sprintf("%s:%s", color.CyanString("propertiesFile"), output.PropertiesFile),
	}
	if output.HasReleaseKeystore {
		lines = append(lines,
			fmt.Sprintf("%s:%s", color.CyanString("storeFile"), output.StoreFile),
			fmt.Sprintf("%s:%s", color.CyanString("keyAlias"), output.KeyAlias),
			fmt.Sprintf("%s:%s", color.CyanString("keyPassword"), output.KeyPassword),
			fmt.Sprintf("%s:%s", color.CyanString("storePassword"), output.StorePassword),
		)
	}
	for _, candidate := range output.Candidates {
		found := color.RedString("MISSING")
		if candidate.Exists {
			found = color.GreenString("FOUND")
		}
		lines = append(lines, fmt.Sprintf("%s:%s:%s:%s", color.CyanString("candidate"), candidate.Base, found, candidate.Path))
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

func writeEnv(w io.Writer, output resolveOutput) error {
	vars := map[string]string{
		"SIGNING_CONFIG":       output.SigningConfig,
		"HAS_RELEASE_KEYSTORE": fmt.Sprintf("%t", output.HasReleaseKeystore),
	}
	if output.HasReleaseKeystore {
		vars["STORE_FILE"] = output.StoreFile
		vars["KEY_ALIAS"] = output.KeyAlias
		vars["KEY_PASSWORD"] = output.KeyPassword
		vars["STORE_PASSWORD"] = output.StorePassword
	}
	names := lo.Keys(vars)
	sort.Strings(names)
	for _, name := range names {
		if _, err := fmt.Fprintf(w, "%s=%s\n", name, shellQuote(vars[name])); err != nil {
			return err
		}
	}
	return nil
}

// shellQuote single-quotes a value for POSIX shells.
func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}
