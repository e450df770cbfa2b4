package signcfg

import (
	"path/filepath"

	"github.com/chigopher/pathlib"
	"github.com/spf13/afero"
)

// Candidate records one location tried while resolving the store file.
type Candidate struct {
	Base   string
	Path   string
	Exists bool
}

// candidateResolver maps a storeFile value onto one base directory. It
// returns the path and whether a regular file exists there.
type candidateResolver struct {
	name string
	base func(cfg ResolverConfig) string
}

// candidateResolvers are evaluated in order; the first existing file wins.
//
//nolint:gochecknoglobals
var candidateResolvers = []candidateResolver{
	{name: "module", base: func(cfg ResolverConfig) string { return cfg.ModuleDir }},
	{name: "root", base: func(cfg ResolverConfig) string { return cfg.RootDir }},
	{name: "module-parent", base: func(cfg ResolverConfig) string { return filepath.Join(cfg.ModuleDir, "..") }},
}

func (r candidateResolver) resolve(fs afero.Fs, cfg ResolverConfig, storeFile string) (*pathlib.Path, Candidate, error) {
	var p *pathlib.Path
	if filepath.IsAbs(storeFile) {
		p = pathlib.NewPath(storeFile, pathlib.PathWithAfero(fs)).Clean()
	} else {
		p = pathlib.NewPath(r.base(cfg), pathlib.PathWithAfero(fs)).Join(storeFile).Clean()
	}
	candidate := Candidate{Base: r.name, Path: p.String()}

	exists, err := p.Exists()
	if err != nil {
		return nil, candidate, err
	}
	if !exists {
		return nil, candidate, nil
	}
	// Directories are never a keystore.
	isDir, err := afero.IsDir(fs, p.String())
	if err != nil {
		return nil, candidate, err
	}
	if isDir {
		return nil, candidate, nil
	}
	candidate.Exists = true
	return p, candidate, nil
}

// firstExisting tries each resolver left-to-right and stops at the first hit.
// Every candidate tried is returned so a fallback can be explained.
func firstExisting(fs afero.Fs, cfg ResolverConfig, storeFile string) (*pathlib.Path, []Candidate, error) {
	tried := []Candidate{}
	for _, r := range candidateResolvers {
		p, candidate, err := r.resolve(fs, cfg, storeFile)
		tried = append(tried, candidate)
		if err != nil {
			return nil, tried, err
		}
		if p != nil {
			return p, tried, nil
		}
	}
	return nil, tried, nil
}
