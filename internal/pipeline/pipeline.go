// Package pipeline locates the files that make up a pipeline directory:
// the configuration, the rulefile, and optional metadata carrying a
// version. A pipeline may live inside a git repository, in which case an
// exact-match tag at HEAD doubles as its version.
package pipeline

import (
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"gopkg.in/yaml.v3"

	runerrors "github.com/rulerun/rulerun/pkg/errors"
)

// MetadataFile is the optional pipeline metadata file name.
const MetadataFile = "rulerun.yaml"

var configCandidates = []string{
	filepath.Join("config", "config.yaml"),
	filepath.Join("config", "config.yml"),
	"config.yaml",
	"config.yml",
}

var rulefileCandidates = []string{
	"rules.yaml",
	filepath.Join("workflow", "rules.yaml"),
}

// Metadata is the parsed rulerun.yaml content.
type Metadata struct {
	Version string `yaml:"version"`
}

// Pipeline represents a pipeline directory.
type Pipeline struct {
	Path string
	Name string
	repo *git.Repository
}

// Open binds a Pipeline to a directory. A symlinked path marks an editable
// install and skips repository discovery; a directory that is not a git
// repository is still a valid pipeline.
func Open(path string) *Pipeline {
	p := &Pipeline{Path: path, Name: filepath.Base(path)}
	if p.Editable() {
		return p
	}
	if repo, err := git.PlainOpen(path); err == nil {
		p.repo = repo
	}
	return p
}

// Editable reports whether the pipeline directory is a symlink.
func (p *Pipeline) Editable() bool {
	info, err := os.Lstat(p.Path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeSymlink != 0
}

// ConfigPath searches the conventional configuration locations.
func (p *Pipeline) ConfigPath() (string, bool) {
	return p.find(configCandidates)
}

// RulefilePath searches the conventional rulefile locations.
func (p *Pipeline) RulefilePath() (string, bool) {
	return p.find(rulefileCandidates)
}

func (p *Pipeline) find(candidates []string) (string, bool) {
	for _, candidate := range candidates {
		full := filepath.Join(p.Path, candidate)
		if _, err := os.Stat(full); err == nil {
			return full, true
		}
	}
	return "", false
}

// Tag returns the tag pointing exactly at HEAD, or empty when there is
// none or the pipeline is not a repository.
func (p *Pipeline) Tag() string {
	if p.repo == nil {
		return ""
	}

	head, err := p.repo.Head()
	if err != nil {
		return ""
	}

	iter, err := p.repo.Tags()
	if err != nil {
		return ""
	}

	var tag string
	_ = iter.ForEach(func(ref *plumbing.Reference) error {
		hash := ref.Hash()
		if obj, err := p.repo.TagObject(hash); err == nil {
			hash = obj.Target
		}
		if hash == head.Hash() {
			tag = ref.Name().Short()
			return storer.ErrStop
		}
		return nil
	})

	return tag
}

// Version resolves the pipeline version: the metadata file wins, then the
// exact-match tag, then "latest".
func (p *Pipeline) Version() string {
	if meta, err := p.Metadata(); err == nil && meta != nil && meta.Version != "" {
		return meta.Version
	}
	if tag := p.Tag(); tag != "" {
		return tag
	}
	return "latest"
}

// Metadata loads rulerun.yaml when present. A missing file is not an
// error; it returns a nil Metadata.
func (p *Pipeline) Metadata() (*Metadata, error) {
	path := filepath.Join(p.Path, MetadataFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, runerrors.NewParseError(path, 0, err)
	}

	var meta Metadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, runerrors.NewParseError(path, 0, err)
	}
	return &meta, nil
}
