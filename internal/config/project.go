package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/metagit/mgit/internal/domain"
	"github.com/metagit/mgit/internal/logging"
)

// ProjectConfigNames lists the project config file names in lookup order
var ProjectConfigNames = []string{".mgitconfig.yaml", ".mgitconfig.yml", ".mgitconfig.json"}

type configFormat int

const (
	formatYAML configFormat = iota
	formatJSON
)

// RepositoryConfig is one tracked repository entry
type RepositoryConfig struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	URL  string `json:"url,omitempty" yaml:"url,omitempty"`
}

// ProjectConfig is the loaded .mgitconfig file. Only the users section is ever
// written back; every other key is preserved as read.
type ProjectConfig struct {
	Aliases      *domain.AliasTable
	Dir          string // Directory holding the config file
	Path         string
	Repositories []RepositoryConfig

	format  configFormat
	rawJSON map[string]json.RawMessage
	rawYAML *yaml.Node
}

// FindProjectConfig walks up from startDir looking for a project config file
func FindProjectConfig(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", startDir, err)
	}

	for {
		for _, name := range ProjectConfigNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: no %s found from %s", domain.ErrConfigNotFound, ProjectConfigNames[0], startDir)
		}
		dir = parent
	}
}

// LoadProjectConfig reads a YAML or JSON project config, chosen by file extension
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read project config: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	cfg := &ProjectConfig{
		Aliases: domain.NewAliasTable(),
		Dir:     filepath.Dir(absPath),
		Path:    absPath,
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		cfg.format = formatJSON
		err = cfg.decodeJSON(data)
	} else {
		cfg.format = formatYAML
		err = cfg.decodeYAML(data)
	}
	if err == nil {
		err = cfg.validate()
	}
	if err != nil {
		return nil, fmt.Errorf("invalid project config %s: %w", filepath.Base(path), err)
	}

	logging.Logger.Debug("Project config loaded",
		"path", absPath,
		"repositories", len(cfg.Repositories),
		"users", cfg.Aliases.Len())
	return cfg, nil
}

// DiscoverProjectConfig finds and loads the project config above startDir
func DiscoverProjectConfig(startDir string) (*ProjectConfig, error) {
	path, err := FindProjectConfig(startDir)
	if err != nil {
		return nil, err
	}
	return LoadProjectConfig(path)
}

// CreateProjectConfig writes a new YAML project config in dir listing repos.
// It fails with os.ErrExist when dir already holds a project config.
func CreateProjectConfig(dir string, repos []RepositoryConfig) (*ProjectConfig, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	for _, name := range ProjectConfigNames {
		if _, err := os.Stat(filepath.Join(absDir, name)); err == nil {
			return nil, fmt.Errorf("%w: %s", os.ErrExist, filepath.Join(absDir, name))
		}
	}

	if repos == nil {
		repos = []RepositoryConfig{}
	}
	reposNode := &yaml.Node{}
	if err := reposNode.Encode(repos); err != nil {
		return nil, fmt.Errorf("failed to encode repositories: %w", err)
	}
	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	setMappingValue(root, "repositories", reposNode)

	cfg := &ProjectConfig{
		Aliases:      domain.NewAliasTable(),
		Dir:          absDir,
		Path:         filepath.Join(absDir, ProjectConfigNames[0]),
		Repositories: repos,
		format:       formatYAML,
		rawYAML:      &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ProjectConfig) decodeYAML(data []byte) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.Kind == 0 {
		// Empty file
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return fmt.Errorf("top level must be a mapping")
	}
	c.rawYAML = &doc
	root := doc.Content[0]

	if node := mappingValue(root, "repositories"); node != nil {
		if err := node.Decode(&c.Repositories); err != nil {
			return fmt.Errorf("repositories: %w", err)
		}
	}

	node := mappingValue(root, "users")
	if node == nil || node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("users must be a mapping")
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		canonical := node.Content[i].Value
		var aliases []string
		value := node.Content[i+1]
		switch value.Kind {
		case yaml.SequenceNode:
			if err := value.Decode(&aliases); err != nil {
				return fmt.Errorf("users.%s: %w", canonical, err)
			}
		case yaml.ScalarNode:
			if value.Value != "" && value.Tag != "!!null" {
				aliases = []string{value.Value}
			}
		default:
			return fmt.Errorf("users.%s must be a list", canonical)
		}
		c.Aliases.Add(canonical, aliases...)
	}
	return nil
}

func (c *ProjectConfig) decodeJSON(data []byte) error {
	c.rawJSON = map[string]json.RawMessage{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &c.rawJSON); err != nil {
			return err
		}
	}

	if raw, ok := c.rawJSON["repositories"]; ok {
		if err := json.Unmarshal(raw, &c.Repositories); err != nil {
			return fmt.Errorf("repositories: %w", err)
		}
	}

	raw, ok := c.rawJSON["users"]
	if !ok {
		return nil
	}
	var users map[string][]string
	if err := json.Unmarshal(raw, &users); err != nil {
		return fmt.Errorf("users: %w", err)
	}
	// JSON objects carry no order; sort so normalization is deterministic
	names := make([]string, 0, len(users))
	for name := range users {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c.Aliases.Add(name, users[name]...)
	}
	return nil
}

func (c *ProjectConfig) validate() error {
	seen := map[string]bool{}
	for i, repo := range c.Repositories {
		if strings.TrimSpace(repo.Name) == "" {
			return fmt.Errorf("repositories[%d]: name is required", i)
		}
		if seen[repo.Name] {
			return fmt.Errorf("repositories[%d]: duplicate name %q", i, repo.Name)
		}
		seen[repo.Name] = true
	}
	return nil
}

// Save writes the alias table back into the users section of the config file
func (c *ProjectConfig) Save() error {
	var data []byte
	var err error
	if c.format == formatJSON {
		data, err = c.encodeJSON()
	} else {
		data, err = c.encodeYAML()
	}
	if err != nil {
		return fmt.Errorf("failed to encode project config: %w", err)
	}

	if err := os.WriteFile(c.Path, data, 0644); err != nil {
		return fmt.Errorf("failed to write project config: %w", err)
	}
	logging.Logger.Info("Project config saved", "path", c.Path, "users", c.Aliases.Len())
	return nil
}

func (c *ProjectConfig) encodeYAML() ([]byte, error) {
	if c.rawYAML == nil {
		c.rawYAML = &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	root := c.rawYAML.Content[0]

	users := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, entry := range c.Aliases.Entries() {
		aliases := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, alias := range entry.Aliases {
			aliases.Content = append(aliases.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: alias})
		}
		users.Content = append(users.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: entry.Canonical},
			aliases,
		)
	}
	setMappingValue(root, "users", users)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c.rawYAML); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *ProjectConfig) encodeJSON() ([]byte, error) {
	if c.rawJSON == nil {
		c.rawJSON = map[string]json.RawMessage{}
	}

	users := map[string][]string{}
	for _, entry := range c.Aliases.Entries() {
		aliases := entry.Aliases
		if aliases == nil {
			aliases = []string{}
		}
		users[entry.Canonical] = aliases
	}
	raw, err := json.Marshal(users)
	if err != nil {
		return nil, err
	}
	c.rawJSON["users"] = raw

	data, err := json.MarshalIndent(c.rawJSON, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// ResolveRepoPath returns the local checkout path of a repository entry:
// its path (or name) relative to the config directory, with ~ expanded
func (c *ProjectConfig) ResolveRepoPath(repo RepositoryConfig) string {
	path := repo.Path
	if path == "" {
		path = repo.Name
	}
	path = ExpandPath(path)
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.Dir, path)
	}
	return filepath.Clean(path)
}

// TrackedRepositories resolves every configured repository, in config order
func (c *ProjectConfig) TrackedRepositories() []domain.TrackedRepository {
	tracked := make([]domain.TrackedRepository, 0, len(c.Repositories))
	for _, repo := range c.Repositories {
		tracked = append(tracked, domain.TrackedRepository{
			Name: repo.Name,
			Path: c.ResolveRepoPath(repo),
		})
	}
	return tracked
}

func mappingValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func setMappingValue(mapping *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1] = value
			return
		}
	}
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value,
	)
}
