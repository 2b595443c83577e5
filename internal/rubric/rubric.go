package rubric

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"gavel/internal/services"
)

// Artifact names the evidence source a criterion targets.
const (
	ArtifactRepository = "repository"
	ArtifactDocs       = "docs"
	ArtifactAssets     = "assets"
)

// SecurityTag marks criteria that participate in the security override.
const SecurityTag = "security"

//go:embed default_rubric.toml
var defaultRubricTOML []byte

// Metadata identifies a rubric document.
type Metadata struct {
	Name          string `json:"name" toml:"name" yaml:"name"`
	GradingTarget string `json:"grading_target" toml:"grading_target" yaml:"grading_target"`
	Version       string `json:"version" toml:"version" yaml:"version"`
}

// Criterion describes one scored dimension of an audit.
type Criterion struct {
	ID                  string   `json:"id" toml:"id" yaml:"id"`
	Name                string   `json:"name" toml:"name" yaml:"name"`
	TargetArtifact      string   `json:"target_artifact" toml:"target_artifact" yaml:"target_artifact"`
	ForensicInstruction string   `json:"forensic_instruction" toml:"forensic_instruction" yaml:"forensic_instruction"`
	SuccessPattern      string   `json:"success_pattern" toml:"success_pattern" yaml:"success_pattern"`
	FailurePattern      string   `json:"failure_pattern" toml:"failure_pattern" yaml:"failure_pattern"`
	Tags                []string `json:"tags,omitempty" toml:"tags,omitempty" yaml:"tags,omitempty"`
}

// Rubric bundles metadata with ordered criteria. Criterion order is the
// synthesis and report order.
type Rubric struct {
	Metadata Metadata    `json:"metadata" toml:"metadata" yaml:"metadata"`
	Criteria []Criterion `json:"criteria" toml:"criteria" yaml:"criteria"`
}

// Security reports whether the criterion participates in the security
// override, either via an explicit tag or a security-flavored id.
func (c Criterion) Security() bool {
	for _, tag := range c.Tags {
		if strings.EqualFold(strings.TrimSpace(tag), SecurityTag) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(c.ID), SecurityTag)
}

// DisplayName returns the criterion name, deriving one from the id when the
// rubric omits it.
func (c Criterion) DisplayName() string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	cleaned := strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(c.ID))
	return cases.Title(language.English).String(cleaned)
}

// Criterion returns the criterion with the given id.
func (r *Rubric) Criterion(id string) (Criterion, bool) {
	for _, criterion := range r.Criteria {
		if criterion.ID == id {
			return criterion, true
		}
	}
	return Criterion{}, false
}

// CriterionIDs returns the criterion ids in rubric order.
func (r *Rubric) CriterionIDs() []string {
	ids := make([]string, 0, len(r.Criteria))
	for _, criterion := range r.Criteria {
		ids = append(ids, criterion.ID)
	}
	return ids
}

// HasSecurityCriterion reports whether any criterion is security-tagged.
func (r *Rubric) HasSecurityCriterion() bool {
	for _, criterion := range r.Criteria {
		if criterion.Security() {
			return true
		}
	}
	return false
}

// Default returns the built-in rubric.
func Default() (*Rubric, error) {
	rubric, err := decode(defaultRubricTOML, ".toml")
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "rubric", "default", "decode built-in rubric", err)
	}
	rubric.normalize()
	if err := rubric.Validate(); err != nil {
		return nil, err
	}
	return rubric, nil
}

// Load reads a rubric file, dispatching the decoder on the file extension.
// An empty path yields the built-in default.
func Load(path string) (*Rubric, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "rubric", "load", fmt.Sprintf("read %s", path), err)
	}

	rubric, err := decode(data, strings.ToLower(filepath.Ext(path)))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "rubric", "load", fmt.Sprintf("decode %s", path), err)
	}

	rubric.normalize()
	if err := rubric.Validate(); err != nil {
		return nil, err
	}
	return rubric, nil
}

func decode(data []byte, ext string) (*Rubric, error) {
	var rubric Rubric
	switch ext {
	case ".toml":
		if err := toml.Unmarshal(data, &rubric); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &rubric); err != nil {
			return nil, err
		}
	case ".json":
		if err := json.Unmarshal(data, &rubric); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported rubric format %q (want .toml, .yaml, .yml, or .json)", ext)
	}
	return &rubric, nil
}

func (r *Rubric) normalize() {
	r.Metadata.Name = strings.TrimSpace(r.Metadata.Name)
	r.Metadata.GradingTarget = strings.TrimSpace(r.Metadata.GradingTarget)
	r.Metadata.Version = strings.TrimSpace(r.Metadata.Version)
	if r.Metadata.Name == "" {
		r.Metadata.Name = "unnamed rubric"
	}
	if r.Metadata.Version == "" {
		r.Metadata.Version = "1"
	}

	for i := range r.Criteria {
		criterion := &r.Criteria[i]
		criterion.ID = strings.TrimSpace(strings.ToLower(criterion.ID))
		criterion.Name = strings.TrimSpace(criterion.Name)
		criterion.TargetArtifact = strings.TrimSpace(strings.ToLower(criterion.TargetArtifact))
		if criterion.TargetArtifact == "" {
			criterion.TargetArtifact = ArtifactRepository
		}
		criterion.ForensicInstruction = strings.TrimSpace(criterion.ForensicInstruction)
		criterion.SuccessPattern = strings.TrimSpace(criterion.SuccessPattern)
		criterion.FailurePattern = strings.TrimSpace(criterion.FailurePattern)
		for j := range criterion.Tags {
			criterion.Tags[j] = strings.TrimSpace(strings.ToLower(criterion.Tags[j]))
		}
	}
}

// Validate checks structural soundness. Errors carry the configuration
// marker so preflight treats them as fatal.
func (r *Rubric) Validate() error {
	var problems []string

	if len(r.Criteria) == 0 {
		problems = append(problems, "rubric must define at least one criterion")
	}

	seen := make(map[string]struct{}, len(r.Criteria))
	for i, criterion := range r.Criteria {
		if criterion.ID == "" {
			problems = append(problems, fmt.Sprintf("criterion %d is missing an id", i+1))
			continue
		}
		if !validCriterionID(criterion.ID) {
			problems = append(problems, fmt.Sprintf("criterion id %q must use lowercase letters, digits, and underscores", criterion.ID))
		}
		if _, dup := seen[criterion.ID]; dup {
			problems = append(problems, fmt.Sprintf("duplicate criterion id %q", criterion.ID))
		}
		seen[criterion.ID] = struct{}{}

		switch criterion.TargetArtifact {
		case ArtifactRepository, ArtifactDocs, ArtifactAssets:
		default:
			problems = append(problems, fmt.Sprintf("criterion %q has unknown target_artifact %q", criterion.ID, criterion.TargetArtifact))
		}
	}

	if len(problems) > 0 {
		return services.Wrap(services.ErrValidation, "rubric", "validate", strings.Join(problems, "; "), nil)
	}
	return nil
}

// Lint returns non-fatal quality warnings for a rubric.
func Lint(r *Rubric) []string {
	var warnings []string

	names := make(map[string]string, len(r.Criteria))
	for _, criterion := range r.Criteria {
		if criterion.ForensicInstruction == "" {
			warnings = append(warnings, fmt.Sprintf("criterion %q has no forensic_instruction; collectors fall back to the criterion name", criterion.ID))
		}
		if criterion.SuccessPattern == "" || criterion.FailurePattern == "" {
			warnings = append(warnings, fmt.Sprintf("criterion %q is missing success or failure patterns; evaluator scores will be less anchored", criterion.ID))
		}
		display := strings.ToLower(criterion.DisplayName())
		if other, dup := names[display]; dup {
			warnings = append(warnings, fmt.Sprintf("criteria %q and %q share the display name %q", other, criterion.ID, criterion.DisplayName()))
		}
		names[display] = criterion.ID
	}

	if !r.HasSecurityCriterion() {
		warnings = append(warnings, "no security-tagged criterion; the security override will never apply")
	}

	return warnings
}

func validCriterionID(id string) bool {
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return id != ""
}
