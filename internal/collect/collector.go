package collect

import (
	"context"
	"log/slog"

	"gavel/internal/casefile"
	"gavel/internal/config"
	"gavel/internal/logging"
	"gavel/internal/rubric"
	"gavel/internal/services/llm"
)

// Evidence group keys. Each collector writes exactly one group.
const (
	GroupRepositoryFacts = "repository_facts"
	GroupClaimSet        = "claim_set"
	GroupVisualArtifacts = "visual_artifacts"
)

// Collector produces one evidence group for a target. Collect returns the
// complete batch or an error; it must not return both.
type Collector interface {
	Name() string
	Group() string
	Required() bool
	Collect(ctx context.Context, target *Target, criteria []rubric.Criterion) ([]casefile.Evidence, error)
}

// BuildCollectors assembles the enabled collectors from configuration. The
// docs collector uses the LLM client when one is supplied and falls back to
// heuristic extraction otherwise.
func BuildCollectors(cfg *config.Config, client *llm.Client, logger *slog.Logger) []Collector {
	if logger == nil {
		logger = logging.NewNop()
	}

	var collectors []Collector
	if cfg.Collectors.Repo.Enabled {
		collectors = append(collectors, NewRepoCollector(cfg.GitBinary(), cfg.Collectors.Repo.Required, logger))
	}
	if cfg.Collectors.Docs.Enabled {
		collectors = append(collectors, NewDocsCollector(client, cfg.Collectors.Docs.Required, logger))
	}
	if cfg.Collectors.Assets.Enabled {
		collectors = append(collectors, NewAssetsCollector(cfg.Collectors.Assets.Required, logger))
	}
	return collectors
}

func criteriaForArtifact(criteria []rubric.Criterion, artifact string) []rubric.Criterion {
	var selected []rubric.Criterion
	for _, criterion := range criteria {
		if criterion.TargetArtifact == artifact {
			selected = append(selected, criterion)
		}
	}
	return selected
}
