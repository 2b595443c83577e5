package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWorkspace(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateSynthesis(); err != nil {
		return err
	}
	if err := c.validateEvaluators(); err != nil {
		return err
	}
	if err := c.validateCollectors(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWorkspace() error {
	if strings.TrimSpace(c.Workspace.RootDir) == "" {
		return errors.New("workspace.root_dir must be set")
	}
	if strings.TrimSpace(c.Workspace.LogDir) == "" {
		return errors.New("workspace.log_dir must be set")
	}
	if strings.TrimSpace(c.Workspace.ReportDir) == "" {
		return errors.New("workspace.report_dir must be set")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.concurrency_limit": c.Workflow.ConcurrencyLimit,
		"workflow.collect_timeout":   c.Workflow.CollectTimeout,
		"workflow.evaluate_timeout":  c.Workflow.EvaluateTimeout,
		"workflow.run_timeout":       c.Workflow.RunTimeout,
	}); err != nil {
		return err
	}
	if c.Workflow.OpinionRetries < 0 {
		return errors.New("workflow.opinion_retries must be >= 0")
	}
	if c.Workflow.RunTimeout <= c.Workflow.CollectTimeout {
		return errors.New("workflow.run_timeout must be greater than workflow.collect_timeout")
	}
	return nil
}

func (c *Config) validateSynthesis() error {
	s := c.Synthesis
	if s.ScaleMin >= s.ScaleMax {
		return errors.New("synthesis.scale_min must be less than synthesis.scale_max")
	}
	if s.SecurityTrigger < s.ScaleMin || s.SecurityTrigger > s.ScaleMax {
		return fmt.Errorf("synthesis.security_trigger must be within the %d..%d scale", s.ScaleMin, s.ScaleMax)
	}
	if s.SecurityCap < s.ScaleMin || s.SecurityCap > s.ScaleMax {
		return fmt.Errorf("synthesis.security_cap must be within the %d..%d scale", s.ScaleMin, s.ScaleMax)
	}
	if s.DissentSpread < 0 {
		return errors.New("synthesis.dissent_spread must be >= 0")
	}
	if s.ContradictionDiscount <= 0 || s.ContradictionDiscount > 1 {
		return errors.New("synthesis.contradiction_discount must be between 0 and 1")
	}
	if s.TechLeadWeight <= 0 {
		return errors.New("synthesis.tech_lead_weight must be positive")
	}
	if s.SatisfactoryScore < s.ScaleMin || s.SatisfactoryScore > s.ScaleMax {
		return fmt.Errorf("synthesis.satisfactory_score must be within the %d..%d scale", s.ScaleMin, s.ScaleMax)
	}
	return nil
}

func (c *Config) validateEvaluators() error {
	switch c.Evaluators.Backend {
	case "llm":
		if c.LLM.APIKey == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = "~/.config/gavel/config.toml"
			}
			return fmt.Errorf("llm.api_key is required when evaluators.backend is %q. Set OPENROUTER_API_KEY or edit %s (create with 'gavel config init'); use backend %q for offline runs", "llm", defaultPath, "heuristic")
		}
	case "heuristic":
	default:
		return fmt.Errorf("evaluators.backend must be %q or %q", "llm", "heuristic")
	}
	return nil
}

func (c *Config) validateCollectors() error {
	if !c.Collectors.Repo.Enabled && !c.Collectors.Docs.Enabled && !c.Collectors.Assets.Enabled {
		return errors.New("at least one collector must be enabled")
	}
	if c.Collectors.Docs.Enabled && c.LLMBacked() && c.LLM.APIKey == "" {
		return errors.New("collectors.docs requires llm.api_key when the llm backend is selected")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
