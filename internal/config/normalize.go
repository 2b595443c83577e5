package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeWorkspace(); err != nil {
		return err
	}
	if err := c.normalizeRubric(); err != nil {
		return err
	}
	c.normalizeWorkflow()
	c.normalizeSynthesis()
	c.normalizeLLM()
	c.normalizeEvaluators()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeWorkspace() error {
	var err error
	if c.Workspace.RootDir, err = expandPath(c.Workspace.RootDir); err != nil {
		return fmt.Errorf("workspace.root_dir: %w", err)
	}
	if c.Workspace.LogDir, err = expandPath(c.Workspace.LogDir); err != nil {
		return fmt.Errorf("workspace.log_dir: %w", err)
	}
	if c.Workspace.ReportDir, err = expandPath(c.Workspace.ReportDir); err != nil {
		return fmt.Errorf("workspace.report_dir: %w", err)
	}
	if strings.TrimSpace(c.Workspace.ScratchDir) == "" {
		c.Workspace.ScratchDir = defaultScratchDir()
	}
	if c.Workspace.ScratchDir, err = expandPath(c.Workspace.ScratchDir); err != nil {
		return fmt.Errorf("workspace.scratch_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRubric() error {
	c.Rubric.Path = strings.TrimSpace(c.Rubric.Path)
	if c.Rubric.Path == "" {
		return nil
	}
	expanded, err := expandPath(c.Rubric.Path)
	if err != nil {
		return fmt.Errorf("rubric.path: %w", err)
	}
	c.Rubric.Path = expanded
	return nil
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.ConcurrencyLimit <= 0 {
		c.Workflow.ConcurrencyLimit = defaultConcurrencyLimit
	}
	if c.Workflow.CollectTimeout <= 0 {
		c.Workflow.CollectTimeout = defaultCollectTimeout
	}
	if c.Workflow.EvaluateTimeout <= 0 {
		c.Workflow.EvaluateTimeout = defaultEvaluateTimeout
	}
	if c.Workflow.RunTimeout <= 0 {
		c.Workflow.RunTimeout = defaultRunTimeout
	}
	if c.Workflow.OpinionRetries < 0 {
		c.Workflow.OpinionRetries = defaultOpinionRetries
	}
}

func (c *Config) normalizeSynthesis() {
	if c.Synthesis.ScaleMin == 0 && c.Synthesis.ScaleMax == 0 {
		c.Synthesis.ScaleMin = defaultScaleMin
		c.Synthesis.ScaleMax = defaultScaleMax
	}
	if c.Synthesis.SecurityTrigger == 0 {
		c.Synthesis.SecurityTrigger = defaultSecurityTrigger
	}
	if c.Synthesis.SecurityCap == 0 {
		c.Synthesis.SecurityCap = defaultSecurityCap
	}
	if c.Synthesis.ContradictionDiscount == 0 {
		c.Synthesis.ContradictionDiscount = defaultContradictionFactor
	}
	if c.Synthesis.TechLeadWeight == 0 {
		c.Synthesis.TechLeadWeight = defaultTechLeadWeight
	}
	if c.Synthesis.SatisfactoryScore == 0 {
		c.Synthesis.SatisfactoryScore = defaultSatisfactoryScore
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("GAVEL_LLM_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeEvaluators() {
	c.Evaluators.Backend = strings.ToLower(strings.TrimSpace(c.Evaluators.Backend))
	if c.Evaluators.Backend == "" {
		c.Evaluators.Backend = defaultEvaluatorBackend
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
