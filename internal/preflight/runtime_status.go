package preflight

import (
	"context"
	"strings"

	"gavel/internal/config"
)

// CheckLLMFromConfig evaluates model API status from config and connectivity.
// A heuristic-only config passes without any network call.
func CheckLLMFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "OpenRouter API"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	llmCfg := cfg.GetLLM()
	if !cfg.LLMBacked() && llmCfg.APIKey == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled (heuristic evaluators)"}
	}
	return CheckLLM(ctx, name, llmCfg)
}

// CheckNotificationsFromConfig reports notification wiring without sending
// anything.
func CheckNotificationsFromConfig(cfg *config.Config) Result {
	const name = "Notifications"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	return Result{Name: name, Passed: true, Detail: topic}
}
