package config

const (
	defaultRootDir             = "~/.local/share/gavel"
	defaultLogDir              = "~/.local/share/gavel/logs"
	defaultReportDir           = "~/.local/share/gavel/reports"
	defaultLogRetentionDays    = 30
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultConcurrencyLimit    = 4
	defaultCollectTimeout      = 180
	defaultEvaluateTimeout     = 120
	defaultRunTimeout          = 1800
	defaultOpinionRetries      = 2
	defaultSecurityTrigger     = 2
	defaultSecurityCap         = 3
	defaultDissentSpread       = 2
	defaultContradictionFactor = 0.5
	defaultTechLeadWeight      = 1.3
	defaultSatisfactoryScore   = 4
	defaultScaleMin            = 1
	defaultScaleMax            = 5
	defaultLLMBaseURL          = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel            = "google/gemini-3-flash-preview"
	defaultLLMReferer          = "https://github.com/five82/gavel"
	defaultLLMTitle            = "Gavel Audit"
	defaultLLMTimeoutSeconds   = 60
	defaultEvaluatorBackend    = "llm"
	defaultNotifyTimeout       = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Workspace: Workspace{
			RootDir:    defaultRootDir,
			LogDir:     defaultLogDir,
			ReportDir:  defaultReportDir,
			ScratchDir: defaultScratchDir(),
		},
		Workflow: Workflow{
			ConcurrencyLimit: defaultConcurrencyLimit,
			CollectTimeout:   defaultCollectTimeout,
			EvaluateTimeout:  defaultEvaluateTimeout,
			RunTimeout:       defaultRunTimeout,
			OpinionRetries:   defaultOpinionRetries,
		},
		Synthesis: Synthesis{
			SecurityTrigger:       defaultSecurityTrigger,
			SecurityCap:           defaultSecurityCap,
			DissentSpread:         defaultDissentSpread,
			ContradictionDiscount: defaultContradictionFactor,
			TechLeadWeight:        defaultTechLeadWeight,
			SatisfactoryScore:     defaultSatisfactoryScore,
			ScaleMin:              defaultScaleMin,
			ScaleMax:              defaultScaleMax,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Evaluators: Evaluators{
			Backend: defaultEvaluatorBackend,
		},
		Collectors: Collectors{
			Repo:   CollectorToggle{Enabled: true, Required: true},
			Docs:   CollectorToggle{Enabled: true},
			Assets: CollectorToggle{Enabled: true},
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			RunStarted:     true,
			RunCompleted:   true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
