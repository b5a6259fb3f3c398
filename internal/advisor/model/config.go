package model

// ================ Config ================
type ConversationConfig struct {
	TTL       string `envconfig:"CONVERSATION_TTL" default:"30m"`
	MaxRounds int    `envconfig:"CONVERSATION_MAX_ROUNDS" default:"5"`
}

type PromptConfig struct {
	// UseToolDescriptions enriches the system prompt with the fetched tool
	// catalog instead of the bundled static tool-name list.
	UseToolDescriptions bool `envconfig:"PROMPT_USE_TOOL_DESCRIPTIONS" default:"true"`
	// UseMultipleSystemPrompts selects the three-prompt decision/questions/
	// solution flow; when false one unified prompt serves every stage.
	UseMultipleSystemPrompts bool `envconfig:"PROMPT_USE_MULTIPLE_SYSTEM_PROMPTS" default:"true"`
}

type AdvisorModelConfig struct {
	Model       string  `envconfig:"ADVISOR_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"ADVISOR_MAX_TOKENS" default:"4000"`
	Temperature float32 `envconfig:"ADVISOR_TEMPERATURE" default:"0.2"`
}

type CatalogConfig struct {
	Key       string `envconfig:"CATALOG_KEY" default:"dx:catalog"`
	CacheSize int    `envconfig:"CATALOG_CACHE_SIZE" default:"64"`
}

type TelemetryConfig struct {
	URL     string `envconfig:"TELEMETRY_URL"`
	Timeout int    `envconfig:"TELEMETRY_TIMEOUT_SECONDS" default:"5"`
}
