package domain

// Defaults applied to new sessions.
const (
	// DefaultSystemPrompt is the single system message every transcript starts with.
	DefaultSystemPrompt = "You are a helpful assistant."

	// DefaultModel is the only model the front-end offers.
	DefaultModel = "gpt-3.5-turbo"

	// DefaultTemperature is the initial sampling temperature of a session.
	DefaultTemperature = 0.7

	// TemperatureStep is the granularity of the temperature control.
	TemperatureStep = 0.05

	// MinTemperature and MaxTemperature bound the temperature control.
	MinTemperature = 0.0
	MaxTemperature = 1.0

	// MaxTokens is the fixed response length limit sent with every request.
	MaxTokens = 800
)

// SupportedModels lists the models accepted by Settings.Validate.
var SupportedModels = []string{DefaultModel}

// DefaultCredentialKey is the secret store entry and environment variable holding the API key.
const DefaultCredentialKey = "OPENAI_API_KEY"
