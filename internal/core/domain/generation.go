package domain

// GenerateOptions configures text generation behaviour.
// Zero values mean "unset"; merging with defaults fills them in and
// caller-supplied values always win.
type GenerateOptions struct {
	// Model is the generation model name. Must be a member of the
	// supported set; validated before any network call.
	Model string

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// TopP is the nucleus sampling cutoff.
	TopP float64

	// Stop are sequences that stop generation when encountered.
	Stop []string

	// Format is the requested output format (e.g. "json").
	// Empty means plain text.
	Format string
}

// Merged returns the options with unset fields filled from defaults.
// Caller-supplied values always win over defaults.
func (o GenerateOptions) Merged(defaults GenerateOptions) GenerateOptions {
	out := o
	if out.Model == "" {
		out.Model = defaults.Model
	}
	if out.Temperature == 0 {
		out.Temperature = defaults.Temperature
	}
	if out.MaxTokens == 0 {
		out.MaxTokens = defaults.MaxTokens
	}
	if out.TopP == 0 {
		out.TopP = defaults.TopP
	}
	if len(out.Stop) == 0 {
		out.Stop = defaults.Stop
	}
	if out.Format == "" {
		out.Format = defaults.Format
	}
	return out
}

// TokenUsage reports token accounting from a generation response.
type TokenUsage struct {
	// PromptTokens is the number of input tokens consumed.
	PromptTokens int

	// CompletionTokens is the number of output tokens produced.
	CompletionTokens int

	// TotalTokens is the provider-reported total.
	TotalTokens int
}

// GenerationResult is a completed generation response.
type GenerationResult struct {
	// Text is the generated completion.
	Text string

	// Model is the model that produced it.
	Model string

	// Usage is the token accounting, when the provider reports it.
	Usage TokenUsage
}

// supportedModels is the closed set of generation models Ragline will
// send requests for. An unrecognised model is a configuration error
// raised before any network call.
var supportedModels = map[string]struct{}{
	// OpenAI
	"gpt-4o":      {},
	"gpt-4o-mini": {},
	"gpt-4.1":     {},
	"gpt-4.1-mini": {},
	// Anthropic
	"claude-3-5-sonnet-latest": {},
	"claude-3-5-haiku-latest":  {},
	// Ollama (local)
	"llama3.1": {},
	"mistral":  {},
	"qwen2.5":  {},
}

// IsSupportedModel reports whether the model is in the supported set.
func IsSupportedModel(model string) bool {
	_, ok := supportedModels[model]
	return ok
}

// SupportedModels returns the supported generation model names.
// The order is unspecified.
func SupportedModels() []string {
	models := make([]string, 0, len(supportedModels))
	for m := range supportedModels {
		models = append(models, m)
	}
	return models
}

// GenerationListener observes generation lifecycle points.
// Listeners are invoked synchronously; a panicking listener is
// isolated and never alters the orchestrator's outcome.
type GenerationListener interface {
	// BeforeGeneration fires before context assembly, so observers can
	// audit intent even if the request never completes.
	BeforeGeneration(prompt string, opts GenerateOptions)

	// AfterGeneration fires on a successful response.
	AfterGeneration(prompt string, opts GenerateOptions, result GenerationResult)

	// GenerationFailed fires when the request fails for any reason.
	GenerationFailed(prompt string, opts GenerateOptions, err error)
}

// ListenerFuncs adapts plain functions to GenerationListener.
// Nil fields are skipped.
type ListenerFuncs struct {
	Before func(prompt string, opts GenerateOptions)
	After  func(prompt string, opts GenerateOptions, result GenerationResult)
	Failed func(prompt string, opts GenerateOptions, err error)
}

// BeforeGeneration implements GenerationListener.
func (l ListenerFuncs) BeforeGeneration(prompt string, opts GenerateOptions) {
	if l.Before != nil {
		l.Before(prompt, opts)
	}
}

// AfterGeneration implements GenerationListener.
func (l ListenerFuncs) AfterGeneration(prompt string, opts GenerateOptions, result GenerationResult) {
	if l.After != nil {
		l.After(prompt, opts, result)
	}
}

// GenerationFailed implements GenerationListener.
func (l ListenerFuncs) GenerationFailed(prompt string, opts GenerateOptions, err error) {
	if l.Failed != nil {
		l.Failed(prompt, opts, err)
	}
}
