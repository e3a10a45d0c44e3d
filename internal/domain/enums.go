package domain

// Stage identifies a pipeline stage. Transitions are strictly sequential:
// Received → Rasterizing → Extracting → Structuring → Filling → Done,
// with Failed reachable from any stage.
type Stage string

const (
	StageReceived    Stage = "received"
	StageRasterizing Stage = "rasterizing"
	StageExtracting  Stage = "extracting"
	StageStructuring Stage = "structuring"
	StageFilling     Stage = "filling"
	StageDone        Stage = "done"
)

// Status is the terminal status of a pipeline run.
type Status string

const (
	StatusDone   Status = "done"
	StatusFailed Status = "failed"
)

// Known provider identifiers. Selecting an identifier outside these sets
// fails with ErrUnknownProvider before any network call.
const (
	OCRProviderMistral     = "mistral"
	OCRProviderGemini      = "gemini"
	OCRProviderGoogleDocAI = "google_docai"

	LLMProviderGemini = "gemini"
	LLMProviderOpenAI = "openai"
)
