package gate

// Config holds the externally supplied thresholds and model routing table
// that parameterize the admission decision.
type Config struct {
	AutoThresholdChars        int
	AutoThresholdPct          float64
	ManualThresholdChars      int
	ManualThresholdPct        float64
	ColdStartChars            int
	SemanticDistanceAutoMin   float64
	SemanticDistanceManualMin float64
	EmbeddingModelID          string
	IntentModels              map[string]string
}

// DefaultIntentModels is the static intent → model-id routing table.
var DefaultIntentModels = map[string]string{
	"auto":             "gpt-4o",
	"finalize":         "gpt-4o",
	"beautify":         "gpt-4o",
	"patient_summary":  "gpt-4o",
	"plan_assist":      "gpt-4o",
	"manual":           "gpt-4o-mini",
}

// DefaultConfig returns the built-in threshold and routing defaults applied
// when no override configuration is supplied.
func DefaultConfig() Config {
	return Config{
		AutoThresholdChars:        40,
		AutoThresholdPct:          0.05,
		ManualThresholdChars:      20,
		ManualThresholdPct:        0.02,
		ColdStartChars:            500,
		SemanticDistanceAutoMin:   0.15,
		SemanticDistanceManualMin: 0.05,
		EmbeddingModelID:          "text-embedding-3-small",
		IntentModels:              DefaultIntentModels,
	}
}

func (c Config) modelFor(intent string) string {
	if model, ok := c.IntentModels[intent]; ok {
		return model
	}
	if model, ok := c.IntentModels["auto"]; ok {
		return model
	}
	return "gpt-4o"
}
