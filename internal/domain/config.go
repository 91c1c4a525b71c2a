package domain

// KeyPrefix namespaces every Redis key written by the engine.
const KeyPrefix = "currdex:"

// VectorConfig holds internal vectorization settings, not exposed to clients.
type VectorConfig struct {
	Model               string
	Dimensions          int
	DistanceMetric      string
	DocumentInstruction string
	QueryInstruction    string
	MaxContentSizeKB    int
}

// DefaultVectorConfig returns the default configuration tuned for text-embedding-3-small.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:            "text-embedding-3-small",
		Dimensions:       1536,
		DistanceMetric:   "cosine",
		MaxContentSizeKB: 160,
	}
}
