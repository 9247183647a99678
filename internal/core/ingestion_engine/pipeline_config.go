package ingestion_engine

import "time"

// PipelineConfig tunes the extraction and storage pipeline.
//
// MaxChunkSize:     upper character bound per text chunk (e.g., 1000).
// OverlapFraction:  proportion of a chunk's tail repeated at the start of
//                   the next chunk for context continuity (e.g., 0.2).
// MinImageBytes:    images smaller than this are treated as decorative
//                   noise and dropped without any external calls.
// ImageConcurrency: bound on in-flight vision/storage calls per job.
// StorePacing:      delay between vector writes to respect embed-API
//                   rate limits.
type PipelineConfig struct {
	MaxChunkSize     int
	OverlapFraction  float64
	MinImageBytes    int
	ImageConcurrency int
	StorePacing      time.Duration
}

func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		MaxChunkSize:     1000,
		OverlapFraction:  0.2,
		MinImageBytes:    1024,
		ImageConcurrency: 10,
		StorePacing:      150 * time.Millisecond,
	}
}
