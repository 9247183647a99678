package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrapSQL_RendersEmbedDim(t *testing.T) {
	script, err := bootstrapSQL(768)
	require.NoError(t, err)
	assert.Contains(t, script, "vector(768)")
	assert.NotContains(t, script, "{{EMBED_DIM}}")
	assert.Contains(t, script, "document_processing_jobs")
	assert.Contains(t, script, "document_embeddings")
}

func TestBootstrapSQL_RejectsInvalidDim(t *testing.T) {
	_, err := bootstrapSQL(0)
	assert.Error(t, err)
	_, err = bootstrapSQL(-5)
	assert.Error(t, err)
}
