package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housing-ranker/models"
)

func TestInsightsGenerate(t *testing.T) {
	result, err := newTestPipeline(newTestConfig()).Run(context.Background(), pipelineInput())
	require.NoError(t, err)

	report := NewInsightService(newTestLogger()).Generate(result)

	assert.Equal(t, 3, report.TotalListings)
	assert.Equal(t, 2, report.ValidListings)
	assert.InDelta(t, (3330.0+2000)/2, report.AveragePrice, 0.01)
	assert.InDelta(t, 95.0, report.AverageArea, 0.01)
	require.Len(t, report.TopRanked, 3)
	assert.Equal(t, "u3", report.TopRanked[0].URL)

	// only resolved districts are aggregated
	require.Len(t, report.TopDistricts, 1)
	assert.Equal(t, "MIRAFLORES", report.TopDistricts[0].District)
	assert.Equal(t, 1, report.TopDistricts[0].Count)
}

func TestInsightsGenerateEmpty(t *testing.T) {
	report := NewInsightService(newTestLogger()).Generate(&models.RunResult{})
	assert.Equal(t, 0, report.TotalListings)
	assert.Empty(t, report.TopRanked)
}

func TestInsightsPrint(t *testing.T) {
	result, err := newTestPipeline(newTestConfig()).Run(context.Background(), pipelineInput())
	require.NoError(t, err)

	var buf bytes.Buffer
	svc := NewInsightService(newTestLogger())
	svc.SetOutput(&buf)
	svc.Print(svc.Generate(result))

	out := buf.String()
	assert.Contains(t, out, "LIMA RENTAL RANKING")
	assert.Contains(t, out, "Flat en el centro")
	assert.Contains(t, out, "MIRAFLORES")
	assert.Contains(t, out, "Run Audit")
	assert.Contains(t, out, "Duplicate URLs         : 1")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Depa en...", truncate("Depa en Miraflores", 10))
	assert.Equal(t, "BREÑA B...", truncate("BREÑA BARRANCO", 10))
}
