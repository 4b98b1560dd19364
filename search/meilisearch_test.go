package search

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housing-ranker/models"
)

func TestDocuments(t *testing.T) {
	price := 2000.0
	listings := []*models.ScoredListing{
		{
			CleanedListing: models.CleanedListing{Seq: 3, Title: "Flat", Price: &price, Bedrooms: 1, Bathrooms: 1},
			Resolution:     models.Resolution{District: "LINCE", Status: models.DistrictResolved},
			FinalScore:     7.456,
		},
		{
			CleanedListing: models.CleanedListing{Seq: 0, Title: "Casa", Bedrooms: 3, Bathrooms: 2},
			Resolution:     models.Resolution{Status: models.DistrictUnresolved},
		},
	}

	docs := Documents("run-1", listings)

	require.Len(t, docs, 2)
	assert.Equal(t, "run-1-3", docs[0].ID)
	assert.Equal(t, 1, docs[0].Rank)
	assert.Equal(t, "run-1-0", docs[1].ID)
	assert.Equal(t, 2, docs[1].Rank)
	assert.Equal(t, 7.46, docs[0].FinalScore)

	// the export fields are flattened next to the index fields
	data, err := json.Marshal(docs[0])
	require.NoError(t, err)
	var flat map[string]any
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Equal(t, "run-1-3", flat["id"])
	assert.Equal(t, "LINCE", flat["district"])
	assert.Equal(t, 2000.0, flat["price_clean"])
}

func TestDocumentsEmpty(t *testing.T) {
	assert.Empty(t, Documents("run-1", nil))
}
