package search

import (
	"fmt"
	"strings"

	"github.com/meilisearch/meilisearch-go"

	"housing-ranker/models"
)

// Document is one ranked listing as stored in the search index.
type Document struct {
	ID    string `json:"id"`
	RunID string `json:"run_id"`
	Rank  int    `json:"rank"`
	models.OutputRecord
}

// Indexer pushes a run's ranked listings into Meilisearch.
type Indexer struct {
	client *meilisearch.Client
	index  string
}

// NewIndexer creates an indexer for the given index uid.
func NewIndexer(host, apiKey, index string) *Indexer {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})
	if index == "" {
		index = "listings"
	}
	return &Indexer{client: client, index: index}
}

// InitIndex creates the index and configures its attributes.
func (ix *Indexer) InitIndex() error {
	_, err := ix.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        ix.index,
		PrimaryKey: "id",
	})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("search: create index: %w", err)
	}

	idx := ix.client.Index(ix.index)
	if _, err := idx.UpdateSearchableAttributes(&[]string{"title", "location", "district"}); err != nil {
		return fmt.Errorf("search: searchable attributes: %w", err)
	}
	if _, err := idx.UpdateFilterableAttributes(&[]string{"run_id", "district", "district_status", "bedroom_clean"}); err != nil {
		return fmt.Errorf("search: filterable attributes: %w", err)
	}
	if _, err := idx.UpdateSortableAttributes(&[]string{"final_score", "price_clean", "rank"}); err != nil {
		return fmt.Errorf("search: sortable attributes: %w", err)
	}
	return nil
}

// IndexRun adds every ranked listing of a run.
func (ix *Indexer) IndexRun(runID string, listings []*models.ScoredListing) (int, error) {
	docs := Documents(runID, listings)
	if len(docs) == 0 {
		return 0, nil
	}
	if _, err := ix.client.Index(ix.index).AddDocuments(docs, "id"); err != nil {
		return 0, fmt.Errorf("search: add documents: %w", err)
	}
	return len(docs), nil
}

// Documents builds the index documents for a run. Ids combine the run id and
// the listing's insertion index, so re-indexing a run replaces its documents.
func Documents(runID string, listings []*models.ScoredListing) []Document {
	docs := make([]Document, len(listings))
	for i, l := range listings {
		docs[i] = Document{
			ID:           fmt.Sprintf("%s-%d", runID, l.Seq),
			RunID:        runID,
			Rank:         i + 1,
			OutputRecord: l.ToOutput(),
		}
	}
	return docs
}
