package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for tag documents.
//
// label uses the English analyzer so "discounts" finds "discount".
// label_raw uses the simple analyzer (lowercase, no stemming) so prefix and
// fuzzy queries see whole words.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	labelFieldMapping := bleve.NewTextFieldMapping()
	labelFieldMapping.Analyzer = en.AnalyzerName
	labelFieldMapping.Store = true
	labelFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("label", labelFieldMapping)

	rawFieldMapping := bleve.NewTextFieldMapping()
	rawFieldMapping.Analyzer = simple.Name
	rawFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("label_raw", rawFieldMapping)

	// Keyword fields: exact match and sorting.
	keyFieldMapping := bleve.NewTextFieldMapping()
	keyFieldMapping.Analyzer = keyword.Name
	keyFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("key", keyFieldMapping)

	typeFieldMapping := bleve.NewTextFieldMapping()
	typeFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("type", typeFieldMapping)

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	createdAtFieldMapping := bleve.NewNumericFieldMapping()
	createdAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("created_at", createdAtFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
