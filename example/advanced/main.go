package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/siherrmann/pagerag"
	"github.com/siherrmann/pagerag/core/pipeline"
	"github.com/siherrmann/pagerag/model"
)

const sampleContent1 = `This is a comprehensive document about relational databases and their applications.

Relational databases store data in tables and relate rows through keys.
Transactions keep related writes atomic so a reader never sees half of a change.

PostgreSQL with the pgvector extension can store embeddings next to the rows they describe.
SQLite keeps the whole database in a single file which makes it a good fit for local tools.`

const sampleContent2 = `Machine learning is transforming how we process and retrieve information.

Vector embeddings capture semantic meaning of text, enabling similarity-based search.
Neural networks can learn representations that understand context and relationships.

Modern retrieval systems combine traditional database indexing with machine learning models
to provide more intelligent and context-aware search capabilities.`

func main() {
	dir, err := os.MkdirTemp("", "pagerag-advanced-*")
	if err != nil {
		log.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(dir)

	embed, err := pipeline.DefaultEmbedder()
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	// The SQLite backend needs no database server
	p, err := pagerag.NewPageragSQLite(filepath.Join(dir, "pagerag.db"), embed)
	if err != nil {
		log.Fatalf("Failed to create pagerag: %v", err)
	}
	defer p.Close()

	ctx := context.Background()
	config := model.DefaultIngestConfig()
	config.WordsPerPage = 30
	config.PagesPerChunk = 1

	fmt.Println("=== Ingesting Documents ===")
	doc1, err := p.Ingest(ctx, &model.IngestRequest{
		Title:       "Introduction to Relational Databases",
		Description: "Tables, keys and transactions",
		SourceType:  model.SourceTypeText,
		Data:        []byte(sampleContent1),
		Config:      config,
	})
	if err != nil {
		log.Fatalf("Failed to ingest document 1: %v", err)
	}
	fmt.Printf("Document 1 '%s' (RID: %s): %d chunks\n", doc1.SourceName, doc1.DocumentRID, doc1.SuccessfulChunks)

	doc2, err := p.Ingest(ctx, &model.IngestRequest{
		Title:       "Machine Learning for Information Retrieval",
		Description: "Embeddings and neural retrieval",
		SourceType:  model.SourceTypeText,
		Data:        []byte(sampleContent2),
		Config:      config,
	})
	if err != nil {
		log.Fatalf("Failed to ingest document 2: %v", err)
	}
	fmt.Printf("Document 2 '%s' (RID: %s): %d chunks\n", doc2.SourceName, doc2.DocumentRID, doc2.SuccessfulChunks)

	// Ingesting the same title twice is rejected
	_, err = p.Ingest(ctx, &model.IngestRequest{
		Title:      "Machine Learning for Information Retrieval",
		SourceType: model.SourceTypeText,
		Data:       []byte(sampleContent2),
		Config:     config,
	})
	if errors.Is(err, model.ErrDuplicateTitle) {
		fmt.Println("Duplicate title rejected as expected")
	}

	queryText := "How are embeddings stored in a database?"
	queryConfig := model.DefaultQueryConfig()

	fmt.Println("\n=== 1. Search Across All Active Documents ===")
	results, err := p.Search(ctx, queryText, &queryConfig)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}
	printResults("All Documents", results)

	fmt.Println("\n=== 2. Document-Scoped Search ===")
	scoped, err := p.SearchDocuments(ctx, queryText, []uuid.UUID{doc2.DocumentRID}, &queryConfig)
	if err != nil {
		log.Fatalf("Document-scoped search failed: %v", err)
	}
	printResults("Machine Learning Only", scoped)

	fmt.Println("\n=== 3. Deactivating a Document ===")
	if _, err := p.ToggleActive(doc1.SourceName, false); err != nil {
		log.Fatalf("Failed to deactivate document: %v", err)
	}
	results, err = p.Search(ctx, queryText, &queryConfig)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}
	printResults("Without Relational Databases", results)

	if _, err := p.ToggleActive(doc1.SourceName, true); err != nil {
		log.Fatalf("Failed to activate document: %v", err)
	}

	fmt.Println("\n=== 4. Listing and Deleting ===")
	docs, err := p.ListDocuments()
	if err != nil {
		log.Fatalf("Failed to list documents: %v", err)
	}
	for _, d := range docs {
		fmt.Printf("  - %s [%s] active=%t chunks=%d\n", d.Title, d.SourceType, d.Active, d.TotalChunks)
	}

	deleted, err := p.Delete(doc2.SourceName)
	if err != nil {
		log.Fatalf("Failed to delete document: %v", err)
	}
	fmt.Printf("Deleted '%s' with %d chunks\n", doc2.SourceName, deleted)

	fmt.Println("\n=== Advanced Example Completed Successfully! ===")
}

func printResults(title string, results []*model.SearchResult) {
	fmt.Printf("\n%s - Found %d results:\n", title, len(results))
	for i, result := range results {
		fmt.Printf("\n  Result %d:\n", i+1)
		fmt.Printf("    Similarity: %.4f\n", result.Similarity)
		fmt.Printf("    Source: %s, %ss %d-%d (chunk %d of %d)\n",
			result.Metadata.Title, result.Metadata.UnitName,
			result.Metadata.StartUnit, result.Metadata.EndUnit,
			result.Metadata.ChunkNumber, result.Metadata.TotalChunks)
		content := result.Content
		if len(content) > 80 {
			content = content[:80] + "..."
		}
		fmt.Printf("    Content: %s\n", content)
	}
}
