package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/pagerag"
	"github.com/siherrmann/pagerag/core/pipeline"
	"github.com/siherrmann/pagerag/helper"
	"github.com/siherrmann/pagerag/model"
)

const sampleContent = `Vector search compares documents by the angle between their embeddings.

An embedding is a list of numbers produced by a language model. Texts with a similar meaning
end up close to each other, so the cosine of the angle between two embeddings is a good
measure of how related two passages are.

Long documents are split into pages and pages are grouped into chunks before embedding.
When a chunk is too large for the embedding model it is cut in half at a paragraph, line
or sentence boundary and both halves are embedded separately.

At query time the question is embedded with the same model and every stored chunk of the
active documents is ranked by its cosine similarity to the question.`

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	embed, err := pipeline.DefaultEmbedder()
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	p, err := pagerag.NewPagerag(dbConfig, embed)
	if err != nil {
		log.Fatalf("Failed to create pagerag: %v", err)
	}
	defer p.Close()

	// Small pages so the sample spans several chunks
	config := model.DefaultIngestConfig()
	config.WordsPerPage = 40
	config.PagesPerChunk = 2

	fmt.Println("Ingesting document...")
	result, err := p.Ingest(context.Background(), &model.IngestRequest{
		Title:       "Introduction to Vector Search",
		Description: "How documents are chunked, embedded and ranked",
		SourceType:  model.SourceTypeText,
		Data:        []byte(sampleContent),
		Config:      config,
	})
	if err != nil {
		log.Fatalf("Failed to ingest document: %v", err)
	}
	fmt.Printf("Document inserted with ID: %s\n", result.DocumentRID)
	fmt.Printf("Stored %d chunks from %d pages\n", result.SuccessfulChunks, result.TotalPages)
	if result.Note != "" {
		fmt.Printf("Note: %s\n", result.Note)
	}

	queryText := "How are large chunks handled?"
	fmt.Printf("\nQuerying: %s\n", queryText)

	queryConfig := model.DefaultQueryConfig()
	results, err := p.Search(context.Background(), queryText, &queryConfig)
	if err != nil {
		log.Fatalf("Failed to search: %v", err)
	}

	fmt.Printf("\nFound %d results:\n", len(results))
	for i, r := range results {
		fmt.Printf("\n--- Result %d ---\n", i+1)
		fmt.Printf("Similarity: %.4f\n", r.Similarity)
		fmt.Printf("Source: %s, %ss %d-%d\n", r.Metadata.Title, r.Metadata.UnitName, r.Metadata.StartUnit, r.Metadata.EndUnit)
		fmt.Printf("Content: %s\n", r.Content)
	}

	fmt.Println("\nBasic example completed successfully!")
}
