package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/siherrmann/pagerag"
	"github.com/siherrmann/pagerag/core/pipeline"
	"github.com/siherrmann/pagerag/helper"
	"github.com/siherrmann/pagerag/model"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const kjvRepoURL = "https://raw.githubusercontent.com/arleym/kjv-markdown/master"

// List of KJV books to download
var kjvBooks = []string{
	"01 - Genesis - KJV.md",
	// "02 - Exodus - KJV.md", "03 - Leviticus - KJV.md",
	// "04 - Numbers - KJV.md", "05 - Deuteronomy - KJV.md",
	// "06 - Joshua - KJV.md", "07 - Judges - KJV.md", "08 - Ruth - KJV.md",
	// "09 - 1 Samuel - KJV.md", "10 - 2 Samuel - KJV.md",
	// "11 - 1 Kings - KJV.md", "12 - 2 Kings - KJV.md",
	// "13 - 1 Chronicles - KJV.md", "14 - 2 Chronicles - KJV.md",
	// "15 - Ezra - KJV.md", "16 - Nehemiah - KJV.md", "17 - Esther - KJV.md",
	// "18 - Job - KJV.md", "19 - Psalms - KJV.md",
	// "20 - Proverbs - KJV.md", "21 - Ecclesiastes - KJV.md",
	// "22 - The Song of Solomon - KJV.md", "23 - Isaiah - KJV.md",
	// "24 - Jeremiah - KJV.md", "25 - Lamentations - KJV.md",
	// "26 - Ezekiel - KJV.md", "27 - Daniel - KJV.md",
	// "28 - Hosea - KJV.md", "29 - Joel - KJV.md", "30 - Amos - KJV.md",
	// "31 - Obadiah - KJV.md", "32 - Jonah - KJV.md",
	// "33 - Micah - KJV.md", "34 - Nahum - KJV.md", "35 - Habakkuk - KJV.md",
	// "36 - Zephaniah - KJV.md", "37 - Haggai - KJV.md",
	// "38 - Zechariah - KJV.md", "39 - Malachi - KJV.md",
	// "40 - Matthew - KJV.md", "41 - Mark - KJV.md", "42 - Luke - KJV.md",
	// "43 - John - KJV.md", "44 - Acts - KJV.md", "45 - Romans - KJV.md",
	// "46 - 1 Corinthians - KJV.md", "47 - 2 Corinthians - KJV.md",
	// "48 - Galatians - KJV.md", "49 - Ephesians - KJV.md",
	// "50 - Philippians - KJV.md", "51 - Colossians - KJV.md",
	// "52 - 1 Thessalonians - KJV.md", "53 - 2 Thessalonians - KJV.md",
	// "54 - 1 Timothy - KJV.md", "55 - 2 Timothy - KJV.md",
	// "56 - Titus - KJV.md", "57 - Philemon - KJV.md", "58 - Hebrews - KJV.md",
	// "59 - James - KJV.md", "60 - 1 Peter - KJV.md",
	// "61 - 2 Peter - KJV.md", "62 - 1 John - KJV.md", "63 - 2 John - KJV.md",
	// "64 - 3 John - KJV.md", "65 - Jude - KJV.md", "66 - Revelation - KJV.md",
}

// startPostgresContainer starts a PostgreSQL container for the KJV example.
// The data directory is bind mounted so ingested books survive between runs.
func startPostgresContainer() (func(ctx context.Context, opts ...testcontainers.TerminateOption) error, string, error) {
	ctx := context.Background()

	// Create data directory if it doesn't exist
	dataDir := "./data"
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create data directory: %w", err)
	}
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get absolute path for data directory: %w", err)
	}

	// Check if database already exists (data directory has PG_VERSION file)
	pgVersionFile := filepath.Join(absDataDir, "PG_VERSION")
	_, err = os.Stat(pgVersionFile)
	dbExists := err == nil

	// When database already exists, PostgreSQL doesn't re-initialize,
	// so the ready message only appears once instead of twice
	waitOccurrences := 2
	if dbExists {
		waitOccurrences = 1
		fmt.Printf("Using existing persistent database in: %s\n", absDataDir)
	} else {
		fmt.Printf("Creating new persistent database in: %s\n", absDataDir)
	}

	options := []testcontainers.ContainerCustomizer{
		postgres.WithDatabase("database"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(waitOccurrences),
		),
		testcontainers.WithHostConfigModifier(func(hc *container.HostConfig) {
			hc.Mounts = append(hc.Mounts, mount.Mount{
				Type:   mount.TypeBind,
				Source: absDataDir,
				Target: "/var/lib/postgresql/data",
			})
		}),
	}

	pgContainer, err := postgres.Run(
		ctx,
		"pgvector/pgvector:pg17",
		options...,
	)
	if err != nil {
		return nil, "", fmt.Errorf("error starting postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", fmt.Errorf("error getting connection string: %w", err)
	}

	u, err := url.Parse(connStr)
	if err != nil {
		return nil, "", fmt.Errorf("error parsing connection string: %v", err)
	}

	return pgContainer.Terminate, u.Port(), nil
}

func downloadBook(bookName string, outputDir string) (string, error) {
	// URL-encode the filename to handle spaces
	encodedName := url.PathEscape(bookName)
	downloadURL := fmt.Sprintf("%s/%s", kjvRepoURL, encodedName)
	resp, err := http.Get(downloadURL)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", bookName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download %s: status %d", bookName, resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", bookName, err)
	}

	outputPath := filepath.Join(outputDir, bookName)
	if err := os.WriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", bookName, err)
	}

	return outputPath, nil
}

func main() {
	teardown, dbPort, err := startPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

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

	tmpDir, err := os.MkdirTemp("", "kjv-books-*")
	if err != nil {
		log.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	existingDocs, err := checkExistingDocuments(p)
	if err != nil {
		log.Printf("Warning: could not check existing documents: %v", err)
		existingDocs = make(map[string]bool)
	}
	if len(existingDocs) > 0 {
		fmt.Printf("Found %d existing documents in database\n", len(existingDocs))
	}

	fmt.Println("Downloading KJV books from GitHub...")

	totalChunks := 0
	skipped := 0
	processed := 0
	for i, bookName := range kjvBooks {
		bookTitle := extractBookTitle(bookName)
		if existingDocs[bookTitle] {
			fmt.Printf("Skipping %s (%d/%d) - already processed\n", bookName, i+1, len(kjvBooks))
			skipped++
			continue
		}

		fmt.Printf("Downloading %s (%d/%d)...\n", bookName, i+1, len(kjvBooks))
		bookPath, err := downloadBook(bookName, tmpDir)
		if err != nil {
			log.Printf("Warning: %v, skipping...", err)
			continue
		}

		req, err := model.NewIngestRequestFromFile(bookPath, fmt.Sprintf("King James Version (KJV), %s", getTestament(bookTitle)))
		if err != nil {
			log.Printf("Warning: failed to read %s: %v, skipping...", bookName, err)
			continue
		}
		req.Title = bookTitle

		fmt.Printf("Processing %s...\n", bookTitle)
		result, err := p.Ingest(context.Background(), req)
		if err != nil {
			log.Printf("Warning: failed to process %s: %v, skipping...", bookTitle, err)
			continue
		}

		fmt.Printf("  Inserted %d chunks from %d pages of %s\n", result.SuccessfulChunks, result.TotalPages, bookTitle)
		if result.Note != "" {
			fmt.Printf("  Note: %s\n", result.Note)
		}
		totalChunks += result.SuccessfulChunks
		processed++
	}

	fmt.Printf("\nKJV Bible Status:\n")
	fmt.Printf("  - Processed: %d books (%d chunks)\n", processed, totalChunks)
	fmt.Printf("  - Skipped (already in DB): %d books\n", skipped)
	fmt.Printf("  - Total: %d books\n\n", len(kjvBooks))

	query := "What did Moses do on the mountain?"
	fmt.Printf("Searching: %q\n", query)
	fmt.Println(strings.Repeat("=", 20))

	config := model.DefaultQueryConfig()
	config.TopK = 5
	results, err := p.Search(context.Background(), query, &config)
	if err != nil {
		log.Fatalf("Search error: %v", err)
	}
	printResults(results)

	fmt.Println("\n" + strings.Repeat("=", 20))
	fmt.Println("Search complete!")
}

// checkExistingDocuments returns the titles of all stored documents for quick lookup.
func checkExistingDocuments(p *pagerag.Pagerag) (map[string]bool, error) {
	docs, err := p.ListDocuments()
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}

	existingDocs := make(map[string]bool)
	for _, doc := range docs {
		existingDocs[doc.Title] = true
	}
	return existingDocs, nil
}

func getTestament(bookTitle string) string {
	// List of Old Testament books
	oldTestament := map[string]bool{
		"Genesis": true, "Exodus": true, "Leviticus": true, "Numbers": true, "Deuteronomy": true,
		"Joshua": true, "Judges": true, "Ruth": true, "1 Samuel": true, "2 Samuel": true,
		"1 Kings": true, "2 Kings": true, "1 Chronicles": true, "2 Chronicles": true,
		"Ezra": true, "Nehemiah": true, "Esther": true, "Job": true, "Psalms": true,
		"Proverbs": true, "Ecclesiastes": true, "The Song of Solomon": true, "Isaiah": true,
		"Jeremiah": true, "Lamentations": true, "Ezekiel": true, "Daniel": true,
		"Hosea": true, "Joel": true, "Amos": true, "Obadiah": true, "Jonah": true,
		"Micah": true, "Nahum": true, "Habakkuk": true, "Zephaniah": true, "Haggai": true,
		"Zechariah": true, "Malachi": true,
	}

	if oldTestament[bookTitle] {
		return "Old Testament"
	}
	return "New Testament"
}

func extractBookTitle(filename string) string {
	// Extract book name from format like "01 - Genesis - KJV.md"
	parts := strings.Split(filename, " - ")
	if len(parts) >= 2 {
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSuffix(filename, ".md")
}

func printResults(results []*model.SearchResult) {
	if len(results) == 0 {
		fmt.Println("No results found")
		return
	}

	for i, result := range results {
		fmt.Printf("\n[%d] Similarity: %.4f | Book: %s | %ss %d-%d\n",
			i+1, result.Similarity, result.Metadata.Title, result.Metadata.UnitName,
			result.Metadata.StartUnit, result.Metadata.EndUnit)

		content := result.Content
		if len(content) > 300 {
			content = content[:300] + "..."
		}
		fmt.Printf("    %s\n", strings.ReplaceAll(content, "\n", "\n    "))
		fmt.Printf("    [%s]\n", result.Metadata.Description)
	}
}
