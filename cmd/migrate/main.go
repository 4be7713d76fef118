package main

import (
	"log"

	"supportly-be/internal/config"
	"supportly-be/internal/model"
	"supportly-be/pkg/database"
)

func main() {
	// 1. Load Environment Variables
	cfg := config.Load()

	// The column type is compiled in; a mismatched provider would fail every insert.
	if cfg.Ai.EmbeddingDimension != model.EmbeddingDimension {
		log.Fatalf("Error: EMBEDDING_DIMENSION=%d but the schema stores vector(%d); switching models needs a schema bump and full re-ingestion",
			cfg.Ai.EmbeddingDimension, model.EmbeddingDimension)
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, true, database.DefaultPool)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 3. Pre-Migration: Extensions
	log.Println("Step 1: Setting up Extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Fatalf("Error: Failed to execute setup SQL: %v", err)
		}
	}

	// 4. AutoMigrate All Models
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.TrainingSource{},
		&model.DocumentChunk{},
		&model.Conversation{},
		&model.Message{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: indexes GORM tags cannot express
	log.Println("Step 3: Creating vector index...")

	postMigrationSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_document_chunks_embedding ON document_chunks USING hnsw (embedding vector_cosine_ops);`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("Success: Database migration completed.")
}
