package repository

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/chemtrack/chemtrack-backend/pkg/database"
)

// Schema is the DDL for the stock tables and the dependent tables the
// cascade touches
//
//go:embed schema.sql
var Schema string

// Migrate applies Schema
func Migrate(ctx context.Context, db *database.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply stock schema: %w", err)
	}
	return nil
}
