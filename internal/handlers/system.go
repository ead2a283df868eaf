package handlers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// InstallDatabase executes the consolidated schema files against both
// datastores. Statements are idempotent (IF NOT EXISTS) so re-running is safe.
// @Summary Install Database Schema
// @Description Executes consolidated SQL migrations for ClickHouse and PostgreSQL
// @Tags System
// @Accept json
// @Produce json
// @Security SourceToken
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /system/install [post]
func (h *Handler) InstallDatabase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	targets := []struct {
		name  string
		path  string
		apply func(context.Context, string) error
	}{
		{"postgres", filepath.Join("migrations", "postgres", "001_initial_schema.sql"), h.applyPostgresSchema},
		{"clickhouse", filepath.Join("migrations", "clickhouse", "001_initial_schema.sql"), h.applyClickHouseSchema},
	}

	results := make(map[string]string, len(targets))
	failed := false
	for _, t := range targets {
		if err := t.apply(ctx, t.path); err != nil {
			h.logger.Errorw("Schema install failed", "db", t.name, "path", t.path, "error", err)
			results[t.name] = "failed: " + err.Error()
			failed = true
			continue
		}
		h.logger.Infow("Schema installed", "db", t.name)
		results[t.name] = "success"
	}

	status := http.StatusOK
	if failed {
		status = http.StatusInternalServerError
	}
	h.jsonResponse(w, status, map[string]interface{}{
		"status":  "completed",
		"results": results,
		"error":   failed,
	})
}

func (h *Handler) applyPostgresSchema(ctx context.Context, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = h.pg.Exec(ctx, string(content))
	return err
}

// applyClickHouseSchema runs each statement separately; the driver rejects
// multi-statement DDL in a single Exec.
func (h *Handler) applyClickHouseSchema(ctx context.Context, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	for _, stmt := range strings.Split(string(content), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if err := h.ch.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
