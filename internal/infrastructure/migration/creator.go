package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MigrationFile describes a generated up/down migration pair
type MigrationFile struct {
	Version  string
	Name     string
	UpPath   string
	DownPath string
}

// CreateMigration writes an empty up/down migration pair into the
// migrations directory, versioned by timestamp so files sort in creation
// order.
func CreateMigration(migrationsDir, name, description string) (*MigrationFile, error) {
	if err := os.MkdirAll(migrationsDir, 0755); err != nil {
		return nil, fmt.Errorf("create migrations directory: %w", err)
	}

	now := time.Now()
	version := now.Format("20060102150405")
	base := version + "_" + sanitizeName(name)

	mf := &MigrationFile{
		Version:  version,
		Name:     name,
		UpPath:   filepath.Join(migrationsDir, base+".up.sql"),
		DownPath: filepath.Join(migrationsDir, base+".down.sql"),
	}

	up := stubContent(name, description, now, false)
	if err := os.WriteFile(mf.UpPath, []byte(up), 0644); err != nil {
		return nil, fmt.Errorf("write up migration: %w", err)
	}

	down := stubContent(name, description, now, true)
	if err := os.WriteFile(mf.DownPath, []byte(down), 0644); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, fmt.Errorf("write down migration: %w", err)
	}

	return mf, nil
}

func stubContent(name, description string, createdAt time.Time, rollback bool) string {
	var b strings.Builder
	title := name
	direction := "up"
	if rollback {
		title = name + " (rollback)"
		direction = "down"
	}
	fmt.Fprintf(&b, "-- Migration: %s\n", title)
	fmt.Fprintf(&b, "-- Created: %s\n", createdAt.Format(time.RFC3339))
	if description != "" {
		fmt.Fprintf(&b, "-- Description: %s\n", description)
	}
	fmt.Fprintf(&b, "\n-- Write the %s migration SQL here\n", direction)
	return b.String()
}

// sanitizeName lowercases a migration name and squeezes everything that is
// not alphanumeric into single underscores
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			if s := b.String(); len(s) > 0 && !strings.HasSuffix(s, "_") {
				b.WriteByte('_')
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// ListMigrations returns the base names of the migration pairs in a
// directory. A missing directory is treated as empty.
func ListMigrations(migrationsDir string) ([]string, error) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var migrations []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if base, ok := strings.CutSuffix(entry.Name(), ".up.sql"); ok {
			migrations = append(migrations, base)
		}
	}
	return migrations, nil
}
