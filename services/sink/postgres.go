package sink

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"sjsage522/propertyworker/internal/scraper"
	"sjsage522/propertyworker/logger"
)

// PostgresSink mirrors the final corpus into PostgreSQL. It is optional and
// written once at finalization, after the CSV and JSON outputs.
type PostgresSink struct {
	db  *sql.DB
	log *logger.Logger
}

// NewPostgresSink opens a connection, waits for the server, and ensures the
// schema exists.
func NewPostgresSink(dsn string) (*PostgresSink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresSink{db: db, log: logger.ForSink("postgres")}
	if err := ps.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return ps, nil
}

func (ps *PostgresSink) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS projects (
			id          SERIAL PRIMARY KEY,
			name        TEXT NOT NULL,
			developer   TEXT NOT NULL DEFAULT '',
			price_range TEXT NOT NULL DEFAULT '',
			units       TEXT NOT NULL DEFAULT '',
			brochure    TEXT NOT NULL DEFAULT '',
			total_area  TEXT NOT NULL DEFAULT '',
			floor_plan  TEXT NOT NULL DEFAULT '',
			rera_number TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (name, developer)
		);

		CREATE INDEX IF NOT EXISTS idx_projects_developer ON projects(developer);
		CREATE INDEX IF NOT EXISTS idx_projects_rera      ON projects(rera_number);
	`)
	return err
}

// Write batch-inserts the corpus, skipping projects already stored.
func (ps *PostgresSink) Write(projects []scraper.Project) error {
	if len(projects) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(projects); i += batchSize {
		end := i + batchSize
		if end > len(projects) {
			end = len(projects)
		}
		if err := ps.insertBatch(projects[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (ps *PostgresSink) insertBatch(batch []scraper.Project) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*8)

	for idx, p := range batch {
		base := idx * 8
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
		valueArgs = append(valueArgs,
			p.Name, p.Developer, p.PriceRange, p.Units,
			p.Brochure, p.TotalArea, p.FloorPlan, p.RERANumber)
	}

	query := fmt.Sprintf(`
		INSERT INTO projects (name, developer, price_range, units, brochure, total_area, floor_plan, rera_number)
		VALUES %s
		ON CONFLICT (name, developer) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := ps.db.Exec(query, valueArgs...)
	return err
}

// Close closes the database connection.
func (ps *PostgresSink) Close() error {
	return ps.db.Close()
}
