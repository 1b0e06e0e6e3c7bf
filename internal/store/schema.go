package store

import (
	"database/sql"
	"strings"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS files (
	path TEXT PRIMARY KEY,
	hash TEXT NOT NULL,
	language TEXT NOT NULL,
	indexed_at INTEGER NOT NULL,
	symbol_count INTEGER NOT NULL DEFAULT 0,
	line_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS nodes (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	name TEXT NOT NULL,
	qualified_name TEXT NOT NULL,
	file_path TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
	start_line INTEGER NOT NULL,
	end_line INTEGER NOT NULL,
	language TEXT NOT NULL,
	signature TEXT NOT NULL DEFAULT '',
	docstring TEXT NOT NULL DEFAULT '',
	exported INTEGER NOT NULL DEFAULT 0,
	complexity INTEGER NOT NULL DEFAULT 1,
	metadata TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_nodes_file_path ON nodes(file_path);
CREATE INDEX IF NOT EXISTS idx_nodes_name ON nodes(name);
CREATE INDEX IF NOT EXISTS idx_nodes_qualified_name ON nodes(qualified_name);
CREATE INDEX IF NOT EXISTS idx_nodes_kind ON nodes(kind);

CREATE TABLE IF NOT EXISTS edges (
	id TEXT PRIMARY KEY,
	source_id TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	target_id TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	kind TEXT NOT NULL,
	metadata TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id);
CREATE INDEX IF NOT EXISTS idx_edges_kind ON edges(kind);

CREATE TABLE IF NOT EXISTS tfidf_terms (
	node_id TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	token TEXT NOT NULL,
	source TEXT NOT NULL,
	tf REAL NOT NULL,
	PRIMARY KEY (node_id, token, source)
);
CREATE INDEX IF NOT EXISTS idx_tfidf_terms_token ON tfidf_terms(token);

CREATE TABLE IF NOT EXISTS tfidf_idf (
	token TEXT PRIMARY KEY,
	idf REAL NOT NULL,
	df INTEGER NOT NULL
);
`

const ftsProbeDDL = `CREATE VIRTUAL TABLE IF NOT EXISTS _codexray_fts_probe USING fts5(content);`
const ftsProbeDrop = `DROP TABLE IF EXISTS _codexray_fts_probe;`

const ftsDDL = `
CREATE VIRTUAL TABLE IF NOT EXISTS nodes_fts USING fts5(
	id UNINDEXED, name, qualified_name, signature, docstring
);

CREATE TRIGGER IF NOT EXISTS nodes_fts_ai AFTER INSERT ON nodes BEGIN
	INSERT INTO nodes_fts(id, name, qualified_name, signature, docstring)
	VALUES (new.id, new.name, new.qualified_name, new.signature, new.docstring);
END;

CREATE TRIGGER IF NOT EXISTS nodes_fts_ad AFTER DELETE ON nodes BEGIN
	DELETE FROM nodes_fts WHERE id = old.id;
END;

CREATE TRIGGER IF NOT EXISTS nodes_fts_au AFTER UPDATE ON nodes BEGIN
	DELETE FROM nodes_fts WHERE id = old.id;
	INSERT INTO nodes_fts(id, name, qualified_name, signature, docstring)
	VALUES (new.id, new.name, new.qualified_name, new.signature, new.docstring);
END;
`

// migrate runs all schema creation statements. Every statement is
// IF NOT EXISTS, so migrate is safe to call on every open. It also probes
// for the fts5 module, following the same capability-detection-with-
// fallback pattern used for query-time keyword search rejection: if the
// module is unavailable, the keyword index degrades to a plain indexed
// table and callers always take the LIKE path.
func migrate(db *sql.DB) (hasFTS5 bool, err error) {
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return false, err
	}
	// db.Exec runs the whole DDL blob through sqlite3_prepare_v2 in a loop,
	// one complete statement at a time, so a trigger's internal
	// "BEGIN ... ; ... END;" body is consumed as a single statement
	// rather than being cut apart by a naive split on ";".
	if _, err := db.Exec(schemaDDL); err != nil {
		return false, err
	}

	_, probeErr := db.Exec(ftsProbeDDL)
	if probeErr != nil {
		if strings.Contains(probeErr.Error(), "no such module: fts5") {
			return false, nil
		}
		return false, probeErr
	}
	defer db.Exec(ftsProbeDrop)

	if _, err := db.Exec(ftsDDL); err != nil {
		return false, err
	}
	return true, nil
}
