package sqlite

const schemaEntities = `
CREATE TABLE IF NOT EXISTS entities (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    visibility TEXT NOT NULL,
    name TEXT NOT NULL,
    created_at DATETIME NOT NULL
)`

const schemaRelations = `
CREATE TABLE IF NOT EXISTS relations (
    id TEXT PRIMARY KEY,
    source_id TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    target_id TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    kind TEXT NOT NULL,
    starts_on DATETIME,
    ends_on DATETIME,
    created_at DATETIME NOT NULL,
    CHECK (source_id <> target_id)
)`

// One edge per unordered pair and kind, matching the in-memory graph.
const indexRelationPair = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_relations_pair
    ON relations(min(source_id, target_id), max(source_id, target_id), kind)`

const indexEntitiesKind = `CREATE INDEX IF NOT EXISTS idx_entities_kind_visibility ON entities(kind, visibility, id)`
const indexRelationsSource = `CREATE INDEX IF NOT EXISTS idx_relations_source ON relations(source_id)`
const indexRelationsTarget = `CREATE INDEX IF NOT EXISTS idx_relations_target ON relations(target_id)`

func allSchemaStatements() []string {
	return []string{
		schemaEntities,
		schemaRelations,
		indexRelationPair,
		indexEntitiesKind,
		indexRelationsSource,
		indexRelationsTarget,
	}
}

// Connection pragmas travel in the DSN so every pooled connection gets them.
func dsnPragmas(inMemory bool) []string {
	pragmas := []string{
		"foreign_keys(1)",
		"busy_timeout(5000)",
	}
	if !inMemory {
		pragmas = append(pragmas, "journal_mode(WAL)", "synchronous(NORMAL)")
	}
	return pragmas
}
