package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"degrees/application/ports"
	"degrees/domain/core/entities"
	"degrees/domain/core/valueobjects"
	pkgerrors "degrees/pkg/errors"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// GraphStore persists the graph in a SQLite database file.
type GraphStore struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ ports.GraphStore = (*GraphStore)(nil)

// NewGraphStore opens (creating if needed) the database at path.
// The path ":memory:" gives a private in-memory database.
func NewGraphStore(ctx context.Context, path string, logger *zap.Logger) (*GraphStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	inMemory := path == ":memory:"

	db, err := sql.Open("sqlite", dsn(path, inMemory))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	if inMemory {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to sqlite: %w", err)
	}

	for _, stmt := range allSchemaStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	logger.Info("SQLite graph store ready", zap.String("path", path))
	return &GraphStore{db: db, logger: logger}, nil
}

func dsn(path string, inMemory bool) string {
	params := url.Values{}
	for _, p := range dsnPragmas(inMemory) {
		params.Add("_pragma", p)
	}
	if inMemory {
		return "file::memory:?" + params.Encode()
	}
	return "file:" + path + "?" + params.Encode()
}

func (s *GraphStore) Backend() string { return "sqlite" }

func (s *GraphStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return pkgerrors.NewDatabaseError("ping", err)
	}
	return nil
}

func (s *GraphStore) Close(context.Context) error {
	return s.db.Close()
}

const nodeColumns = `id, kind, visibility, name, created_at`

func (s *GraphStore) GetNode(ctx context.Context, id valueobjects.NodeID, scope entities.Scope) (*entities.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM entities WHERE id = ? AND visibility IN (` + placeholders(len(scope)) + `)`
	args := append([]any{id.String()}, scopeArgs(scope)...)

	node, err := scanNode(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get node", err)
	}
	return node, nil
}

func (s *GraphStore) Neighbors(ctx context.Context, id valueobjects.NodeID, scope entities.Scope) ([]entities.Neighbor, error) {
	query := `
		SELECT r.id, r.source_id, r.target_id, r.kind, r.starts_on, r.ends_on,
		       n.id, n.kind, n.visibility, n.name, n.created_at
		FROM relations r
		JOIN entities n ON n.id = CASE WHEN r.source_id = ? THEN r.target_id ELSE r.source_id END
		WHERE (r.source_id = ? OR r.target_id = ?)
		  AND n.visibility IN (` + placeholders(len(scope)) + `)
		ORDER BY r.rowid`
	args := append([]any{id.String(), id.String(), id.String()}, scopeArgs(scope)...)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("neighbors", err)
	}
	defer rows.Close()

	var out []entities.Neighbor
	for rows.Next() {
		var (
			edgeID, sourceID, targetID, edgeKind string
			startsOn, endsOn                     sql.NullTime
			nodeID, nodeKind, visibility, name   string
			createdAt                            time.Time
		)
		if err := rows.Scan(&edgeID, &sourceID, &targetID, &edgeKind, &startsOn, &endsOn,
			&nodeID, &nodeKind, &visibility, &name, &createdAt); err != nil {
			return nil, pkgerrors.NewDatabaseError("scan neighbor", err)
		}

		edge := entities.ReconstructEdge(
			valueobjects.MustEdgeID(edgeID),
			valueobjects.MustNodeID(sourceID),
			valueobjects.MustNodeID(targetID),
			entities.EdgeKind(edgeKind),
			periodFrom(startsOn, endsOn),
		)
		node := entities.ReconstructNode(
			valueobjects.MustNodeID(nodeID),
			entities.NodeKind(nodeKind),
			entities.Visibility(visibility),
			name,
			createdAt,
		)
		out = append(out, entities.Neighbor{Edge: edge, Node: node})
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.NewDatabaseError("neighbors", err)
	}
	return out, nil
}

func (s *GraphStore) CountNodes(ctx context.Context, filter ports.NodeFilter) (int, error) {
	where, args := filterClause(filter)
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entities WHERE `+where, args...).Scan(&count); err != nil {
		return 0, pkgerrors.NewDatabaseError("count nodes", err)
	}
	return count, nil
}

func (s *GraphStore) NodeAt(ctx context.Context, filter ports.NodeFilter, offset int) (*entities.Node, error) {
	if offset < 0 {
		return nil, nil
	}
	where, args := filterClause(filter)
	query := `SELECT ` + nodeColumns + ` FROM entities WHERE ` + where + ` ORDER BY id LIMIT 1 OFFSET ?`

	node, err := scanNode(s.db.QueryRowContext(ctx, query, append(args, offset)...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("node at offset", err)
	}
	return node, nil
}

func (s *GraphStore) SaveNode(ctx context.Context, node *entities.Node) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entities (id, kind, visibility, name, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			visibility = excluded.visibility,
			name = excluded.name`,
		node.ID().String(), string(node.Kind()), string(node.Visibility()), node.Name(), node.CreatedAt().UTC(),
	)
	if err != nil {
		return pkgerrors.NewDatabaseError("save node", err)
	}
	return nil
}

func (s *GraphStore) SaveEdge(ctx context.Context, edge *entities.Edge) error {
	var startsOn, endsOn sql.NullTime
	if p := edge.Period(); p != nil {
		startsOn = sql.NullTime{Time: p.Start, Valid: !p.Start.IsZero()}
		endsOn = sql.NullTime{Time: p.End, Valid: !p.End.IsZero()}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO relations (id, source_id, target_id, kind, starts_on, ends_on, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_id = excluded.source_id,
			target_id = excluded.target_id,
			kind = excluded.kind,
			starts_on = excluded.starts_on,
			ends_on = excluded.ends_on`,
		edge.ID().String(), edge.SourceID().String(), edge.TargetID().String(), string(edge.Kind()),
		startsOn, endsOn, time.Now().UTC(),
	)
	switch {
	case err == nil:
		return nil
	case strings.Contains(err.Error(), "FOREIGN KEY constraint failed"):
		return pkgerrors.NewNotFoundError("edge endpoint").WithCause(err)
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return pkgerrors.NewConflictError("an edge of this kind already links these nodes").WithCause(err)
	}
	return pkgerrors.NewDatabaseError("save edge", err)
}

func scanNode(row *sql.Row) (*entities.Node, error) {
	var (
		id, kind, visibility, name string
		createdAt                  time.Time
	)
	if err := row.Scan(&id, &kind, &visibility, &name, &createdAt); err != nil {
		return nil, err
	}
	return entities.ReconstructNode(
		valueobjects.MustNodeID(id),
		entities.NodeKind(kind),
		entities.Visibility(visibility),
		name,
		createdAt,
	), nil
}

func filterClause(filter ports.NodeFilter) (string, []any) {
	where := `kind = ? AND visibility = ? AND visibility IN (` + placeholders(len(filter.Scope)) + `)`
	args := append([]any{string(filter.Kind), string(filter.Visibility)}, scopeArgs(filter.Scope)...)
	return where, args
}

// placeholders returns "?, ?, ..." for n values; an empty scope matches nothing.
func placeholders(n int) string {
	if n == 0 {
		return "NULL"
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func scopeArgs(scope entities.Scope) []any {
	args := make([]any, len(scope))
	for i, v := range scope {
		args[i] = string(v)
	}
	return args
}

func periodFrom(start, end sql.NullTime) *entities.Period {
	if !start.Valid && !end.Valid {
		return nil
	}
	p := &entities.Period{}
	if start.Valid {
		p.Start = start.Time
	}
	if end.Valid {
		p.End = end.Time
	}
	return p
}
