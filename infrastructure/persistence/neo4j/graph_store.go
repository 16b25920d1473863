package neo4j

import (
	"context"
	"fmt"
	"time"

	"degrees/application/ports"
	"degrees/domain/core/entities"
	"degrees/domain/core/valueobjects"
	pkgerrors "degrees/pkg/errors"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Config holds Neo4j connection settings.
type Config struct {
	URI      string
	Username string
	Password string
	Database string
}

// GraphStore keeps entities as :Entity nodes joined by :RELATES relationships.
type GraphStore struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

var _ ports.GraphStore = (*GraphStore)(nil)

var schemaStatements = []string{
	`CREATE CONSTRAINT entity_id IF NOT EXISTS FOR (n:Entity) REQUIRE n.id IS UNIQUE`,
	`CREATE INDEX entity_kind_visibility IF NOT EXISTS FOR (n:Entity) ON (n.kind, n.visibility)`,
	`CREATE INDEX relates_id IF NOT EXISTS FOR ()-[r:RELATES]-() ON (r.id)`,
}

// NewGraphStore connects to Neo4j and makes sure the constraints exist.
func NewGraphStore(ctx context.Context, cfg Config, logger *zap.Logger) (*GraphStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Database == "" {
		cfg.Database = "neo4j"
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("connecting to neo4j: %w", err)
	}

	s := &GraphStore{driver: driver, database: cfg.Database, logger: logger}
	for _, stmt := range schemaStatements {
		if _, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, stmt, nil)
			return nil, err
		}); err != nil {
			driver.Close(ctx)
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	logger.Info("Neo4j graph store ready", zap.String("uri", cfg.URI), zap.String("database", cfg.Database))
	return s, nil
}

func (s *GraphStore) Backend() string { return "neo4j" }

func (s *GraphStore) Ping(ctx context.Context) error {
	if err := s.driver.VerifyConnectivity(ctx); err != nil {
		return pkgerrors.NewDatabaseError("verify connectivity", err)
	}
	return nil
}

func (s *GraphStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *GraphStore) read(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database, AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)
	return session.ExecuteRead(ctx, work)
}

func (s *GraphStore) write(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)
	return session.ExecuteWrite(ctx, work)
}

const nodeProjection = `m.id AS id, m.kind AS kind, m.visibility AS visibility, m.name AS name, m.created_at AS created_at`

func (s *GraphStore) GetNode(ctx context.Context, id valueobjects.NodeID, scope entities.Scope) (*entities.Node, error) {
	result, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			`MATCH (m:Entity {id: $id}) WHERE m.visibility IN $scope RETURN `+nodeProjection,
			map[string]any{"id": id.String(), "scope": scope.Strings()})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, res.Err()
		}
		return nodeFromRecord(res.Record())
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get node", err)
	}
	node, _ := result.(*entities.Node)
	return node, nil
}

func (s *GraphStore) Neighbors(ctx context.Context, id valueobjects.NodeID, scope entities.Scope) ([]entities.Neighbor, error) {
	result, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (:Entity {id: $id})-[r:RELATES]-(m:Entity)
			WHERE m.visibility IN $scope
			RETURN r.id AS edge_id, startNode(r).id AS source_id, endNode(r).id AS target_id,
			       r.kind AS edge_kind, r.starts_on AS starts_on, r.ends_on AS ends_on,
			       `+nodeProjection+`
			ORDER BY r.seq, r.id`,
			map[string]any{"id": id.String(), "scope": scope.Strings()})
		if err != nil {
			return nil, err
		}

		var out []entities.Neighbor
		for res.Next(ctx) {
			neighbor, err := neighborFromRecord(res.Record())
			if err != nil {
				return nil, err
			}
			out = append(out, neighbor)
		}
		return out, res.Err()
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("neighbors", err)
	}
	neighbors, _ := result.([]entities.Neighbor)
	return neighbors, nil
}

func (s *GraphStore) CountNodes(ctx context.Context, filter ports.NodeFilter) (int, error) {
	if !filter.Scope.Allows(filter.Visibility) {
		return 0, nil
	}
	result, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			`MATCH (m:Entity {kind: $kind, visibility: $visibility}) RETURN count(m) AS total`,
			filterParams(filter))
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		total, _, err := neo4j.GetRecordValue[int64](record, "total")
		return total, err
	})
	if err != nil {
		return 0, pkgerrors.NewDatabaseError("count nodes", err)
	}
	return int(result.(int64)), nil
}

func (s *GraphStore) NodeAt(ctx context.Context, filter ports.NodeFilter, offset int) (*entities.Node, error) {
	if offset < 0 || !filter.Scope.Allows(filter.Visibility) {
		return nil, nil
	}
	params := filterParams(filter)
	params["offset"] = offset

	result, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (m:Entity {kind: $kind, visibility: $visibility})
			RETURN `+nodeProjection+`
			ORDER BY m.id SKIP $offset LIMIT 1`, params)
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, res.Err()
		}
		return nodeFromRecord(res.Record())
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("node at offset", err)
	}
	node, _ := result.(*entities.Node)
	return node, nil
}

func (s *GraphStore) SaveNode(ctx context.Context, node *entities.Node) error {
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			MERGE (m:Entity {id: $id})
			ON CREATE SET m.created_at = $created_at
			SET m.kind = $kind, m.visibility = $visibility, m.name = $name`,
			map[string]any{
				"id":         node.ID().String(),
				"kind":       string(node.Kind()),
				"visibility": string(node.Visibility()),
				"name":       node.Name(),
				"created_at": node.CreatedAt().UTC().Format(time.RFC3339Nano),
			})
		return nil, err
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("save node", err)
	}
	return nil
}

// SaveEdge replaces any relationship with the same id, refusing a second
// relationship of the same kind between the same pair.
func (s *GraphStore) SaveEdge(ctx context.Context, edge *entities.Edge) error {
	params := edgeParams(edge)

	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			OPTIONAL MATCH (a:Entity {id: $source_id})
			OPTIONAL MATCH (b:Entity {id: $target_id})
			OPTIONAL MATCH (a)-[clash:RELATES {kind: $kind}]-(b)
			WHERE clash.id <> $id
			RETURN a IS NOT NULL AND b IS NOT NULL AS found, count(clash) AS clashes`, params)
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		found, _, err := neo4j.GetRecordValue[bool](record, "found")
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, pkgerrors.NewNotFoundError("edge endpoint")
		}
		clashes, _, err := neo4j.GetRecordValue[int64](record, "clashes")
		if err != nil {
			return nil, err
		}
		if clashes > 0 {
			return nil, pkgerrors.NewConflictError("an edge of this kind already links these nodes")
		}

		if _, err := tx.Run(ctx, `MATCH ()-[old:RELATES {id: $id}]->() DELETE old`, params); err != nil {
			return nil, err
		}
		_, err = tx.Run(ctx, `
			MATCH (a:Entity {id: $source_id}), (b:Entity {id: $target_id})
			CREATE (a)-[:RELATES {id: $id, kind: $kind, starts_on: $starts_on, ends_on: $ends_on, seq: timestamp()}]->(b)`,
			params)
		return nil, err
	})
	if err != nil {
		if pkgerrors.IsAppError(err) {
			return err
		}
		return pkgerrors.NewDatabaseError("save edge", err)
	}
	return nil
}

func filterParams(filter ports.NodeFilter) map[string]any {
	return map[string]any{
		"kind":       string(filter.Kind),
		"visibility": string(filter.Visibility),
	}
}

func edgeParams(edge *entities.Edge) map[string]any {
	params := map[string]any{
		"id":        edge.ID().String(),
		"source_id": edge.SourceID().String(),
		"target_id": edge.TargetID().String(),
		"kind":      string(edge.Kind()),
		"starts_on": nil,
		"ends_on":   nil,
	}
	if p := edge.Period(); p != nil {
		if !p.Start.IsZero() {
			params["starts_on"] = p.Start.UTC().Format(time.RFC3339)
		}
		if !p.End.IsZero() {
			params["ends_on"] = p.End.UTC().Format(time.RFC3339)
		}
	}
	return params
}
