package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hydraimport/internal/domain"
	"hydraimport/internal/repository"
)

// ============================================================================
// Networks
// ============================================================================

// CreateNetwork inserts a network with its nodes, links and groups in one
// transaction. Every provisional ID in network is replaced with the
// permanent one, and link endpoints are rewritten to match.
func (r *Repository) CreateNetwork(ctx context.Context, network *domain.Network) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	typesJSON, attrsJSON, err := resourceInsertArgs(network.Types, network.Attributes)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO networks (project_id, name, description, projection, types, attributes)
		VALUES (?, ?, ?, ?, ?, ?)
	`, network.ProjectID, network.Name, network.Description, stringToNull(network.Projection), typesJSON, attrsJSON)
	if err != nil {
		return fmt.Errorf("failed to insert network: %w", err)
	}
	networkID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get network id: %w", err)
	}

	nodeIDs := make(map[int64]int64, len(network.Nodes))
	for i := range network.Nodes {
		n := &network.Nodes[i]
		typesJSON, attrsJSON, err := resourceInsertArgs(n.Types, n.Attributes)
		if err != nil {
			return fmt.Errorf("node %q: %w", n.Name, err)
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO nodes (network_id, name, description, x, y, types, attributes)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, networkID, n.Name, n.Description, n.X, n.Y, typesJSON, attrsJSON)
		if err != nil {
			return fmt.Errorf("failed to insert node %q: %w", n.Name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get node id: %w", err)
		}
		nodeIDs[n.ID] = id
		n.ID = id
	}

	for i := range network.Links {
		l := &network.Links[i]
		node1, ok := nodeIDs[l.Node1ID]
		if !ok {
			return fmt.Errorf("link %q starts at node %d: %w", l.Name, l.Node1ID, repository.ErrInvalidReference)
		}
		node2, ok := nodeIDs[l.Node2ID]
		if !ok {
			return fmt.Errorf("link %q ends at node %d: %w", l.Name, l.Node2ID, repository.ErrInvalidReference)
		}
		typesJSON, attrsJSON, err := resourceInsertArgs(l.Types, l.Attributes)
		if err != nil {
			return fmt.Errorf("link %q: %w", l.Name, err)
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO links (network_id, name, description, node_1_id, node_2_id, types, attributes)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, networkID, l.Name, l.Description, node1, node2, typesJSON, attrsJSON)
		if err != nil {
			return fmt.Errorf("failed to insert link %q: %w", l.Name, err)
		}
		if l.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get link id: %w", err)
		}
		l.Node1ID, l.Node2ID = node1, node2
	}

	for i := range network.ResourceGroups {
		g := &network.ResourceGroups[i]
		typesJSON, attrsJSON, err := resourceInsertArgs(g.Types, g.Attributes)
		if err != nil {
			return fmt.Errorf("group %q: %w", g.Name, err)
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO resource_groups (network_id, name, description, types, attributes)
			VALUES (?, ?, ?, ?, ?)
		`, networkID, g.Name, g.Description, typesJSON, attrsJSON)
		if err != nil {
			return fmt.Errorf("failed to insert group %q: %w", g.Name, err)
		}
		if g.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get group id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit network: %w", err)
	}
	network.ID = networkID
	return nil
}

// GetNetwork loads a network with its nodes, links and groups. Only the
// listed scenarios are loaded; an empty list loads all of them.
func (r *Repository) GetNetwork(ctx context.Context, id int64, scenarioIDs []int64) (*domain.Network, error) {
	var (
		n          domain.Network
		projection sql.NullString
		row        resourceRow
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, types, attributes, project_id, projection
		FROM networks WHERE id = ?
	`, id).Scan(append(row.scanArgs(), &n.ProjectID, &projection)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("network %d: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query network: %w", err)
	}
	n.ID, n.Name, n.Description = row.ID, row.Name, row.Description
	n.Projection = nullToString(projection)
	if n.Types, n.Attributes, err = row.decode(); err != nil {
		return nil, err
	}

	if n.Nodes, err = r.listNodes(ctx, id); err != nil {
		return nil, err
	}
	if n.Links, err = r.listLinks(ctx, id); err != nil {
		return nil, err
	}
	if n.ResourceGroups, err = r.listGroups(ctx, id); err != nil {
		return nil, err
	}
	if n.Scenarios, err = r.listScenarios(ctx, id, scenarioIDs); err != nil {
		return nil, err
	}

	return &n, nil
}

func (r *Repository) listNodes(ctx context.Context, networkID int64) ([]domain.NetworkNode, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+resourceColumns+`, x, y FROM nodes WHERE network_id = ? ORDER BY id`, networkID)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	nodes := make([]domain.NetworkNode, 0)
	for rows.Next() {
		var (
			row  resourceRow
			x, y float64
		)
		if err := rows.Scan(append(row.scanArgs(), &x, &y)...); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		types, attrs, err := row.decode()
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", row.ID, err)
		}
		nodes = append(nodes, domain.NetworkNode{
			ID: row.ID, Name: row.Name, Description: row.Description,
			X: x, Y: y, Types: types, Attributes: attrs,
		})
	}
	return nodes, rows.Err()
}

func (r *Repository) listLinks(ctx context.Context, networkID int64) ([]domain.NetworkLink, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+resourceColumns+`, node_1_id, node_2_id FROM links WHERE network_id = ? ORDER BY id`, networkID)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	links := make([]domain.NetworkLink, 0)
	for rows.Next() {
		var (
			row          resourceRow
			node1, node2 int64
		)
		if err := rows.Scan(append(row.scanArgs(), &node1, &node2)...); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		types, attrs, err := row.decode()
		if err != nil {
			return nil, fmt.Errorf("link %d: %w", row.ID, err)
		}
		links = append(links, domain.NetworkLink{
			ID: row.ID, Name: row.Name, Description: row.Description,
			Node1ID: node1, Node2ID: node2, Types: types, Attributes: attrs,
		})
	}
	return links, rows.Err()
}

func (r *Repository) listGroups(ctx context.Context, networkID int64) ([]domain.ResourceGroup, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+resourceColumns+` FROM resource_groups WHERE network_id = ? ORDER BY id`, networkID)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	groups := make([]domain.ResourceGroup, 0)
	for rows.Next() {
		var row resourceRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		types, attrs, err := row.decode()
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", row.ID, err)
		}
		groups = append(groups, domain.ResourceGroup{
			ID: row.ID, Name: row.Name, Description: row.Description,
			Types: types, Attributes: attrs,
		})
	}
	return groups, rows.Err()
}

// ============================================================================
// Scenarios
// ============================================================================

// CreateScenario inserts a scenario with its group items and values
func (r *Repository) CreateScenario(ctx context.Context, scenario *domain.Scenario) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM networks WHERE id = ?`, scenario.NetworkID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("network %d: %w", scenario.NetworkID, repository.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to query network: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO scenarios (network_id, name, description) VALUES (?, ?, ?)`,
		scenario.NetworkID, scenario.Name, scenario.Description)
	if err != nil {
		return fmt.Errorf("failed to insert scenario: %w", err)
	}
	scenarioID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get scenario id: %w", err)
	}

	for _, item := range scenario.ResourceGroupItems {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO resource_group_items (scenario_id, ref_key, ref_id, group_id)
			VALUES (?, ?, ?, ?)
		`, scenarioID, string(item.RefKey), item.RefID, item.GroupID)
		if err != nil {
			return fmt.Errorf("failed to insert group item %s: %w", item, err)
		}
	}

	for _, rs := range scenario.ResourceScenarios {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO resource_scenarios (scenario_id, resource_attr_id, value)
			VALUES (?, ?, ?)
		`, scenarioID, rs.ResourceAttrID, rs.Value)
		if err != nil {
			return fmt.Errorf("failed to insert resource scenario: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit scenario: %w", err)
	}
	scenario.ID = scenarioID
	return nil
}

// GetScenario loads a scenario with its group items and values
func (r *Repository) GetScenario(ctx context.Context, id int64) (*domain.Scenario, error) {
	var s domain.Scenario
	err := r.db.QueryRowContext(ctx,
		`SELECT id, network_id, name, description FROM scenarios WHERE id = ?`, id,
	).Scan(&s.ID, &s.NetworkID, &s.Name, &s.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("scenario %d: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query scenario: %w", err)
	}
	if err := r.loadScenarioData(ctx, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) listScenarios(ctx context.Context, networkID int64, ids []int64) ([]domain.Scenario, error) {
	query := `SELECT id, network_id, name, description FROM scenarios WHERE network_id = ?`
	args := []interface{}{networkID}
	if len(ids) > 0 {
		clause, idArgs := inClause(ids)
		query += ` AND id IN ` + clause
		args = append(args, idArgs...)
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenarios: %w", err)
	}
	scenarios := make([]domain.Scenario, 0)
	for rows.Next() {
		var s domain.Scenario
		if err := rows.Scan(&s.ID, &s.NetworkID, &s.Name, &s.Description); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}
		scenarios = append(scenarios, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scenarios: %w", err)
	}

	// rows must be closed first: an in-memory database has one connection
	for i := range scenarios {
		if err := r.loadScenarioData(ctx, &scenarios[i]); err != nil {
			return nil, err
		}
	}
	return scenarios, nil
}

func (r *Repository) loadScenarioData(ctx context.Context, s *domain.Scenario) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ref_key, ref_id, group_id FROM resource_group_items
		WHERE scenario_id = ? ORDER BY rowid
	`, s.ID)
	if err != nil {
		return fmt.Errorf("failed to query group items: %w", err)
	}
	s.ResourceGroupItems = make([]domain.GroupMember, 0)
	for rows.Next() {
		var (
			item   domain.GroupMember
			refKey string
		)
		if err := rows.Scan(&refKey, &item.RefID, &item.GroupID); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan group item: %w", err)
		}
		item.RefKey = domain.RefKind(refKey)
		s.ResourceGroupItems = append(s.ResourceGroupItems, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating group items: %w", err)
	}

	rows, err = r.db.QueryContext(ctx, `
		SELECT resource_attr_id, value FROM resource_scenarios
		WHERE scenario_id = ? ORDER BY resource_attr_id
	`, s.ID)
	if err != nil {
		return fmt.Errorf("failed to query resource scenarios: %w", err)
	}
	defer rows.Close()
	s.ResourceScenarios = make([]domain.ResourceScenario, 0)
	for rows.Next() {
		var rs domain.ResourceScenario
		if err := rows.Scan(&rs.ResourceAttrID, &rs.Value); err != nil {
			return fmt.Errorf("failed to scan resource scenario: %w", err)
		}
		s.ResourceScenarios = append(s.ResourceScenarios, rs)
	}
	return rows.Err()
}
