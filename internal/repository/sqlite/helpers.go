package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"hydraimport/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// ============================================================================
// JSON Marshaling Helpers
// ============================================================================

// unmarshalJSONField safely unmarshals JSON from nullable string into target
func unmarshalJSONField(ns sql.NullString, target interface{}) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// marshalToNull marshals a slice to nullable JSON string
// Returns empty NullString for nil or empty slices
func marshalToNull[T any](v []T) (sql.NullString, error) {
	if len(v) == 0 {
		return sql.NullString{}, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// inClause returns "(?, ?, ?)" and the matching arguments
func inClause(ids []int64) (string, []interface{}) {
	marks := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args[i] = id
	}
	return "(" + strings.Join(marks, ", ") + ")", args
}

// ============================================================================
// Resource Row Scanner
// ============================================================================
//
// Nodes, links and groups share the id, name, description, types and
// attributes columns. Links add node_1_id and node_2_id; nodes add x and y.

// resourceRow holds the shared columns of a resource query
type resourceRow struct {
	ID             int64
	Name           string
	Description    string
	TypesJSON      sql.NullString
	AttributesJSON sql.NullString
}

// scanArgs returns pointers to the shared fields for sql.Scan()
// MUST match resourceColumns order exactly:
// id, name, description, types, attributes
func (r *resourceRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,             // 1
		&r.Name,           // 2
		&r.Description,    // 3
		&r.TypesJSON,      // 4
		&r.AttributesJSON, // 5
	}
}

// decode unmarshals the JSON columns. Missing values become empty slices.
func (r *resourceRow) decode() ([]domain.TypeBinding, []domain.ResourceAttribute, error) {
	types := make([]domain.TypeBinding, 0)
	if err := unmarshalJSONField(r.TypesJSON, &types); err != nil {
		return nil, nil, fmt.Errorf("unmarshal types: %w", err)
	}
	attrs := make([]domain.ResourceAttribute, 0)
	if err := unmarshalJSONField(r.AttributesJSON, &attrs); err != nil {
		return nil, nil, fmt.Errorf("unmarshal attributes: %w", err)
	}
	return types, attrs, nil
}

// resourceColumns returns the SELECT column list shared by resource queries
const resourceColumns = `id, name, description, types, attributes`

// resourceInsertArgs returns the JSON columns for an insert
func resourceInsertArgs(types []domain.TypeBinding, attrs []domain.ResourceAttribute) (sql.NullString, sql.NullString, error) {
	typesJSON, err := marshalToNull(types)
	if err != nil {
		return sql.NullString{}, sql.NullString{}, fmt.Errorf("marshal types: %w", err)
	}
	attrsJSON, err := marshalToNull(attrs)
	if err != nil {
		return sql.NullString{}, sql.NullString{}, fmt.Errorf("marshal attributes: %w", err)
	}
	return typesJSON, attrsJSON, nil
}
