// internal/provision/provision.go
package provision

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/buildloom/loom-backend/internal/blueprint"
	"github.com/buildloom/loom-backend/internal/logger"
)

var customLog = logger.NewLogger()

// pgType maps blueprint column types to PostgreSQL types. Unknown types
// fall back to TEXT.
var pgType = map[string]string{
	"uuid":        "UUID",
	"text":        "TEXT",
	"int":         "INTEGER",
	"float":       "DOUBLE PRECISION",
	"bool":        "BOOLEAN",
	"date":        "DATE",
	"timestamptz": "TIMESTAMPTZ",
	"jsonb":       "JSONB",
}

// Provisioner creates and drops per-app schemas on the shared PostgreSQL
// instance.
type Provisioner struct {
	db *sql.DB
}

func NewProvisioner(db *sql.DB) *Provisioner {
	return &Provisioner{db: db}
}

// Provision creates the app schema with all declared tables inside one
// transaction. Tables are created in dependency order; foreign keys and
// row-level security are applied best-effort under savepoints so a single
// bad constraint never fails the whole schema.
func (p *Provisioner) Provision(ctx context.Context, schemaName string, doc *blueprint.Document) error {
	if err := validateSchemaName(schemaName); err != nil {
		return err
	}

	order, err := blueprint.TableOrder(doc.Tables(), doc.Relationships())
	if err != nil {
		return fmt.Errorf("cannot order tables: %w", err)
	}
	tablesByName := make(map[string]blueprint.TableSpec, len(doc.Tables()))
	for _, t := range doc.Tables() {
		tablesByName[t.Name] = t
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin provisioning transaction: %w", err)
	}
	defer tx.Rollback()

	customLog.Printf("Provision: Creating schema %s", schemaName)
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %q`, schemaName)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", schemaName, err)
	}

	for _, tableName := range order {
		table := tablesByName[tableName]
		if _, err := tx.ExecContext(ctx, createTableSQL(schemaName, table)); err != nil {
			return fmt.Errorf("failed to create table %s.%s: %w", schemaName, tableName, err)
		}
		for _, idx := range indexSQL(schemaName, table) {
			if _, err := tx.ExecContext(ctx, idx); err != nil {
				return fmt.Errorf("failed to create index on %s.%s: %w", schemaName, tableName, err)
			}
		}
	}

	// FKs in a second pass so creation order inside a pass never matters.
	for _, rel := range doc.Relationships() {
		if rel.Type != "many_to_one" {
			continue
		}
		p.bestEffort(ctx, tx, "fk_guard", addForeignKeySQL(schemaName, rel),
			fmt.Sprintf("FK %s.%s -> %s.%s", rel.FromTable, rel.OwningColumn(), rel.ToTable, rel.TargetColumn()))
	}

	for _, table := range doc.Tables() {
		p.bestEffort(ctx, tx, "rls_guard",
			fmt.Sprintf(`ALTER TABLE %q.%q ENABLE ROW LEVEL SECURITY`, schemaName, table.Name),
			fmt.Sprintf("RLS on %s.%s", schemaName, table.Name))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit provisioning transaction: %w", err)
	}
	customLog.Printf("Provision: Schema %s provisioned successfully (%d tables)", schemaName, len(order))
	return nil
}

// bestEffort runs one statement under a savepoint. A failure rolls back to
// the savepoint and logs a warning instead of poisoning the transaction.
func (p *Provisioner) bestEffort(ctx context.Context, tx *sql.Tx, savepoint, statement, label string) {
	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+savepoint); err != nil {
		customLog.Warnf("Provision: Could not set savepoint for %s: %v", label, err)
		return
	}
	if _, err := tx.ExecContext(ctx, statement); err != nil {
		customLog.Warnf("Provision: Skipping %s: %v", label, err)
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+savepoint); rbErr != nil {
			customLog.Warnf("Provision: Rollback to savepoint failed for %s: %v", label, rbErr)
		}
		return
	}
	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+savepoint); err != nil {
		customLog.Warnf("Provision: Could not release savepoint for %s: %v", label, err)
	}
}

// Drop removes an app schema and everything in it.
func (p *Provisioner) Drop(ctx context.Context, schemaName string) error {
	if err := validateSchemaName(schemaName); err != nil {
		return err
	}
	if _, err := p.db.ExecContext(ctx, fmt.Sprintf(`DROP SCHEMA IF EXISTS %q CASCADE`, schemaName)); err != nil {
		return fmt.Errorf("failed to drop schema %s: %w", schemaName, err)
	}
	customLog.Printf("Provision: Dropped schema %s", schemaName)
	return nil
}

// validateSchemaName rejects anything outside [A-Za-z0-9_]. Schema names
// are derived from app ids, so a failure here means a caller bug.
func validateSchemaName(name string) error {
	if name == "" {
		return fmt.Errorf("invalid schema name: empty")
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return fmt.Errorf("invalid schema name: %q", name)
		}
	}
	return nil
}

// createTableSQL builds the CREATE TABLE statement with the four system
// columns prepended to the declared ones.
func createTableSQL(schemaName string, table blueprint.TableSpec) string {
	columns := []string{
		"id UUID PRIMARY KEY DEFAULT gen_random_uuid()",
		"created_at TIMESTAMPTZ DEFAULT now()",
		"updated_at TIMESTAMPTZ DEFAULT now()",
		"created_by UUID",
	}
	for _, col := range table.Columns {
		columns = append(columns, columnSQL(col))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %q.%q (\n\t%s\n)",
		schemaName, table.Name, strings.Join(columns, ",\n\t"))
}

func columnSQL(col blueprint.ColumnSpec) string {
	typ, ok := pgType[col.Type]
	if !ok {
		typ = "TEXT"
	}
	parts := []string{fmt.Sprintf("%q", col.Name), typ}
	if col.Required {
		parts = append(parts, "NOT NULL")
	}
	if col.Unique {
		parts = append(parts, "UNIQUE")
	}
	if col.Default != nil {
		parts = append(parts, "DEFAULT "+defaultLiteral(col.Default))
	}
	return strings.Join(parts, " ")
}

// defaultLiteral renders a blueprint default value as a SQL literal.
// Strings are quoted, booleans and numbers are written bare.
func defaultLiteral(v any) string {
	switch val := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", val)
	}
}

func indexSQL(schemaName string, table blueprint.TableSpec) []string {
	var stmts []string
	for _, col := range table.Columns {
		if !col.Indexed {
			continue
		}
		idxName := fmt.Sprintf("idx_%s_%s", table.Name, col.Name)
		stmts = append(stmts, fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %q ON %q.%q (%q)`,
			idxName, schemaName, table.Name, col.Name))
	}
	return stmts
}

func addForeignKeySQL(schemaName string, rel blueprint.RelationshipSpec) string {
	constraint := fmt.Sprintf("fk_%s_%s", rel.FromTable, rel.OwningColumn())
	return fmt.Sprintf(`ALTER TABLE %q.%q ADD CONSTRAINT %q FOREIGN KEY (%q) REFERENCES %q.%q (%q)`,
		schemaName, rel.FromTable, constraint, rel.OwningColumn(), schemaName, rel.ToTable, rel.TargetColumn())
}
