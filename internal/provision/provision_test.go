// internal/provision/provision_test.go
package provision

import (
	"strings"
	"testing"

	"github.com/buildloom/loom-backend/internal/blueprint"
)

func TestValidateSchemaName(t *testing.T) {
	tests := []struct {
		name    string
		schema  string
		wantErr bool
	}{
		{"derived name", "app_1a2b3c4d5e6f", false},
		{"underscores and digits", "app_000000000000", false},
		{"empty", "", true},
		{"quote injection", `app_x"; DROP SCHEMA public; --`, true},
		{"hyphen", "app-x", true},
		{"space", "app x", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validateSchemaName(tc.schema)
			if tc.wantErr && err == nil {
				t.Errorf("expected error for schema name %q", tc.schema)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error for schema name %q: %v", tc.schema, err)
			}
		})
	}
}

func TestCreateTableSQLSystemColumns(t *testing.T) {
	table := blueprint.TableSpec{
		Name: "tasks",
		Columns: []blueprint.ColumnSpec{
			{Name: "title", Type: "text", Required: true},
			{Name: "done", Type: "bool", Default: false},
		},
	}
	sql := createTableSQL("app_abc", table)

	for _, want := range []string{
		`CREATE TABLE IF NOT EXISTS "app_abc"."tasks"`,
		"id UUID PRIMARY KEY DEFAULT gen_random_uuid()",
		"created_at TIMESTAMPTZ DEFAULT now()",
		"updated_at TIMESTAMPTZ DEFAULT now()",
		"created_by UUID",
		`"title" TEXT NOT NULL`,
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("expected %q in:\n%s", want, sql)
		}
	}

	// System columns must come before user columns.
	if strings.Index(sql, "created_by UUID") > strings.Index(sql, `"title"`) {
		t.Error("system columns should precede user-defined columns")
	}
}

func TestColumnSQLDefaults(t *testing.T) {
	tests := []struct {
		name     string
		col      blueprint.ColumnSpec
		expected string
	}{
		{"string default quoted", blueprint.ColumnSpec{Name: "status", Type: "text", Default: "todo"}, `"status" TEXT DEFAULT 'todo'`},
		{"string default escaped", blueprint.ColumnSpec{Name: "note", Type: "text", Default: "it's"}, `"note" TEXT DEFAULT 'it''s'`},
		{"bool default bare", blueprint.ColumnSpec{Name: "done", Type: "bool", Default: false}, `"done" BOOLEAN DEFAULT false`},
		{"number default bare", blueprint.ColumnSpec{Name: "priority", Type: "int", Default: float64(3)}, `"priority" INTEGER DEFAULT 3`},
		{"unique", blueprint.ColumnSpec{Name: "email", Type: "text", Unique: true}, `"email" TEXT UNIQUE`},
		{"unknown type falls back to text", blueprint.ColumnSpec{Name: "blob", Type: "mystery"}, `"blob" TEXT`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := columnSQL(tc.col); got != tc.expected {
				t.Errorf("columnSQL = %q, want %q", got, tc.expected)
			}
		})
	}
}

func TestIndexSQLOnlyIndexedColumns(t *testing.T) {
	table := blueprint.TableSpec{
		Name: "tasks",
		Columns: []blueprint.ColumnSpec{
			{Name: "title", Type: "text"},
			{Name: "project_id", Type: "uuid", Indexed: true},
		},
	}
	stmts := indexSQL("app_abc", table)
	if len(stmts) != 1 {
		t.Fatalf("expected 1 index statement, got %d", len(stmts))
	}
	if !strings.Contains(stmts[0], `"idx_tasks_project_id"`) {
		t.Errorf("unexpected index statement: %s", stmts[0])
	}
}

func TestAddForeignKeySQLDerivesOwningColumn(t *testing.T) {
	// V3 relationships omit fromColumn; the owning column comes from the
	// relationship name.
	rel := blueprint.RelationshipSpec{
		Name:      "project",
		Type:      "many_to_one",
		FromTable: "Task",
		ToTable:   "Project",
	}
	sql := addForeignKeySQL("app_abc", rel)
	for _, want := range []string{
		`ALTER TABLE "app_abc"."Task"`,
		`ADD CONSTRAINT "fk_Task_projectId"`,
		`FOREIGN KEY ("projectId")`,
		`REFERENCES "app_abc"."Project" ("id")`,
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("expected %q in %s", want, sql)
		}
	}
}
