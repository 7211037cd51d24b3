package blueprint

import (
	"encoding/json"
	"strings"
	"testing"
)

func v3Doc(t *testing.T, mutate func(m map[string]any)) []byte {
	t.Helper()
	m := map[string]any{
		"version": 3,
		"app": map[string]any{
			"name":        "Todo App",
			"slug":        "todo-app",
			"description": "A simple todo app",
			"theme":       map[string]any{"primaryColor": "#3366ff", "mode": "dark"},
		},
		"backend": map[string]any{
			"generator": "amplication",
			"settings":  map[string]any{"generateREST": true},
			"auth":      map[string]any{"provider": "jwt"},
		},
		"data": map[string]any{
			"tables": []any{
				map[string]any{
					"name":       "Task",
					"primaryKey": "id",
					"columns": []any{
						map[string]any{"name": "title", "type": "text", "required": true},
						map[string]any{"name": "done", "type": "bool", "default": false},
					},
				},
			},
			"relationships": []any{},
		},
		"security": map[string]any{
			"roles": []any{map[string]any{"name": "Admin", "displayName": "Administrator"}},
			"permissions": []any{
				map[string]any{
					"role":    "Admin",
					"entity":  "Task",
					"actions": map[string]any{"create": true, "read": true, "update": true, "delete": true},
				},
			},
		},
		"ui": map[string]any{
			"navigation": []any{map[string]any{"name": "tasks", "label": "Tasks", "route": "/tasks"}},
			"pages": []any{
				map[string]any{
					"id":    "tasks",
					"route": "/tasks",
					"title": "Tasks",
					"blocks": []any{
						map[string]any{
							"id":         "task-board",
							"type":       "KANBAN",
							"dataSource": map[string]any{"entity": "Task"},
						},
					},
				},
			},
		},
	}
	if mutate != nil {
		mutate(m)
	}
	raw, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal test doc: %v", err)
	}
	return raw
}

func v2Doc(t *testing.T, mutate func(m map[string]any)) []byte {
	t.Helper()
	m := map[string]any{
		"version": 2,
		"app":     map[string]any{"name": "Inventory", "slug": "inventory"},
		"data": map[string]any{
			"tables": []any{
				map[string]any{
					"name": "item",
					"columns": []any{
						map[string]any{"name": "label", "type": "text", "required": true},
						map[string]any{"name": "quantity", "type": "int", "default": 0, "indexed": true},
					},
				},
				map[string]any{
					"name": "warehouse",
					"columns": []any{
						map[string]any{"name": "city", "type": "text", "unique": true},
					},
				},
			},
			"relationships": []any{
				map[string]any{
					"type":       "many_to_one",
					"fromTable":  "item",
					"fromColumn": "warehouse_id",
					"toTable":    "warehouse",
					"toColumn":   "id",
				},
			},
		},
		"security": map[string]any{
			"roles": []any{"Admin", "User"},
			"permissions": []any{
				map[string]any{
					"role":     "User",
					"resource": "item",
					"actions":  map[string]any{"list": true, "read": true, "create": false, "update": false, "delete": false},
				},
			},
		},
		"ui": map[string]any{
			"navigation": []any{},
			"pages": []any{
				map[string]any{
					"id": "items",
					"blocks": []any{
						map[string]any{
							"id":         "items-table",
							"type":       "TABLE",
							"dataSource": map[string]any{"table": "item"},
						},
					},
				},
			},
		},
	}
	if mutate != nil {
		mutate(m)
	}
	raw, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal test doc: %v", err)
	}
	return raw
}

func TestValidateValidV3(t *testing.T) {
	ok, doc, errs := Validate(v3Doc(t, nil), V3)
	if !ok {
		t.Fatalf("expected valid document, got errors: %v", errs)
	}
	if doc == nil || doc.Version != V3 || doc.V3 == nil {
		t.Fatal("expected a V3 document")
	}
	if doc.App().Name != "Todo App" || doc.App().Slug != "todo-app" {
		t.Errorf("unexpected app info: %+v", doc.App())
	}
	if len(doc.Tables()) != 1 || doc.Tables()[0].Name != "Task" {
		t.Errorf("unexpected tables: %+v", doc.Tables())
	}
	if got := doc.RoleNames(); len(got) != 1 || got[0] != "Admin" {
		t.Errorf("unexpected roles: %v", got)
	}
}

func TestValidateValidV2(t *testing.T) {
	ok, doc, errs := Validate(v2Doc(t, nil), V2)
	if !ok {
		t.Fatalf("expected valid document, got errors: %v", errs)
	}
	if len(doc.Tables()) != 2 {
		t.Errorf("expected 2 tables, got %d", len(doc.Tables()))
	}
}

func TestValidateStructuralFailures(t *testing.T) {
	testCases := []struct {
		name    string
		raw     []byte
		version Version
		wantSub string
	}{
		{"not json", []byte("kanban board please"), V3, "invalid JSON"},
		{"missing app section", v3Doc(t, func(m map[string]any) { delete(m, "app") }), V3, "required"},
		{"missing tables", v3Doc(t, func(m map[string]any) {
			m["data"] = map[string]any{"tables": []any{}}
		}), V3, "at least 1"},
		{"bad column type", v3Doc(t, func(m map[string]any) {
			tables := m["data"].(map[string]any)["tables"].([]any)
			cols := tables[0].(map[string]any)["columns"].([]any)
			cols[0].(map[string]any)["type"] = "varchar"
		}), V3, "not one of"},
		{"version mismatch", v3Doc(t, func(m map[string]any) { m["version"] = 2 }), V3, "must equal 3"},
		{"wrong primitive", v3Doc(t, func(m map[string]any) {
			tables := m["data"].(map[string]any)["tables"].([]any)
			cols := tables[0].(map[string]any)["columns"].([]any)
			cols[0].(map[string]any)["required"] = "yes"
		}), V3, "expected bool"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ok, doc, errs := Validate(tc.raw, tc.version)
			if ok {
				t.Fatal("expected structural failure")
			}
			if doc != nil {
				t.Error("structurally invalid documents must not be returned")
			}
			if len(errs) == 0 || !containsSub(errs, tc.wantSub) {
				t.Errorf("expected an error containing %q, got %v", tc.wantSub, errs)
			}
		})
	}
}

func TestValidateSemanticFailures(t *testing.T) {
	testCases := []struct {
		name    string
		raw     []byte
		version Version
		wantSub string
	}{
		{"lowercase v3 entity", v3Doc(t, func(m map[string]any) {
			tables := m["data"].(map[string]any)["tables"].([]any)
			tables[0].(map[string]any)["name"] = "task"
		}), V3, "Entity name 'task' must be PascalCase"},
		{"snake case v3 field", v3Doc(t, func(m map[string]any) {
			tables := m["data"].(map[string]any)["tables"].([]any)
			cols := tables[0].(map[string]any)["columns"].([]any)
			cols[0].(map[string]any)["name"] = "due_date"
		}), V3, "must be camelCase"},
		{"uppercase v2 table", v2Doc(t, func(m map[string]any) {
			tables := m["data"].(map[string]any)["tables"].([]any)
			tables[0].(map[string]any)["name"] = "Item"
		}), V2, "must be snake_case"},
		{"bad slug", v3Doc(t, func(m map[string]any) {
			m["app"].(map[string]any)["slug"] = "Todo App!"
		}), V3, "must be lowercase with hyphens only"},
		{"dangling relationship", v3Doc(t, func(m map[string]any) {
			m["data"].(map[string]any)["relationships"] = []any{
				map[string]any{"name": "project", "type": "many_to_one", "fromTable": "Task", "toTable": "Project"},
			}
		}), V3, "Relationship references non-existent table 'Project'"},
		{"dangling data source", v3Doc(t, func(m map[string]any) {
			pages := m["ui"].(map[string]any)["pages"].([]any)
			blocks := pages[0].(map[string]any)["blocks"].([]any)
			blocks[0].(map[string]any)["dataSource"] = map[string]any{"entity": "Ticket"}
		}), V3, "Block 'task-board' in page 'tasks' references non-existent entity 'Ticket'"},
		{"undeclared role", v3Doc(t, func(m map[string]any) {
			perms := m["security"].(map[string]any)["permissions"].([]any)
			perms[0].(map[string]any)["role"] = "Editor"
		}), V3, "Permission references non-existent role 'Editor'"},
		{"undeclared permission entity", v3Doc(t, func(m map[string]any) {
			perms := m["security"].(map[string]any)["permissions"].([]any)
			perms[0].(map[string]any)["entity"] = "Note"
		}), V3, "Permission references non-existent entity 'Note'"},
		{"unsupported generator", v3Doc(t, func(m map[string]any) {
			m["backend"].(map[string]any)["generator"] = "rails"
		}), V3, "Backend generator 'rails' is not supported"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ok, doc, errs := Validate(tc.raw, tc.version)
			if ok {
				t.Fatal("expected semantic failure")
			}
			if doc == nil {
				t.Fatal("semantic failures must still return the parsed document")
			}
			if !containsSub(errs, tc.wantSub) {
				t.Errorf("expected an error containing %q, got %v", tc.wantSub, errs)
			}
		})
	}
}

func TestValidateCollectsAllSemanticErrors(t *testing.T) {
	raw := v3Doc(t, func(m map[string]any) {
		tables := m["data"].(map[string]any)["tables"].([]any)
		tables[0].(map[string]any)["name"] = "task"
		perms := m["security"].(map[string]any)["permissions"].([]any)
		perms[0].(map[string]any)["role"] = "Editor"
	})
	ok, _, errs := Validate(raw, V3)
	if ok {
		t.Fatal("expected failure")
	}
	// One identifier error, one role error, plus the permission entity and
	// data source now dangling against the renamed entity.
	if !containsSub(errs, "must be PascalCase") || !containsSub(errs, "non-existent role 'Editor'") {
		t.Errorf("expected both errors collected, got %v", errs)
	}
}

func TestValidateRejectsCycle(t *testing.T) {
	raw := v2Doc(t, func(m map[string]any) {
		m["data"].(map[string]any)["relationships"] = []any{
			map[string]any{"type": "many_to_one", "fromTable": "item", "fromColumn": "warehouse_id", "toTable": "warehouse", "toColumn": "id"},
			map[string]any{"type": "many_to_one", "fromTable": "warehouse", "fromColumn": "item_id", "toTable": "item", "toColumn": "id"},
		}
	})
	ok, _, errs := Validate(raw, V2)
	if ok {
		t.Fatal("expected cycle to be rejected")
	}
	if !containsSub(errs, "circular dependency") {
		t.Errorf("expected circular dependency error, got %v", errs)
	}
}

func TestValidateExactlyOneIdentifierError(t *testing.T) {
	raw := v3Doc(t, func(m map[string]any) {
		tables := m["data"].(map[string]any)["tables"].([]any)
		tables[0].(map[string]any)["name"] = "task"
		// Keep references consistent so only the casing error remains.
		perms := m["security"].(map[string]any)["permissions"].([]any)
		perms[0].(map[string]any)["entity"] = "task"
		pages := m["ui"].(map[string]any)["pages"].([]any)
		blocks := pages[0].(map[string]any)["blocks"].([]any)
		blocks[0].(map[string]any)["dataSource"] = map[string]any{"entity": "task"}
	})
	ok, _, errs := Validate(raw, V3)
	if ok {
		t.Fatal("expected failure")
	}
	if len(errs) != 1 || !strings.Contains(errs[0], "PascalCase") {
		t.Errorf("expected exactly one identifier error, got %v", errs)
	}
}

func containsSub(errs []string, sub string) bool {
	for _, e := range errs {
		if strings.Contains(e, sub) {
			return true
		}
	}
	return false
}
