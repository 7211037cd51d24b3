package blueprint

import "testing"

func tablesNamed(names ...string) []TableSpec {
	out := make([]TableSpec, 0, len(names))
	for _, n := range names {
		out = append(out, TableSpec{Name: n, Columns: []ColumnSpec{{Name: "label", Type: "text"}}})
	}
	return out
}

func manyToOne(from, to string) RelationshipSpec {
	return RelationshipSpec{Type: "many_to_one", FromTable: from, FromColumn: to + "_id", ToTable: to, ToColumn: "id"}
}

func TestTableOrderRespectsDependencies(t *testing.T) {
	order, err := TableOrder(
		tablesNamed("a", "b", "c"),
		[]RelationshipSpec{manyToOne("a", "b"), manyToOne("b", "c")},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pos := make(map[string]int, len(order))
	for i, name := range order {
		pos[name] = i
	}
	if !(pos["c"] < pos["b"] && pos["b"] < pos["a"]) {
		t.Errorf("expected c before b before a, got %v", order)
	}
}

func TestTableOrderIndependentTables(t *testing.T) {
	order, err := TableOrder(tablesNamed("x", "y"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 2 {
		t.Errorf("expected both tables in order, got %v", order)
	}
}

func TestTableOrderIgnoresOneToMany(t *testing.T) {
	rel := RelationshipSpec{Type: "one_to_many", FromTable: "x", ToTable: "y"}
	order, err := TableOrder(tablesNamed("x", "y"), []RelationshipSpec{rel})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 2 {
		t.Errorf("expected both tables in order, got %v", order)
	}
}

func TestTableOrderDetectsCycle(t *testing.T) {
	_, err := TableOrder(
		tablesNamed("a", "b"),
		[]RelationshipSpec{manyToOne("a", "b"), manyToOne("b", "a")},
	)
	if err == nil {
		t.Fatal("expected circular dependency error")
	}
}

func TestOwningColumn(t *testing.T) {
	testCases := []struct {
		name string
		rel  RelationshipSpec
		want string
	}{
		{"explicit column", RelationshipSpec{FromColumn: "warehouse_id", ToTable: "warehouse"}, "warehouse_id"},
		{"named relationship", RelationshipSpec{Name: "project", ToTable: "Project"}, "projectId"},
		{"derived from target", RelationshipSpec{ToTable: "Project"}, "projectId"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.rel.OwningColumn(); got != tc.want {
				t.Errorf("OwningColumn() = %q; want %q", got, tc.want)
			}
		})
	}
}
