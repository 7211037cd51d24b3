// internal/blueprint/schema.go
package blueprint

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Version tags which structural contract a Blueprint document follows.
// Versions are not interchangeable: field names, naming conventions and
// section shapes differ per version.
type Version int

const (
	V1 Version = 1
	V2 Version = 2
	V3 Version = 3
)

// ParseVersion validates a raw integer version tag.
func ParseVersion(v int) (Version, error) {
	switch Version(v) {
	case V1, V2, V3:
		return Version(v), nil
	}
	return 0, fmt.Errorf("unsupported blueprint version %d", v)
}

// ColumnSpec is a single user-declared column. The shape is identical
// across all blueprint versions.
type ColumnSpec struct {
	Name     string `json:"name" validate:"required"`
	Type     string `json:"type" validate:"required,oneof=uuid text int float bool date timestamptz jsonb"`
	Required bool   `json:"required"`
	Default  any    `json:"default,omitempty"`
	Unique   bool   `json:"unique"`
	Indexed  bool   `json:"indexed"`
}

// TableSpec is an entity definition. DisplayName is only populated by V3
// documents.
type TableSpec struct {
	Name        string       `json:"name" validate:"required"`
	DisplayName string       `json:"displayName,omitempty"`
	PrimaryKey  string       `json:"primaryKey,omitempty"`
	Columns     []ColumnSpec `json:"columns" validate:"required,min=1,dive"`
}

// RelationshipSpec is a directed edge between entities. V1/V2 name the
// owning and target columns explicitly; V3 names the relationship and the
// owning column is derived.
type RelationshipSpec struct {
	Name              string `json:"name,omitempty"`
	Type              string `json:"type" validate:"required,oneof=many_to_one one_to_many"`
	FromTable         string `json:"fromTable" validate:"required"`
	FromColumn        string `json:"fromColumn,omitempty"`
	ToTable           string `json:"toTable" validate:"required"`
	ToColumn          string `json:"toColumn,omitempty"`
	LookupLabelColumn string `json:"lookupLabelColumn,omitempty"`
}

// OwningColumn resolves the foreign-key column on the owning (from) side.
func (r RelationshipSpec) OwningColumn() string {
	if r.FromColumn != "" {
		return r.FromColumn
	}
	if r.Name != "" {
		return r.Name + "Id"
	}
	return strings.ToLower(r.ToTable[:1]) + r.ToTable[1:] + "Id"
}

// TargetColumn resolves the referenced column on the target (to) side.
func (r RelationshipSpec) TargetColumn() string {
	if r.ToColumn != "" {
		return r.ToColumn
	}
	return "id"
}

// FilterExpression is a V1/V2 row-level filter tree.
type FilterExpression struct {
	Equals []string            `json:"equals,omitempty"`
	In     []string            `json:"in,omitempty"`
	And    []*FilterExpression `json:"and,omitempty"`
	Or     []*FilterExpression `json:"or,omitempty"`
}

// RowFilterRule binds a filter expression to a role/resource pair (V1/V2).
type RowFilterRule struct {
	Role     string           `json:"role" validate:"required"`
	Resource string           `json:"resource" validate:"required"`
	Filter   FilterExpression `json:"filter"`
}

// Theme is the visual configuration of the generated app.
type Theme struct {
	PrimaryColor string `json:"primaryColor,omitempty"`
	Mode         string `json:"mode,omitempty"`
}

// AppInfo describes the application itself.
type AppInfo struct {
	Name        string `json:"name" validate:"required"`
	Slug        string `json:"slug" validate:"required"`
	Description string `json:"description,omitempty"`
	Theme       *Theme `json:"theme,omitempty"`
}

// DataSpec holds the entity and relationship declarations.
type DataSpec struct {
	Tables        []TableSpec        `json:"tables" validate:"required,min=1,dive"`
	Relationships []RelationshipSpec `json:"relationships,omitempty" validate:"dive"`
}

// PermissionRule binds a role to an entity with per-action allow flags.
// V1/V2 use the "resource" key (with a "list" action); V3 uses "entity".
type PermissionRule struct {
	Role     string          `json:"role" validate:"required"`
	Resource string          `json:"resource,omitempty"`
	Entity   string          `json:"entity,omitempty"`
	Actions  map[string]bool `json:"actions" validate:"required"`
}

// Target returns whichever of resource/entity the rule references.
func (p PermissionRule) Target() string {
	if p.Entity != "" {
		return p.Entity
	}
	return p.Resource
}

// SecurityLegacy is the V1/V2 security section: plain string roles plus
// optional row filters.
type SecurityLegacy struct {
	Roles       []string         `json:"roles" validate:"required,min=1"`
	Permissions []PermissionRule `json:"permissions" validate:"dive"`
	RowFilters  []RowFilterRule  `json:"rowFilters,omitempty" validate:"dive"`
}

// RoleSpec is a structured V3 role.
type RoleSpec struct {
	Name        string `json:"name" validate:"required"`
	DisplayName string `json:"displayName,omitempty"`
}

// SecurityV3 is the V3 security section with structured roles.
type SecurityV3 struct {
	Roles       []RoleSpec       `json:"roles" validate:"required,min=1,dive"`
	Permissions []PermissionRule `json:"permissions" validate:"dive"`
}

// BackendSpec selects the code generator for a V3 app backend.
type BackendSpec struct {
	Generator string          `json:"generator" validate:"required"`
	Settings  json.RawMessage `json:"settings,omitempty"`
	Auth      json.RawMessage `json:"auth,omitempty"`
}

// NavItem is a node in the navigation tree.
type NavItem struct {
	Name     string    `json:"name" validate:"required"`
	Label    string    `json:"label,omitempty"`
	Icon     string    `json:"icon,omitempty"`
	Route    string    `json:"route,omitempty"`
	Children []NavItem `json:"children,omitempty"`
}

// DataSource binds a block to an entity. V2 uses the "table" key, V3 uses
// "entity"; filters/ordering/includes are passed through untyped.
type DataSource struct {
	Table   string          `json:"table,omitempty"`
	Entity  string          `json:"entity,omitempty"`
	Filters json.RawMessage `json:"filters,omitempty"`
	OrderBy json.RawMessage `json:"orderBy,omitempty"`
	Include json.RawMessage `json:"include,omitempty"`
}

// Target returns whichever of table/entity the data source references.
func (d DataSource) Target() string {
	if d.Entity != "" {
		return d.Entity
	}
	return d.Table
}

// ActionBinding maps a UI trigger to an effect.
type ActionBinding struct {
	Trigger string          `json:"trigger" validate:"required"`
	Action  string          `json:"action" validate:"required"`
	Config  json.RawMessage `json:"config,omitempty"`
}

// Block is a typed UI building block (table, form, kanban, calendar, ...).
// Props are block-specific and stay opaque to the control plane.
type Block struct {
	ID         string          `json:"id" validate:"required"`
	Type       string          `json:"type" validate:"required"`
	DataSource *DataSource     `json:"dataSource,omitempty"`
	Props      json.RawMessage `json:"props,omitempty"`
	Actions    []ActionBinding `json:"actions,omitempty" validate:"dive"`
}

// Page composes blocks under a route.
type Page struct {
	ID     string          `json:"id" validate:"required"`
	Route  string          `json:"route,omitempty"`
	Title  string          `json:"title,omitempty"`
	Icon   string          `json:"icon,omitempty"`
	Layout json.RawMessage `json:"layout,omitempty"`
	Blocks []Block         `json:"blocks" validate:"dive"`
}

// Modal is a page-like overlay (V2/V3).
type Modal struct {
	ID     string  `json:"id" validate:"required"`
	Title  string  `json:"title,omitempty"`
	Size   string  `json:"size,omitempty"`
	Blocks []Block `json:"blocks,omitempty" validate:"dive"`
}

// ResourceSpec is the V1 UI unit: a CRUD surface bound to a table.
// View/list/form configuration is carried opaquely.
type ResourceSpec struct {
	Name  string          `json:"name" validate:"required"`
	Table string          `json:"table" validate:"required"`
	Label string          `json:"label,omitempty"`
	Views map[string]bool `json:"views,omitempty"`
	List  json.RawMessage `json:"list,omitempty"`
	Forms json.RawMessage `json:"forms,omitempty"`
}

// UIResources is the V1 UI section.
type UIResources struct {
	Navigation []NavItem       `json:"navigation" validate:"dive"`
	Resources  []ResourceSpec  `json:"resources" validate:"required,min=1,dive"`
	Pages      json.RawMessage `json:"pages,omitempty"`
}

// UIPages is the V2/V3 UI section.
type UIPages struct {
	Navigation []NavItem `json:"navigation" validate:"dive"`
	Pages      []Page    `json:"pages" validate:"required,min=1,dive"`
	Modals     []Modal   `json:"modals,omitempty" validate:"dive"`
}

// BlueprintV1 is the original contract: snake_case tables, string roles,
// resource-centric UI.
type BlueprintV1 struct {
	Version  int            `json:"version" validate:"eq=1"`
	App      AppInfo        `json:"app" validate:"required"`
	Data     DataSpec       `json:"data" validate:"required"`
	Security SecurityLegacy `json:"security" validate:"required"`
	UI       UIResources    `json:"ui" validate:"required"`
}

// BlueprintV2 keeps V1 naming and security but composes the UI from typed
// blocks on pages.
type BlueprintV2 struct {
	Version  int            `json:"version" validate:"eq=2"`
	App      AppInfo        `json:"app" validate:"required"`
	Data     DataSpec       `json:"data" validate:"required"`
	Security SecurityLegacy `json:"security" validate:"required"`
	UI       UIPages        `json:"ui" validate:"required"`
}

// BlueprintV3 switches to PascalCase entities / camelCase fields,
// structured roles, and declares a backend code generator.
type BlueprintV3 struct {
	Version  int         `json:"version" validate:"eq=3"`
	App      AppInfo     `json:"app" validate:"required"`
	Backend  BackendSpec `json:"backend" validate:"required"`
	Data     DataSpec    `json:"data" validate:"required"`
	Security SecurityV3  `json:"security" validate:"required"`
	UI       UIPages     `json:"ui" validate:"required"`
}

// Document is the tagged union over the three blueprint contracts. Exactly
// one of V1/V2/V3 is non-nil, selected by Version.
type Document struct {
	Version Version
	V1      *BlueprintV1
	V2      *BlueprintV2
	V3      *BlueprintV3
}

// App returns the version-independent app section.
func (d *Document) App() AppInfo {
	switch d.Version {
	case V1:
		return d.V1.App
	case V2:
		return d.V2.App
	}
	return d.V3.App
}

// Tables returns the declared entities.
func (d *Document) Tables() []TableSpec {
	switch d.Version {
	case V1:
		return d.V1.Data.Tables
	case V2:
		return d.V2.Data.Tables
	}
	return d.V3.Data.Tables
}

// Relationships returns the declared entity edges.
func (d *Document) Relationships() []RelationshipSpec {
	switch d.Version {
	case V1:
		return d.V1.Data.Relationships
	case V2:
		return d.V2.Data.Relationships
	}
	return d.V3.Data.Relationships
}

// RoleNames returns declared role names regardless of role shape.
func (d *Document) RoleNames() []string {
	switch d.Version {
	case V1:
		return d.V1.Security.Roles
	case V2:
		return d.V2.Security.Roles
	}
	names := make([]string, 0, len(d.V3.Security.Roles))
	for _, r := range d.V3.Security.Roles {
		names = append(names, r.Name)
	}
	return names
}

// Permissions returns the declared permission rules.
func (d *Document) Permissions() []PermissionRule {
	switch d.Version {
	case V1:
		return d.V1.Security.Permissions
	case V2:
		return d.V2.Security.Permissions
	}
	return d.V3.Security.Permissions
}

// Pages returns the block-composed pages; empty for V1 documents, whose UI
// is resource-centric.
func (d *Document) Pages() []Page {
	switch d.Version {
	case V2:
		return d.V2.UI.Pages
	case V3:
		return d.V3.UI.Pages
	}
	return nil
}

// Modals returns the declared modals (V2/V3).
func (d *Document) Modals() []Modal {
	switch d.Version {
	case V2:
		return d.V2.UI.Modals
	case V3:
		return d.V3.UI.Modals
	}
	return nil
}

// GeneratorTag returns the V3 backend generator tag, or "" for other
// versions.
func (d *Document) GeneratorTag() string {
	if d.Version == V3 {
		return d.V3.Backend.Generator
	}
	return ""
}
