// internal/blueprint/validate.go
package blueprint

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Identifier conventions. V1/V2 entities and columns are snake_case; V3
// entities are PascalCase with camelCase fields. App slugs share one
// pattern across versions.
var (
	snakePattern  = regexp.MustCompile(`^[a-z][a-z0-9_]{0,30}$`)
	pascalPattern = regexp.MustCompile(`^[A-Z][A-Za-z0-9]{0,62}$`)
	camelPattern  = regexp.MustCompile(`^[a-z][a-zA-Z0-9]{0,62}$`)
	slugPattern   = regexp.MustCompile(`^[a-z][a-z0-9-]{0,30}$`)
)

// Backend generator tags a V3 blueprint may declare.
var supportedGenerators = map[string]bool{
	"amplication": true,
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a raw blueprint document against the contract for the
// declared version. Structural validation (shape, required fields, enum
// values) aborts on first failure; semantic validation runs only on a
// structurally valid document and collects every error so a single repair
// round can fix all of them. The error strings are suitable for direct
// inclusion in a repair prompt. Pure function over its inputs.
func Validate(raw []byte, version Version) (bool, *Document, []string) {
	doc, errs := decode(raw, version)
	if len(errs) > 0 {
		return false, nil, errs
	}

	var semantic []string
	semantic = append(semantic, validateIdentifiers(doc)...)
	semantic = append(semantic, validateRelationships(doc)...)
	semantic = append(semantic, validateUI(doc)...)
	semantic = append(semantic, validatePermissions(doc)...)
	semantic = append(semantic, validateBackend(doc)...)
	semantic = append(semantic, validateAcyclic(doc)...)

	if len(semantic) > 0 {
		return false, doc, semantic
	}
	return true, doc, nil
}

// decode performs the structural step: the document must deserialize into
// the strongly-typed shape for the declared version.
func decode(raw []byte, version Version) (*Document, []string) {
	doc := &Document{Version: version}
	var target any
	switch version {
	case V1:
		doc.V1 = &BlueprintV1{}
		target = doc.V1
	case V2:
		doc.V2 = &BlueprintV2{}
		target = doc.V2
	case V3:
		doc.V3 = &BlueprintV3{}
		target = doc.V3
	default:
		return nil, []string{fmt.Sprintf("version: unsupported blueprint version %d", version)}
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return nil, []string{structuralError(err)}
	}
	if err := validate.Struct(target); err != nil {
		return nil, structuralErrors(err)
	}
	return doc, nil
}

func structuralError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("%s: expected %s, got %s", strings.ReplaceAll(typeErr.Field, ".", " -> "), typeErr.Type, typeErr.Value)
	}
	return fmt.Sprintf("document: invalid JSON: %v", err)
}

func structuralErrors(err error) []string {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{fmt.Sprintf("document: %v", err)}
	}
	out := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		path := strings.ReplaceAll(fe.Namespace(), ".", " -> ")
		switch fe.Tag() {
		case "required":
			out = append(out, fmt.Sprintf("%s: field is required", path))
		case "min":
			out = append(out, fmt.Sprintf("%s: must contain at least %s item(s)", path, fe.Param()))
		case "oneof":
			out = append(out, fmt.Sprintf("%s: '%v' is not one of [%s]", path, fe.Value(), fe.Param()))
		case "eq":
			out = append(out, fmt.Sprintf("%s: must equal %s (got %v)", path, fe.Param(), fe.Value()))
		default:
			out = append(out, fmt.Sprintf("%s: failed '%s' constraint", path, fe.Tag()))
		}
	}
	return out
}

func validateIdentifiers(doc *Document) []string {
	var errs []string

	if !slugPattern.MatchString(doc.App().Slug) {
		errs = append(errs, fmt.Sprintf("App slug '%s' must be lowercase with hyphens only", doc.App().Slug))
	}

	for _, table := range doc.Tables() {
		switch doc.Version {
		case V3:
			if !pascalPattern.MatchString(table.Name) {
				errs = append(errs, fmt.Sprintf("Entity name '%s' must be PascalCase", table.Name))
			}
			for _, col := range table.Columns {
				if !camelPattern.MatchString(col.Name) {
					errs = append(errs, fmt.Sprintf("Field name '%s' in entity '%s' must be camelCase", col.Name, table.Name))
				}
			}
		default:
			if !snakePattern.MatchString(table.Name) {
				errs = append(errs, fmt.Sprintf("Table name '%s' must be snake_case (lowercase, underscores)", table.Name))
			}
			for _, col := range table.Columns {
				if !snakePattern.MatchString(col.Name) {
					errs = append(errs, fmt.Sprintf("Column name '%s' in table '%s' must be snake_case", col.Name, table.Name))
				}
			}
		}
	}
	return errs
}

func validateRelationships(doc *Document) []string {
	var errs []string
	declared := tableSet(doc)
	for _, rel := range doc.Relationships() {
		if !declared[rel.FromTable] {
			errs = append(errs, fmt.Sprintf("Relationship references non-existent table '%s'", rel.FromTable))
		}
		if !declared[rel.ToTable] {
			errs = append(errs, fmt.Sprintf("Relationship references non-existent table '%s'", rel.ToTable))
		}
	}
	return errs
}

func validateUI(doc *Document) []string {
	var errs []string
	declared := tableSet(doc)

	if doc.Version == V1 {
		for _, res := range doc.V1.UI.Resources {
			if !declared[res.Table] {
				errs = append(errs, fmt.Sprintf("Resource '%s' references non-existent table '%s'", res.Name, res.Table))
			}
		}
		return errs
	}

	noun := "table"
	if doc.Version == V3 {
		noun = "entity"
	}
	for _, page := range doc.Pages() {
		for _, block := range page.Blocks {
			if block.DataSource == nil || block.DataSource.Target() == "" {
				continue
			}
			if !declared[block.DataSource.Target()] {
				errs = append(errs, fmt.Sprintf("Block '%s' in page '%s' references non-existent %s '%s'",
					block.ID, page.ID, noun, block.DataSource.Target()))
			}
		}
	}
	for _, modal := range doc.Modals() {
		for _, block := range modal.Blocks {
			if block.DataSource == nil || block.DataSource.Target() == "" {
				continue
			}
			if !declared[block.DataSource.Target()] {
				errs = append(errs, fmt.Sprintf("Block '%s' in modal '%s' references non-existent %s '%s'",
					block.ID, modal.ID, noun, block.DataSource.Target()))
			}
		}
	}
	return errs
}

func validatePermissions(doc *Document) []string {
	var errs []string
	declared := tableSet(doc)
	roles := make(map[string]bool)
	for _, r := range doc.RoleNames() {
		roles[r] = true
	}

	noun := "table"
	if doc.Version == V3 {
		noun = "entity"
	}
	for _, perm := range doc.Permissions() {
		if !roles[perm.Role] {
			errs = append(errs, fmt.Sprintf("Permission references non-existent role '%s'", perm.Role))
		}
		if !declared[perm.Target()] {
			errs = append(errs, fmt.Sprintf("Permission references non-existent %s '%s'", noun, perm.Target()))
		}
	}
	return errs
}

func validateBackend(doc *Document) []string {
	if doc.Version != V3 {
		return nil
	}
	if !supportedGenerators[doc.V3.Backend.Generator] {
		return []string{fmt.Sprintf("Backend generator '%s' is not supported", doc.V3.Backend.Generator)}
	}
	return nil
}

// validateAcyclic rejects dependency cycles at validation time, before any
// repair budget is spent; the provisioner keeps its own guard.
func validateAcyclic(doc *Document) []string {
	if _, err := TableOrder(doc.Tables(), doc.Relationships()); err != nil {
		return []string{err.Error()}
	}
	return nil
}

func tableSet(doc *Document) map[string]bool {
	set := make(map[string]bool)
	for _, t := range doc.Tables() {
		set[t.Name] = true
	}
	return set
}
