// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package schema derives a JSON Schema and Markdown reference from a
// configuration struct. Field names come from yaml tags, descriptions from
// docdesc tags and allowed values from comma separated docenum tags. Non-zero
// field values of the struct passed in become the documented defaults.
package schema

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
)

const draft = "https://json-schema.org/draft/2020-12/schema"

// Field represents a field in a JSON schema.
type Field struct {
	Name        string
	Type        string
	Description string
	Enum        []string
	Default     any
	Items       string  // element type of arrays
	Properties  []Field // fields of objects, in declaration order
}

// Generator builds schemas from struct definitions.
type Generator struct{}

// NewGenerator creates a new Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Fields returns the schema fields of the struct v.
func (g *Generator) Fields(v any) ([]Field, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}

	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected struct type, got %s", rv.Kind())
	}

	return g.extractFields(rv), nil
}

// JSONSchema returns the schema document for v.
func (g *Generator) JSONSchema(title string, v any) (map[string]any, error) {
	fields, err := g.Fields(v)
	if err != nil {
		return nil, err
	}

	root := g.objectSchema(fields)
	root["$schema"] = draft
	root["title"] = title

	return root, nil
}

// WriteJSONSchema writes the indented schema document for v.
func (g *Generator) WriteJSONSchema(w io.Writer, title string, v any) error {
	doc, err := g.JSONSchema(title, v)
	if err != nil {
		return err
	}

	bytes, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	_, err = w.Write(append(bytes, '\n'))

	return err
}

// WriteMarkdown writes a reference table for v. Nested keys are dotted.
func (g *Generator) WriteMarkdown(w io.Writer, title string, v any) error {
	fields, err := g.Fields(v)
	if err != nil {
		return err
	}

	sb := strings.Builder{}
	sb.WriteString("# " + title + "\n\n")
	sb.WriteString("| Key | Type | Default | Description |\n")
	sb.WriteString("| --- | --- | --- | --- |\n")

	writeRows(&sb, "", fields)

	_, err = io.WriteString(w, sb.String())

	return err
}

func writeRows(sb *strings.Builder, prefix string, fields []Field) {
	for _, f := range fields {
		key := prefix + f.Name

		if f.Type == "object" && len(f.Properties) > 0 {
			writeRows(sb, key+".", f.Properties)
			continue
		}

		typ := f.Type
		if f.Items != "" {
			typ += " of " + f.Items
		}

		def := ""
		if f.Default != nil {
			def = fmt.Sprintf("`%v`", f.Default)
		}

		desc := f.Description
		if len(f.Enum) > 0 {
			desc += " (one of " + strings.Join(f.Enum, ", ") + ")"
		}

		fmt.Fprintf(sb, "| `%s` | %s | %s | %s |\n", key, typ, def, desc)
	}
}

func (g *Generator) objectSchema(fields []Field) map[string]any {
	properties := make(map[string]any, len(fields))

	for _, f := range fields {
		properties[f.Name] = g.property(f)
	}

	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
}

// property converts a Field to a JSON schema property.
func (g *Generator) property(f Field) map[string]any {
	if f.Type == "object" && len(f.Properties) > 0 {
		prop := g.objectSchema(f.Properties)
		if f.Description != "" {
			prop["description"] = f.Description
		}

		return prop
	}

	prop := map[string]any{
		"type": f.Type,
	}

	if f.Description != "" {
		prop["description"] = f.Description
	}

	if f.Default != nil {
		prop["default"] = f.Default
	}

	if len(f.Enum) > 0 {
		prop["enum"] = f.Enum
	}

	if f.Items != "" {
		prop["items"] = map[string]any{"type": f.Items}
	}

	return prop
}

// extractFields extracts schema fields from a struct value using reflection.
func (g *Generator) extractFields(v reflect.Value) []Field {
	t := v.Type()

	var fields []Field

	for i := range t.NumField() {
		sf := t.Field(i)

		// Skip unexported fields
		if !sf.IsExported() {
			continue
		}

		if f, ok := g.toField(sf, v.Field(i)); ok {
			fields = append(fields, f)
		}
	}

	return fields
}

// toField converts a struct field to a Field. Fields tagged yaml:"-" are skipped.
func (g *Generator) toField(sf reflect.StructField, v reflect.Value) (Field, bool) {
	yamlTag := sf.Tag.Get("yaml")
	if yamlTag == "-" {
		return Field{}, false
	}

	name := strings.ToLower(sf.Name)
	if n, _, _ := strings.Cut(yamlTag, ","); n != "" {
		name = n
	}

	f := Field{
		Name:        name,
		Type:        g.schemaType(sf.Type),
		Description: sf.Tag.Get("docdesc"),
	}

	if enum := sf.Tag.Get("docenum"); enum != "" {
		f.Enum = strings.Split(enum, ",")
	}

	switch {
	case sf.Type.Kind() == reflect.Struct:
		f.Properties = g.extractFields(v)
	case f.Type == "array":
		f.Items = g.schemaType(sf.Type.Elem())
	case !v.IsZero():
		f.Default = v.Interface()
	}

	return f, true
}

// schemaType converts a Go type to a JSON schema type.
func (g *Generator) schemaType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Ptr:
		return g.schemaType(t.Elem())
	default:
		return "string" // Default fallback
	}
}
