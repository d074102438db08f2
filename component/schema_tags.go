package component

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/c360/outlander/errors"
)

// SchemaDirectives is a parsed `schema:"..."` struct tag.
//
//	Port int `json:"port" schema:"type:int,description:Listen port,min:1,max:65535,default:8090"`
type SchemaDirectives struct {
	Type        string
	Description string
	Category    string // "basic" or "advanced"
	Default     any    // raw string until GenerateConfigSchema converts it
	Required    bool
	Min         *int
	Max         *int
	Enum        []string
}

var schemaTypes = []string{"string", "int", "bool", "float", "enum", "array", "object", "ports"}

// ParseSchemaTag parses comma-separated directives. Flags have no colon;
// enum values are pipe-separated. The type directive is required.
func ParseSchemaTag(tag string) (SchemaDirectives, error) {
	var directives SchemaDirectives

	if tag == "" {
		return directives, errors.WrapInvalid(fmt.Errorf("empty schema tag"),
			"SchemaTag", "ParseSchemaTag", "tag validation")
	}

	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, value, hasValue := strings.Cut(part, ":")
		if !hasValue {
			if part != "required" {
				return directives, errors.WrapInvalid(fmt.Errorf("unknown flag: %s", part),
					"SchemaTag", "ParseSchemaTag", "flag parsing")
			}
			directives.Required = true
			continue
		}

		if err := applyDirective(&directives, strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return directives, err
		}
	}

	if directives.Type == "" {
		return directives, errors.WrapInvalid(fmt.Errorf("type directive is required"),
			"SchemaTag", "ParseSchemaTag", "required field validation")
	}
	return directives, nil
}

func applyDirective(d *SchemaDirectives, key, value string) error {
	if value == "" {
		return errors.WrapInvalid(fmt.Errorf("empty value for directive: %s", key),
			"SchemaTag", "applyDirective", "value validation")
	}

	switch key {
	case "type":
		if !slices.Contains(schemaTypes, value) {
			return errors.WrapInvalid(fmt.Errorf("invalid type: %s", value),
				"SchemaTag", "applyDirective", "type validation")
		}
		d.Type = value
	case "description":
		d.Description = value
	case "category":
		if value != "basic" && value != "advanced" {
			return errors.WrapInvalid(fmt.Errorf("invalid category: %s", value),
				"SchemaTag", "applyDirective", "category validation")
		}
		d.Category = value
	case "default":
		d.Default = value
	case "min", "max":
		n, err := strconv.Atoi(value)
		if err != nil {
			return errors.WrapInvalid(fmt.Errorf("invalid %s value: %s", key, value),
				"SchemaTag", "applyDirective", key+" parsing")
		}
		if key == "min" {
			d.Min = &n
		} else {
			d.Max = &n
		}
	case "enum":
		d.Enum = strings.Split(value, "|")
		for i := range d.Enum {
			d.Enum[i] = strings.TrimSpace(d.Enum[i])
		}
	default:
		return errors.WrapInvalid(fmt.Errorf("unknown directive: %s", key),
			"SchemaTag", "applyDirective", "directive validation")
	}
	return nil
}

// GenerateConfigSchema builds a ConfigSchema from the json and schema tags of
// a config struct. Fields without both tags, or with an invalid schema tag,
// are skipped. Call it once into a package variable.
func GenerateConfigSchema(configType reflect.Type) ConfigSchema {
	schema := ConfigSchema{
		Properties: make(map[string]PropertySchema),
		Required:   []string{},
	}

	if configType.Kind() == reflect.Ptr {
		configType = configType.Elem()
	}
	if configType.Kind() != reflect.Struct {
		return schema
	}

	for i := 0; i < configType.NumField(); i++ {
		field := configType.Field(i)

		fieldName, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if fieldName == "" || fieldName == "-" {
			continue
		}

		schemaTag := field.Tag.Get("schema")
		if schemaTag == "" {
			continue
		}
		directives, err := ParseSchemaTag(schemaTag)
		if err != nil {
			continue
		}

		description := directives.Description
		if description == "" {
			description = fieldName
		}

		schema.Properties[fieldName] = PropertySchema{
			Type:        directives.Type,
			Description: description,
			Category:    directives.Category,
			Default:     convertDefault(directives.Default, directives.Type),
			Minimum:     directives.Min,
			Maximum:     directives.Max,
			Enum:        directives.Enum,
		}
		if directives.Required {
			schema.Required = append(schema.Required, fieldName)
		}
	}

	return schema
}

func convertDefault(value any, fieldType string) any {
	valueStr, ok := value.(string)
	if !ok {
		return value
	}

	switch fieldType {
	case "int":
		if n, err := strconv.Atoi(valueStr); err == nil {
			return n
		}
		return nil
	case "bool":
		if b, err := strconv.ParseBool(valueStr); err == nil {
			return b
		}
		return nil
	case "float":
		if f, err := strconv.ParseFloat(valueStr, 64); err == nil {
			return f
		}
		return nil
	case "array":
		return []string{valueStr}
	case "object", "ports":
		return nil
	default:
		return valueStr
	}
}
