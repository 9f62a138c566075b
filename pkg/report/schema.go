package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrSchemaViolation marks reports that fail structural validation.
var ErrSchemaViolation = errors.New("report: schema violation")

// reportSchema is the structural contract of the unified report.
// Consumers pin against these field names.
const reportSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": [
    "source", "sourceVersion", "analyzedAt", "project", "issues",
    "duplicateGroups", "functionClusters", "moduleGraph", "temporal", "errors"
  ],
  "properties": {
    "source": {"type": "string", "minLength": 1},
    "sourceVersion": {"type": "string"},
    "analyzedAt": {"type": "string", "format": "date-time"},
    "project": {
      "type": "object",
      "required": ["key", "path", "metrics"],
      "properties": {
        "key": {"type": "string"},
        "path": {"type": "string"},
        "metrics": {"type": "object"}
      }
    },
    "issues": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["id", "toolName", "ruleId", "severity"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "toolName": {"type": "string", "minLength": 1},
          "ruleId": {"type": "string"},
          "severity": {"enum": ["critical", "high", "medium", "low", "info"]},
          "line": {"type": "integer", "minimum": 0}
        }
      }
    },
    "duplicateGroups": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["id", "primary", "duplicates", "confidence"],
        "properties": {
          "id": {"type": "string"},
          "duplicates": {"type": "array", "minItems": 1}
        }
      }
    },
    "functionClusters": {"type": ["array", "null"]},
    "crossFunctionGroups": {"type": ["array", "null"]},
    "proximityGroups": {"type": ["array", "null"]},
    "moduleGraph": {
      "type": ["object", "null"],
      "properties": {
        "modules": {"type": ["array", "null"]},
        "dependencies": {"type": ["array", "null"]},
        "metrics": {"type": "object"}
      }
    },
    "architecturalViolations": {"type": ["array", "null"]},
    "dependencyClusters": {"type": ["array", "null"]},
    "temporal": {"type": ["object", "null"]},
    "errors": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["id", "kind", "message"],
        "properties": {
          "kind": {
            "enum": [
              "configuration", "adapter_unavailable", "parse",
              "timeout", "normalization", "fatal"
            ]
          }
        }
      }
    }
  }
}`

// Validate checks the report against the embedded schema and returns a
// joined description of every violation.
func Validate(r *Report) error {
	encoded, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(reportSchema),
		gojsonschema.NewBytesLoader(encoded),
	)
	if err != nil {
		return fmt.Errorf("validate report: %w", err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, violation := range result.Errors() {
		details = append(details, violation.String())
	}

	return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(details, "; "))
}
