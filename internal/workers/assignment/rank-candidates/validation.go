// internal/workers/assignment/rank-candidates/validation.go
package rankcandidates

import (
	"dispatch-workers/internal/common/errors"
	"dispatch-workers/internal/common/validation"
)

// inputSchema guards the ranking envelope before it reaches the engine:
// the job must carry coordinates, schedule and org; the priority order,
// when present, must be 1-3 unique known factors.
var inputSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"job", "candidates"},
	"properties": map[string]interface{}{
		"job": map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"lat", "lng", "scheduledDate", "scheduledTime", "organizationId"},
			"properties": map[string]interface{}{
				"lat":                      map[string]interface{}{"type": "number"},
				"lng":                      map[string]interface{}{"type": "number"},
				"scheduledDate":            map[string]interface{}{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
				"scheduledTime":            map[string]interface{}{"type": "string", "pattern": `^\d{2}:\d{2}$`},
				"organizationId":           map[string]interface{}{"type": "string", "minLength": 1},
				"estimatedDurationMinutes": map[string]interface{}{"type": "integer", "minimum": 0},
				"mediaTypes":               map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
			},
		},
		"candidates": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"id"},
			},
		},
		"priorityOrder": map[string]interface{}{
			"type":        "array",
			"minItems":    1,
			"maxItems":    3,
			"uniqueItems": true,
			"items": map[string]interface{}{
				"type": "string",
				"enum": []interface{}{"availability", "distance", "score"},
			},
		},
	},
}

func validateInput(document map[string]interface{}) error {
	result, err := validation.ValidateAgainstSchema(document, inputSchema)
	if err != nil {
		return errors.NewValidationError(err.Error())
	}
	if !result.Valid {
		return errors.NewValidationError(result.ErrorSummary())
	}
	return nil
}
