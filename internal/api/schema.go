package api

import (
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const annotationSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["datasetId", "shape", "channel", "location", "coordinates"],
	"properties": {
		"datasetId": {"type": "string", "minLength": 1},
		"shape": {"type": "string", "enum": ["point", "line", "polygon", "rectangle"]},
		"channel": {"type": "integer", "minimum": 0},
		"location": {
			"type": "object",
			"required": ["XY", "Z", "Time"],
			"properties": {
				"XY": {"type": "integer", "minimum": 0},
				"Z": {"type": "integer", "minimum": 0},
				"Time": {"type": "integer", "minimum": 0}
			}
		},
		"coordinates": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["x", "y"],
				"properties": {
					"x": {"type": "number"},
					"y": {"type": "number"},
					"z": {"type": "number"}
				}
			}
		},
		"tags": {"type": "array", "items": {"type": "string"}}
	}
}`

// annotationValidator checks annotation bodies posted by workers.
var annotationValidator = jsonschema.MustCompileString("annotation.json", annotationSchema)
