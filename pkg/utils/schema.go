package utils

import "github.com/invopop/jsonschema"

// GenerateSchema builds a strict JSON schema for T, suitable for an
// OpenAI-compatible structured-output response_format. Additional
// properties are disallowed and definitions are inlined rather than
// referenced, since the vision adapter submits the schema as a single
// self-contained document.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	var v T

	return reflector.Reflect(v)
}
