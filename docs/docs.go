// Package docs embeds the OpenAPI description served at /docs/swagger.yml.
package docs

import _ "embed"

//go:embed swagger.yml
var SwaggerYAML []byte
