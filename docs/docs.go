// Package docs contiene la especificación Swagger de la API, embebida en el binario.
package docs

import _ "embed"

// SwaggerJSON especificación Swagger 2.0 servida en /docs.
//
//go:embed swagger.json
var SwaggerJSON []byte
