// Package docs serves the hand-maintained OpenAPI 2.0 description of the
// HTTP API. Edit swagger.json alongside handler changes; it is embedded at
// build time and registered with swag so /docs/ can render it.
package docs

import (
	_ "embed"

	"github.com/swaggo/swag"
)

//go:embed swagger.json
var spec string

type doc struct{}

func (doc) ReadDoc() string { return spec }

func init() {
	swag.Register(swag.Name, doc{})
}
