package catalog

import (
	"github.com/nlstn/go-catalog/internal/config"
	"github.com/nlstn/go-catalog/internal/importer"
	"github.com/nlstn/go-catalog/internal/index"
	"github.com/nlstn/go-catalog/internal/products"
)

// Re-export types from internal packages for the public API.
type (
	Product     = products.Product
	Item        = products.Item
	ListOptions = products.ListOptions
	ListResult  = products.ListResult
	GetOptions  = products.GetOptions

	CategoryNode     = index.CategoryNode
	ManufacturerNode = index.ManufacturerNode
	Snapshot         = index.Snapshot

	ImportResult = importer.Result

	Config = config.Config
)

// DefaultPageSize is the listing page size used when none is configured.
const DefaultPageSize = products.DefaultPageSize

// LoadConfig reads a YAML configuration file, applies CATALOG_* environment
// overrides and validates the result. An empty filename uses the defaults.
func LoadConfig(filename string) (*Config, error) {
	return config.Load(filename)
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return config.Default()
}
