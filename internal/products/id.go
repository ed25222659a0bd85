package products

import (
	"strings"

	"github.com/google/uuid"
)

// IDLength is the length of generated product identifiers.
const IDLength = 10

// NewID returns a random opaque identifier of IDLength lowercase hex characters.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:IDLength]
}
