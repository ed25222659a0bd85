// Package importer loads products in bulk from delimited text and XML feeds.
package importer

import (
	"strings"

	"github.com/nlstn/go-catalog/internal/products"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// record is one product as it appears in a feed. Every field is kept as
// text so a malformed value fails validation for that record only.
type record struct {
	ID           string `csv:"id" xml:"id"`
	Pictures     string `csv:"pictures" xml:"pictures"`
	Reference    string `csv:"reference" xml:"reference"`
	Category     string `csv:"category" xml:"category"`
	Manufacturer string `csv:"manufacturer" xml:"manufacturer"`
	Name         string `csv:"name" xml:"name"`
	Price        string `csv:"price" xml:"price"`
	Body         string `csv:"body" xml:"body"`
	Top          string `csv:"istop" xml:"istop"`
}

func invalid(field, message string) error {
	return &products.ValidationError{Field: field, Message: message}
}

// product validates the record and converts it.
func (r *record) product() (*products.Product, error) {
	name := strings.TrimSpace(r.Name)
	category := strings.TrimSpace(r.Category)
	body := strings.TrimSpace(r.Body)
	rawPrice := strings.TrimSpace(r.Price)

	switch {
	case name == "":
		return nil, invalid("name", "is required")
	case category == "":
		return nil, invalid("category", "is required")
	case body == "":
		return nil, invalid("body", "is required")
	case rawPrice == "":
		return nil, invalid("price", "is required")
	}

	price, err := decimal.NewFromString(strings.ReplaceAll(rawPrice, ",", "."))
	if err != nil {
		return nil, invalid("price", "is not a number")
	}
	if price.IsNegative() {
		return nil, invalid("price", "must not be negative")
	}

	top := false
	if raw := strings.TrimSpace(r.Top); raw != "" {
		top, err = cast.ToBoolE(strings.ToLower(raw))
		if err != nil {
			return nil, invalid("istop", "is not a boolean")
		}
	}

	return &products.Product{
		ID:           strings.TrimSpace(r.ID),
		Pictures:     splitList(r.Pictures),
		Reference:    r.Reference,
		Category:     category,
		Manufacturer: r.Manufacturer,
		Name:         name,
		Price:        price,
		Body:         body,
		Top:          top,
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, products.PictureSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
