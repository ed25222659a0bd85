// Package products implements listing and write access to the product catalog.
package products

import (
	"strings"
	"time"

	"github.com/nlstn/go-catalog/internal/slug"
	"github.com/nlstn/go-catalog/internal/storage"
	"github.com/shopspring/decimal"
)

// PictureSeparator joins picture references in their stored form.
const PictureSeparator = ","

// Product is a full catalog entry. Link, Search, CategoryLink and
// ManufacturerLink are derived on every save; values set by callers are
// overwritten.
type Product struct {
	ID               string          `json:"id"`
	Pictures         []string        `json:"pictures"`
	Reference        string          `json:"reference,omitempty"`
	Category         string          `json:"category"`
	CategoryLink     string          `json:"category_link"`
	Manufacturer     string          `json:"manufacturer,omitempty"`
	ManufacturerLink string          `json:"manufacturer_link,omitempty"`
	Name             string          `json:"name"`
	Link             string          `json:"link"`
	Search           string          `json:"search"`
	Price            decimal.Decimal `json:"price"`
	Body             string          `json:"body"`
	Top              bool            `json:"is_top"`
	Removed          bool            `json:"is_removed,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Item is the projection returned by listings.
type Item struct {
	ID           string          `json:"id"`
	Pictures     []string        `json:"pictures"`
	Name         string          `json:"name"`
	Link         string          `json:"link"`
	CategoryLink string          `json:"category_link"`
	Category     string          `json:"category"`
	Top          bool            `json:"is_top"`
	Price        decimal.Decimal `json:"price"`
	Manufacturer string          `json:"manufacturer,omitempty"`
}

// itemFields are the columns a listing loads.
var itemFields = []string{
	storage.FieldID,
	storage.FieldPictures,
	storage.FieldName,
	storage.FieldLink,
	storage.FieldCategoryLink,
	storage.FieldCategory,
	storage.FieldTop,
	storage.FieldPrice,
	storage.FieldManufacturer,
}

// normalize derives the computed fields of p in place.
func normalize(p *Product) {
	p.Name = strings.TrimSpace(p.Name)
	p.Reference = strings.TrimSpace(p.Reference)
	p.Manufacturer = strings.TrimSpace(p.Manufacturer)

	if p.Reference != "" {
		p.Link = slug.Slug(p.Reference + "-" + p.Name)
	} else {
		p.Link = slug.Slug(p.Name)
	}
	p.Search = slug.Search(p.Name + " " + p.Reference)
	p.ManufacturerLink = ""
	if p.Manufacturer != "" {
		p.ManufacturerLink = slug.Slug(p.Manufacturer)
	}

	path := slug.Decompose(p.Category)
	p.Category = path.Display
	p.CategoryLink = path.Link
}

func validate(p *Product) error {
	switch {
	case p.Name == "":
		return &ValidationError{Field: storage.FieldName, Message: "is required"}
	case p.CategoryLink == "":
		return &ValidationError{Field: storage.FieldCategory, Message: "is required"}
	case p.Price.IsNegative():
		return &ValidationError{Field: storage.FieldPrice, Message: "must not be negative"}
	}
	return nil
}

func joinPictures(pictures []string) string {
	return strings.Join(pictures, PictureSeparator)
}

func splitPictures(stored string) []string {
	if stored == "" {
		return []string{}
	}
	return strings.Split(stored, PictureSeparator)
}

func toRecord(p *Product) *storage.Record {
	return &storage.Record{
		ID:               p.ID,
		Pictures:         joinPictures(p.Pictures),
		Reference:        p.Reference,
		Category:         p.Category,
		CategoryLink:     p.CategoryLink,
		Manufacturer:     p.Manufacturer,
		ManufacturerLink: p.ManufacturerLink,
		Name:             p.Name,
		Link:             p.Link,
		Search:           p.Search,
		Price:            p.Price,
		Body:             p.Body,
		Top:              p.Top,
		Removed:          p.Removed,
		CreatedAt:        p.CreatedAt,
	}
}

func fromRecord(r *storage.Record) *Product {
	return &Product{
		ID:               r.ID,
		Pictures:         splitPictures(r.Pictures),
		Reference:        r.Reference,
		Category:         r.Category,
		CategoryLink:     r.CategoryLink,
		Manufacturer:     r.Manufacturer,
		ManufacturerLink: r.ManufacturerLink,
		Name:             r.Name,
		Link:             r.Link,
		Search:           r.Search,
		Price:            r.Price,
		Body:             r.Body,
		Top:              r.Top,
		Removed:          r.Removed,
		CreatedAt:        r.CreatedAt,
	}
}

func itemFromRecord(r *storage.Record) Item {
	return Item{
		ID:           r.ID,
		Pictures:     splitPictures(r.Pictures),
		Name:         r.Name,
		Link:         r.Link,
		CategoryLink: r.CategoryLink,
		Category:     r.Category,
		Top:          r.Top,
		Price:        r.Price,
		Manufacturer: r.Manufacturer,
	}
}

// updateValues is the mutable column set written when an existing product
// is saved. The id, creation time and removed flag never change here.
func updateValues(r *storage.Record) map[string]interface{} {
	return map[string]interface{}{
		storage.FieldPictures:         r.Pictures,
		storage.FieldReference:        r.Reference,
		storage.FieldCategory:         r.Category,
		storage.FieldCategoryLink:     r.CategoryLink,
		storage.FieldManufacturer:     r.Manufacturer,
		storage.FieldManufacturerLink: r.ManufacturerLink,
		storage.FieldName:             r.Name,
		storage.FieldLink:             r.Link,
		storage.FieldSearch:           r.Search,
		storage.FieldPrice:            r.Price,
		storage.FieldBody:             r.Body,
		storage.FieldTop:              r.Top,
	}
}
