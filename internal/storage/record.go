package storage

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Column names of the products table. Filters, projections and group
// keys refer to fields by these names.
const (
	FieldID               = "id"
	FieldPictures         = "pictures"
	FieldReference        = "reference"
	FieldCategory         = "category"
	FieldCategoryLink     = "category_link"
	FieldManufacturer     = "manufacturer"
	FieldManufacturerLink = "manufacturer_link"
	FieldName             = "name"
	FieldLink             = "link"
	FieldSearch           = "search"
	FieldPrice            = "price"
	FieldBody             = "body"
	FieldTop              = "is_top"
	FieldRemoved          = "is_removed"
	FieldCreatedAt        = "created_at"
)

var knownFields = map[string]bool{
	FieldID: true, FieldPictures: true, FieldReference: true, FieldCategory: true,
	FieldCategoryLink: true, FieldManufacturer: true, FieldManufacturerLink: true,
	FieldName: true, FieldLink: true, FieldSearch: true, FieldPrice: true,
	FieldBody: true, FieldTop: true, FieldRemoved: true, FieldCreatedAt: true,
}

// IsField reports whether name is a column of the products table.
func IsField(name string) bool {
	return knownFields[name]
}

// Record is a product row as persisted. Pictures are kept in their
// comma-joined storage form.
type Record struct {
	ID               string          `gorm:"column:id;primaryKey;size:32"`
	Pictures         string          `gorm:"column:pictures"`
	Reference        string          `gorm:"column:reference"`
	Category         string          `gorm:"column:category"`
	CategoryLink     string          `gorm:"column:category_link;index"`
	Manufacturer     string          `gorm:"column:manufacturer"`
	ManufacturerLink string          `gorm:"column:manufacturer_link;index"`
	Name             string          `gorm:"column:name"`
	Link             string          `gorm:"column:link;index"`
	Search           string          `gorm:"column:search"`
	Price            decimal.Decimal `gorm:"column:price;type:decimal(12,2)"`
	Body             string          `gorm:"column:body"`
	Top              bool            `gorm:"column:is_top"`
	Removed          bool            `gorm:"column:is_removed;index"`
	CreatedAt        time.Time       `gorm:"column:created_at;index"`
}

// TableName pins the table name independently of the struct name.
func (Record) TableName() string {
	return "products"
}

// Value implements query.Record.
func (r *Record) Value(field string) (interface{}, bool) {
	switch field {
	case FieldID:
		return r.ID, true
	case FieldPictures:
		return r.Pictures, true
	case FieldReference:
		return r.Reference, true
	case FieldCategory:
		return r.Category, true
	case FieldCategoryLink:
		return r.CategoryLink, true
	case FieldManufacturer:
		return r.Manufacturer, true
	case FieldManufacturerLink:
		return r.ManufacturerLink, true
	case FieldName:
		return r.Name, true
	case FieldLink:
		return r.Link, true
	case FieldSearch:
		return r.Search, true
	case FieldPrice:
		return r.Price, true
	case FieldBody:
		return r.Body, true
	case FieldTop:
		return r.Top, true
	case FieldRemoved:
		return r.Removed, true
	case FieldCreatedAt:
		return r.CreatedAt, true
	}
	return nil, false
}

// set assigns value to field, converting where the column type allows it.
func (r *Record) set(field string, value interface{}) error {
	switch field {
	case FieldPrice:
		switch v := value.(type) {
		case decimal.Decimal:
			r.Price = v
		case float64:
			r.Price = decimal.NewFromFloat(v)
		case int:
			r.Price = decimal.NewFromInt(int64(v))
		default:
			return fmt.Errorf("%w: %s expects a decimal, got %T", ErrFieldType, field, value)
		}
		return nil
	case FieldTop, FieldRemoved:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: %s expects a bool, got %T", ErrFieldType, field, value)
		}
		if field == FieldTop {
			r.Top = b
		} else {
			r.Removed = b
		}
		return nil
	case FieldCreatedAt:
		ts, ok := value.(time.Time)
		if !ok {
			return fmt.Errorf("%w: %s expects a time, got %T", ErrFieldType, field, value)
		}
		r.CreatedAt = ts
		return nil
	}

	s, ok := value.(string)
	if !ok {
		if !IsField(field) {
			return fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
		return fmt.Errorf("%w: %s expects a string, got %T", ErrFieldType, field, value)
	}
	switch field {
	case FieldID:
		r.ID = s
	case FieldPictures:
		r.Pictures = s
	case FieldReference:
		r.Reference = s
	case FieldCategory:
		r.Category = s
	case FieldCategoryLink:
		r.CategoryLink = s
	case FieldManufacturer:
		r.Manufacturer = s
	case FieldManufacturerLink:
		r.ManufacturerLink = s
	case FieldName:
		r.Name = s
	case FieldLink:
		r.Link = s
	case FieldSearch:
		r.Search = s
	case FieldBody:
		r.Body = s
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// project returns a copy holding only the listed fields.
func (r *Record) project(fields []string) Record {
	if len(fields) == 0 {
		return *r
	}
	var out Record
	for _, f := range fields {
		if v, ok := r.Value(f); ok {
			_ = out.set(f, v) //nolint:errcheck // values come from a typed record
		}
	}
	return out
}
