package enums

import "fmt"

// StrainType represents the canonical strain classifications carried by a template.
type StrainType string

const (
	StrainTypeIndica StrainType = "indica"
	StrainTypeSativa StrainType = "sativa"
	StrainTypeHybrid StrainType = "hybrid"
	StrainTypeCBD    StrainType = "cbd"
	StrainTypeOther  StrainType = "other"
)

var validStrainTypes = []StrainType{
	StrainTypeIndica,
	StrainTypeSativa,
	StrainTypeHybrid,
	StrainTypeCBD,
	StrainTypeOther,
}

// String implements fmt.Stringer.
func (s StrainType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StrainType.
func (s StrainType) IsValid() bool {
	for _, candidate := range validStrainTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStrainType converts raw input into a StrainType.
func ParseStrainType(value string) (StrainType, error) {
	for _, candidate := range validStrainTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid strain type %q", value)
}

// ProductCategory represents the canonical product categories supported by the catalog.
type ProductCategory string

const (
	ProductCategoryFlower      ProductCategory = "flower"
	ProductCategoryConcentrate ProductCategory = "concentrates"
	ProductCategoryEdible      ProductCategory = "edibles"
	ProductCategoryVape        ProductCategory = "vapes"
	ProductCategoryTopical     ProductCategory = "topicals"
	ProductCategoryPreRoll     ProductCategory = "pre_rolls"
	ProductCategoryOther       ProductCategory = "other"
)

var validProductCategories = []ProductCategory{
	ProductCategoryFlower,
	ProductCategoryConcentrate,
	ProductCategoryEdible,
	ProductCategoryVape,
	ProductCategoryTopical,
	ProductCategoryPreRoll,
	ProductCategoryOther,
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}

// UnitOfMeasure defines the unit a template is sold in; batches inherit it unchanged.
type UnitOfMeasure string

const (
	UnitGrams      UnitOfMeasure = "grams"
	UnitOunces     UnitOfMeasure = "ounces"
	UnitEach       UnitOfMeasure = "each"
	UnitMilligrams UnitOfMeasure = "milligrams"
	UnitOther      UnitOfMeasure = "other"
)

var validUnitsOfMeasure = []UnitOfMeasure{
	UnitGrams,
	UnitOunces,
	UnitEach,
	UnitMilligrams,
	UnitOther,
}

// String implements fmt.Stringer.
func (u UnitOfMeasure) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UnitOfMeasure.
func (u UnitOfMeasure) IsValid() bool {
	for _, candidate := range validUnitsOfMeasure {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUnitOfMeasure converts raw input into a UnitOfMeasure.
func ParseUnitOfMeasure(value string) (UnitOfMeasure, error) {
	for _, candidate := range validUnitsOfMeasure {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit of measure %q", value)
}
