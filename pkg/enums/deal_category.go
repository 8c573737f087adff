package enums

import "fmt"

// DealCategory is the closed set of feed categories.
type DealCategory string

const (
	DealCategoryFood          DealCategory = "food"
	DealCategoryElectronics   DealCategory = "electronics"
	DealCategoryFashion       DealCategory = "fashion"
	DealCategoryHome          DealCategory = "home"
	DealCategoryBeauty        DealCategory = "beauty"
	DealCategoryTravel        DealCategory = "travel"
	DealCategoryEntertainment DealCategory = "entertainment"
	DealCategoryServices      DealCategory = "services"
	DealCategoryOther         DealCategory = "other"
)

var validDealCategories = []DealCategory{
	DealCategoryFood,
	DealCategoryElectronics,
	DealCategoryFashion,
	DealCategoryHome,
	DealCategoryBeauty,
	DealCategoryTravel,
	DealCategoryEntertainment,
	DealCategoryServices,
	DealCategoryOther,
}

// String implements fmt.Stringer.
func (v DealCategory) String() string {
	return string(v)
}

// IsValid reports whether the value is a known DealCategory.
func (v DealCategory) IsValid() bool {
	for _, candidate := range validDealCategories {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseDealCategory converts raw input into a DealCategory.
func ParseDealCategory(value string) (DealCategory, error) {
	for _, candidate := range validDealCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid deal category %q", value)
}
