package domain

import "fmt"

// ContentCategory is the kind of content an item carries. Each category maps
// to its own summarizer parameters.
type ContentCategory string

// content categories
const (
	CategoryNews      ContentCategory = "news"
	CategoryTechnical ContentCategory = "technical"
	CategoryResearch  ContentCategory = "research"
	CategoryTutorial  ContentCategory = "tutorial"
	CategoryOpinion   ContentCategory = "opinion"
	CategoryGeneral   ContentCategory = "general"
)

// AllCategories returns all categories in canonical order
func AllCategories() []ContentCategory {
	return []ContentCategory{CategoryNews, CategoryTechnical, CategoryResearch, CategoryTutorial, CategoryOpinion, CategoryGeneral}
}

// ParseCategory converts a string to a category
func ParseCategory(s string) (ContentCategory, error) {
	for _, c := range AllCategories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown content category %q", s)
}
