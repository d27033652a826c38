package expense

import "strings"

// Canonicalize maps a free label onto the category set. A label matches a
// category when either contains the other, ignoring case. Anything else,
// including the empty label, becomes Others.
func Canonicalize(label string) Category {
	l := strings.ToLower(strings.TrimSpace(label))
	if l == "" {
		return CategoryOthers
	}

	for _, c := range Categories {
		name := strings.ToLower(string(c))
		if name == l {
			return c
		}
	}

	for _, c := range Categories {
		name := strings.ToLower(string(c))
		if strings.Contains(name, l) || strings.Contains(l, name) {
			return c
		}
	}

	if alias, ok := legacyCategories[l]; ok {
		return alias
	}

	return CategoryOthers
}

// legacyCategories covers labels from older category sets that share no
// substring with their current name.
var legacyCategories = map[string]Category{
	"rent":      CategoryBills,
	"groceries": CategoryFoodDrinks,
	"medical":   CategoryHealth,
	"travel":    CategoryTransport,
	"other":     CategoryOthers,
}
