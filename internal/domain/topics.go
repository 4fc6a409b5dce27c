package domain

// Topic is a predefined research topic with its backend category code.
type Topic struct {
	Label string `json:"label"`
	Code  string `json:"code"`
}

// DefaultTopics is the built-in topic catalog. A topic selection resolves
// directly to a category set without calling the categorization service.
var DefaultTopics = []Topic{
	{Label: "Artificial Intelligence", Code: "cs.AI"},
	{Label: "Machine Learning", Code: "cs.LG"},
	{Label: "Quantum Physics", Code: "quant-ph"},
	{Label: "Astrophysics", Code: "astro-ph"},
	{Label: "Condensed Matter", Code: "cond-mat"},
	{Label: "High Energy Physics", Code: "hep-ph"},
}

// ResolveTopics maps selected topic labels to an ordered set of category
// codes and a code-to-label CategoryMap. Unknown labels are skipped.
func ResolveTopics(labels []string) (CategorySet, CategoryMap) {
	byLabel := make(map[string]string, len(DefaultTopics))
	for _, t := range DefaultTopics {
		byLabel[t.Label] = t.Code
	}

	categories := make(CategorySet, 0, len(labels))
	categoryMap := make(CategoryMap)
	for _, label := range labels {
		code, ok := byLabel[label]
		if !ok {
			continue
		}
		categories = append(categories, code)
		categoryMap[code] = label
	}
	return categories, categoryMap
}
