package catalog

import "strings"

// SearchResult splits cards into visible and hidden for a query.
type SearchResult struct {
	Query   string
	Message string
	Visible []Card
	Hidden  []Card
}

// Filter keeps cards whose name contains query, ignoring case. Cards keep
// their order. An empty query shows everything with no message.
func Filter(cards []Card, query string) SearchResult {
	q := strings.ToLower(query)
	res := SearchResult{
		Query:   query,
		Visible: make([]Card, 0, len(cards)),
	}
	if q != "" {
		res.Message = `Searching for: "` + q + `"`
	}
	for _, c := range cards {
		if strings.Contains(strings.ToLower(c.Name), q) {
			res.Visible = append(res.Visible, c)
		} else {
			res.Hidden = append(res.Hidden, c)
		}
	}
	return res
}
