package itemstore

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Query describes a list request: a nested filter (the store's JSON filter
// shape), field projection with dot paths for relation expansion, sort fields
// (`-` prefix for descending) and a result limit.
type Query struct {
	Filter Filter
	Fields []string
	Sort   []string
	Limit  int
}

// Filter is a fragment of the store's filter language, e.g.
//
//	Filter{"status": Eq("published"), "categories": Filter{"categories_id": Filter{"slug": In(slugs)}}}
type Filter map[string]any

func Eq(v any) Filter {
	return Filter{"_eq": v}
}

func In[T any](values []T) Filter {
	return Filter{"_in": values}
}

func (q Query) params() (map[string]string, error) {
	params := map[string]string{}
	if len(q.Filter) > 0 {
		raw, err := json.Marshal(q.Filter)
		if err != nil {
			return nil, err
		}
		params["filter"] = string(raw)
	}
	if len(q.Fields) > 0 {
		params["fields"] = strings.Join(q.Fields, ",")
	}
	if len(q.Sort) > 0 {
		params["sort"] = strings.Join(q.Sort, ",")
	}
	if q.Limit > 0 {
		params["limit"] = strconv.Itoa(q.Limit)
	}
	return params, nil
}
