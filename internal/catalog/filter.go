package catalog

import (
	"sort"
	"strings"

	"github.com/athengaudio/storefront/pkg/enums"
)

// FilterAll is the sentinel that disables a single-valued filter.
const FilterAll = "all"

// Filter narrows a product listing. Empty fields do not filter.
type Filter struct {
	Query        string
	Category     string
	Brand        string
	Type         string
	Connectivity []string
}

func isAll(value string) bool {
	value = strings.TrimSpace(value)
	return value == "" || strings.EqualFold(value, FilterAll)
}

// typeApplies reports whether the headphone type filter is in effect. Types
// only describe headphones, so a speaker listing ignores it.
func (f Filter) typeApplies() bool {
	if isAll(f.Type) {
		return false
	}
	return isAll(f.Category) || f.Category == string(enums.ProductCategoryHeadphone)
}

// Match reports whether p passes every active filter.
func (f Filter) Match(p Product) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Brand), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
	}
	if !isAll(f.Category) && string(p.Category) != f.Category {
		return false
	}
	if !isAll(f.Brand) && p.Brand != f.Brand {
		return false
	}
	if f.typeApplies() && p.Type != f.Type {
		return false
	}
	if len(f.Connectivity) > 0 && !p.HasConnectivity(f.Connectivity) {
		return false
	}
	return true
}

// Apply returns the products that match f, preserving order.
func (f Filter) Apply(products []Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
