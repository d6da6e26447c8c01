package root

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"habitquest/internal/model"
)

// named is a record addressable by id or by (approximate) name.
type named struct {
	id   string
	name string
}

// resolve finds the record ref points at: an exact id, then a
// case-insensitive name, then the single best fuzzy match.
func resolve(kind, ref string, recs []named) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%s is required", kind)
	}
	names := make([]string, len(recs))
	for i, r := range recs {
		if r.id == ref {
			return r.id, nil
		}
		names[i] = r.name
	}
	for _, r := range recs {
		if strings.EqualFold(r.name, ref) {
			return r.id, nil
		}
	}

	matches := fuzzy.Find(ref, names)
	switch {
	case len(matches) == 0:
		return "", fmt.Errorf("no %s matches %q", kind, ref)
	case len(matches) > 1 && matches[0].Score == matches[1].Score:
		return "", fmt.Errorf("%q matches several %ss: %q, %q", ref, kind, matches[0].Str, matches[1].Str)
	}
	return recs[matches[0].Index].id, nil
}

func taskRefs(tasks []model.Task) []named {
	out := make([]named, len(tasks))
	for i, t := range tasks {
		out[i] = named{id: t.ID, name: t.Title}
	}
	return out
}

func categoryRefs(cats []model.Category) []named {
	out := make([]named, len(cats))
	for i, c := range cats {
		out[i] = named{id: c.ID, name: c.Name}
	}
	return out
}

func itemRefs(items []model.Equipment) []named {
	out := make([]named, len(items))
	for i, e := range items {
		out[i] = named{id: e.ID, name: e.Name}
	}
	return out
}

// shortID is the display form of a uuid.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
