// Copyright © 2024 The ELPS authors

package sugarcube

import (
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Suggest returns the registered macro name closest to name, or the empty
// string if nothing is close.
func Suggest(name string, reg *Registry) string {
	if reg == nil || reg.Len() == 0 || name == "" {
		return ""
	}
	names := reg.Names()
	// Names which contain every letter of name, in order.
	if ranks := fuzzy.RankFindFold(name, names); len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}
	// Names hidden inside a name with extra letters, such as "print" in
	// "priint".
	var best string
	for _, candidate := range names {
		if len(candidate) > 2 && len(candidate) > len(best) && fuzzy.MatchFold(candidate, name) {
			best = candidate
		}
	}
	if best != "" {
		return best
	}
	// Transposed letters usually leave the first half intact.
	if len(name) >= 4 {
		if ranks := fuzzy.RankFindFold(name[:len(name)/2], names); len(ranks) > 0 {
			sort.Sort(ranks)
			return ranks[0].Target
		}
	}
	return ""
}

func unknownMacroMessage(name string, reg *Registry) string {
	msg := fmt.Sprintf("Unrecognized macro <<%s>>", name)
	if s := Suggest(name, reg); s != "" && s != name {
		msg += fmt.Sprintf("; did you mean <<%s>>?", s)
	}
	return msg
}
