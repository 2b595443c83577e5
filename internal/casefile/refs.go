package casefile

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// RefEvidence pairs an evidence entry with its stable reference.
type RefEvidence struct {
	Ref      string
	Group    string
	Evidence Evidence
}

// FormatRef builds a "group:index" reference. Indexes are 1-based.
func FormatRef(group string, index int) string {
	return fmt.Sprintf("%s:%d", group, index)
}

// ParseRef splits a "group:index" reference.
func ParseRef(ref string) (string, int, error) {
	sep := strings.LastIndex(ref, ":")
	if sep <= 0 || sep == len(ref)-1 {
		return "", 0, fmt.Errorf("malformed evidence reference %q", ref)
	}
	group := ref[:sep]
	index, err := strconv.Atoi(ref[sep+1:])
	if err != nil {
		return "", 0, fmt.Errorf("malformed evidence reference %q: %w", ref, err)
	}
	if index < 1 {
		return "", 0, fmt.Errorf("evidence reference %q index must be 1-based", ref)
	}
	return group, index, nil
}

// FlattenEvidence orders grouped evidence into referenced entries. Groups
// sort alphabetically and entries keep their in-group order, so the same
// state always flattens to the same reference assignment regardless of how
// collector results arrived.
func FlattenEvidence(groups map[string][]Evidence) []RefEvidence {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var flattened []RefEvidence
	for _, name := range names {
		for i, evidence := range groups[name] {
			flattened = append(flattened, RefEvidence{
				Ref:      FormatRef(name, i+1),
				Group:    name,
				Evidence: evidence,
			})
		}
	}
	return flattened
}

// RefSet builds the set of valid references for citation checks.
func RefSet(flattened []RefEvidence) map[string]struct{} {
	set := make(map[string]struct{}, len(flattened))
	for _, entry := range flattened {
		set[entry.Ref] = struct{}{}
	}
	return set
}

// FormatEvidenceLine renders one evidence entry for evaluator prompts and
// report catalogs.
func FormatEvidenceLine(entry RefEvidence) string {
	e := entry.Evidence
	return fmt.Sprintf(
		"- %s | found=%t | location=%s | goal=%s | rationale=%s | confidence=%.2f | content=%s",
		entry.Ref, e.Found, e.Location, e.Goal, e.Rationale, e.Confidence, e.Content,
	)
}
