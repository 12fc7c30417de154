// Package board implements the pipeline board engine: the lead cache, the
// filter and partition logic, the drag-drop transition controller, stage
// administration, and selection.
package board

import (
	"regexp"
	"sort"
	"strings"

	"github.com/tOgg1/leadboard/internal/models"
)

// FilterState is the ephemeral multi-dimensional board filter. Empty
// dimensions pass everything; non-empty dimensions AND together.
type FilterState struct {
	// Search is the debounced free-text term, matched case-insensitively
	// against name, last name, phone, email and company.
	Search string

	// StageIDs restricts leads to those in any of the given stages.
	StageIDs map[string]struct{}

	// TagNames restricts leads to those carrying at least one structured
	// tag with a matching name.
	TagNames map[string]struct{}

	// DeviceIDs restricts leads to those owned by any of the given devices.
	DeviceIDs map[string]struct{}
}

// NewFilterState returns an empty filter.
func NewFilterState() FilterState {
	return FilterState{
		StageIDs:  make(map[string]struct{}),
		TagNames:  make(map[string]struct{}),
		DeviceIDs: make(map[string]struct{}),
	}
}

// IsEmpty reports whether no dimension is active.
func (f FilterState) IsEmpty() bool {
	return strings.TrimSpace(f.Search) == "" &&
		len(f.StageIDs) == 0 &&
		len(f.TagNames) == 0 &&
		len(f.DeviceIDs) == 0
}

// ToggleStage flips a stage id in the stage dimension.
func (f *FilterState) ToggleStage(id string) {
	toggleMember(f.StageIDs, id)
}

// ToggleTag flips a tag name in the tag dimension.
func (f *FilterState) ToggleTag(name string) {
	toggleMember(f.TagNames, name)
}

// ToggleDevice flips a device id in the device dimension.
func (f *FilterState) ToggleDevice(id string) {
	toggleMember(f.DeviceIDs, id)
}

// DeviceIDList returns the device dimension as a sorted slice, the shape the
// lead query endpoint accepts for server-side narrowing.
func (f FilterState) DeviceIDList() []string {
	return sortedKeys(f.DeviceIDs)
}

// ClearDimensions empties the stage, tag and device sets. The free-text
// search term is cleared separately by its own input.
func (f *FilterState) ClearDimensions() {
	f.StageIDs = make(map[string]struct{})
	f.TagNames = make(map[string]struct{})
	f.DeviceIDs = make(map[string]struct{})
}

func toggleMember(set map[string]struct{}, key string) {
	if key == "" {
		return
	}
	if _, ok := set[key]; ok {
		delete(set, key)
		return
	}
	set[key] = struct{}{}
}

// VisibleLeads returns the subset of leads matching the filter within the
// active pipeline. Pure: the input slice is never mutated and results are
// copies.
func VisibleLeads(leads []models.Lead, filter FilterState, activePipelineID string) []models.Lead {
	if len(leads) == 0 {
		return nil
	}

	term := strings.ToLower(strings.TrimSpace(filter.Search))

	out := make([]models.Lead, 0, len(leads))
	for i := range leads {
		lead := &leads[i]
		if !matchesPipeline(lead, activePipelineID) {
			continue
		}
		if term != "" && !matchesSearch(lead, term) {
			continue
		}
		if len(filter.StageIDs) > 0 && !matchesStageSet(lead, filter.StageIDs) {
			continue
		}
		if len(filter.TagNames) > 0 && !matchesTagSet(lead, filter.TagNames) {
			continue
		}
		if len(filter.DeviceIDs) > 0 && !matchesDeviceSet(lead, filter.DeviceIDs) {
			continue
		}
		out = append(out, lead.Clone())
	}
	return out
}

// matchesPipeline: unassigned leads (nil pipeline) float into every
// pipeline's view.
func matchesPipeline(lead *models.Lead, activePipelineID string) bool {
	if lead.PipelineID == nil {
		return true
	}
	return *lead.PipelineID == activePipelineID
}

func matchesSearch(lead *models.Lead, lowerTerm string) bool {
	for _, field := range []string{lead.Name, lead.LastName, lead.Phone, lead.Email, lead.Company} {
		if field == "" {
			continue
		}
		if strings.Contains(strings.ToLower(field), lowerTerm) {
			return true
		}
	}
	return false
}

func matchesStageSet(lead *models.Lead, stageIDs map[string]struct{}) bool {
	if lead.StageID == nil {
		return false
	}
	_, ok := stageIDs[*lead.StageID]
	return ok
}

// matchesTagSet: OR semantics within the dimension.
func matchesTagSet(lead *models.Lead, tagNames map[string]struct{}) bool {
	for _, tag := range lead.StructuredTags {
		if _, ok := tagNames[tag.Name]; ok {
			return true
		}
	}
	return false
}

func matchesDeviceSet(lead *models.Lead, deviceIDs map[string]struct{}) bool {
	if lead.DeviceID == nil {
		return false
	}
	_, ok := deviceIDs[*lead.DeviceID]
	return ok
}

// TagOptions collects the distinct structured-tag names across the loaded
// leads, sorted, for the tag-picker list.
func TagOptions(leads []models.Lead) []string {
	seen := make(map[string]struct{})
	for i := range leads {
		for _, tag := range leads[i].StructuredTags {
			if tag.Name != "" {
				seen[tag.Name] = struct{}{}
			}
		}
	}
	return sortedKeys(seen)
}

// DeviceOptions collects the distinct device ids across the loaded leads,
// sorted, for the device-picker list.
func DeviceOptions(leads []models.Lead) []string {
	seen := make(map[string]struct{})
	for i := range leads {
		if leads[i].DeviceID != nil && *leads[i].DeviceID != "" {
			seen[*leads[i].DeviceID] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// TagNameMatcher builds the predicate used by the tag-picker search box. A
// `%` in the pattern is a wildcard; everything else is literal. Patterns
// without a wildcard fall back to case-insensitive substring containment. A
// pattern that fails to compile matches everything rather than erroring.
func TagNameMatcher(pattern string) func(name string) bool {
	trimmed := strings.TrimSpace(pattern)
	if trimmed == "" {
		return func(string) bool { return true }
	}

	if !strings.Contains(trimmed, "%") {
		lower := strings.ToLower(trimmed)
		return func(name string) bool {
			return strings.Contains(strings.ToLower(name), lower)
		}
	}

	parts := strings.Split(trimmed, "%")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	expr := "(?i)^" + strings.Join(parts, ".*") + "$"

	compiled, err := regexp.Compile(expr)
	if err != nil {
		return func(string) bool { return true }
	}
	return compiled.MatchString
}
