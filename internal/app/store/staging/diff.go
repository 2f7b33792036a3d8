// internal/app/store/staging/diff.go
package staging

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/chorushub/chorushub/internal/domain/models"
)

// ChangeType classifies one configuration change.
type ChangeType string

const (
	ChangeAdd    ChangeType = "add"
	ChangeModify ChangeType = "modify"
)

// ChangeRecord describes a single staged or committed change.
type ChangeRecord struct {
	Type       ChangeType `json:"change_type"`
	EntityType string     `json:"entity_type"` // "season" | "special_members"
	EntityName string     `json:"entity_name"`
	Details    string     `json:"details"`
}

// Diff compares staged content against the live configuration. Staging never
// deletes entities, so there is no deletion detection.
type Diff struct {
	Additions     []ChangeRecord `json:"additions"`
	Modifications []ChangeRecord `json:"modifications"`
}

// IsEmpty reports whether the diff holds no changes.
func (d Diff) IsEmpty() bool {
	return len(d.Additions) == 0 && len(d.Modifications) == 0
}

// GetDiff classifies each staged entry as an addition (season not currently
// loaded) or a modification (season exists; details carry the signed user
// count delta). A staged roster identical in size to the live one still
// reports a modification with a zero delta.
func (a *Area) GetDiff() Diff {
	a.mu.Lock()
	defer a.mu.Unlock()

	var diff Diff

	for _, seasonID := range sortedSeasonIDs(a.seasons) {
		staged := a.seasons[seasonID]
		if current, ok := a.cfg.Season(seasonID); ok {
			delta := len(staged) - current.UserCount()
			diff.Modifications = append(diff.Modifications, ChangeRecord{
				Type:       ChangeModify,
				EntityType: "season",
				EntityName: seasonID,
				Details:    fmt.Sprintf("%d users (%+d change)", len(staged), delta),
			})
		} else {
			diff.Additions = append(diff.Additions, ChangeRecord{
				Type:       ChangeAdd,
				EntityType: "season",
				EntityName: seasonID,
				Details:    fmt.Sprintf("%d users", len(staged)),
			})
		}
	}

	if a.special != nil {
		record := ChangeRecord{
			EntityType: "special_members",
			EntityName: "assignments.json",
			Details:    fmt.Sprintf("%d roles defined", len(a.special.Assignments)),
		}
		if len(a.cfg.Global().Special.Assignments) > 0 {
			record.Type = ChangeModify
			diff.Modifications = append(diff.Modifications, record)
		} else {
			record.Type = ChangeAdd
			diff.Additions = append(diff.Additions, record)
		}
	}

	return diff
}

func sortedSeasonIDs(m map[string][]models.RosterEntry) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// parseSpecialMembers accepts the assignments.json shape, or leniently a bare
// role-to-ids map for hand-written uploads.
func parseSpecialMembers(raw []byte) (models.SpecialMembers, error) {
	var sm models.SpecialMembers
	if err := json.Unmarshal(raw, &sm); err != nil {
		return models.SpecialMembers{}, fmt.Errorf("parse special members: %w", err)
	}
	if sm.Assignments != nil {
		return sm, nil
	}

	var bare map[string][]string
	if err := json.Unmarshal(raw, &bare); err != nil {
		return models.SpecialMembers{}, fmt.Errorf("parse special members: missing %q object", "assignments")
	}
	delete(bare, "maintainers")
	return models.SpecialMembers{Assignments: bare, Maintainers: sm.Maintainers}, nil
}
