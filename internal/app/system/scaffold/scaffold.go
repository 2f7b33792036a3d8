// internal/app/system/scaffold/scaffold.go

// Package scaffold turns a season's channel layout plus the global role and
// permission definitions into an ordered, fully resolved plan of Discord
// objects to create. The package is pure computation; applying a plan against
// a guild lives in the discord package.
package scaffold

import (
	"fmt"
	"sort"

	"github.com/chorushub/chorushub/internal/domain/models"
)

// Overwrite is one resolved permission overwrite on a channel.
type Overwrite struct {
	RoleName string
	Allow    []string
	Deny     []string
}

// ChannelPlan is one channel to create, in creation order. Parent is the
// category name, empty for top-level channels and categories themselves.
type ChannelPlan struct {
	Name       string
	Type       string
	Parent     string
	Position   int
	Overwrites []Overwrite
}

// RolePlan is one role to ensure exists before channels reference it.
type RolePlan struct {
	Definition models.RoleDefinition
}

// Plan is the complete ordered scaffolding plan for one season: roles first,
// then categories, then their children.
type Plan struct {
	SeasonID string
	Roles    []RolePlan
	Channels []ChannelPlan
}

// Build resolves the season's channel tree against the global configuration.
// It fails on the first reference to an unknown permission level; an unknown
// role name is allowed (the role may be season-scoped, like the member role)
// and planned as a role to create with default settings.
func Build(global models.GlobalConfig, season models.Season) (Plan, error) {
	plan := Plan{SeasonID: season.SeasonID}

	needed := map[string]bool{}
	collectRoleNames(season.Channels, needed)
	needed[season.MemberRoleName()] = true

	names := make([]string, 0, len(needed))
	for name := range needed {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		def := global.Role(name)
		if def == nil {
			def = &models.RoleDefinition{Name: name, Mentionable: true}
		}
		plan.Roles = append(plan.Roles, RolePlan{Definition: *def})
	}

	channels, err := planChannels(global, season.Channels, "")
	if err != nil {
		return Plan{}, fmt.Errorf("season %s: %w", season.SeasonID, err)
	}
	plan.Channels = channels
	return plan, nil
}

// planChannels flattens the tree depth-first: each category is emitted before
// its children, siblings keep their configured position order.
func planChannels(global models.GlobalConfig, defs []models.ChannelDefinition, parent string) ([]ChannelPlan, error) {
	ordered := make([]models.ChannelDefinition, len(defs))
	copy(ordered, defs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })

	var out []ChannelPlan
	for _, def := range ordered {
		overwrites, err := resolveOverwrites(global, def.RolePermissions)
		if err != nil {
			return nil, fmt.Errorf("channel %s: %w", def.Name, err)
		}
		out = append(out, ChannelPlan{
			Name:       def.Name,
			Type:       channelType(def),
			Parent:     parent,
			Position:   def.Position,
			Overwrites: overwrites,
		})

		if len(def.Children) > 0 {
			children, err := planChannels(global, def.Children, def.Name)
			if err != nil {
				return nil, err
			}
			out = append(out, children...)
		}
	}
	return out, nil
}

func channelType(def models.ChannelDefinition) string {
	if def.Type != "" {
		return def.Type
	}
	if len(def.Children) > 0 {
		return "category"
	}
	return "text"
}

// resolveOverwrites maps role -> permission level name into concrete
// allow/deny lists, sorted by role name for stable plans.
func resolveOverwrites(global models.GlobalConfig, rolePerms map[string]string) ([]Overwrite, error) {
	if len(rolePerms) == 0 {
		return nil, nil
	}

	roles := make([]string, 0, len(rolePerms))
	for role := range rolePerms {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	out := make([]Overwrite, 0, len(roles))
	for _, role := range roles {
		level := rolePerms[role]
		set, ok := global.Permissions[level]
		if !ok {
			return nil, fmt.Errorf("unknown permission level %q for role %q", level, role)
		}
		out = append(out, Overwrite{RoleName: role, Allow: set.Allow, Deny: set.Deny})
	}
	return out, nil
}

func collectRoleNames(defs []models.ChannelDefinition, into map[string]bool) {
	for _, def := range defs {
		for role := range def.RolePermissions {
			into[role] = true
		}
		collectRoleNames(def.Children, into)
	}
}
