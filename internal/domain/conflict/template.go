package conflict

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// RenderNotification substitutes named {placeholder} values in a manual
// resolution notification template. The placeholder namespace contains the
// conflict's identifying fields, every details key, a comma-joined entity
// list, positional entity{N}_id/entity{N}_type aliases (1-indexed) and the
// actor_*/target_* aliases for the first two entities.
//
// Rendering never fails: unresolved placeholders are returned in missing so
// the caller can log them and fall back to a generic message.
func RenderNotification(template string, c Conflict, rule TypeRule) (rendered string, missing []string) {
	values := placeholderValues(c, rule)
	rendered = placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := match[1 : len(match)-1]
		v, ok := values[key]
		if !ok {
			missing = append(missing, key)
			return match
		}
		return v
	})
	return rendered, missing
}

// FallbackNotification is the generic message used when the configured
// template references keys the conflict cannot supply.
func FallbackNotification(c Conflict) string {
	return fmt.Sprintf("Conflict %s (%s) requires manual resolution.", c.ID, c.Type)
}

func placeholderValues(c Conflict, rule TypeRule) map[string]string {
	values := map[string]string{
		"conflict_id": c.ID,
		"type":        c.Type,
		"guild_id":    c.GuildID,
		"description": rule.Description,
	}

	entityList := make([]string, 0, len(c.InvolvedEntities))
	for i, e := range c.InvolvedEntities {
		entityList = append(entityList, e.ID+" ("+e.Type+")")
		n := strconv.Itoa(i + 1)
		values["entity"+n+"_id"] = e.ID
		values["entity"+n+"_type"] = e.Type
	}
	values["involved_entities"] = strings.Join(entityList, ", ")

	if actor, ok := c.Actor(); ok {
		values["actor_id"] = actor.ID
		values["actor_type"] = actor.Type
	}
	if target, ok := c.Target(); ok {
		values["target_id"] = target.ID
		values["target_type"] = target.Type
	}

	for key, v := range c.Details {
		values[key] = stringifyDetail(v)
	}
	return values
}

func stringifyDetail(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
