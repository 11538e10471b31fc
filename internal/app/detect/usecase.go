package detect

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"arbiter/internal/app/ports"
	"arbiter/internal/domain/conflict"

	"github.com/rs/zerolog"
)

var ErrInvalidRequest = errors.New("invalid detect request")

// Canonical classifications for simultaneous contested resource claims,
// selected by the nature of the contested resource.
const (
	TypeContestedSpace = "contested_space_claim"
	TypeContestedItem  = "contested_item_claim"
)

// Action types that designate a contested resource.
const (
	ActionMove   = "move"
	ActionPickup = "pickup"
)

// UseCase groups a guild's submitted actions by contested resource and
// routes every multi-claimant group to automatic or manual resolution,
// as the rule table dictates.
type UseCase struct {
	Rules   conflict.RuleTable
	Auto    AutoResolver
	Manual  ManualPreparer
	Metrics ports.ConflictMetrics
	Logger  zerolog.Logger
}

type taggedAction struct {
	ActorID     string         `json:"actor_id"`
	GuildID     string         `json:"guild_id"`
	Type        string         `json:"type"`
	TargetSpace string         `json:"target_space,omitempty"`
	TargetItem  string         `json:"target_item,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
}

type resourceBucket struct {
	classification string
	resourceID     string
	actions        []taggedAction
	actorOrder     []string
	actorSeen      map[string]bool
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	req.GuildID = strings.TrimSpace(req.GuildID)
	if req.GuildID == "" {
		return Response{}, ErrInvalidRequest
	}
	if len(req.Actions) == 0 {
		return Response{Results: []Result{}}, nil
	}

	conflicts := u.groupConflicts(req)
	results := make([]Result, len(conflicts))

	// Each group's routing is independent; fan out but keep bucket order.
	var wg sync.WaitGroup
	for i, c := range conflicts {
		wg.Add(1)
		go func(i int, c conflict.Conflict) {
			defer wg.Done()
			results[i] = u.route(ctx, c)
		}(i, c)
	}
	wg.Wait()

	return Response{Results: results}, nil
}

// groupConflicts buckets contested-resource actions and builds a conflict
// for every bucket claimed by more than one actor. Actors are visited in
// sorted order so bucket order (first-seen resource) is deterministic.
func (u UseCase) groupConflicts(req Request) []conflict.Conflict {
	actorIDs := make([]string, 0, len(req.Actions))
	for actorID := range req.Actions {
		actorIDs = append(actorIDs, actorID)
	}
	sort.Strings(actorIDs)

	var bucketOrder []string
	buckets := map[string]*resourceBucket{}
	for _, actorID := range actorIDs {
		for _, action := range req.Actions[actorID] {
			classification, resourceID, ok := contestedResource(action)
			if !ok {
				continue
			}
			key := classification + "::" + resourceID
			bucket, exists := buckets[key]
			if !exists {
				bucket = &resourceBucket{
					classification: classification,
					resourceID:     resourceID,
					actorSeen:      map[string]bool{},
				}
				buckets[key] = bucket
				bucketOrder = append(bucketOrder, key)
			}
			bucket.actions = append(bucket.actions, taggedAction{
				ActorID:     actorID,
				GuildID:     req.GuildID,
				Type:        action.Type,
				TargetSpace: action.TargetSpace,
				TargetItem:  action.TargetItem,
				Payload:     action.Payload,
			})
			if !bucket.actorSeen[actorID] {
				bucket.actorSeen[actorID] = true
				bucket.actorOrder = append(bucket.actorOrder, actorID)
			}
		}
	}

	var conflicts []conflict.Conflict
	for _, key := range bucketOrder {
		bucket := buckets[key]
		if len(bucket.actorOrder) < 2 {
			// A single claimant, even with multiple actions, is not a
			// conflict at this layer.
			continue
		}
		if _, ok := u.Rules.Lookup(bucket.classification); !ok {
			u.Logger.Warn().
				Str("guild_id", req.GuildID).
				Str("classification", bucket.classification).
				Str("resource_id", bucket.resourceID).
				Msg("no rule for conflict classification, skipping group")
			continue
		}

		entities := make([]conflict.Entity, 0, len(bucket.actorOrder))
		for _, actorID := range bucket.actorOrder {
			entities = append(entities, conflict.Entity{ID: actorID, Type: conflict.EntityTypeCharacter})
		}
		actions := make([]any, 0, len(bucket.actions))
		for _, a := range bucket.actions {
			actions = append(actions, a)
		}
		conflicts = append(conflicts, conflict.Conflict{
			GuildID:          req.GuildID,
			Type:             bucket.classification,
			InvolvedEntities: entities,
			Details: map[string]any{
				"resource_id": bucket.resourceID,
				"actions":     actions,
			},
			Status: conflict.StatusIdentified,
		})
		if u.Metrics != nil {
			u.Metrics.RecordDetected()
		}
	}
	return conflicts
}

func (u UseCase) route(ctx context.Context, c conflict.Conflict) Result {
	rule, _ := u.Rules.Lookup(c.Type)
	if rule.ManualResolutionRequired {
		prepared := u.Manual.Execute(ctx, c)
		return Result{
			ConflictID: prepared.ConflictID,
			Status:     prepared.Status,
			Message:    prepared.Message,
		}
	}
	resolved := u.Auto.Execute(ctx, c)
	return Result{
		ConflictID: resolved.ID,
		Status:     resolved.Status,
		Conflict:   &resolved,
	}
}

func contestedResource(action SubmittedAction) (classification, resourceID string, ok bool) {
	switch action.Type {
	case ActionMove:
		if action.TargetSpace == "" {
			return "", "", false
		}
		return TypeContestedSpace, action.TargetSpace, true
	case ActionPickup:
		if action.TargetItem == "" {
			return "", "", false
		}
		return TypeContestedItem, action.TargetItem, true
	default:
		return "", "", false
	}
}
