package activity

import (
	"strings"
	"time"
)

const (
	// VerbViewDerived is emitted when a nested accessor binds a derived view.
	VerbViewDerived = "config.view.derived"
	// VerbResolveFailed is emitted when an accessor invocation fails.
	VerbResolveFailed = "config.resolve.failed"

	objectTypeAccessor = "config.accessor"
)

// LayerContext identifies one layer of a derived store.
type LayerContext struct {
	Name       string
	SnapshotID string
}

// ConfigEventInput describes the common fields for configuration events.
type ConfigEventInput struct {
	ActorID      string
	TenantID     string
	Channel      string
	Schema       string
	Accessor     string
	Key          string
	NestedSchema string
	ArgShape     string
	Layers       []LayerContext
	Err          error
	Metadata     map[string]any
	OccurredAt   time.Time
}

// BuildViewDerivedEvent describes a nested view bound over a derived store.
func BuildViewDerivedEvent(input ConfigEventInput) Event {
	return buildConfigEvent(VerbViewDerived, input)
}

// BuildResolveFailedEvent describes a failed accessor invocation.
func BuildResolveFailedEvent(input ConfigEventInput) Event {
	return buildConfigEvent(VerbResolveFailed, input)
}

func buildConfigEvent(verb string, input ConfigEventInput) Event {
	metadata := CloneMetadata(input.Metadata)
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}
	if input.Schema != "" {
		set("schema", input.Schema)
	}
	if input.Key != "" {
		set("key", input.Key)
	}
	if input.NestedSchema != "" {
		set("nested_schema", input.NestedSchema)
	}
	if input.ArgShape != "" {
		set("arg_shape", input.ArgShape)
	}
	if len(input.Layers) > 0 {
		names := make([]string, len(input.Layers))
		snapshots := make([]string, len(input.Layers))
		for i, layer := range input.Layers {
			names[i] = layer.Name
			snapshots[i] = layer.SnapshotID
		}
		set("layers", names)
		set("snapshot_ids", snapshots)
	}
	if input.Err != nil {
		set("error", input.Err.Error())
	}

	objectID := strings.TrimSpace(input.Accessor)
	if input.Schema != "" && objectID != "" {
		objectID = input.Schema + "." + objectID
	}
	if objectID == "" {
		objectID = strings.TrimSpace(input.Key)
	}
	if objectID == "" {
		objectID = objectTypeAccessor
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectTypeAccessor,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
