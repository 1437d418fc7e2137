package normalize

const (
	createdAtKey      = "created_at"
	createdAtCamelKey = "createdAt"
	toolResourcesKey  = "tool_resources"
)

// SerializeThread normalizes a thread object. Besides the common entity
// treatment it decodes a string-encoded tool_resources field.
func SerializeThread(obj any) *Map {
	out := prepare(obj)
	if value, ok := out.Get(toolResourcesKey); ok && value != nil {
		switch typed := value.(type) {
		case string:
			if decoded, ok := DecodeLoose(typed); ok && decoded != nil {
				out.Set(toolResourcesKey, decoded)
			}
		default:
			if !isCompound(typed) {
				out.Set(toolResourcesKey, ToJSONSafe(typed))
			}
		}
	}
	return finish(out)
}

// SerializeRun normalizes a run object.
func SerializeRun(obj any) *Map {
	return finish(prepare(obj))
}

// SerializeEntity normalizes any other entity (agent, vector store, file)
// the same way runs are treated.
func SerializeEntity(obj any) *Map {
	return finish(prepare(obj))
}

// prepare copies the raw fields so the source object is never mutated, and
// rewrites created_at in canonical form when it parses.
func prepare(obj any) *Map {
	out := RawFields(obj).Clone()
	created, ok := out.Get(createdAtKey)
	if !ok || created == nil {
		created, _ = out.Get(createdAtCamelKey)
	}
	if timestamp, ok := ParseTimestamp(created); ok {
		out.Set(createdAtKey, FormatTimestamp(timestamp))
	}
	return out
}

func finish(out *Map) *Map {
	if normalized, ok := ToJSONSafe(out).(*Map); ok {
		return normalized
	}
	return NewMap()
}
