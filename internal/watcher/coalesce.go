package watcher

// Coalesce merges the events of one batch that target the same path, so a
// save that fires several notifications costs one index update. Rules, by
// the operation already pending and the one arriving:
//   - CREATE + MODIFY = CREATE (file is still new)
//   - CREATE + DELETE = DELETE (a create may have replaced an indexed file)
//   - MODIFY + MODIFY = MODIFY
//   - MODIFY + DELETE = DELETE (file is gone)
//   - DELETE + CREATE = MODIFY (file was replaced)
//   - MODIFY + CREATE = MODIFY (file was replaced)
//
// A merged event takes the place of the latest event it absorbed, so it is
// applied after every other event that preceded it in the batch. Overflow
// markers are kept as they are.
func Coalesce(events []FileEvent) []FileEvent {
	if len(events) < 2 {
		return events
	}

	merged := make([]FileEvent, 0, len(events))
	live := make([]bool, 0, len(events))
	at := make(map[string]int, len(events))

	for _, ev := range events {
		if ev.Operation == OpOverflow {
			merged = append(merged, ev)
			live = append(live, true)
			continue
		}
		if i, ok := at[ev.Path]; ok {
			live[i] = false
			ev = coalesce(merged[i], ev)
		}
		at[ev.Path] = len(merged)
		merged = append(merged, ev)
		live = append(live, true)
	}

	out := merged[:0]
	for i, ev := range merged {
		if live[i] {
			out = append(out, ev)
		}
	}
	return out
}

// coalesce merges next into the pending event for the same path.
func coalesce(pending, next FileEvent) FileEvent {
	switch {
	case pending.Operation == OpCreate && next.Operation == OpModify:
		next.Operation = OpCreate
	case next.Operation == OpCreate && (pending.Operation == OpDelete || pending.Operation == OpModify):
		next.Operation = OpModify
	}
	return next
}
