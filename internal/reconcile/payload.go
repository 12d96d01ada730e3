package reconcile

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/phrazzld/smartmark/internal/domain"
	"github.com/phrazzld/smartmark/internal/events"
)

// Payload keys with special handling.
const (
	keyID       = "id"
	keyServerID = "serverId"
	keyClientID = "clientId"
	keyParentID = "parentId"
	keyURL      = "url"
	keyType     = "type"
)

func toMap(item *domain.Bookmark) (map[string]any, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encoding bookmark %s: %w", item.ID, err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding bookmark %s: %w", item.ID, err)
	}
	return m, nil
}

// buildPayload shapes the request body for a change. Adds carry the full
// record without serverId, with the local ID as clientId. Updates and deletes
// carry only the named fields plus serverId, url and type.
func buildPayload(kind events.ChangeKind, item *domain.Bookmark, fields []string) (map[string]any, error) {
	full, err := toMap(item)
	if err != nil {
		return nil, err
	}

	if kind == events.ChangeAdd {
		delete(full, keyServerID)
		delete(full, keyID)
		full[keyClientID] = item.ID
		return full, nil
	}

	payload := make(map[string]any, len(fields)+3)
	for _, f := range fields {
		switch f {
		case keyID, keyClientID, keyServerID:
			continue
		}
		// Fields dropped by omitempty were cleared locally.
		payload[f] = full[f]
	}
	payload[keyServerID] = item.ServerID
	payload[keyURL] = item.URL
	payload[keyType] = item.Type
	return payload, nil
}

// protectedKeys are never taken from a server response. Identity and tree
// placement are local; enrichment fields belong to the pipeline.
var protectedKeys = func() map[string]bool {
	keys := map[string]bool{
		keyID: true, keyServerID: true, keyClientID: true, keyParentID: true, keyType: true,
	}
	for _, f := range domain.AIFields {
		keys[f] = true
	}
	return keys
}()

// Timestamp keys that also accept epoch milliseconds.
var timeKeys = map[string]bool{"dateAdded": true, "lastModified": true}

// mergeRemote applies the server's view of a created record to the local
// item. The server ID is always stored. Other fields replace local values
// one at a time unless the local copy was modified after the server's;
// values that do not decode into the local field are left alone and
// returned as skipped.
func mergeRemote(item *domain.Bookmark, remote map[string]any, serverID string) (skipped []string) {
	item.ServerID = &serverID

	if modified, ok := remoteTime(remote["lastModified"]); ok && modified.Before(item.LastModified) {
		return nil
	}

	keys := make([]string, 0, len(remote))
	for k := range remote {
		if !protectedKeys[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := remote[k]
		if timeKeys[k] {
			if t, ok := remoteTime(v); ok {
				v = t
			}
		}
		if err := mergeField(item, k, v); err != nil {
			skipped = append(skipped, k)
		}
	}
	return skipped
}

// mergeField decodes a single key onto a copy of item so a value that does
// not decode, or leaves the item invalid, does not touch item. Keys unknown
// to the bookmark are ignored.
func mergeField(item *domain.Bookmark, key string, value any) error {
	data, err := json.Marshal(map[string]any{key: value})
	if err != nil {
		return err
	}
	merged := item.Clone()
	if err := json.Unmarshal(data, merged); err != nil {
		return err
	}
	if err := merged.Validate(); err != nil {
		return err
	}
	*item = *merged
	return nil
}

// remoteTime reads an RFC 3339 string or epoch milliseconds.
func remoteTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		return parsed.UTC(), err == nil
	case float64:
		return time.UnixMilli(int64(t)).UTC(), true
	default:
		return time.Time{}, false
	}
}
