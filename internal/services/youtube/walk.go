package youtube

import (
	"slices"
	"strings"

	"tubeharvest/internal/feed"
)

// pageItems is one page of a channel listing.
type pageItems struct {
	items        []feed.Item
	continuation string
}

// collectVideos walks a decoded innertube payload depth-first, gathering
// videoRenderer entries and the first continuation token. Arrays keep their
// order; object keys are visited sorted so the walk is deterministic.
func collectVideos(node any, out *pageItems) {
	switch v := node.(type) {
	case []any:
		for _, child := range v {
			collectVideos(child, out)
		}
	case map[string]any:
		if renderer, ok := v["videoRenderer"].(map[string]any); ok {
			if item, ok := videoFromRenderer(renderer); ok {
				out.items = append(out.items, item)
			}
			return
		}
		if renderer, ok := v["continuationItemRenderer"].(map[string]any); ok {
			if out.continuation == "" {
				out.continuation = stringAt(renderer, "continuationEndpoint", "continuationCommand", "token")
			}
			return
		}
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		for _, key := range keys {
			collectVideos(v[key], out)
		}
	}
}

func videoFromRenderer(renderer map[string]any) (feed.Item, bool) {
	id, _ := renderer["videoId"].(string)
	if strings.TrimSpace(id) == "" {
		return feed.Item{}, false
	}
	return feed.Item{
		ID:      id,
		Title:   textOf(renderer["title"]),
		AgeText: textOf(renderer["publishedTimeText"]),
	}, true
}

// textOf reads an innertube text object: {"simpleText": ...} or {"runs": [{"text": ...}]}.
// Only the first run is used for titles, matching the site's own header rendering.
func textOf(node any) string {
	obj, ok := node.(map[string]any)
	if !ok {
		return ""
	}
	if simple, ok := obj["simpleText"].(string); ok {
		return strings.TrimSpace(simple)
	}
	runs, _ := obj["runs"].([]any)
	if len(runs) == 0 {
		return ""
	}
	first, _ := runs[0].(map[string]any)
	text, _ := first["text"].(string)
	return strings.TrimSpace(text)
}

func stringAt(node map[string]any, path ...string) string {
	var current any = node
	for _, key := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current = obj[key]
	}
	s, _ := current.(string)
	return s
}
