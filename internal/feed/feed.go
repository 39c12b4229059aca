// Package feed defines the channel item contract shared by every feed source.
//
// A Source yields a channel's items lazily, newest first. Consumers stop
// pulling as soon as they decide the rest of the feed is out of range, so
// implementations must not fetch a page before it is needed.
package feed

import (
	"context"
	"iter"
	"net/url"
	"strings"
)

// NoTitle replaces titles the feed does not provide.
const NoTitle = "No Title Available"

// Item describes one video observed in a channel feed.
type Item struct {
	ID    string
	Title string
	// AgeText is the relative upload phrase ("3 days ago"). Empty when the
	// feed does not expose one.
	AgeText string
}

// URL returns the canonical watch URL for the item.
func (i Item) URL() string {
	return WatchURL(i.ID)
}

// DisplayTitle returns the title or the placeholder when missing.
func (i Item) DisplayTitle() string {
	if title := strings.TrimSpace(i.Title); title != "" {
		return title
	}
	return NoTitle
}

// WatchURL builds https://www.youtube.com/watch?v=<id>.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(id)
}

// Source yields a channel's items in reverse-chronological order.
//
// The sequence ends when the feed is exhausted. A non-nil error is yielded at
// most once and ends the sequence.
type Source interface {
	Videos(ctx context.Context, channel string) iter.Seq2[Item, error]
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, channel string) iter.Seq2[Item, error]

// Videos calls f.
func (f SourceFunc) Videos(ctx context.Context, channel string) iter.Seq2[Item, error] {
	return f(ctx, channel)
}

// Static returns a Source that replays items for every channel. Used by tests
// and dry runs.
func Static(items ...Item) Source {
	return SourceFunc(func(ctx context.Context, _ string) iter.Seq2[Item, error] {
		return func(yield func(Item, error) bool) {
			for _, item := range items {
				if err := ctx.Err(); err != nil {
					yield(Item{}, err)
					return
				}
				if !yield(item, nil) {
					return
				}
			}
		}
	})
}

// ChannelKind classifies a configured channel reference.
type ChannelKind int

const (
	// ChannelHandle is an @handle.
	ChannelHandle ChannelKind = iota
	// ChannelID is a UC... channel id.
	ChannelID
	// ChannelUsername is a legacy username.
	ChannelUsername
)

// ClassifyChannel reports how a configured channel string should be resolved.
func ClassifyChannel(channel string) (ChannelKind, string) {
	channel = strings.TrimSpace(channel)
	switch {
	case strings.HasPrefix(channel, "@"):
		return ChannelHandle, channel
	case len(channel) == 24 && strings.HasPrefix(channel, "UC"):
		return ChannelID, channel
	default:
		return ChannelUsername, channel
	}
}
