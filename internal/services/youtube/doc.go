// Package youtube implements the channel feed sources and the transcript
// fetcher.
//
// Three feed sources satisfy feed.Source:
//
//   - BrowseSource walks the channel's /videos page and follows innertube
//     browse continuations one page at a time. It is the only source that
//     exposes the site's own relative age text and works without credentials.
//   - RSSSource reads the public uploads feed through gofeed. The feed only
//     carries the 15 newest uploads and requires a UC... channel id.
//   - DataAPISource pages the channel's uploads playlist through the YouTube
//     Data API v3 and needs an API key.
//
// TranscriptClient resolves caption tracks through the innertube player
// endpoint and downloads the timed-text XML. Failures are tagged with the
// services markers: ErrRateLimited for HTTP 429, ErrIPBlocked when the site
// answers with a bot check, ErrCaptionsDisabled when a video carries no
// caption tracks.
package youtube
