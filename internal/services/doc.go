// Package services wraps the three external systems the download queue talks to.
//
// # Spotify
//
// [SpotifyService] implements [MetadataProvider] with the client-credentials OAuth2
// flow. The token source refreshes transparently, so callers never handle tokens.
// [ParseLink] turns open.spotify.com URLs and spotify: URIs into a kind and an ID.
//
// # YouTube Music
//
// [YouTubeService] implements [Searcher] by calling the FastAPI proxy that wraps
// ytmusicapi. Results carry the category ("Top result", "Songs", ...) and result type
// ("song", "video", ...) the matcher relies on. Searches can be rate limited.
//
// [APIService] issues raw requests to the same proxy and exposes a health probe.
//
// # yt-dlp
//
// [YTDLPFetcher] implements [Fetcher] by driving the yt-dlp binary: best audio, mp3
// conversion, embedded thumbnail and metadata, then an ID3 rewrite with [TagFile].
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrMissingCredentials] : client id, secret or auth file not provided
//   - [shared.ErrAPIRequest] : HTTP request failed or returned a non-2xx status
//   - [shared.ErrServiceUnavailable] : the proxy could not be reached
//   - [shared.ErrFetchFailed] : yt-dlp exited with an error
//   - [shared.ErrInvalidLink] : a Spotify link could not be parsed
package services
