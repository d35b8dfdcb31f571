// Package tasks turns Spotify links into downloaded files, one queue per user.
//
// # Components
//
//  1. [Lister] : expands a track, album or playlist link into [models.TrackDescriptor] values
//     - albums are paged 50 at a time, playlists 100 at a time
//     - entries without a name or artists are skipped with a warning
//
//  2. [Worker] : runs one track through the matcher, the fetcher and the tagger
//     - Search Failed, No Link Found, File Already Exists, Download Failed or Processing Complete
//     - "N% Downloaded" while the fetch is in flight
//
//  3. [Queue] : owns the track list, the cursor and the run status
//     - [Queue.Submit] appends and starts the dispatch loop when it is not running
//     - [Queue.Stop] prevents further launches; the list is cleared when the loop exits
//     - [Queue.Snapshot] copies the state for the progress broadcaster
//
// # Progress Reporting
//
// Link expansion reports [ProgressUpdate] values through a channel. Updates use
// select with default so a slow reader never stalls the lister.
//
// # Concurrency
//
// Each batch is bounded by the queue's thread limit. Workers are joined with an
// errgroup before the next batch starts. Status writes and snapshots share the
// queue mutex, and every launched worker advances the cursor exactly once.
package tasks
