// Package ui renders a download queue in the terminal using bubbletea's Elm architecture.
//
// The [Model] moves through three views:
//  1. [ExpandView] : the link is being expanded into tracks
//  2. [QueueView] : live progress bar and per-track statuses
//  3. [ResultView] : final tallies and the tracks that did not make it
//
// Expansion progress arrives on a channel fed by the track lister; queue progress is polled from
// [Queue.Snapshot] on a fixed tick, the same snapshot the websocket broadcaster pushes.
//
// Keyboard navigation uses vim-style bindings (j/k, s, q) with contextual help via charmbracelet/bubbles/help.
package ui
