// Package models defines the data types shared by the download queue, the session layer and the transport.
//
// The package contains two categories of types:
//
// 1. Queue entries
//   - [TrackDescriptor] : one song the queue will process, created with status [StatusQueued]
//   - [TrackStatus] : the lifecycle string shown to the user
//
// 2. Queue state
//   - [RunStatus] : Idle, Running, Complete or Stopped
//   - [Snapshot] : the read model of a queue pushed to the browser as progress_status
//
// Field names on [TrackDescriptor] and [Snapshot] are serialized as-is since the
// browser page reads them by those keys.
package models
