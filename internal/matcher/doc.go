// Package matcher picks the YouTube video that best matches a Spotify track.
//
// A [Scorer] runs one songs-filtered search for "artist title" and hands the
// results to an ordered list of [Tier] strategies; the first tier that accepts a
// candidate wins:
//
//  1. [SubstringTier] : the candidate title contains the target title
//  2. [FuzzyTier] : title and artist both score at least 90
//  3. [TopResultTier] : the first candidate, unless a title-only search's top
//     result scores 90/40 or 40/90 on title/artist
//
// All text is compared after [shared.NormalizeLower]. Scores come from [Ratio].
package matcher
