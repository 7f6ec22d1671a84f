// Package models defines the domain values passed between pipeline stages.
//
// The values describe one collection run:
//   - [Link] : a parsed Spotify URL tagged with its [ContentKind]
//   - [CollectionMetadata] : the resolved collection with its canonical [TrackRecord] list
//   - [AcquiredFile] : an audio file left on disk by the download tool
//   - [MatchedPair] : an acquired file bound to the track it is believed to represent
//   - [ArtworkAsset] : the temporary cover image shared by every pair in a run
//   - [RunOutcome] : the line appended to the run log after a successful run
//
// None of these are mutated after construction.
package models
