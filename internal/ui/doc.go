// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI moves through four views:
//  1. [InputView] : Paste a Spotify link, or type "history" or "exit"
//  2. [RunningView] : Follow pipeline phases with a spinner and recent messages
//  3. [ResultView] : Review the summary and scroll the full run log
//  4. [HistoryView] : Browse and filter the run log, newest first
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the download pipeline, one message per update, until the run completes.
//
// esc cancels a running download or returns to the input; ctrl+c quits from any view.
package ui
