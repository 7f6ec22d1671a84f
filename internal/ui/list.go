package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
)

var (
	_ list.Item = historyItem{}
)

// historyItem wraps one run log line to implement [list.Item].
//
// Lines that do not follow the run log layout are shown verbatim.
type historyItem struct {
	line string
}

func (i historyItem) fields() []string {
	return strings.Split(i.line, " | ")
}

func (i historyItem) FilterValue() string { return i.line }

func (i historyItem) Title() string {
	if f := i.fields(); len(f) == 4 {
		return f[1]
	}
	return i.line
}

func (i historyItem) Description() string {
	f := i.fields()
	if len(f) != 4 {
		return ""
	}
	stamp, _, _ := strings.Cut(f[0], "] ")
	return strings.TrimPrefix(stamp, "[") + " • " + f[2] + " • " + f[3]
}

// historyItems returns lines newest first.
func historyItems(lines []string) []list.Item {
	items := make([]list.Item, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		items = append(items, historyItem{line: lines[i]})
	}
	return items
}
