// Package logtail reads the tail of the station's structured log file and
// renders it for the dashboard's log viewer. The log is newline-delimited
// JSON as written by zerolog; lines that do not parse are shown raw.
package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Tail returns at most maxLines formatted entries from the end of the log
// file at path, oldest first. A missing file yields no lines and no error.
func Tail(path string, maxLines int) ([]string, error) {
	raw, err := tailLines(path, maxLines)
	if err != nil {
		return nil, err
	}
	formatted := make([]string, len(raw))
	for i, line := range raw {
		formatted[i] = formatLine(line)
	}
	return formatted, nil
}

// tailLines extracts the last maxLines lines using a ring buffer, so memory
// stays bounded regardless of how large the log has grown.
func tailLines(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// reservedFields are rendered in fixed positions; everything else becomes a
// sorted key=value trailer.
var reservedFields = map[string]struct{}{
	"level":   {},
	"time":    {},
	"message": {},
}

// levelStyles maps zerolog level names to the conventional console tag and
// a display color.
var levelStyles = map[string]struct {
	tag   string
	color string
}{
	"trace": {"TRC", "gray"},
	"debug": {"DBG", "gray"},
	"info":  {"INF", "green"},
	"warn":  {"WRN", "yellow"},
	"error": {"ERR", "red"},
	"fatal": {"FTL", "red"},
	"panic": {"PNC", "red"},
}

// formatLine turns one zerolog JSON line into a tview-markup string:
// timestamp, colored level tag, message, then extra fields.
func formatLine(raw string) string {
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return escapeMarkup(raw)
	}

	var b strings.Builder

	if ts, ok := fields["time"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			b.WriteString("[gray]" + parsed.Format("15:04:05") + "[-] ")
		}
	}

	level, _ := fields["level"].(string)
	style, ok := levelStyles[level]
	if !ok {
		style.tag, style.color = "???", "white"
	}
	b.WriteString("[" + style.color + "]" + style.tag + "[-] ")

	if msg, ok := fields["message"].(string); ok {
		b.WriteString(escapeMarkup(msg))
	}

	extras := make([]string, 0, len(fields))
	for k := range fields {
		if _, reserved := reservedFields[k]; reserved {
			continue
		}
		extras = append(extras, k)
	}
	sort.Strings(extras)
	for _, k := range extras {
		b.WriteString(fmt.Sprintf(" [gray]%s=[-]%s", k, escapeMarkup(fmt.Sprint(fields[k]))))
	}
	return b.String()
}

// escapeMarkup doubles '[' so log content cannot inject color tags into the
// viewer. Mirrors tview.Escape without importing the UI toolkit here.
func escapeMarkup(s string) string {
	return strings.ReplaceAll(s, "[", "[[")
}
