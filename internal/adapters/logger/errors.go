package logger

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// messager is an error that reports its own message without the chain, as
// zerr errors do.
type messager interface {
	Message() string
}

type metadataer interface {
	Metadata() map[string]any
}

// ErrorEntry is one rendered link of an error chain.
type ErrorEntry struct {
	Message  string
	Metadata map[string]any
}

// collectErrorEntries walks the chain outermost first. Links with an empty
// message only carry metadata, which moves to the next printed link. For a
// multi-error link the last branch is followed.
func collectErrorEntries(err error) []ErrorEntry {
	var entries []ErrorEntry
	var pending map[string]any

	for current := err; current != nil; {
		m, ok := current.(messager)
		if !ok {
			entries = append(entries, ErrorEntry{Message: current.Error(), Metadata: pending})
			break
		}

		meta := mergeMetadata(pending, current)
		if m.Message() == "" {
			pending = meta
		} else {
			entries = append(entries, ErrorEntry{Message: m.Message(), Metadata: meta})
			pending = nil
		}
		current = unwrapLast(current)
	}

	if len(pending) > 0 && len(entries) > 0 {
		last := &entries[len(entries)-1]
		if last.Metadata == nil {
			last.Metadata = make(map[string]any, len(pending))
		}
		for k, v := range pending {
			last.Metadata[k] = v
		}
	}
	return entries
}

func unwrapLast(err error) error {
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		errs := u.Unwrap()
		if len(errs) == 0 {
			return nil
		}
		return errs[len(errs)-1]
	default:
		return errors.Unwrap(err)
	}
}

func mergeMetadata(base map[string]any, err error) map[string]any {
	var own map[string]any
	if md, ok := err.(metadataer); ok {
		own = md.Metadata()
	}
	if len(base) == 0 && len(own) == 0 {
		return nil
	}
	merged := make(map[string]any, len(base)+len(own))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range own {
		merged[k] = v
	}
	return merged
}

// formatErrorEntries renders the chain as a main error followed by an
// indented "Caused by" list. Metadata lines follow their entry in key order.
func formatErrorEntries(entries []ErrorEntry) string {
	var lines []string

	for i, entry := range entries {
		msgLines := strings.Split(entry.Message, "\n")
		indent := "      "
		if i == 0 {
			lines = append(lines, "Error: "+msgLines[0])
			indent = "       "
		} else {
			if i == 1 {
				lines = append(lines, "", "  Caused by:")
			}
			lines = append(lines, "    → "+msgLines[0])
		}
		for _, line := range msgLines[1:] {
			lines = append(lines, indent+line)
		}
		for _, key := range sortedKeys(entry.Metadata) {
			lines = append(lines, fmt.Sprintf("%s%s: %v", indent, key, entry.Metadata[key]))
		}
	}

	return strings.Join(lines, "\n")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
