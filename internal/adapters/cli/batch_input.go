package cli

import (
	"bufio"
	"os"
	"strings"
)

// ParseIDFile reads a file containing record IDs, one per line.
// Blank lines and lines starting with # are ignored, and so is anything after
// the first comma or whitespace, so the first column of a CSV export works.
func ParseIDFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var ids []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip blank lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if i := strings.IndexAny(line, ", \t;"); i >= 0 {
			line = line[:i]
		}
		if line == "" || strings.EqualFold(line, "id") {
			continue
		}

		ids = append(ids, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

// CollectIDs combines CLI arguments and file input, deduplicating.
// Args are processed first, then file entries.
// Returns IDs in order of first appearance.
func CollectIDs(args []string, filePath string) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string

	add := func(id string) {
		id = strings.TrimSpace(id)
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	// Process CLI args first
	for _, arg := range args {
		add(arg)
	}

	// Process file if provided
	if filePath != "" {
		fileIDs, err := ParseIDFile(filePath)
		if err != nil {
			return nil, err
		}
		for _, id := range fileIDs {
			add(id)
		}
	}

	return ids, nil
}
