// Package source produces the sequence of download entries from a URL
// list file. Plain lists carry one URL per line; YAML lists additionally
// allow an output-name override per entry.
package source

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tanq16/grablist/internal/resolve"
	"github.com/tanq16/grablist/internal/utils"
	"gopkg.in/yaml.v3"
)

// Entry is one requested download. OutputName is empty unless the list
// explicitly names the output file.
type Entry struct {
	URL        string `yaml:"link"`
	OutputName string `yaml:"op,omitempty"`
}

// List reads entries from a file on demand. A List can be streamed more
// than once; each Stream call re-reads the file.
type List struct {
	path string
}

func NewList(path string) *List {
	return &List{path: path}
}

// Stream emits entries in file order on the returned channel. Blank
// lines are ignored and lines that are not valid URLs are logged with
// their line number and dropped. The channel is closed once the file is
// exhausted.
func (l *List) Stream() (<-chan Entry, error) {
	ext := strings.ToLower(filepath.Ext(l.path))
	if ext == ".yaml" || ext == ".yml" {
		return l.streamYAML()
	}
	return l.streamLines()
}

func (l *List) streamLines() (<-chan Entry, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("error opening URL list: %w", err)
	}
	log := utils.GetLogger("source")
	ch := make(chan Entry)
	go func() {
		defer f.Close()
		defer close(ch)
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		lineNum := 0
		for scanner.Scan() {
			lineNum++
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if err := resolve.Validate(line); err != nil {
				log.Error().Int("line", lineNum).Str("value", line).Msg("Not a valid URL, skipping line")
				continue
			}
			ch <- Entry{URL: line}
		}
		if err := scanner.Err(); err != nil {
			log.Error().Err(err).Str("file", l.path).Msg("Error reading URL list")
		}
	}()
	return ch, nil
}

func (l *List) streamYAML() (<-chan Entry, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("error reading YAML file: %w", err)
	}
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("error parsing YAML file: %w", err)
	}
	log := utils.GetLogger("source")
	ch := make(chan Entry)
	go func() {
		defer close(ch)
		for i, entry := range entries {
			if entry.URL == "" {
				log.Error().Int("entry", i+1).Msg("Missing link in YAML entry, skipping")
				continue
			}
			if err := resolve.Validate(entry.URL); err != nil {
				log.Error().Int("entry", i+1).Str("value", entry.URL).Msg("Not a valid URL, skipping entry")
				continue
			}
			ch <- entry
		}
	}()
	return ch, nil
}
