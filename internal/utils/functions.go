package utils

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var urlSplitRegex = regexp.MustCompile(`[,\s]+`)

func GetRandomUserAgent() string {
	return userAgents[time.Now().UnixNano()%int64(len(userAgents))]
}

func ParseHeaderArgs(headers []string) map[string]string {
	result := make(map[string]string)
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			result[key] = value
		}
	}
	return result
}

// ReadURLFile reads a newline-separated URL list, skipping blank lines and
// lines starting with '#'.
func ReadURLFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening URL list: %v", err)
	}
	defer file.Close()
	var urls []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading URL list: %v", err)
	}
	return urls, nil
}

// ReadBatchManifest parses a YAML list of batch entries ({link, name}).
func ReadBatchManifest(path string) ([]BatchEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading YAML file: %v", err)
	}
	var entries []BatchEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("error parsing YAML file: %v", err)
	}
	for i, entry := range entries {
		if entry.URL == "" {
			return nil, fmt.Errorf("entry %d in YAML file has no link", i+1)
		}
	}
	return entries, nil
}

// SplitURLInput splits a raw prompt line on commas and whitespace.
func SplitURLInput(raw string) []string {
	var urls []string
	for _, part := range urlSplitRegex.Split(raw, -1) {
		if part != "" {
			urls = append(urls, part)
		}
	}
	return urls
}

// DedupeURLs drops repeated URLs, keeping first-seen order.
func DedupeURLs(urls []string) []string {
	seen := make(map[string]bool)
	var result []string
	for _, url := range urls {
		if seen[url] {
			continue
		}
		seen[url] = true
		result = append(result, url)
	}
	return result
}
