package config

import (
	"bufio"
	"bytes"
	"os"
	"strings"
)

// ParseEnvFile reads KEY=VALUE lines in dotenv syntax. Blank lines, comments
// and lines without '=' are ignored; an "export " prefix and matching quotes
// are stripped.
func ParseEnvFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	vars := map[string]string{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || s[0] == '#' {
			continue
		}
		s = strings.TrimPrefix(s, "export ")
		key, val, ok := strings.Cut(s, "=")
		if !ok {
			continue
		}
		vars[strings.TrimSpace(key)] = stripQuotes(strings.TrimSpace(val))
	}
	return vars, sc.Err()
}

func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
