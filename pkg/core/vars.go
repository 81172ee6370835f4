package core

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const envPrefix = "env:"

// envTemplateRe matches the "{{ env.NAME }}" form. It is only honoured in
// coordinate files; step values use the "env:" prefix alone.
var envTemplateRe = regexp.MustCompile(`^\s*\{\{\s*env\.([A-Za-z0-9_]+)\s*}}\s*$`)

// ResolveValue resolves an "env:NAME" reference against the process
// environment. Unset names yield "". Any other string is returned as is.
func ResolveValue(raw string) (value string, fromEnv bool) {
	if !strings.HasPrefix(raw, envPrefix) {
		return raw, false
	}
	name := strings.TrimSpace(strings.TrimPrefix(raw, envPrefix))
	return os.Getenv(name), true
}

func coordinateEnvName(raw string) (string, bool) {
	if strings.HasPrefix(raw, envPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(raw, envPrefix)), true
	}
	if match := envTemplateRe.FindStringSubmatch(raw); match != nil {
		return match[1], true
	}
	return "", false
}

// LoadCoordinatesFile reads a YAML or JSON mapping of challenge keys to values.
// Values may reference the environment; missing variables resolve to "" and
// are reported through logger.
func LoadCoordinatesFile(path string, logger Logger) (CoordinateTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading coordinates file %q: %w", path, err)
	}

	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing coordinates file %q: %w", path, err)
	}

	table := make(CoordinateTable, len(raw))
	for key, val := range raw {
		name, ok := coordinateEnvName(val)
		if !ok {
			table[key] = val
			continue
		}
		envVal, exists := os.LookupEnv(name)
		if !exists && logger != nil {
			logger.Warn().Str("env", name).Str("key", key).Msg("Environment variable not found for coordinate")
		}
		table[key] = envVal
	}
	return table, nil
}

// Values returns every value in the table, for redaction.
func (c CoordinateTable) Values() []string {
	out := make([]string, 0, len(c))
	for _, v := range c {
		out = append(out, v)
	}
	return out
}
