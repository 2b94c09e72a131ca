package replay

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadGroups reads a group -> subject ids mapping from a YAML or JSON file.
func LoadGroups(path string) (map[string][]string, error) {
	k := koanf.New("\x00")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("read groups %s: %w", path, err)
	}
	groups := make(map[string][]string, len(k.Keys()))
	for _, key := range k.Keys() {
		groups[key] = k.Strings(key)
	}
	return groups, nil
}
