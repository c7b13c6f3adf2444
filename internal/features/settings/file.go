package settings

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"serotonyl.ru/activity-bot/internal/common"
)

// FileSource serves read-only guild settings from a YAML file:
//
//	guilds:
//	  "-1001234567890":
//	    points_system: true
//	    activity_roles:
//	      - {cost: 100, label: Bronze}
//	      - {cost: 150, label: Silver}
//
// Every ladder is validated when the file is loaded.
type FileSource struct {
	guilds map[string]*GuildSettings
}

type fileFormat struct {
	Guilds map[string]*GuildSettings `yaml:"guilds"`
}

// LoadFile reads and validates the settings file.
func LoadFile(path string) (*FileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	return ParseFile(data)
}

// ParseFile parses settings file contents.
func ParseFile(data []byte) (*FileSource, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}

	guilds := make(map[string]*GuildSettings, len(f.Guilds))
	for id, g := range f.Guilds {
		if g == nil {
			g = &GuildSettings{}
		}
		g.GuildID = id
		if _, err := g.Ladder(); err != nil {
			return nil, fmt.Errorf("guild %s: %w", id, err)
		}
		guilds[id] = g
	}
	return &FileSource{guilds: guilds}, nil
}

// Get returns a copy of the guild's settings.
func (s *FileSource) Get(ctx context.Context, guildID string) (*GuildSettings, error) {
	g, ok := s.guilds[guildID]
	if !ok {
		return nil, fmt.Errorf("settings (guild=%s): %w", guildID, common.ErrGuildNotConfigured)
	}
	cp := *g
	cp.ActivityRoles = append(cp.ActivityRoles[:0:0], g.ActivityRoles...)
	return &cp, nil
}

// ListEnabled returns the guilds with the points system on, sorted.
func (s *FileSource) ListEnabled(ctx context.Context) ([]string, error) {
	var out []string
	for id, g := range s.guilds {
		if g.PointsSystem {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}
