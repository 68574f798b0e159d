package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"readingquest/internal/models"
)

// DefaultStages is the board used when no stage file is configured.
// The last stage is the destination.
var DefaultStages = []models.Stage{
	{
		Name:    "Butterfly Garden",
		Glyph:   "🦋",
		Tooltip: "You found your first butterfly! Let’s keep reading to earn more!",
	},
	{
		Name:    "Magic Forest",
		Glyph:   "🌳",
		Tooltip: "Answer your ‘who’ and ‘what’ questions to move through the forest!",
	},
	{
		Name:    "Crystal Bridge",
		Glyph:   "💎",
		Tooltip: "Retell your story with two details to cross the bridge!",
	},
	{
		Name:    "Royal Gate",
		Glyph:   "🔑",
		Tooltip: "Use your magic words: ‘I think… because…’ to unlock the gate!",
	},
	{
		Name:    "Princess Castle",
		Glyph:   "🏰",
		Tooltip: "You did it, Princess Celine! You’re the Queen of Reading!",
	},
}

// DefaultFallbackMessages are shown when the text provider cannot answer
var DefaultFallbackMessages = []string{
	"You helped the butterfly fly!",
	"Great job, keep going!",
	"What a fantastic reader!",
	"Almost at the castle!",
	"You're a reading superstar, Celine!",
	"Amazing retelling!",
	"Wow, you are so smart!",
	"Queen of Retell!",
}

// Catalog is the static board configuration, loaded once at startup
type Catalog struct {
	Stages           []models.Stage `yaml:"stages"`
	FallbackMessages []string       `yaml:"fallback_messages"`
}

// ErrNoStages is returned when a catalogue defines an empty board
var ErrNoStages = errors.New("catalog must define at least one stage")

// DefaultCatalog returns a copy of the built-in catalogue
func DefaultCatalog() *Catalog {
	c := &Catalog{
		Stages:           make([]models.Stage, len(DefaultStages)),
		FallbackMessages: make([]string, len(DefaultFallbackMessages)),
	}
	copy(c.Stages, DefaultStages)
	copy(c.FallbackMessages, DefaultFallbackMessages)
	return c
}

// LoadCatalog reads the catalogue from a YAML file, or returns the default
// catalogue when path is empty. Missing sections fall back to the defaults.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stages file %s: %w", path, err)
	}

	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalogue document
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse stages file: %w", err)
	}

	defaults := DefaultCatalog()
	if len(c.Stages) == 0 {
		c.Stages = defaults.Stages
	}
	if len(c.FallbackMessages) == 0 {
		c.FallbackMessages = defaults.FallbackMessages
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the catalogue is usable
func (c *Catalog) Validate() error {
	if len(c.Stages) == 0 {
		return ErrNoStages
	}
	for i, s := range c.Stages {
		if s.Name == "" {
			return fmt.Errorf("stage %d: name is required", i)
		}
	}
	if len(c.FallbackMessages) == 0 {
		return errors.New("catalog must define at least one fallback message")
	}
	return nil
}

// MaxTokens is the number of tokens needed to reach the destination
func (c *Catalog) MaxTokens() int {
	return len(c.Stages)
}
