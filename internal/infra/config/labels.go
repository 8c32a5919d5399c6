package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ecommify/internal/domain/fulfillment"
	"ecommify/internal/domain/reminder"
)

//go:embed labels.yaml
var defaultLabels []byte

type Shop struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

// Labels maps stored identifiers to display names.
type Labels struct {
	Stages     map[fulfillment.Status]string  `yaml:"stages"`
	Actions    map[fulfillment.Action]string  `yaml:"actions"`
	Recurrence map[reminder.Recurrence]string `yaml:"recurrence"`
	Shops      map[int]Shop                   `yaml:"shops"`
}

// LoadLabels returns the built-in labels, with entries from path (if any) overriding them.
func LoadLabels(path string) (*Labels, error) {
	l := &Labels{}
	if err := yaml.Unmarshal(defaultLabels, l); err != nil {
		return nil, fmt.Errorf("failed to parse built-in labels: %w", err)
	}
	if path == "" {
		return l, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read labels file: %w", err)
	}
	var override Labels
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return nil, fmt.Errorf("failed to parse labels file %s: %w", path, err)
	}
	for k, v := range override.Stages {
		l.Stages[k] = v
	}
	for k, v := range override.Actions {
		l.Actions[k] = v
	}
	for k, v := range override.Recurrence {
		l.Recurrence[k] = v
	}
	for k, v := range override.Shops {
		l.Shops[k] = v
	}
	return l, nil
}

func (l *Labels) Stage(s fulfillment.Status) string {
	if v, ok := l.Stages[s]; ok {
		return v
	}
	return string(s)
}

func (l *Labels) Action(a fulfillment.Action) string {
	if v, ok := l.Actions[a]; ok {
		return v
	}
	return string(a)
}

func (l *Labels) RecurrenceName(r reminder.Recurrence) string {
	if v, ok := l.Recurrence[r]; ok {
		return v
	}
	return string(r)
}

func (l *Labels) ShopName(id int) string {
	if s, ok := l.Shops[id]; ok && s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("Sklep %d", id)
}
