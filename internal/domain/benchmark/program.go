// Package benchmark defines the competitor program aggregate and the
// comparison report types produced by the benchmark engine.
package benchmark

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// CompetitorTopic is one topic of a competitor curriculum. Imports carry
// topics either as bare strings or detailed objects; both shapes resolve into
// this struct at decode time and never leak past ingestion.
type CompetitorTopic struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Hours       float64 `json:"hours,omitempty"`
	ModuleCode  string  `json:"module_code,omitempty"`
}

// UnmarshalJSON accepts either a JSON string ("Databases") or a detailed
// topic object.
func (t *CompetitorTopic) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var name string
		if err := json.Unmarshal(trimmed, &name); err != nil {
			return err
		}
		*t = CompetitorTopic{Name: name}
		return nil
	}
	type plain CompetitorTopic
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	*t = CompetitorTopic(p)
	return nil
}

// Structure holds the structural attributes of a competitor program.
// Zero values mean the attribute was not declared.
type Structure struct {
	TotalHours      float64
	ModuleCount     int
	AssessmentTypes []string
	DeliveryMethods []string
}

// Program is an imported competitor curriculum (immutable value object).
type Program struct {
	id          string
	institution string
	programName string
	level       string
	topics      []CompetitorTopic
	structure   Structure
}

// NewProgram validates and creates a Program. Topic names must be non-empty
// after trimming; empty topics are an import defect, not skippable noise.
func NewProgram(
	id, institution, programName, level string,
	topics []CompetitorTopic, structure Structure,
) (Program, error) {
	if id == "" {
		return Program{}, fmt.Errorf("program ID is required")
	}
	if institution == "" {
		return Program{}, fmt.Errorf("institution name is required")
	}
	if programName == "" {
		return Program{}, fmt.Errorf("program name is required")
	}
	if structure.TotalHours < 0 {
		return Program{}, fmt.Errorf("total hours must not be negative")
	}
	if structure.ModuleCount < 0 {
		return Program{}, fmt.Errorf("module count must not be negative")
	}
	cleaned := make([]CompetitorTopic, len(topics))
	for i, topic := range topics {
		topic.Name = strings.TrimSpace(topic.Name)
		if topic.Name == "" {
			return Program{}, fmt.Errorf("topic %d: name is required", i)
		}
		cleaned[i] = topic
	}

	return Program{
		id:          id,
		institution: institution,
		programName: programName,
		level:       level,
		topics:      cleaned,
		structure:   structure,
	}, nil
}

// ReconstructProgram creates a Program without validation (storage hydration).
func ReconstructProgram(
	id, institution, programName, level string,
	topics []CompetitorTopic, structure Structure,
) Program {
	return Program{
		id: id, institution: institution, programName: programName,
		level: level, topics: topics, structure: structure,
	}
}

// ID returns the program identifier.
func (p *Program) ID() string { return p.id }

// InstitutionName returns the competitor institution.
func (p *Program) InstitutionName() string { return p.institution }

// ProgramName returns the competitor program title.
func (p *Program) ProgramName() string { return p.programName }

// Level returns the qualification level, empty when not declared.
func (p *Program) Level() string { return p.level }

// Topics returns the competitor topics.
func (p *Program) Topics() []CompetitorTopic { return p.topics }

// TopicNames returns the topic names in declaration order.
func (p *Program) TopicNames() []string {
	names := make([]string, len(p.topics))
	for i := range p.topics {
		names[i] = p.topics[i].Name
	}
	return names
}

// Structure returns the structural attributes.
func (p *Program) Structure() Structure { return p.structure }
