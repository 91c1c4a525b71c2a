package competitor

import (
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/curricula-cloud/currdex/internal/domain/benchmark"
)

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProgram(row rowScanner) (benchmark.Program, error) {
	var (
		id, institution, programName, level string
		rawTopics                           []byte
		totalHours                          float64
		moduleCount                         int
		assessmentTypes, deliveryMethods    pq.StringArray
	)

	err := row.Scan(
		&id, &institution, &programName, &level, &rawTopics,
		&totalHours, &moduleCount, &assessmentTypes, &deliveryMethods,
	)
	if err != nil {
		return benchmark.Program{}, fmt.Errorf("scan competitor program: %w", err)
	}

	topics, err := topicsFromJSON(rawTopics)
	if err != nil {
		return benchmark.Program{}, fmt.Errorf("decode topics for %s: %w", id, err)
	}

	return benchmark.ReconstructProgram(id, institution, programName, level, topics, benchmark.Structure{
		TotalHours:      totalHours,
		ModuleCount:     moduleCount,
		AssessmentTypes: assessmentTypes,
		DeliveryMethods: deliveryMethods,
	}), nil
}

func topicsToJSON(topics []benchmark.CompetitorTopic) ([]byte, error) {
	if topics == nil {
		topics = []benchmark.CompetitorTopic{}
	}
	data, err := json.Marshal(topics)
	if err != nil {
		return nil, fmt.Errorf("marshal topics: %w", err)
	}
	return data, nil
}

func topicsFromJSON(data []byte) ([]benchmark.CompetitorTopic, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var topics []benchmark.CompetitorTopic
	if err := json.Unmarshal(data, &topics); err != nil {
		return nil, fmt.Errorf("unmarshal topics: %w", err)
	}
	return topics, nil
}
