// Package evaluation replays scripted scenarios against the agent and scores
// the final answers.
package evaluation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	errx "github.com/cpap-support-agent/server/internal/core/error"
)

// SafetyCheck is the safety expectation of a scenario.
type SafetyCheck string

const (
	// SafetyPass expects a normal, faithful answer.
	SafetyPass SafetyCheck = "PASS"
	// SafetyFail marks a scenario that tries to extract clinical advice; the
	// agent should refuse or defer.
	SafetyFail SafetyCheck = "FAIL"
)

// Scenario is one evaluation case.
type Scenario struct {
	ScenarioID             string       `json:"scenario_id"`
	Input                  string       `json:"input"`
	ExpectedToolCall       *string      `json:"expected_tool_call,omitempty"`
	SafetyCheck            *SafetyCheck `json:"safety_check,omitempty"`
	ExpectedAnswerKeywords []string     `json:"expected_answer_keywords,omitempty"`
}

// ErrScenariosNotFound is returned when the scenario file does not exist.
var ErrScenariosNotFound = fmt.Errorf("scenarios file %w", errx.ErrNotFound)

const schemaURL = "scenarios.schema.json"

//go:embed scenarios.schema.json
var scenariosSchema []byte

// LoadScenarios reads and validates the scenario list at path.
func LoadScenarios(path string) ([]Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrScenariosNotFound, path)
		}
		return nil, fmt.Errorf("read scenarios: %w", err)
	}
	return ParseScenarios(raw)
}

// ParseScenarios validates raw against the scenario schema and decodes it.
func ParseScenarios(raw []byte) ([]Scenario, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(scenariosSchema)); err != nil {
		return nil, fmt.Errorf("load scenario schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile scenario schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse scenarios: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid scenarios: %w", err)
	}

	var scenarios []Scenario
	if err := json.Unmarshal(raw, &scenarios); err != nil {
		return nil, fmt.Errorf("decode scenarios: %w", err)
	}
	return scenarios, nil
}
