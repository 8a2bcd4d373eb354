package sample

import "fmt"

// Result codes for a classified sample.
const (
	ResultPositive = "POS"
	ResultNegative = "NEG"
)

// Finding is a single observed parasite with its stage, in catalog order.
type Finding struct {
	FieldID    string `json:"field_id"`
	Label      string `json:"label"`
	StageCode  string `json:"stage_code"`
	StageLabel string `json:"stage_label"`
}

// Classify derives the overall result and the ordered findings from the
// parasite field values. It is pure: same input, same output, no I/O.
// A sample is positive iff at least one field holds a non-empty stage code.
func Classify(values map[string]string) (string, []Finding) {
	var findings []Finding
	for _, f := range Catalog {
		code := values[f.ID]
		if code == "" {
			continue
		}
		findings = append(findings, Finding{
			FieldID:    f.ID,
			Label:      f.Label,
			StageCode:  code,
			StageLabel: StageLabel(f.Group, code),
		})
	}
	if len(findings) == 0 {
		return ResultNegative, nil
	}
	return ResultPositive, findings
}

// ValidateValues rejects unknown field identifiers and stage codes that do
// not belong to the field's group.
func ValidateValues(values map[string]string) error {
	for id, code := range values {
		f, ok := fieldByID[id]
		if !ok {
			return fmt.Errorf("unknown parasite field: %s", id)
		}
		if !ValidStage(f.Group, code) {
			return fmt.Errorf("invalid stage code %q for %s", code, f.Label)
		}
	}
	return nil
}
