package pipeline

import (
	"fmt"
	"regexp"

	"github.com/numline-systems/numline-ingest/internal/models"
)

// Creation events must carry exactly these fields. The strict count check
// catches both truncated and over-enriched events without a schema engine.
var creationFields = []string{
	FieldE164Number,
	FieldCountry,
	FieldState,
	FieldType,
}

// Wire field names shared by validator and mapper.
const (
	FieldE164Number    = "e164Number"
	FieldCountry       = "country"
	FieldState         = "state"
	FieldType          = "type"
	FieldCorrelationID = "correlationId"
	FieldUserID        = "userId"
)

var e164Pattern = regexp.MustCompile(`^\+\d{10,15}$`)

// Validator checks creation events against the wire contract: exactly the
// four creation fields, with a well-formed E.164 number as key.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns nil for a well-formed creation event and a
// *ValidationError otherwise. It has no side effects.
func (v *Validator) Validate(ev models.RawEvent) error {
	if len(ev) != len(creationFields) {
		return &ValidationError{
			Reason: fmt.Sprintf("expected %d fields, got %d", len(creationFields), len(ev)),
		}
	}
	for _, field := range creationFields {
		if _, ok := ev[field]; !ok {
			return &ValidationError{Reason: "missing field " + field}
		}
	}
	if !e164Pattern.MatchString(ev[FieldE164Number]) {
		return &ValidationError{Reason: "e164Number is not a valid E.164 number"}
	}
	return nil
}
