package loan

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "qarzapp/internal/common/errors"
	"qarzapp/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

const applicationInputSchema = `{
	"type": "object",
	"properties": {
		"fullName":       {"type": "string", "minLength": 1},
		"nationalId":     {"type": "string", "minLength": 1},
		"address":        {"type": "string"},
		"employmentType": {"type": "string"},
		"monthlyIncome":  {"type": "string", "pattern": "^[0-9]+$"},
		"cnicImage":      {"type": "string"},
		"selfieImage":    {"type": "string"}
	},
	"required": ["fullName", "nationalId", "monthlyIncome"]
}`

// validateInput checks the form fields against the schema and parses the
// income figure. Returns the parsed monthly income.
func validateInput(input *models.ApplicationInput) (int, error) {
	trimInput(input)

	schemaLoader := gojsonschema.NewStringLoader(applicationInputSchema)
	documentLoader := gojsonschema.NewGoLoader(input)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return 0, apperrors.NewValidationError(fmt.Sprintf("schema validation error: %v", err))
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return 0, apperrors.NewValidationError(strings.Join(errs, "; "))
	}

	income, err := strconv.Atoi(input.MonthlyIncome)
	if err != nil {
		return 0, apperrors.NewValidationError(fmt.Sprintf("monthlyIncome is not a valid integer: %v", err))
	}
	if income < 0 {
		return 0, apperrors.NewValidationError("monthlyIncome must be non-negative")
	}
	return income, nil
}

func trimInput(input *models.ApplicationInput) {
	input.FullName = strings.TrimSpace(input.FullName)
	input.NationalID = strings.TrimSpace(input.NationalID)
	input.Address = strings.TrimSpace(input.Address)
	input.EmploymentType = strings.TrimSpace(input.EmploymentType)
	input.MonthlyIncome = strings.TrimSpace(input.MonthlyIncome)
}
