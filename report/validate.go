package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldProblem is one violation found while validating a payload.
type FieldProblem struct {
	// Field is a JSON path such as "ranked_names[2].critiques[0].score".
	// It is empty for problems with the payload as a whole.
	Field   string
	Message string
}

func (p FieldProblem) String() string {
	if p.Field == "" {
		return p.Message
	}
	return p.Field + ": " + p.Message
}

// SchemaValidationError reports a structured payload that does not satisfy
// the FinalReport contract.
type SchemaValidationError struct {
	Cause    error
	Problems []FieldProblem
}

func (e *SchemaValidationError) Error() string {
	if len(e.Problems) == 0 {
		if e.Cause != nil {
			return fmt.Sprintf("report schema validation failed: %v", e.Cause)
		}
		return "report schema validation failed"
	}
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	return "report schema validation failed: " + strings.Join(parts, "; ")
}

func (e *SchemaValidationError) Unwrap() error {
	return e.Cause
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Parse decodes and validates an untyped payload. Unknown fields and
// ill-typed values are rejected; nothing is coerced or recomputed. On
// failure the error is a *SchemaValidationError.
func Parse(payload json.RawMessage) (*FinalReport, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, &SchemaValidationError{
			Problems: []FieldProblem{{Message: "payload is empty"}},
		}
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()

	var r FinalReport
	if err := dec.Decode(&r); err != nil {
		return nil, &SchemaValidationError{
			Cause:    err,
			Problems: []FieldProblem{decodeProblem(err)},
		}
	}
	if dec.More() {
		return nil, &SchemaValidationError{
			Problems: []FieldProblem{{Message: "trailing data after report object"}},
		}
	}

	if problems := Check(&r); len(problems) > 0 {
		return nil, &SchemaValidationError{Problems: problems}
	}
	return &r, nil
}

// Check validates a decoded report and returns every problem found.
func Check(r *FinalReport) []FieldProblem {
	var problems []FieldProblem

	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return []FieldProblem{{Message: err.Error()}}
		}
		for _, fe := range verrs {
			problems = append(problems, FieldProblem{
				Field:   fieldPath(fe.Namespace()),
				Message: describe(fe),
			})
		}
	}

	for i, sn := range r.RankedNames {
		prefix := fmt.Sprintf("ranked_names[%d]", i)
		if want := sn.ExpectedTotal(); sn.TotalScore != want {
			problems = append(problems, FieldProblem{
				Field:   prefix + ".total_score",
				Message: fmt.Sprintf("is %d but critique scores sum to %d", sn.TotalScore, want),
			})
		}
		if !sn.AverageConsistent() {
			problems = append(problems, FieldProblem{
				Field:   prefix + ".average_score",
				Message: fmt.Sprintf("is %.2f but critiques average %.3f", sn.AverageScore, sn.ExactAverage()),
			})
		}
		if i > 0 && sn.TotalScore > r.RankedNames[i-1].TotalScore {
			problems = append(problems, FieldProblem{
				Field: prefix + ".total_score",
				Message: fmt.Sprintf("%d ranks below %d; names must be sorted by total_score descending",
					sn.TotalScore, r.RankedNames[i-1].TotalScore),
			})
		}
	}

	return problems
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

func decodeProblem(err error) FieldProblem {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return FieldProblem{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("expected %s, got JSON %s", typeErr.Type, typeErr.Value),
		}
	}
	return FieldProblem{Message: err.Error()}
}
