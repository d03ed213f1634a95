package schema

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrContractViolation = goerr.New("response violates schema contract")
)

// Validate checks a decoded JSON value (map[string]any from json.Unmarshal)
// against a contract. A violation does not make the response unusable; the
// caller decides whether to reject or only log it.
func Validate(contract *jsonschema.Schema, value any) error {
	resolved, err := contract.Resolve(nil)
	if err != nil {
		return goerr.Wrap(err, "failed to resolve schema")
	}

	if err := resolved.Validate(value); err != nil {
		return goerr.Wrap(ErrContractViolation, err.Error())
	}
	return nil
}
