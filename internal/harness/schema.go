package harness

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed scenario.cue
var scenarioSchemaSrc string

// A cue.Context is not safe for concurrent use, so schema validation is
// serialized.
var (
	schemaMu    sync.Mutex
	schemaCtx   *cue.Context
	schemaValue cue.Value
	schemaErr   error
)

func scenarioSchema() (*cue.Context, cue.Value, error) {
	if schemaCtx == nil {
		schemaCtx = cuecontext.New()
		v := schemaCtx.CompileString(scenarioSchemaSrc, cue.Filename("scenario.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("compile scenario schema: %w", err)
		} else {
			schemaValue = v.LookupPath(cue.ParsePath("#Scenario"))
			schemaErr = schemaValue.Err()
		}
	}
	return schemaCtx, schemaValue, schemaErr
}

// validateSchema unifies the YAML document with #Scenario.
func validateSchema(data []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	schemaMu.Lock()
	defer schemaMu.Unlock()

	ctx, schema, err := scenarioSchema()
	if err != nil {
		return err
	}

	v := ctx.Encode(doc)
	if err := v.Err(); err != nil {
		return fmt.Errorf("encode scenario: %w", err)
	}
	if err := schema.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}
