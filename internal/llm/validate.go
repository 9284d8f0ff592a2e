package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// compiled receipt schemas keyed by the joined category list
var receiptSchemas sync.Map

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("receipt.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("receipt.json")
}

func receiptSchema(allowed []string) (*jsonschema.Schema, error) {
	key := strings.Join(allowed, "\x00")
	if s, ok := receiptSchemas.Load(key); ok {
		return s.(*jsonschema.Schema), nil
	}
	s, err := compileSchema(BuildReceiptJSONSchema(allowed))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	receiptSchemas.Store(key, s)
	return s, nil
}

// ValidateReceiptJSON checks data against the receipt schema for the allowed categories.
// Numbers are decoded as json.Number so amounts are validated without float rounding.
func ValidateReceiptJSON(allowed []string, data []byte) error {
	schema, err := receiptSchema(allowed)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
