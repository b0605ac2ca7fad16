package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var (
	schemasOnce sync.Once
	schemasErr  error
	helloSchema *jsonschema.Schema
	inputSchema *jsonschema.Schema
)

func loadSchemas() error {
	schemasOnce.Do(func() {
		c := jsonschema.NewCompiler()
		for _, name := range []string{"hello.schema.json", "input.schema.json"} {
			raw, err := schemaFS.ReadFile("schemas/" + name)
			if err != nil {
				schemasErr = err
				return
			}
			if err := c.AddResource(name, bytes.NewReader(raw)); err != nil {
				schemasErr = fmt.Errorf("schema %s: %w", name, err)
				return
			}
		}
		if helloSchema, schemasErr = c.Compile("hello.schema.json"); schemasErr != nil {
			return
		}
		inputSchema, schemasErr = c.Compile("input.schema.json")
	})
	return schemasErr
}

func validate(s *jsonschema.Schema, raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return s.Validate(doc)
}

// ValidateHello checks a raw HELLO message against its schema.
func ValidateHello(raw []byte) error {
	if err := loadSchemas(); err != nil {
		return err
	}
	return validate(helloSchema, raw)
}

// ValidateInput checks a raw INPUT message against its schema.
func ValidateInput(raw []byte) error {
	if err := loadSchemas(); err != nil {
		return err
	}
	return validate(inputSchema, raw)
}
