package cli

import (
	"fmt"
	"os"

	"github.com/orviagent/orvi/pkg/schema"
)

type SchemaCmd struct {
	Output string `short:"o" help:"Write the schema to a file instead of stdout." type:"path"`
}

func (s *SchemaCmd) Run() error {
	data, err := schema.GenerateMissionSchema()
	if err != nil {
		return fmt.Errorf("generating mission schema: %w", err)
	}
	data = append(data, '\n')

	if s.Output == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(s.Output, data, 0644); err != nil {
		return fmt.Errorf("writing schema to %q: %w", s.Output, err)
	}
	return nil
}
