package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCommand creates the config command, which prints the
// effective configuration after defaults, file, and environment merge.
func NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cobraCmd)
			if err != nil {
				return err
			}

			encoder := yaml.NewEncoder(os.Stdout)
			defer encoder.Close()

			encodeErr := encoder.Encode(cfg)
			if encodeErr != nil {
				return fmt.Errorf("encode config: %w", encodeErr)
			}

			return nil
		},
	}
}
