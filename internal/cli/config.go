package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"secmcp/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Config utilities",
	}
	cmd.AddCommand(newConfigShowCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration (defaults merged with file and env)",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := config.Load(flagConfig)
			if err != nil {
				return &configError{msg: err.Error()}
			}
			cfg := loader.Current()

			source := flagConfig
			if source == "" {
				source = "(built-in defaults + environment only)"
			}
			fmt.Printf("config.source=%s\n", source)
			fmt.Println("----- BEGIN RESOLVED CONFIG -----")
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return fmt.Errorf("marshal resolved config: %w", err)
			}
			_ = enc.Close()
			fmt.Println("----- END RESOLVED CONFIG -----")
			return nil
		},
	}
}
