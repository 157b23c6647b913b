package cli

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/DEVBOX10/himalaya/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Config management",
	}
	cmd.AddCommand(newConfigShowCmd(a))
	cmd.AddCommand(newConfigEditCmd(a))
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	var (
		showPassword bool
		format       string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if !showPassword {
				cfg = config.Redact(cfg)
			}

			var (
				out []byte
				err error
			)
			switch format {
			case "toml":
				out, err = config.Encode(cfg)
			case "yaml":
				out, err = yaml.Marshal(cfg)
			default:
				return fmt.Errorf("invalid format %q (expected toml or yaml)", format)
			}
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().BoolVar(&showPassword, "show-password", false, "Show passwords in output")
	cmd.Flags().StringVar(&format, "format", "toml", "Output format (toml or yaml)")

	return cmd
}

func newConfigEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open config file in $EDITOR",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if path == "" {
				var err error
				if path, err = config.ConfigPath(); err != nil {
					return err
				}
			}
			editor := os.Getenv("EDITOR")
			if editor == "" {
				return fmt.Errorf("EDITOR not set; config file is %s", path)
			}
			editCmd := exec.Command(editor, path)
			editCmd.Stdout = os.Stdout
			editCmd.Stderr = os.Stderr
			editCmd.Stdin = os.Stdin
			return editCmd.Run()
		},
	}
}
