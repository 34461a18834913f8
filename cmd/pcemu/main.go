package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pcx86/emu/internal/config"
	"github.com/pcx86/emu/internal/machine"
)

func main() {
	var configPath string
	var screenshotPath string

	rootCmd := &cobra.Command{
		Use:   "pcemu <executable.exe>",
		Short: "Cycle-driven IBM-PC-class emulator core",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			m, err := machine.New(cfg, args[0], nil)
			if err != nil {
				return fmt.Errorf("pcemu: %w", err)
			}

			if screenshotPath != "" {
				sigCh := make(chan os.Signal, 1)
				signal.Notify(sigCh, os.Interrupt)
				go func() {
					<-sigCh
					if err := m.Screenshot(screenshotPath); err != nil {
						fmt.Fprintln(os.Stderr, err)
					}
					m.Stop()
				}()
			}

			return m.Run()
		},
	}
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a TOML configuration file (default: built-in defaults)")
	rootCmd.Flags().StringVar(&screenshotPath, "screenshot", "", "on Ctrl+C, write the current VGA frame to this path as a BMP before exiting")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
