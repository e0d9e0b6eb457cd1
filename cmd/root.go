package cmd

import (
	"fmt"
	"os"

	"obdlog/internal/cmd/devices"
	"obdlog/internal/cmd/root"
	"obdlog/internal/config"
	"obdlog/internal/session"
	"obdlog/internal/transport"
	"obdlog/pkg/log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "obdlog",
	Short: "Record OBD-II telemetry from an ELM327 adapter to CSV",
	Run:   root.Run,
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List serial adapters known to the host",
	Run:   devices.Run,
}

func init() {
	cobra.OnInitialize(initLogger)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to a YAML config file")
	flags.Bool("debug", false, "Enable debug mode")
	flags.Bool("no-tui", false, "Run without TUI")
	flags.Bool("mock", false, "Use the simulated adapter")
	flags.Bool("echo", false, "Make the simulated adapter echo commands")
	flags.String("address", transport.DefaultAddress(), "Adapter device path, or ws:// URL of a bridge")
	flags.String("backend", transport.BackendTarm, "Serial backend (tarm or bugst)")
	flags.Int("baud", transport.DefaultBaud, "Baud rate for serial connection")
	flags.Duration("period", session.DefaultPeriod, "Interval between two requests")
	flags.Duration("duration", 0, "Stop recording after this long (0 = until interrupted)")
	flags.String("output", "", "CSV output path (default session-<id>.csv)")
	flags.String("http", "", "Listen address of the live HTTP view (empty = disabled)")

	for _, name := range []string{"config", "debug", "no-tui", "mock", "echo", "address", "backend", "baud", "period", "duration", "output", "http"} {
		viper.BindPFlag(name, flags.Lookup(name))
	}

	config.SetDefaults(viper.GetViper())

	rootCmd.AddCommand(devicesCmd)
}

func initLogger() {
	log.InitLogger(viper.GetBool("debug"))
}

func Execute() {
	defer log.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
