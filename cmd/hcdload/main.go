package main

import (
	"os"

	"github.com/amrbekhit/hcdload"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const appVersion = "0.1.0"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "hcdload",
	Short: "Load HCD firmware patches into Bluetooth controllers",
	Long: `hcdload resets a Bluetooth controller attached to a serial port and
replays the HCI commands of an HCD firmware file, checking the controller's
answer to every command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
		hcdload.SetLogger(log.StandardLogger())
	},
}

func init() {
	log.SetOutput(os.Stderr)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging.")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
