package main

import (
	"fmt"
	"io"
	"os"

	"github.com/amrbekhit/hcdload"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	fwPath      string
	portName    string
	profilePath string
	baud        int
	strict      bool
	hexOut      string
	hexLineLen  int
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load an HCD file into the controller's RAM",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := loadProfile()
		if err != nil {
			return err
		}
		if portName != "" {
			profile.Serial.Port = portName
		}
		if baud != 0 {
			profile.Serial.Baud = baud
		}
		if strict {
			profile.Upload.AbortOnMismatch = true
		}

		fw, err := os.Open(fwPath)
		if err != nil {
			return err
		}
		defer fw.Close()

		port, err := hcdload.OpenSerial(profile.Serial)
		if err != nil {
			return err
		}
		defer port.Close()

		mismatched := 0
		profile.Upload.Progress = func(p hcdload.Progress) {
			if p.Mismatched > mismatched {
				mismatched = p.Mismatched
				log.Warnf("%d commands got an unexpected response so far", mismatched)
			}
		}

		log.Infof("loading %v through %v...", fwPath, profile.Serial.Port)
		if err := hcdload.NewUploader(port, profile.Upload).Upload(fw); err != nil {
			return err
		}
		log.Infof("complete")
		return nil
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the commands of an HCD file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fw, err := os.Open(fwPath)
		if err != nil {
			return err
		}
		defer fw.Close()
		return dump(cmd.OutOrStdout(), fw)
	},
}

func dump(w io.Writer, fw io.Reader) error {
	firmware := hcdload.NewFirmware(fw)
	return firmware.Each(func(c hcdload.Command) error {
		_, err := fmt.Fprintf(w, "%04X %3d %v\n", c.Opcode(), len(c.Payload()), c.Describe())
		return err
	})
}

var hexCmd = &cobra.Command{
	Use:   "hex",
	Short: "Convert the RAM contents of an HCD file to Intel HEX",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fw, err := os.Open(fwPath)
		if err != nil {
			return err
		}
		defer fw.Close()

		out := cmd.OutOrStdout()
		if hexOut != "" {
			f, err := os.Create(hexOut)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		return hcdload.ExportHex(out, fw, hexLineLen)
	},
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List the serial ports present on this host",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := hcdload.ListPorts()
		if err != nil {
			return err
		}
		for _, p := range ports {
			if p.USB {
				fmt.Fprintf(cmd.OutOrStdout(), "%v\tUSB %v:%v %v %v\n", p.Name, p.VID, p.PID, p.SerialNumber, p.Product)
				continue
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.Name)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the program version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), appVersion)
	},
}

func loadProfile() (hcdload.Profile, error) {
	if profilePath == "" {
		return hcdload.DefaultProfile(), nil
	}
	f, err := os.Open(profilePath)
	if err != nil {
		return hcdload.Profile{}, fmt.Errorf("failed to open profile file: %v", err)
	}
	defer f.Close()
	return hcdload.LoadProfile(f)
}

func init() {
	for _, c := range []*cobra.Command{loadCmd, dumpCmd, hexCmd} {
		c.Flags().StringVar(&fwPath, "fw", "", "HCD firmware file path.")
		c.MarkFlagRequired("fw")
	}

	loadCmd.Flags().StringVarP(&portName, "port", "p", "", "Serial port to use to communicate HCI commands. Required unless the profile sets serial.port.")
	loadCmd.Flags().IntVar(&baud, "baud", 0, "Baud rate (default 115200).")
	loadCmd.Flags().StringVar(&profilePath, "profile", "", "Controller profile yaml file. Its serial.port is used when --port is not given.")
	loadCmd.Flags().BoolVar(&strict, "strict", false, "Abort on the first unexpected response.")

	hexCmd.Flags().StringVarP(&hexOut, "output", "o", "", "Output file (default stdout).")
	hexCmd.Flags().IntVar(&hexLineLen, "line-length", hcdload.DefaultHexLineLength, "Data bytes per hex record.")

	rootCmd.AddCommand(loadCmd, dumpCmd, hexCmd, portsCmd, versionCmd)
}
