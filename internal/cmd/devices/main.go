package devices

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"obdlog/internal/transport"
	"obdlog/pkg/log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func Run(cmd *cobra.Command, args []string) {
	if err := list(os.Stdout, transport.NewPortDiscoverer()); err != nil {
		log.Fatal("failed to list devices", zap.Error(err))
	}
}

func list(w io.Writer, d transport.Discoverer) error {
	devs, err := d.ListPairedDevices()
	if err != nil {
		return err
	}
	if len(devs) == 0 {
		fmt.Fprintln(w, "No devices found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tNAME")
	for _, dev := range devs {
		fmt.Fprintf(tw, "%s\t%s\n", dev.Address, dev.DisplayName)
	}
	return tw.Flush()
}
