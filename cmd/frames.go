package cmd

import (
	"context"
	"encoding/hex"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/victorjacobs/go-izzi/izzi"
	"github.com/victorjacobs/go-izzi/ui"
)

var framesCmd = &cobra.Command{
	Use:   "frames",
	Short: "Print the frames exchanged with the unit",
	Long: `Connects to the configured unit and prints every status and command
frame as it arrives, raw and decoded. Nothing is written to the unit.`,
	Args: cobra.NoArgs,
	RunE: runFrames,
}

func init() {
	rootCmd.AddCommand(framesCmd)
}

func runFrames(cmd *cobra.Command, args []string) error {
	setupUi()

	cfg, err := loadConfiguration()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transport := cfg.NewTransport()
	if err := transport.Connect(); err != nil {
		return err
	}
	defer func() {
		_ = transport.Disconnect()
	}()

	ui.Info("Reading frames, press Ctrl+C to exit")
	for ctx.Err() == nil {
		frame, err := transport.ReadFrame(izzi.DefaultReadTimeout)
		if err != nil {
			return err
		}
		if frame == nil {
			ui.Warning("No frame within %v", izzi.DefaultReadTimeout)
			continue
		}
		ui.Println("%s", formatFrame(time.Now(), frame))
	}
	return nil
}

func formatFrame(now time.Time, frame []byte) string {
	var sb strings.Builder
	sb.WriteString(pterm.Gray(now.Format("15:04:05.000")))
	sb.WriteString(" ")

	values, err := izzi.DecodeFrame(frame)
	if err != nil {
		sb.WriteString(pterm.Red("invalid "))
		sb.WriteString(hex.EncodeToString(frame))
		sb.WriteString(": ")
		sb.WriteString(err.Error())
		return sb.String()
	}

	if frame[0] == izzi.StatusFrameID {
		sb.WriteString(pterm.Cyan("STATUS  "))
	} else {
		sb.WriteString(pterm.Yellow("COMMAND "))
	}
	sb.WriteString(hex.EncodeToString(frame))

	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	for _, id := range ids {
		sb.WriteString("\n    ")
		sb.WriteString(pterm.Sprintf("%-20s %d", id, values[izzi.SensorID(id)]))
	}
	return sb.String()
}
