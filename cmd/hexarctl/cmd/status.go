package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hexar-io/hexarctl/internal/inspect"
)

var (
	statusDetailed bool
	statusOutput   string
)

type statusDocument struct {
	Running   bool     `json:"running" yaml:"running"`
	PID       int      `json:"pid,omitempty" yaml:"pid,omitempty"`
	StartedAt string   `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	Uptime    string   `json:"uptime,omitempty" yaml:"uptime,omitempty"`
	MemoryRSS string   `json:"memory_rss,omitempty" yaml:"memory_rss,omitempty"`
	CPU       string   `json:"cpu,omitempty" yaml:"cpu,omitempty"`
	LogTail   []string `json:"log_tail,omitempty" yaml:"log_tail,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the radar controller is running",
	Long: `Reports liveness of the tracked controller instance, with best-effort
process metadata (--detailed) and the most recent log output. A marker left
behind by a crashed controller is cleaned up along the way.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		inspector := inspect.New(pidStore, settings.RadarLogPath())
		report := inspector.Status(statusDetailed)

		switch statusOutput {
		case "json":
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(toDocument(report))
		case "yaml":
			encoder := yaml.NewEncoder(os.Stdout)
			encoder.SetIndent(2)
			return encoder.Encode(toDocument(report))
		case "text":
			printStatus(report)
			return nil
		default:
			return fmt.Errorf("unknown output format %q: want text, json or yaml", statusOutput)
		}
	},
}

func toDocument(report *inspect.Report) statusDocument {
	doc := statusDocument{
		Running: report.Running,
		PID:     report.PID,
		LogTail: report.LogTail,
	}
	if report.Running {
		doc.StartedAt = report.StartedAt
		doc.Uptime = report.Uptime
		doc.MemoryRSS = report.MemoryRSS
		doc.CPU = report.CPU
	}
	return doc
}

func printStatus(report *inspect.Report) {
	if report.Running {
		fmt.Printf("Radar controller: %s (pid %d)\n", color.GreenString("RUNNING"), report.PID)
	} else {
		fmt.Printf("Radar controller: %s\n", color.RedString("NOT RUNNING"))
	}

	if report.Running && statusDetailed {
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("PID", "Started", "Uptime", "Memory", "CPU")
		table.Append(
			strconv.Itoa(report.PID),
			report.StartedAt,
			report.Uptime,
			report.MemoryRSS,
			report.CPU,
		)
		table.Render()
	}

	if len(report.LogTail) > 0 {
		fmt.Println("\nRecent log output:")
		for _, line := range report.LogTail {
			fmt.Printf("  %s\n", line)
		}
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusDetailed, "detailed", false, "include start time, memory and CPU usage")
	statusCmd.Flags().StringVar(&statusOutput, "output", "text", "output format: text, json or yaml")
}
