package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/IdanRossman/jiranimo/internal/client"
	"github.com/IdanRossman/jiranimo/internal/ui"
)

var (
	apiURL     string
	apiToken   string
	jsonOutput bool
	noColor    bool

	dash *client.DashboardClient
)

func defaultAPI() string {
	if s := os.Getenv("JIRANIMO_API"); s != "" {
		return s
	}
	if s := activeRemoteURL(); s != "" {
		return s
	}
	return "http://localhost:8080"
}

func defaultToken() string {
	if s := os.Getenv("JIRANIMO_TOKEN"); s != "" {
		return s
	}
	return activeRemoteToken()
}

var rootCmd = &cobra.Command{
	Use:           "jiranimo",
	Short:         "Kanban dashboard for your assigned issues",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			ui.ForceNoColor()
		}
		dash = client.NewDashboardClient(apiURL, apiToken)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", defaultAPI(), "dashboard server URL")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", defaultToken(), "bearer token for the dashboard server")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "views", Title: "Views:"},
		&cobra.Group{ID: "board", Title: "Board:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(groupCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(facetsCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(reloadCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(attentionCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.RenderError("Error: ")+err.Error())
		os.Exit(1)
	}
}
