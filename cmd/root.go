package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docbridge/cmd/conn"
	"docbridge/cmd/docs"
	"docbridge/cmd/serve"
	"docbridge/cmd/util"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "docbridge",
		Short: "document store bridge",
		Long: fmt.Sprintf(`docbridge (v%s)

A bridge server that manages pooled connections to MongoDB and exposes
document operations to remote clients over a pluggable transport.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of docbridge",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("docbridge v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(conn.ConnCommands)
	RootCmd.AddCommand(docs.DocCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("serializer to use (json, gob)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "http", util.WrapString("transport to use (http, tcp)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
