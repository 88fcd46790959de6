package conn

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var (
	createCmd = &cobra.Command{
		Use:   "create [target]",
		Short: "Create a server-side connection to the given target",
		Long:  "Create a server-side connection to the given target (e.g. mongodb://localhost:27017). Pool options can be passed as KEY=VALUE pairs via --option",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0]

			// Parse KEY=VALUE option pairs
			rawOpts, _ := cmd.Flags().GetStringSlice("option")
			options := map[string]int64{}
			for _, opt := range rawOpts {
				parts := strings.SplitN(opt, "=", 2)
				if len(parts) != 2 {
					return fmt.Errorf("invalid option format: %s (expected KEY=VALUE)", opt)
				}
				value, err := strconv.ParseInt(parts[1], 10, 64)
				if err != nil {
					return fmt.Errorf("option %s must be a number: %w", parts[0], err)
				}
				options[parts[0]] = value
			}

			connID, err := bridgeClient.CreateConnection(target, options)
			if err != nil {
				return err
			}
			fmt.Printf("created connection %s\n", connID)
			return nil
		},
	}
	closeCmd = &cobra.Command{
		Use:   "close [connection-id]",
		Short: "Close a server-side connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			closed, err := bridgeClient.CloseConnection(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("connection=%s, closed=%v\n", args[0], closed)
			return nil
		},
	}
	pingCmd = &cobra.Command{
		Use:   "ping [connection-id]",
		Short: "Check the health of a server-side connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			healthy, err := bridgeClient.PingConnection(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("connection=%s, healthy=%v\n", args[0], healthy)
			return nil
		},
	}
	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Print a snapshot of the server's connection registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := bridgeClient.Stats()
			if err != nil {
				return err
			}
			fmt.Printf("connections: %d\n", stats.Count)
			for _, c := range stats.Connections {
				fmt.Printf("  %s  %s  status=%s  age=%.0fs  last-used=%s\n",
					c.ID, c.Target, c.Status, c.AgeSeconds, c.LastUsedAt.Format("15:04:05"))
			}
			return nil
		},
	}
)

func init() {
	createCmd.Flags().StringSlice("option", nil,
		"Pool option as KEY=VALUE (maxPoolSize, minPoolSize, selectionTimeoutMS, socketTimeoutMS). Repeatable")
}
