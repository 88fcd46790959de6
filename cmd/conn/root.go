package conn

import (
	"github.com/spf13/cobra"

	"docbridge/bridge/client"
	"docbridge/cmd/util"
)

var (
	bridgeClient *client.Client

	// ConnCommands represents the connection command group
	ConnCommands = &cobra.Command{
		Use:               "conn",
		Short:             "Manage server-side database connections",
		PersistentPreRunE: setupClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common bridge flags to the conn command
	util.SetupClientFlags(ConnCommands)

	// Add subcommands
	ConnCommands.AddCommand(createCmd)
	ConnCommands.AddCommand(closeCmd)
	ConnCommands.AddCommand(pingCmd)
	ConnCommands.AddCommand(statsCmd)
}

// setupClient initializes the bridge client
func setupClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Get client configuration components
	config := util.GetClientConfig()

	// Get serializer and transport
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetClientTransport()
	if err != nil {
		return err
	}

	// Create the bridge client
	bridgeClient, err = client.NewClient(*config, t, s)
	return err
}
