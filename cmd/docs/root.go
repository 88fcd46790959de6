package docs

import (
	"github.com/spf13/cobra"

	"docbridge/bridge/client"
	"docbridge/cmd/util"
)

var (
	bridgeClient *client.Client

	// DocCommands represents the document operation command group
	DocCommands = &cobra.Command{
		Use:               "doc",
		Short:             "Perform document operations through a connection",
		PersistentPreRunE: setupClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common bridge flags to the doc command
	util.SetupClientFlags(DocCommands)

	// Add subcommands
	DocCommands.AddCommand(insertCmd)
	DocCommands.AddCommand(findCmd)
	DocCommands.AddCommand(updateCmd)
	DocCommands.AddCommand(deleteCmd)
	DocCommands.AddCommand(countCmd)
	DocCommands.AddCommand(findManyCmd)
	DocCommands.AddCommand(insertManyCmd)
	DocCommands.AddCommand(updateManyCmd)
	DocCommands.AddCommand(deleteManyCmd)
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
