package serve

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"docbridge/bridge/common"
	"docbridge/bridge/driver/mongodb"
	"docbridge/bridge/serializer"
	"docbridge/bridge/server"
	"docbridge/bridge/transport"
	"docbridge/bridge/transport/http"
	"docbridge/bridge/transport/tcp"
	cmdUtil "docbridge/cmd/util"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the bridge server",
		Long:    `Start the bridge server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is DOCBRIDGE_<flag> (e.g. DOCBRIDGE_MAX_CONNECTIONS=32)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(initConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the API will listen (e.g. localhost:8080)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 30, cmdUtil.WrapString("Read/write timeout of the server transport in seconds"))

	key = "max-connections"
	ServeCmd.PersistentFlags().Int(key, 64, cmdUtil.WrapString("Maximum number of database connections the registry tracks at the same time"))

	key = "connect-timeout"
	ServeCmd.PersistentFlags().Int(key, 10000, cmdUtil.WrapString("Timeout for establishing a new database connection in milliseconds"))

	key = "ping-timeout"
	ServeCmd.PersistentFlags().Int(key, 2000, cmdUtil.WrapString("Timeout for a health ping round trip in milliseconds"))

	key = "operation-timeout"
	ServeCmd.PersistentFlags().Int(key, 30000, cmdUtil.WrapString("Timeout for a single document operation in milliseconds"))

	key = "write-buffer"
	ServeCmd.PersistentFlags().Int(key, 512, cmdUtil.WrapString("The size of the socket write buffer (in KB, ignored for http)"))

	key = "read-buffer"
	ServeCmd.PersistentFlags().Int(key, 512, cmdUtil.WrapString("The size of the socket read buffer (in KB, ignored for http)"))

	key = "tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY (only for tcp)"))

	key = "tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The keepalive interval in seconds (only for tcp)"))

	key = "tcp-linger"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The linger time in seconds (only for tcp)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	serveCmdConfig.Registry = common.RegistryConfig{
		MaxConnections:     viper.GetInt("max-connections"),
		ConnectTimeoutMs:   viper.GetInt("connect-timeout"),
		PingTimeoutMs:      viper.GetInt("ping-timeout"),
		OperationTimeoutMs: viper.GetInt("operation-timeout"),
	}
	if serveCmdConfig.Registry.MaxConnections < 1 {
		return fmt.Errorf("max-connections must be at least 1")
	}

	serveCmdConfig.Socket = common.SocketConf{
		WriteBufferSize: viper.GetInt("write-buffer") * 1024,
		ReadBufferSize:  viper.GetInt("read-buffer") * 1024,
	}
	serveCmdConfig.TCP = common.TCPConf{
		TCPNoDelay:      viper.GetBool("tcp-nodelay"),
		TCPKeepAliveSec: viper.GetInt("tcp-keepalive"),
		TCPLingerSec:    viper.GetInt("tcp-linger"),
	}

	return nil
}

// run starts the bridge server
func run(_ *cobra.Command, _ []string) error {

	// Parse the serializer
	var s serializer.ISerializer
	switch viper.GetString("serializer") {
	case "json":
		s = serializer.NewJSONSerializer()
	case "gob":
		s = serializer.NewGOBSerializer()
	default:
		return fmt.Errorf("invalid serializer %s", viper.GetString("serializer"))
	}

	// Parse the transport
	var t transport.IServerTransport
	switch viper.GetString("transport") {
	case "http":
		t = http.NewHTTPServerTransport()
	case "tcp":
		t = tcp.NewTCPServerTransport()
	default:
		return fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}

	serv := server.NewBridgeServer(
		*serveCmdConfig,
		t,
		s,
		mongodb.NewFactory(),
	)

	return serv.Serve()
}

// initConfig reads in serveCmdConfig file and ENV variables if set.
func initConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("docbridge")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}
