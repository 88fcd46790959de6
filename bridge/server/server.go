package server

import (
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/lni/dragonboat/v4/logger"

	"docbridge/bridge/common"
	"docbridge/bridge/driver"
	"docbridge/bridge/registry"
	"docbridge/bridge/serializer"
	"docbridge/bridge/transport"
)

var Logger = logger.GetLogger("server")

// NewBridgeServer creates a new bridge server.
// It takes a config, transport, serializer and driver factory as parameters.
//
// Usage:
//
//	s := server.NewBridgeServer(
//		*config,
//		http.NewHTTPServerTransport(),
//		serializer.NewJSONSerializer(),
//		mongodb.NewFactory(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewBridgeServer(
	config common.ServerConfig,
	transport transport.IServerTransport,
	serializer serializer.ISerializer,
	factory driver.IDriverFactory,
) bridgeServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	Logger.Infof("Created bridge server")
	Logger.Infof(config.String())

	return bridgeServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		factory:    factory,
		adapter:    NewRegistryAdapter(),
	}
}

type bridgeServer struct {
	config     common.ServerConfig
	transport  transport.IServerTransport
	serializer serializer.ISerializer
	factory    driver.IDriverFactory
	adapter    IBridgeAdapter
	registry   *registry.Registry
}

func (s *bridgeServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(route string, req []byte) []byte {
		var msg common.Message
		var respMsg *common.Message

		// Decode the request
		if err := s.serializer.Deserialize(req, &msg); err != nil {
			respMsg = common.NewErrorResponse(common.KindRequestRejected,
				"failed to deserialize request: "+err.Error())
		} else if route != "" && route != string(msg.MsgType) {
			// The route must agree with the envelope so a misdirected
			// frame fails loudly instead of executing the wrong operation
			respMsg = common.NewErrorResponse(common.KindRequestRejected,
				"route does not match message type")
		} else {
			// Let the adapter handle the request
			respMsg = s.adapter.Handle(&msg, s.registry)
		}

		// Return result
		val, err := s.serializer.Serialize(*respMsg)
		if err != nil {
			Logger.Errorf("Failed to serialize response: %v", err)
			fallback, _ := s.serializer.Serialize(*common.NewErrorResponse(
				common.KindUnknown, "failed to serialize response"))
			return fallback
		}
		return val
	})
}

func (s *bridgeServer) init() error {
	// Init loggers
	common.InitLoggers(s.config.LogLevel)

	// Create the connection registry
	s.registry = registry.New(s.config.Registry, s.factory)

	// Close all registry connections on shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		Logger.Infof("Received signal %v, shutting down", sig)
		s.registry.CloseAll()
		os.Exit(0)
	}()

	Logger.Infof("Bridge setup completed successfully")

	// Configure the transport layer
	s.registerTransportHandler()

	return nil
}

// Serve starts the bridge server.
// This function initializes the registry and starts the transport layer.
func (s *bridgeServer) Serve() error {
	if err := s.init(); err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}
