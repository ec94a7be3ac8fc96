package main

import (
	"fmt"
	"net"

	pb "ipo-wizard/src/grpc_control"
	"ipo-wizard/src/interfaces"
	"ipo-wizard/src/logger"
	"ipo-wizard/src/models"
	"ipo-wizard/src/server"
	"ipo-wizard/src/session"
	"ipo-wizard/src/wizard"

	"google.golang.org/grpc"
)

const defaultGrpcPort = 50051

// -----------------------------------------------------------------------------

// startServers starts the REST/websocket server and the gRPC health server.
// The returned func stops the gRPC server.
func startServers(
	config *models.MConfig,
	sessions *session.Manager,
	deps wizard.Dependencies,
	db interfaces.IDatabase,
	appLogger *logger.Logger,
) (interfaces.IDataExchanger, *pb.HealthService, func()) {

	// 1. REST + WebSocket
	srv := server.NewServer(config, sessions, deps, db, logger.NewLogger(config, "Server"))
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	// 2. gRPC health
	health := pb.NewHealthService(config.Name, db, logger.NewLogger(config, "Health"))
	grpcServer := grpc.NewServer()
	health.Register(grpcServer)

	go func() {
		port := config.GrpcPort
		if port == 0 {
			port = defaultGrpcPort
		}
		lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", config.GrpcHost, port))
		if err != nil {
			appLogger.Critical("failed to listen for gRPC: %v", err)
			return
		}
		appLogger.Info("Starting gRPC health server on %s", lis.Addr())
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Error("failed to serve gRPC: %v", err)
		}
	}()

	return srv, health, grpcServer.GracefulStop
}
