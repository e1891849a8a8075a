package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"flag"

	"github.com/sirupsen/logrus"

	"github.com/flonle/memora/internal/kvserver"
	"github.com/flonle/memora/internal/logging"
	"github.com/flonle/memora/internal/repl"
)

func main() {
	var port int
	var replicaof string

	flag.IntVar(&port, "port", 6379, "port to listen on")
	flag.StringVar(&replicaof, "replicaof", "", `upstream "host port" to replicate from`)
	flag.Parse()

	logging.Init()

	role, err := buildRole(uint16(port), replicaof)
	if err != nil {
		logrus.WithError(err).Error("invalid --replicaof")
		os.Exit(1)
	}

	srv, err := kvserver.New(fmt.Sprintf("0.0.0.0:%d", port), role)
	if err != nil {
		logrus.WithError(err).Error("failed to bind listener")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logrus.Info("shutting down...")
		cancel()
	}()

	if err := srv.Start(ctx); err != nil {
		logrus.WithError(err).Error("server exited with error")
		os.Exit(1)
	}
	logrus.Info("shutdown complete")
}

func buildRole(listeningPort uint16, replicaof string) (repl.Role, error) {
	if replicaof == "" {
		return repl.NewMaster(), nil
	}

	host, portStr, err := splitReplicaof(replicaof)
	if err != nil {
		return nil, err
	}
	upstreamPort, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid --replicaof port %q: %w", portStr, err)
	}

	return repl.NewReplica(listeningPort, host, uint16(upstreamPort)), nil
}

func splitReplicaof(value string) (host, port string, err error) {
	parts := strings.Fields(value)
	if len(parts) != 2 {
		return "", "", fmt.Errorf(`--replicaof must be "<host> <port>", got %q`, value)
	}
	return parts[0], parts[1], nil
}
