// ABOUTME: Entry point for the local Vaani echo service
// ABOUTME: Parses CLI flags and runs the websocket echo server
package main

import (
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/granthai/vaani-go/internal/config"
	"github.com/granthai/vaani-go/internal/server"
)

var (
	configPath = flag.String("config", "", "YAML config file")
	port       = flag.Int("port", 0, "WebSocket server port (default from config, 8080)")
	name       = flag.String("name", "", "Service name advertised over mDNS")
	logFile    = flag.String("log-file", "vaani-echo.log", "Log file path")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	noMDNS     = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
)

func main() {
	flag.Parse()

	// Set up logging (both file and console)
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	multiWriter := io.MultiWriter(os.Stdout, f)
	log.SetOutput(multiWriter)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	echo := cfg.Echo
	if *port != 0 {
		echo.Port = *port
	}
	if *name != "" {
		echo.Name = *name
	}
	if *noMDNS {
		echo.MDNS = false
	}

	log.Printf("Starting Vaani echo service: %s on port %d", echo.Name, echo.Port)
	if *debug {
		log.Printf("Debug logging enabled")
	}
	log.Printf("Logging to: %s", *logFile)
	log.Printf("Press Ctrl-C to stop")

	srv := server.New(server.Config{
		Port:        echo.Port,
		Name:        echo.Name,
		EnableMDNS:  echo.MDNS,
		TurnSilence: echo.TurnSilence,
		Debug:       *debug,
	})

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received %v signal, shutting down gracefully...", sig)
		srv.Stop()
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Printf("Server stopped")
}
