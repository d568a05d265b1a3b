package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/relaychat/relay/internal/gateway"
	"github.com/relaychat/relay/internal/relay"
)

func main() {
	app := &cli.App{
		Name:  "relay",
		Usage: "text chat relay server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "TCP port to listen on (overrides RELAY_PORT)",
			},
			&cli.StringFlag{
				Name:  "gateway",
				Usage: "WebSocket gateway address, e.g. :8080 (overrides GATEWAY_ADDR)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func run(c *cli.Context) error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if c.Bool("debug") {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Optional .env file; absence is not an error.
	_ = godotenv.Load()

	cfg, err := relay.LoadConfig()
	if err != nil {
		return err
	}
	if c.IsSet("port") {
		cfg.Port = c.Int("port")
	}
	if c.IsSet("gateway") {
		cfg.GatewayAddr = c.String("gateway")
	}

	rl := relay.New(cfg, logger)
	if err := rl.Start(); err != nil {
		return err
	}

	var gw *gateway.Gateway
	if cfg.GatewayAddr != "" {
		gw = gateway.New(rl, cfg.GatewayAddr, cfg.AllowedOrigins, logger)
		go func() {
			if err := gw.Start(); err != nil {
				logger.WithError(err).Error("Gateway stopped")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Infof("Received signal %v, shutting down", sig)

	if gw != nil {
		if err := gw.Shutdown(cfg.ShutdownTimeout); err != nil {
			logger.WithError(err).Warn("Gateway shutdown failed")
		}
	}
	rl.Stop(cfg.ShutdownTimeout)
	return nil
}
