package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"

	"github.com/sehnryr/minecraft-go-proxy/internal/proxyd"
)

func main() {
	cmd := &cli.Command{
		Name:  "proxyd",
		Usage: "transparent man-in-the-middle proxy for the Minecraft Java Edition wire protocol",
		Flags: flags(configFile()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := proxyd.Config{
				ProxyAddr:   fmt.Sprintf(":%d", cmd.Int("proxy-port")),
				ServerAddr:  fmt.Sprintf("%s:%d", cmd.String("server-host"), cmd.Int("server-port")),
				Verbose:     cmd.Bool("verbose"),
				AcceptRate:  cmd.Float("accept-rate"),
				AcceptBurst: int(cmd.Int("accept-burst")),
			}
			if raw := cmd.String("etcd-endpoints"); raw != "" {
				cfg.EtcdEndpoints = strings.Split(raw, ",")
			}
			return proxyd.Run(ctx, cfg)
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "proxyd: %v\n", err)
		os.Exit(1)
	}
}

// configFile returns the path to proxyd's optional TOML configuration
// file. Unlike timpani's XDG-backed config, this is never created
// automatically — a missing file just means every flag falls back to its
// environment variable or default, since running a proxy shouldn't leave
// files behind it wasn't asked to write.
func configFile() altsrc.StringSourcer {
	if path := os.Getenv("PROXY_CONFIG_FILE"); path != "" {
		return altsrc.StringSourcer(path)
	}
	return altsrc.StringSourcer("proxyd.toml")
}

// flags defines proxyd's CLI flags. Each can also be set via an
// environment variable or the [proxy] / [server] tables of the TOML config file,
// in that order of precedence, matching the pattern used throughout this
// codebase's layered configuration.
func flags(configFilePath altsrc.StringSourcer) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "proxy-port",
			Usage: "port the proxy listens on for incoming client connections",
			Value: 35565,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("PROXY_PORT"),
				toml.TOML("proxy.port", configFilePath),
			),
		},
		&cli.StringFlag{
			Name:     "server-host",
			Usage:    "hostname or IP of the upstream Minecraft server",
			Required: true,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("SERVER_HOST"),
				toml.TOML("server.host", configFilePath),
			),
		},
		&cli.IntFlag{
			Name:  "server-port",
			Usage: "port of the upstream Minecraft server",
			Value: 25565,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("SERVER_PORT"),
				toml.TOML("server.port", configFilePath),
			),
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable debug-level logging",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("PROXY_VERBOSE"),
				toml.TOML("proxy.verbose", configFilePath),
			),
		},
		&cli.StringFlag{
			Name:  "etcd-endpoints",
			Usage: "comma-separated etcd endpoints for the optional session cache; omit to disable it",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("PROXY_ETCD_ENDPOINTS"),
				toml.TOML("proxy.etcd_endpoints", configFilePath),
			),
		},
		&cli.FloatFlag{
			Name:  "accept-rate",
			Usage: "max accepted connections per second; 0 disables the limiter",
			Value: 0,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("PROXY_ACCEPT_RATE"),
				toml.TOML("proxy.accept_rate", configFilePath),
			),
		},
		&cli.IntFlag{
			Name:  "accept-burst",
			Usage: "accept-rate token bucket burst size",
			Value: 10,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("PROXY_ACCEPT_BURST"),
				toml.TOML("proxy.accept_burst", configFilePath),
			),
		},
	}
}
