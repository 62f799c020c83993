package main

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/sehnryr/minecraft-go-proxy/internal/fakeserver"
	"github.com/sehnryr/minecraft-go-proxy/internal/logging"
)

func main() {
	cmd := &cli.Command{
		Name:  "fakeserver",
		Usage: "a minimal Minecraft Java Edition server for exercising the proxy against",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "port to listen on",
				Value: 25565,
				Sources: cli.NewValueSourceChain(
					cli.EnvVar("FAKESERVER_PORT"),
				),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable debug-level logging",
				Sources: cli.NewValueSourceChain(
					cli.EnvVar("FAKESERVER_VERBOSE"),
				),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(int(cmd.Int("port")), cmd.Bool("verbose"))
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "fakeserver: %v\n", err)
		os.Exit(1)
	}
}

func run(port int, verbose bool) error {
	log := logging.Default(verbose)
	cfg := fakeserver.DefaultConfig()

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("fakeserver: listen: %w", err)
	}
	defer listener.Close()

	log.Infof("fakeserver: listening on :%d", port)

	for {
		conn, err := listener.Accept()
		if err != nil {
			return fmt.Errorf("fakeserver: accept: %w", err)
		}
		go func() {
			if err := fakeserver.Serve(conn, cfg, log); err != nil {
				log.Errorf("fakeserver: session ended: %v", err)
			}
		}()
	}
}
