package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/huoshan017/sronet/common"
	"github.com/huoshan017/sronet/log"
	"github.com/huoshan017/sronet/msg"
	"github.com/huoshan017/sronet/msg/codec"
	"github.com/urfave/cli/v2"
)

func setup(c *cli.Context) (*Config, msg.IMsgCodec, common.Option, error) {
	cfg, err := LoadConfig(c.String("config"))
	if err != nil {
		return nil, nil, nil, err
	}
	if c.IsSet("addr") {
		cfg.Address = c.String("addr")
	}
	if c.IsSet("codec") {
		cfg.Codec = c.String("codec")
	}
	if c.IsSet("count") {
		cfg.Count = c.Int("count")
	}
	log.EnableDebug(cfg.Debug || c.Bool("debug"))

	mc, err := codec.ByName(cfg.Codec)
	if err != nil {
		return nil, nil, nil, err
	}
	option, err := cfg.ProtocolOption()
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, mc, common.WithProtocolOption(option), nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "echo",
		Usage: "echo server and client over the silkroad protocol",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "yaml config file", EnvVars: []string{"SRONET_ECHO_CONFIG"}},
			&cli.StringFlag{Name: "addr", Usage: "listen or dial address"},
			&cli.StringFlag{Name: "codec", Usage: "payload codec: json, gob, msgpack or snappy+<codec>"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug log"},
		},
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "run the echo server",
				Action: func(c *cli.Context) error {
					cfg, mc, option, err := setup(c)
					if err != nil {
						return err
					}
					return runServer(c.Context, cfg, mc, option)
				},
			},
			{
				Name:  "client",
				Usage: "send echo requests",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "count", Usage: "number of requests"},
				},
				Action: func(c *cli.Context) error {
					cfg, mc, _, err := setup(c)
					if err != nil {
						return err
					}
					return runClient(c.Context, cfg, mc)
				},
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatalf("%+v", err)
	}
}
