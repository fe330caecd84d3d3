package cmd

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/appspotengine/rsnova/core"
	"github.com/appspotengine/rsnova/core/proxy"
	"github.com/caddyserver/certmagic"
	"github.com/common-nighthawk/go-figure"
	"github.com/libdns/cloudflare"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

func New() *cli.Command {
	return &cli.Command{
		Name:    "rsnova",
		Usage:   "a protocol-sniffing proxy gateway",
		Version: core.VERSION,
		Commands: []*cli.Command{
			startCommand(),
		},
		Action: rootAction,
	}
}

func rootAction(ctx context.Context, cmd *cli.Command) error {
	banner := figure.NewFigure("rsnova", "", true)
	banner.Print()
	fmt.Println()

	return cli.ShowAppHelp(cmd)
}

func startCommand() *cli.Command {
	return &cli.Command{
		Name:        "start",
		Description: "start the gateway",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c", "conf"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "addr",
				Aliases: []string{"a"},
				Value:   ":443",
			},
			&cli.StringFlag{
				Name:  "email",
				Usage: "ACME account email; enables certificate automation",
			},
			&cli.StringFlag{
				Name:  "api",
				Usage: "cloudflare api token for the DNS-01 challenge",
			},
			&cli.BoolFlag{
				Name: "debug",
			},
		},
		Action: startAction,
	}
}

func startAction(ctx context.Context, cmd *cli.Command) error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if cmd.Bool("debug") {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	p := proxy.New()
	if err := p.Config.Load(cmd.String("config")); err != nil {
		return err
	}

	email := cmd.String("email")
	api := cmd.String("api")
	if email != "" && api != "" {
		tlsConfig, err := manageCerts(ctx, email, api, p.Config.Hosts())
		if err != nil {
			return err
		}
		p.TLSConfig = tlsConfig
	}

	ln, err := net.Listen("tcp", cmd.String("addr"))
	if err != nil {
		return err
	}
	log.Info().Str("addr", ln.Addr().String()).Msg("gateway listening")

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return ctx.Err()
			}
			log.Warn().Err(err).Msg("accept failed")
			continue
		}
		go p.Handler(conn)
	}
}

func manageCerts(ctx context.Context, email, apiToken string, domains []string) (*tls.Config, error) {
	certmagic.DefaultACME.Email = email
	certmagic.DefaultACME.Agreed = true
	certmagic.DefaultACME.DisableHTTPChallenge = true
	certmagic.DefaultACME.CA = certmagic.LetsEncryptProductionCA
	certmagic.DefaultACME.DNS01Solver = &certmagic.DNS01Solver{
		DNSManager: certmagic.DNSManager{
			DNSProvider: &cloudflare.Provider{APIToken: apiToken},
		},
	}

	magic := certmagic.NewDefault()
	if err := magic.ManageAsync(ctx, domains); err != nil {
		return nil, err
	}

	tlsConfig := magic.TLSConfig()
	tlsConfig.NextProtos = []string{"http/1.1", "h2"}
	return tlsConfig, nil
}
