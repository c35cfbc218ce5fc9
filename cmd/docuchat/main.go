package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/docuchat/docuchat"
	"github.com/docuchat/docuchat/embedding"
	"github.com/docuchat/docuchat/generate"

	mcpE "github.com/docuchat/docuchat/mcp"
	httpT "github.com/docuchat/docuchat/transport/http"
	natsT "github.com/docuchat/docuchat/transport/nats"
)

func main() {
	cmd := &cli.Command{
		Name:  "docuchat",
		Usage: "DocuChat service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "path",
				Usage: "Path to the DocuChat service",
			},
			&cli.StringFlag{
				Name:    "nats",
				Usage:   "NATS server URL",
				Sources: cli.EnvVars("NATS_URL"),
			},
			&cli.StringFlag{
				Name:    "nats-creds",
				Usage:   "NATS user credentials file",
				Sources: cli.EnvVars("NATS_CREDS"),
			},
			&cli.BoolFlag{
				Name:  "http",
				Usage: "Enable HTTP transport",
				Value: true,
			},
			&cli.StringFlag{
				Name:  "http-addr",
				Usage: "HTTP server address",
				Value: ":8080",
			},
		},
		Action: run,
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		log.Fatal(err.Error())
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		path = filepath.Join(homeDir, ".docuchat")
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer log.Sync()

	zap.ReplaceGlobals(log)

	f, err := os.Open(filepath.Join(path, "config.yaml"))
	if err != nil {
		return err
	}
	defer f.Close()

	var cfg docuchat.Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return err
	}

	if cfg.Index.Path == "" {
		cfg.Index.Path = filepath.Join(path, "index")
	}

	embedder, err := embedding.NewOpenAIEmbedder(cfg.Embedding)
	if err != nil {
		return err
	}

	var generator generate.Generator
	if g, err := generate.NewGroqGenerator(cfg.Generation); err != nil {
		log.Warn("answer generation disabled", zap.Error(err))
	} else {
		generator = g
	}

	svc, err := docuchat.NewService(cfg, embedder, generator)
	if err != nil {
		return err
	}
	defer svc.Close()

	svc = docuchat.LoggingMiddleware(log)(svc)

	endpoints := docuchat.EndpointSet{
		UploadDocument: docuchat.UploadDocumentEndpoint(svc),
		IngestText:     docuchat.IngestTextEndpoint(svc),
		Query:          docuchat.QueryEndpoint(svc),
		Chat:           docuchat.ChatEndpoint(svc),
		Stats:          docuchat.StatsEndpoint(svc),
		Reset:          docuchat.ResetEndpoint(svc),
	}

	// Add NATS Transport
	if natsURL := cmd.String("nats"); natsURL != "" {
		opts := []nats.Option{
			nats.Name("DocuChat Server"),
		}

		if natsCreds := cmd.String("nats-creds"); natsCreds != "" {
			opts = append(opts, nats.UserCredentials(natsCreds))
		}

		nc, err := nats.Connect(natsURL, opts...)
		if err != nil {
			return err
		}
		defer nc.Drain()

		srv, err := micro.AddService(nc, micro.Config{
			Name:    "docuchat",
			Version: "1.0.0",
		})

		if err != nil {
			return err
		}
		defer srv.Stop()

		root := srv.AddGroup("docuchat")
		natsT.AddEndpoints(root, endpoints)
	}

	httpEnabled := cmd.Bool("http")
	if httpEnabled {
		r := gin.Default()
		httpT.AddRouters(r, endpoints)

		endpoints := make(map[mcp.MCPMethod]mcpE.MCPEndpoint)
		endpoints[mcp.MethodInitialize] = mcpE.InitializeEndpoint(svc)
		endpoints[mcp.MethodPing] = mcpE.PingEndpoint(svc)
		endpoints[mcp.MethodToolsList] = mcpE.ListToolsEndpoint(svc)
		endpoints[mcp.MethodToolsCall] = mcpE.CallToolEndpoint(svc)
		httpT.AddStreamableRouters(r, endpoints)

		httpAddr := cmd.String("http-addr")
		go r.Run(httpAddr)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sign := <-quit

	log.Info("graceful shutdown", zap.String("signal", sign.String()))
	return nil
}
