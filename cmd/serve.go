package cmd

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/etnz/stockfolio/server"
	"github.com/gin-gonic/gin"
	"github.com/google/subcommands"
)

type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the portfolios as a JSON API" }
func (*serveCmd) Usage() string {
	return `folio serve [-addr <host:port>]

  Serves the portfolios as a JSON API, and streams every change on the
  websocket /ws/events. See 'folio topic api'.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", setting("", "FOLIO_ADDR", "localhost:8080"), "address to listen on")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	svc, release, err := OpenService(ctx)
	if err != nil {
		return exitStatus(err)
	}
	defer release()

	if !verbose() {
		gin.SetMode(gin.ReleaseMode)
	}
	return exitStatus(server.New(svc).ListenAndServe(ctx, c.addr))
}
