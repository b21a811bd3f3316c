package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/radieske/bet-recap-ledger/internal/ledger-service/app"
	"github.com/radieske/bet-recap-ledger/internal/shared/config"
	"github.com/radieske/bet-recap-ledger/internal/shared/logger"
)

// Runtime é o que os comandos compartilham: como abrir o ledger e onde escrever
type Runtime struct {
	Open func(ctx context.Context) (*app.App, error)
	Out  io.Writer
	Err  io.Writer
}

// DefaultRuntime abre o ledger a partir das variáveis de ambiente
func DefaultRuntime() *Runtime {
	return &Runtime{
		Open: func(ctx context.Context) (*app.App, error) {
			cfg := config.Load()
			log, err := logger.NewCLI(cfg.Env)
			if err != nil {
				return nil, err
			}
			// métricas ficam num registry local: o CLI não expõe /metrics
			return app.New(ctx, cfg, log, prometheus.NewRegistry())
		},
		Out: os.Stdout,
		Err: os.Stderr,
	}
}

// Commands lista os subcomandos do betledger
func Commands(rt *Runtime) []subcommands.Command {
	return []subcommands.Command{
		&importCmd{rt: rt},
		&logCmd{rt: rt},
		&gradeCmd{rt: rt},
		&retagCmd{rt: rt},
		&reportCmd{rt: rt},
		&recapCmd{rt: rt},
		&mappingCmd{rt: rt},
		&settingCmd{rt: rt},
	}
}

// run abre o ledger, executa fn e traduz o erro em status de saída
func (rt *Runtime) run(ctx context.Context, fn func(a *app.App) error) subcommands.ExitStatus {
	a, err := rt.Open(ctx)
	if err != nil {
		fmt.Fprintf(rt.Err, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()
	if err := fn(a); err != nil {
		fmt.Fprintf(rt.Err, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (rt *Runtime) usage(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(rt.Err, "Error: "+format+"\n", args...)
	return subcommands.ExitUsageError
}

// printMarkdown renderiza no terminal; cai para o texto cru se o glamour falhar
func (rt *Runtime) printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Fprint(rt.Out, md)
		return
	}
	fmt.Fprint(rt.Out, out)
}
