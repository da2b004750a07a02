package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	controllerx "github.com/krzycho/dbagent/agent/agents/controller"
	reasonerx "github.com/krzycho/dbagent/agent/agents/reasoner"
	contractx "github.com/krzycho/dbagent/agent/contract"
	dispatchx "github.com/krzycho/dbagent/agent/dispatch"
	llmx "github.com/krzycho/dbagent/agent/llm"
	promptx "github.com/krzycho/dbagent/agent/prompt"
	toolx "github.com/krzycho/dbagent/agent/tool"
	tracex "github.com/krzycho/dbagent/agent/trace"
	configx "github.com/krzycho/dbagent/pkg/config"
	"github.com/krzycho/dbagent/pkg/dbgate"
	_ "github.com/krzycho/dbagent/pkg/logger/autoload"
	openrouterx "github.com/krzycho/dbagent/pkg/openrouter"
	reportx "github.com/krzycho/dbagent/pkg/report"
)

type AppConfig struct {
	TaskGoal      string `envconfig:"TASK_GOAL" split_words:"true" default:"Return the IDs of the active datacenters managed by employees who are on leave."`
	ReportTask    string `envconfig:"REPORT_TASK" split_words:"true" default:"database"`
	MaxCycles     int    `envconfig:"MAX_CYCLES" split_words:"true" default:"10"`
	DBBackend     string `envconfig:"DB_BACKEND" split_words:"true" default:"api"`
	AnalyzerModel string `envconfig:"ANALYZER_MODEL" split_words:"true"`
	TracePath     string `envconfig:"TRACE_PATH" split_words:"true"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("AGENT")
	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")

	gateway := newGateway(appCfg.DBBackend)

	reportCfg := configx.MustNew[reportx.Config]("REPORT")
	reporter := reportx.MustNew(*reportCfg)

	prompts := promptx.LoadPromptSet()
	analyzerModel := strings.TrimSpace(appCfg.AnalyzerModel)
	if analyzerModel == "" {
		analyzerModel = llmCfg.Model
	}
	analyzer, err := reasonerx.NewAnalyzer(openrouterx.NewClient(llmCfg.OpenRouterFor(contractx.RoleDescriber)), analyzerModel, prompts.Analyzer)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create analyzer")
	}

	tools := toolx.DefaultRegistry()

	executor, err := toolx.NewExecutor(toolx.Deps{
		Gateway:    gateway,
		Analyzer:   analyzer,
		Reporter:   reporter,
		ReportTask: appCfg.ReportTask,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create tool executor")
	}

	dispatcher, err := dispatchx.New(tools, executor)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create dispatcher")
	}

	models, err := reasonerx.NewRegistry(ctx, *llmCfg, tools)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create reasoning registry")
	}

	writer, closeWriter := newTraceWriter(appCfg.TracePath)
	defer closeWriter()

	loop, err := controllerx.New(models, dispatcher, controllerx.Config{
		MaxCycles: appCfg.MaxCycles,
		Writer:    writer,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create controller")
	}

	task := contractx.NewTask(uuid.NewString(), appCfg.TaskGoal, contractx.ToolFinalAnswer, time.Now())
	outcome, err := loop.Run(ctx, task)
	if err != nil {
		log.Fatal().Err(err).Str("task", task.ID).Msg("task failed")
	}

	for _, entry := range outcome.Trace {
		log.Debug().
			Int("cycle", entry.Cycle).
			Str("tool", entry.Action.Tool).
			Str("status", string(entry.Result.Status)).
			Str("detail", entry.Result.Detail).
			Msg("trace entry")
	}
	log.Info().
		Str("task", task.ID).
		Str("status", string(outcome.Status)).
		Int("cycles", outcome.Cycles).
		Strs("answer", outcome.Answer).
		Msg("task finished")
}

func newGateway(backend string) dbgate.Gateway {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "postgres":
		cfg := configx.MustNew[dbgate.PostgresConfig]("DATABASE")
		gw, err := dbgate.NewPostgresGateway(*cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create postgres gateway")
		}
		return gw
	default:
		cfg := configx.MustNew[dbgate.Config]("DATABASE")
		gw, err := dbgate.NewClient(*cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create database api client")
		}
		return gw
	}
}

func newTraceWriter(path string) (tracex.Writer, func()) {
	path = strings.TrimSpace(path)
	if path == "" {
		return tracex.NopWriter{}, func() {}
	}
	f, err := os.Create(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("failed to create trace file")
	}
	return tracex.NewMarkdownWriter(f), func() { _ = f.Close() }
}
