package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arjunkade/agentcore/internal/agent"
	"github.com/arjunkade/agentcore/internal/compaction"
	"github.com/arjunkade/agentcore/internal/config"
	"github.com/arjunkade/agentcore/internal/heartbeat"
	"github.com/arjunkade/agentcore/internal/llm"
	"github.com/arjunkade/agentcore/internal/llmclients"
	"github.com/arjunkade/agentcore/internal/memory"
	"github.com/arjunkade/agentcore/internal/observability"
	"github.com/arjunkade/agentcore/internal/permission"
	"github.com/arjunkade/agentcore/internal/router"
	"github.com/arjunkade/agentcore/internal/sessions"
	"github.com/arjunkade/agentcore/internal/tools"
	"github.com/arjunkade/agentcore/pkg/models"
)

func buildServeCmd() *cobra.Command {
	var noWatch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load the configuration, wire every component, and serve turns until signalled to stop",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), noWatch)
		},
	}
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "disable hot-reload of the configuration file")
	return cmd
}

func runServe(ctx context.Context, noWatch bool) error {
	path := config.Resolve(configPath, ".")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if warnings, err := config.Validate(cfg); err != nil {
		return err
	} else {
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "config warning: %s\n", w)
		}
	}

	logger := observability.NewLogger(observability.LogConfig{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	logger.Info("starting agentcore", "workspace", cfg.Workspace, "config_path", path)

	recorder, err := buildRecorder(cfg)
	if err != nil {
		return err
	}

	client, err := buildLLMClient(cfg)
	if err != nil {
		return err
	}

	sessionDir := filepath.Join(cfg.Workspace, "sessions")
	log, err := sessions.NewLog(sessionDir)
	if err != nil {
		return fmt.Errorf("serve: open session log: %w", err)
	}

	memStore, err := memory.New(filepath.Join(cfg.Workspace, "memory"))
	if err != nil {
		return fmt.Errorf("serve: open memory store: %w", err)
	}

	gate := permission.New(filepath.Join(cfg.Workspace, "approvals.json"), cfg.Permissions.SafeCommands, nil)

	registry := agent.NewRegistry()
	for _, t := range []agent.Tool{
		tools.NewShell(gate),
		&tools.ReadFile{Workspace: cfg.Workspace},
		&tools.WriteFile{Workspace: cfg.Workspace},
		&tools.MemorySearch{Store: memStore},
		&tools.MemorySave{Store: memStore},
		tools.NewWebSearch(os.Getenv("AGENTCORE_WEB_SEARCH_ENDPOINT")),
	} {
		if err := registry.Register(t); err != nil {
			return fmt.Errorf("serve: register tool %s: %w", t.Name(), err)
		}
	}

	compactor := compaction.New(client, cfg.DefaultModel)
	compactor.Recorder = recorder
	loop := agent.NewLoop(client, log, registry, compactor)
	loop.Recorder = recorder
	loop.OnToolUse = func(name string, args json.RawMessage, result string) {
		logger.Info("tool invoked", "tool", name, "result_len", len(result))
	}

	rt := router.New(loop)
	if err := wireAgents(rt, cfg); err != nil {
		return err
	}

	sched := heartbeat.NewScheduler(
		func(ctx context.Context, h models.Heartbeat) (string, error) {
			return rt.RunHeartbeat(ctx, h)
		},
		heartbeat.WithOnResult(func(name, response string) {
			logger.Info("heartbeat fired", "name", name)
		}),
	)
	for _, hb := range cfg.Heartbeats {
		sched.Add(models.Heartbeat{
			Name:        hb.Name,
			CadenceExpr: hb.Schedule,
			Prompt:      hb.Prompt,
			AgentName:   hb.Agent,
		})
	}

	runCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched.Start(runCtx)

	var watcher *config.Watcher
	if !noWatch && path != "" {
		watcher, err = config.NewWatcher(path, func(updated config.Config) {
			logger.Info("config reloaded")
			rebuildHeartbeats(sched, updated)
		})
		if err != nil {
			logger.Warn("config watch disabled", "error", err)
		} else {
			go watcher.Run(runCtx)
		}
	}

	logger.Info("agentcore is running; press ctrl-c to stop")
	<-runCtx.Done()

	logger.Info("shutting down")
	if watcher != nil {
		watcher.Close()
	}
	sched.Stop(10 * time.Second)
	return nil
}

func buildRecorder(cfg config.Config) (observability.Recorder, error) {
	if !cfg.Metrics.Enabled {
		return observability.NoopRecorder{}, nil
	}
	return observability.NewPrometheusRecorder(nil), nil
}

func buildLLMClient(cfg config.Config) (llm.Client, error) {
	apiKey := os.Getenv(cfg.LLM.ApiKeyEnv)
	switch cfg.LLM.Provider {
	case "", "anthropic":
		return llmclients.NewAnthropic(apiKey, cfg.LLM.BaseURL), nil
	case "openai":
		return llmclients.NewOpenAICompatible(apiKey, cfg.LLM.BaseURL), nil
	default:
		return nil, fmt.Errorf("serve: unknown llm.provider %q", cfg.LLM.Provider)
	}
}

func wireAgents(rt *router.Router, cfg config.Config) error {
	now := time.Now()
	haveDefault := false
	for _, ac := range cfg.Agents {
		soul := router.DefaultSoul
		if ac.SoulPath != "" {
			raw, err := os.ReadFile(ac.SoulPath)
			if err != nil {
				return fmt.Errorf("serve: read soul file for agent %s: %w", ac.Name, err)
			}
			soul = string(raw)
		}
		namespace := ac.SessionPrefix
		if namespace == "" {
			namespace = "agent:" + ac.Name
		}
		model := ac.Model
		if model == "" {
			model = cfg.DefaultModel
		}
		a := router.NewAgent(router.AgentSpec{
			Name:             ac.Name,
			Model:            model,
			SoulText:         soul,
			Prefix:           ac.Prefix,
			SessionNamespace: namespace,
			Workspace:        cfg.Workspace,
		}, now)

		if ac.Prefix == "" {
			rt.RegisterDefault(a)
			haveDefault = true
			continue
		}
		if err := rt.Register(a); err != nil {
			return err
		}
	}

	if !haveDefault {
		rt.RegisterDefault(router.NewAgent(router.AgentSpec{
			Name:             "main",
			Model:            cfg.DefaultModel,
			SoulText:         router.DefaultSoul,
			SessionNamespace: "agent:main",
			Workspace:        cfg.Workspace,
		}, now))
	}
	return nil
}

func rebuildHeartbeats(sched *heartbeat.Scheduler, cfg config.Config) {
	existing := map[string]bool{}
	for _, hb := range sched.Heartbeats() {
		existing[hb.Name] = true
	}
	for _, hb := range cfg.Heartbeats {
		if existing[hb.Name] {
			continue
		}
		sched.Add(models.Heartbeat{
			Name:        hb.Name,
			CadenceExpr: hb.Schedule,
			Prompt:      hb.Prompt,
			AgentName:   hb.Agent,
		})
	}
}
