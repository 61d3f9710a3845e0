package main

import (
	"context"
	"docsmith/app/config"
	"docsmith/app/model"
	"docsmith/app/service/critic"
	"docsmith/app/service/diffpipe"
	"docsmith/app/service/evidence"
	"docsmith/app/service/executor"
	"docsmith/app/service/graph"
	"docsmith/app/service/orchestrator"
	"docsmith/app/service/planner"
	"docsmith/app/service/privacy"
	"docsmith/app/service/subagent"
	"docsmith/app/service/tools"
	"docsmith/app/util/mylog"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

func main() {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	profile, err := loadJSON[model.RepoProfile](cfg.Input.ProfilePath)
	if err != nil {
		log.Fatalf("profile load failed: %v", err)
	}
	kg, err := loadJSON[graph.KnowledgeGraph](cfg.Input.GraphPath)
	if err != nil {
		log.Fatalf("graph load failed: %v", err)
	}

	do.Provide(di, evidence.New)
	do.Provide(di, privacy.New)
	do.Provide(di, tools.New)
	do.Provide(di, planner.New)
	do.Provide(di, executor.New)
	do.Provide(di, subagent.New)
	do.Provide(di, critic.New)
	do.Provide(di, orchestrator.New)
	do.Provide(di, diffpipe.New)

	toolsSvc := do.MustInvoke[*tools.Service](di)
	toolsSvc.RegisterAdapter("repo.search", tools.NewRepoSearchAdapter(profile))
	toolsSvc.RegisterAdapter("diagram.render", tools.NewDiagramRenderAdapter())

	slog.Info("Service started",
		"repo", profile.RepoName,
		"graph", kg.Stats())

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	group, groupCtx := errgroup.WithContext(appCtx)

	group.Go(func() error {
		run := do.MustInvoke[*orchestrator.Service](di).Run(groupCtx, profile, kg)
		if !run.Approved() {
			slog.Warn("Run finished without approval", "state", run.FinalState)
		}
		return nil
	})

	if cfg.Diff.RepoPath != "" {
		group.Go(func() error {
			return runDiffPipeline(groupCtx, di, kg)
		})
	}

	if err = group.Wait(); err != nil {
		log.Fatalf("run failed: %v", err)
	}
}

func runDiffPipeline(ctx context.Context, di *do.Injector, kg *graph.KnowledgeGraph) error {
	svc := do.MustInvoke[*diffpipe.Service](di)

	summary, err := svc.Diff(ctx)
	if err != nil {
		// a missing checkout should not sink the agent run
		slog.Warn("Diff collection failed, skipping pipeline", "error", err)
		return nil
	}

	report := svc.Impact(summary, kg)
	plan := svc.Regenerate(report)
	if plan.Skipped {
		slog.Info("Regeneration skipped", "reason", plan.Reason)
		return nil
	}

	notes := svc.BuildReleaseNotes(summary, report)
	slog.Info("Release notes built", "version", notes.Version, "notes", len(notes.Notes))
	os.Stdout.WriteString(notes.Markdown() + "\n")

	return nil
}

func loadJSON[T any](path string) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var result T
	if err = json.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	return &result, nil
}
