package main

import (
	"context"
	"log"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"go.uber.org/zap"

	httpadapter "fableturn/internal/adapter/http"
	idemcache "fableturn/internal/adapter/idemcache/inmemory"
	metricsinmem "fableturn/internal/adapter/metrics/inmemory"
	"fableturn/internal/adapter/narrator/gemini"
	"fableturn/internal/adapter/narrator/scripted"
	gormrepo "fableturn/internal/adapter/repo/gorm"
	"fableturn/internal/adapter/repo/memory"
	"fableturn/internal/app/auth"
	"fableturn/internal/app/observe"
	"fableturn/internal/app/ports"
	"fableturn/internal/app/replay"
	"fableturn/internal/app/status"
	"fableturn/internal/app/turn"
	"fableturn/internal/domain/narrate"
	"fableturn/internal/platform/config"
)

type repoSet struct {
	tx          ports.TxManager
	boards      ports.BoardRepository
	turns       ports.TurnRepository
	characters  ports.CharacterRepository
	companions  ports.CompanionRepository
	rewards     ports.RewardGrantRepository
	credentials ports.PlayerCredentialRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := mustBuildLogger(cfg.LogDevel)
	defer func() { _ = logger.Sync() }()

	repos := mustBuildRepos(cfg, logger)
	narrator := mustBuildNarrator(cfg, logger)
	kpiRecorder := metricsinmem.NewRecorder()
	cache := idemcache.NewCache(cfg.IdempotencyTTL, nil)

	h := httpadapter.Handler{
		RegisterUC: auth.RegisterUseCase{Credentials: repos.credentials, TxManager: repos.tx, Now: time.Now},
		AuthUC:     auth.VerifyUseCase{Credentials: repos.credentials},
		TurnUC: turn.UseCase{
			TxManager:     repos.tx,
			BoardRepo:     repos.boards,
			TurnRepo:      repos.turns,
			CharacterRepo: repos.characters,
			CompanionRepo: repos.companions,
			RewardRepo:    repos.rewards,
			Narrator:      narrator,
			Cache:         cache,
			Metrics:       kpiRecorder,
			Logger:        logger,
			Config: turn.Config{
				SeedSalt:          cfg.SeedSalt,
				Temperature:       cfg.Temperature,
				MinNarrationWords: cfg.MinNarrationWords,
				MaxNarrationWords: cfg.MaxNarrationWords,
				IntroMinWords:     cfg.IntroMinWords,
				IntroMaxWords:     cfg.IntroMaxWords,
			},
			Now: time.Now,
		},
		ObserveUC: observe.UseCase{BoardRepo: repos.boards, TurnRepo: repos.turns},
		StatusUC:  status.UseCase{BoardRepo: repos.boards, TurnRepo: repos.turns, CharacterRepo: repos.characters},
		ReplayUC:  replay.UseCase{Turns: repos.turns},
		KPI:       kpiRecorder,
		Logger:    logger,
	}

	s := server.Default(server.WithHostPorts(cfg.ListenAddr))
	h.RegisterRoutes(s)

	logger.Info("fableturn server listening", zap.String("addr", cfg.ListenAddr))
	s.Spin()
}

func mustBuildLogger(devel bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if devel {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	return logger
}

func mustBuildRepos(cfg config.Config, logger *zap.Logger) repoSet {
	if cfg.DBDSN == "" {
		logger.Warn("FABLETURN_DB_DSN not set, using in-memory store with a demo campaign")
		store := memory.NewStore()
		seedDemoCampaign(store)
		return repoSet{
			tx:          memory.NewTxManager(store),
			boards:      memory.NewBoardRepo(store),
			turns:       memory.NewTurnRepo(store),
			characters:  memory.NewCharacterRepo(store),
			companions:  memory.NewCompanionRepo(store),
			rewards:     memory.NewRewardGrantRepo(store),
			credentials: memory.NewPlayerCredentialRepo(store),
		}
	}

	db, err := gormrepo.OpenPostgres(cfg.DBDSN)
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	if err := gormrepo.ApplyMigrations(context.Background(), db, cfg.MigrationsDir); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}
	return repoSet{
		tx:          gormrepo.NewTxManager(db),
		boards:      gormrepo.NewBoardRepo(db),
		turns:       gormrepo.NewTurnRepo(db),
		characters:  gormrepo.NewCharacterRepo(db),
		companions:  gormrepo.NewCompanionRepo(db),
		rewards:     gormrepo.NewRewardGrantRepo(db),
		credentials: gormrepo.NewPlayerCredentialRepo(db),
	}
}

func mustBuildNarrator(cfg config.Config, logger *zap.Logger) ports.Narrator {
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, using scripted narrator; turns will use deterministic recovery narration")
		return scripted.New()
	}
	client, err := gemini.New(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatalf("build gemini narrator: %v", err)
	}
	return client
}

func seedDemoCampaign(store *memory.Store) {
	store.SeedBoard(ports.BoardRecord{
		BoardID:    "demo-board",
		CampaignID: "demo-campaign",
		Mode:       "town",
		Title:      "Greyharbor",
		Vendors: []narrate.Vendor{
			{ID: "vendor-maren", Name: "Maren"},
			{ID: "vendor-oswick", Name: "Oswick"},
		},
		Tension:      3,
		PartyHPRatio: 1,
		Version:      1,
	})
	store.SeedCharacter(ports.CharacterRecord{
		CharacterID: "demo-char",
		CampaignID:  "demo-campaign",
		Name:        "Riva",
		Level:       1,
		HP:          10,
		MaxHP:       10,
	})
	store.SeedCompanion(ports.CompanionRecord{
		CompanionID: "demo-companion",
		CampaignID:  "demo-campaign",
		Name:        "Brann",
		Line:        "Brann keeps glancing back toward the gate.",
	})
}
