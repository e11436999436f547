package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"sowp-lms/pkg/assignments"
	"sowp-lms/pkg/chat"
	"sowp-lms/pkg/config"
	"sowp-lms/pkg/counter"
	"sowp-lms/pkg/courses"
	"sowp-lms/pkg/email"
	"sowp-lms/pkg/grading"
	"sowp-lms/pkg/history"
	"sowp-lms/pkg/initial"
	"sowp-lms/pkg/kfka"
	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/middleware"
	"sowp-lms/pkg/notify"
	"sowp-lms/pkg/offline"
	"sowp-lms/pkg/quizzes"
	"sowp-lms/pkg/repos"
	"sowp-lms/pkg/routes"
	"sowp-lms/pkg/search"
	"sowp-lms/pkg/topics"
	"sowp-lms/pkg/users"
)

func main() {
	cfg, found := config.Load()
	log, err := logger.New(cfg.Mode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	if !found {
		log.Info(".env not found, using process environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := initial.ConDB(cfg, log)
	if err != nil {
		log.Fatal("postgres", "error", err)
	}
	if err := initial.SyncDB(db); err != nil {
		log.Fatal("migrate", "error", err)
	}
	r := repos.New(db, log)

	local, err := initial.ConLocal(cfg)
	if err != nil {
		log.Fatal("offline db", "error", err)
	}
	store, err := offline.NewStore(local, log)
	if err != nil {
		log.Fatal("offline store", "error", err)
	}

	rdb, err := initial.InitRedis(ctx, cfg)
	if err != nil {
		log.Fatal("redis", "error", err)
	}
	defer rdb.Close()
	ids := counter.NewRedis(rdb)

	es, err := initial.InitES(cfg)
	if err != nil {
		log.Fatal("elasticsearch", "error", err)
	}
	index := search.New(es, log)

	photos, err := initial.InitMinio(ctx, cfg, log)
	if err != nil {
		log.Fatal("minio", "error", err)
	}

	events := kfka.NewWriter(cfg.KafkaBrokers)
	defer events.Close()

	mailer := &email.Mailer{
		Addr:        cfg.SMTPAddr,
		Host:        cfg.SMTPHost,
		From:        cfg.EmailFrom,
		Password:    cfg.EmailPass,
		TemplateDir: cfg.TemplateDir,
	}
	if !mailer.Enabled() {
		log.Warn("SMTP_ADDR not set, emails are disabled")
	}

	notes := notify.NewService(r, ids, mailer, log)
	grader := grading.NewService(db, r, events, notes, log)
	syncer := offline.NewSyncer(store, offline.RepoRemote(r), log)

	router := mux.NewRouter()
	routes.Setup(router, middleware.NewAuth(cfg.JWTSecret, r.Users, log), routes.Handlers{
		Users:         users.NewHandler(r, photos, cfg.PageSize, log),
		Courses:       courses.NewHandler(db, r, ids, index, events, cfg.PageSize, log),
		Topics:        topics.NewHandler(db, r, ids, index, events, cfg.PageSize, log),
		Assignments:   assignments.NewHandler(db, r, ids, grader, cfg.PageSize, log),
		Quizzes:       quizzes.NewHandler(db, r, ids, cfg.PageSize, log),
		Grading:       grading.NewHandler(grader, r, log),
		History:       history.NewHandler(r, cfg.PageSize, log),
		Notifications: notify.NewHandler(notes, log),
		Offline:       offline.NewHandler(syncer, log),
		Chat:          chat.NewHub(r.Chat, chat.NewFilter(), log),
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, topic := range []string{kfka.TopicGrades, kfka.TopicCourses} {
		reader := kfka.NewReader(cfg.KafkaBrokers, cfg.KafkaGroupID, topic)
		g.Go(func() error { return notes.Consume(gctx, reader) })
	}
	g.Go(func() error {
		if err := initial.Reindex(gctx, r, index, log); err != nil {
			log.Warn("search reindex failed", "error", err)
		}
		if err := syncer.SyncAll(gctx); err != nil {
			log.Warn("offline sync incomplete", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info("server started", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
