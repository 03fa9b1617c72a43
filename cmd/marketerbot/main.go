package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/marketerbot/marketerbot/internal/ai"
	"github.com/marketerbot/marketerbot/internal/bot"
	"github.com/marketerbot/marketerbot/internal/config"
	"github.com/marketerbot/marketerbot/internal/db"
	"github.com/marketerbot/marketerbot/internal/fileproc"
	"github.com/marketerbot/marketerbot/internal/metrika"
	"github.com/marketerbot/marketerbot/internal/research"
	"github.com/marketerbot/marketerbot/internal/scheduler"
	"github.com/marketerbot/marketerbot/internal/transcribe"
)

var (
	debug   bool
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "marketerbot",
	Short: "Telegram marketing assistant bot",
	Long: "marketerbot is a Telegram bot for marketers: AI chat, project tracking,\n" +
		"file analysis, web research and Yandex Metrika traffic reports.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to the env file")
}

func setupLogging(cfg *config.Config) {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if cfg.LogFile != "" {
		logrus.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}))
	}
}

func run() error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	setupLogging(cfg)

	gdb, err := db.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	store := db.NewStore(gdb)

	storage, err := fileproc.NewStorage(cfg.UploadDir, cfg.MaxFileBytes())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	claude := ai.NewClaude(cfg.AnthropicAPIKey, cfg.ClaudeModel, cfg.MaxTokensResponse)
	gemini, err := ai.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.MaxTokensResponse)
	if err != nil {
		return fmt.Errorf("failed to create gemini client: %w", err)
	}
	facade := ai.NewFacade(claude, gemini)

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("failed to create telegram client: %w", err)
	}
	api.Debug = debug
	logrus.Infof("authorized as @%s", api.Self.UserName)

	reporter := metrika.NewReporter(metrika.NewClient(cfg.MetrikaToken, cfg.MetrikaCounterID))

	tgBot := bot.New(api, bot.Deps{
		Store:       store,
		Facade:      facade,
		Research:    research.NewClient(cfg.SerpAPIKey),
		Reporter:    reporter,
		Storage:     storage,
		Transcriber: transcribe.NewWhisper(cfg.TranscribeKey, cfg.MaxFileBytes()),
		Language:    cfg.DefaultLanguage,
	})

	sched := scheduler.New(reporter, store.ListUsers, func(chatID int64, text string) error {
		_, err := api.Send(tgbotapi.NewMessage(chatID, text))
		return err
	})
	sched.Start(ctx)
	defer sched.Stop()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logrus.Infof("received %s, shutting down", sig)
		cancel()
	}()

	tgBot.Run(ctx)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Fatal("marketerbot failed")
	}
}
