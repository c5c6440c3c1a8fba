package main

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/khanghh/naversign/internal/common"
	"github.com/khanghh/naversign/internal/config"
	"github.com/khanghh/naversign/internal/handlers/api"
	"github.com/khanghh/naversign/internal/middlewares"
	"github.com/khanghh/naversign/internal/naver"
	"github.com/khanghh/naversign/internal/signature"
	"github.com/khanghh/naversign/params"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	app       *cli.App
	gitCommit string
	gitDate   string
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "YAML config file",
		Value: "config.yaml",
	}
	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Enable debug logging",
	}
	clientIDFlag = &cli.StringFlag{
		Name:    "client-id",
		Usage:   "Naver Commerce API client id",
		EnvVars: []string{"NAVER_CLIENT_ID"},
	}
	clientSecretFlag = &cli.StringFlag{
		Name:    "client-secret",
		Usage:   "Naver Commerce API client secret",
		EnvVars: []string{"NAVER_CLIENT_SECRET"},
	}
	timestampFlag = &cli.StringFlag{
		Name:  "timestamp",
		Usage: "Timestamp in epoch milliseconds (default: now)",
	}
	modeFlag = &cli.StringFlag{
		Name:  "mode",
		Usage: "Signature mode: direct-salt, generated-salt or base64 (default: from config)",
	}
	signatureFlag = &cli.StringFlag{
		Name:     "signature",
		Usage:    "Signature to verify",
		Required: true,
	}
	costFlag = &cli.IntFlag{
		Name:  "cost",
		Usage: "bcrypt cost factor (default: from config)",
	}
	tokenTypeFlag = &cli.StringFlag{
		Name:  "type",
		Usage: "Token type: SELF or SELLER (default: from config)",
	}
	accountIDFlag = &cli.StringFlag{
		Name:  "account-id",
		Usage: "Seller account id, required for SELLER tokens",
	}
)

func init() {
	app = cli.NewApp()
	app.EnableBashCompletion = true
	app.Usage = "naversign - Naver Commerce API signature server"
	app.Flags = []cli.Flag{
		configFileFlag,
		debugFlag,
	}
	app.Commands = []*cli.Command{
		{
			Name: "version",
			Action: func(ctx *cli.Context) error {
				fmt.Fprintln(ctx.App.Writer, params.VersionWithCommit(gitCommit, gitDate))
				return nil
			},
		},
		{
			Name:   "sign",
			Usage:  "Generate a signature",
			Flags:  []cli.Flag{clientIDFlag, clientSecretFlag, timestampFlag, modeFlag},
			Action: runSign,
		},
		{
			Name:   "verify",
			Usage:  "Verify a signature",
			Flags:  []cli.Flag{clientIDFlag, clientSecretFlag, timestampFlag, modeFlag, signatureFlag},
			Action: runVerify,
		},
		{
			Name:   "salt",
			Usage:  "Generate a random bcrypt salt usable as a direct-salt secret",
			Flags:  []cli.Flag{costFlag},
			Action: runSalt,
		},
		{
			Name:   "token",
			Usage:  "Exchange credentials for a Naver Commerce API access token",
			Flags:  []cli.Flag{clientIDFlag, clientSecretFlag, tokenTypeFlag, accountIDFlag},
			Action: runToken,
		},
	}
	app.Action = run
}

func mustInitLogger(debug bool, logCfg config.LogConfig) io.Writer {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	var output io.Writer = os.Stdout
	if logCfg.File != "" {
		output = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   logCfg.File,
			MaxSize:    logCfg.MaxSizeMB,
			MaxBackups: logCfg.MaxBackups,
			MaxAge:     logCfg.MaxAgeDays,
			Compress:   logCfg.Compress,
		})
	}
	handler := slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
	return output
}

func mustInitHtmlEngine() *html.Engine {
	renderFS, _ := fs.Sub(templateFS, "templates")
	return html.NewFileSystem(http.FS(renderFS), ".html")
}

func initSignatureService(cfg *config.Config) (*signature.SignatureService, error) {
	return signature.NewSignatureService(signature.ServiceConfig{
		Options: cfg.SignatureOptions(),
		Workers: cfg.Signature.Workers,
		Timeout: cfg.Signature.Timeout,
		NodeID:  cfg.Signature.NodeID,
	})
}

// loadConfig reads --config. The default file is optional, an explicitly
// given one must exist.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	configFile := ctx.String(configFileFlag.Name)
	if !ctx.IsSet(configFileFlag.Name) {
		if _, err := os.Stat(configFile); err != nil {
			configFile = ""
		}
	}
	return config.LoadConfig(configFile)
}

func setupAPIRoutes(router fiber.Router, statusHandler *api.StatusHandler, signatureHandler *api.SignatureHandler) {
	router.Get("/", statusHandler.GetHome)
	router.Get("/timestamp", statusHandler.GetTimestamp)
	router.Get("/docs", statusHandler.GetDocs)
	router.Post("/debug", statusHandler.PostDebug)
	router.Post("/naver-signature", signatureHandler.PostSignature)
	router.Post("/verify-signature", signatureHandler.PostVerifySignature)
	router.Use(statusHandler.NotFound)
}

func newRouter(cfg *config.Config, signatureService *signature.SignatureService, logOutput io.Writer) *fiber.App {
	router := fiber.New(fiber.Config{
		Prefork:               false,
		CaseSensitive:         true,
		BodyLimit:             params.ServerBodyLimit,
		IdleTimeout:           params.ServerIdleTimeout,
		ReadTimeout:           params.ServerReadTimeout,
		WriteTimeout:          params.ServerWriteTimeout,
		Views:                 mustInitHtmlEngine(),
		PassLocalsToViews:     true,
		ErrorHandler:          middlewares.ErrorHandler,
		DisableStartupMessage: true,
	})

	router.Use(recover.New(recover.Config{EnableStackTrace: cfg.IsDevelopment()}))
	router.Use(middlewares.RequestID())
	router.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		Output: logOutput,
	}))
	router.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.AllowOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	router.Use(middlewares.InjectGlobalVars(fiber.Map{
		"serviceName": params.ServiceName,
		"version":     params.VersionWithCommit(gitCommit, gitDate),
	}))

	setupAPIRoutes(
		router,
		api.NewStatusHandler(signatureService),
		api.NewSignatureHandler(signatureService, cfg.IsDevelopment()),
	)
	return router
}

func run(ctx *cli.Context) error {
	config, err := loadConfig(ctx)
	if err != nil {
		slog.Error("Could not load config file.", "error", err)
		return err
	}

	logOutput := mustInitLogger(config.Debug || ctx.IsSet(debugFlag.Name), config.Log)
	signatureService, err := initSignatureService(config)
	if err != nil {
		slog.Error("Could not initialize signature service.", "error", err)
		return err
	}
	router := newRouter(config, signatureService, logOutput)

	sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		return common.StartHealthCheckServer(gctx, config.HealthCheckAddr, signatureService)
	})
	g.Go(func() error {
		<-gctx.Done()
		return router.ShutdownWithTimeout(params.ServerShutdownTimeout)
	})
	g.Go(func() error {
		slog.Info("Starting server",
			"addr", config.ListenAddr,
			"healthCheckAddr", config.HealthCheckAddr,
			"mode", config.Signature.Mode,
			"workers", config.Signature.Workers,
		)
		return router.Listen(config.ListenAddr)
	})
	return g.Wait()
}

// signatureRequestFromFlags fills missing credentials from the config file.
func signatureRequestFromFlags(ctx *cli.Context, cfg *config.Config) signature.Request {
	req := signature.Request{
		ClientID:     ctx.String(clientIDFlag.Name),
		ClientSecret: ctx.String(clientSecretFlag.Name),
		Timestamp:    ctx.String(timestampFlag.Name),
	}
	if req.ClientID == "" {
		req.ClientID = cfg.Naver.ClientID
	}
	if req.ClientSecret == "" {
		req.ClientSecret = cfg.Naver.ClientSecret
	}
	if req.Timestamp == "" {
		req.Timestamp = strconv.FormatInt(time.Now().UnixMilli(), 10)
	}
	return req
}

func modeFromFlags(ctx *cli.Context) (signature.Mode, error) {
	if !ctx.IsSet(modeFlag.Name) {
		return "", nil
	}
	return signature.ParseMode(ctx.String(modeFlag.Name))
}

func runSign(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	mode, err := modeFromFlags(ctx)
	if err != nil {
		return err
	}
	svc, err := initSignatureService(cfg)
	if err != nil {
		return err
	}

	req := signatureRequestFromFlags(ctx, cfg)
	sig, err := svc.Generate(ctx.Context, req, mode)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.ErrWriter, "password: %s\ntimestamp: %s\nmethod: %s\n", sig.Password, sig.Timestamp, sig.Mode.Method())
	fmt.Fprintln(ctx.App.Writer, sig.Value)
	return nil
}

func runVerify(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	mode, err := modeFromFlags(ctx)
	if err != nil {
		return err
	}
	svc, err := initSignatureService(cfg)
	if err != nil {
		return err
	}

	result, err := svc.Verify(ctx.Context, signature.VerificationRequest{
		Request:   signatureRequestFromFlags(ctx, cfg),
		Signature: ctx.String(signatureFlag.Name),
		Mode:      mode,
	})
	if err != nil {
		return err
	}
	if !result.Valid {
		return cli.Exit("invalid signature", 1)
	}
	fmt.Fprintln(ctx.App.Writer, "valid")
	return nil
}

func runSalt(ctx *cli.Context) error {
	cost := ctx.Int(costFlag.Name)
	if cost == 0 {
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		cost = cfg.Signature.Cost
	}
	salt, err := signature.GenerateSalt(cost)
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, salt)
	return nil
}

func runToken(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	svc, err := initSignatureService(cfg)
	if err != nil {
		return err
	}

	req := signatureRequestFromFlags(ctx, cfg)
	creds := naver.Credentials{
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		Type:         cfg.Naver.Type,
		AccountID:    cfg.Naver.AccountID,
	}
	if ctx.IsSet(tokenTypeFlag.Name) {
		creds.Type = strings.ToUpper(ctx.String(tokenTypeFlag.Name))
	}
	if ctx.IsSet(accountIDFlag.Name) {
		creds.AccountID = ctx.String(accountIDFlag.Name)
	}

	client := naver.NewTokenClient(cfg.Naver.TokenURL, svc, &http.Client{Timeout: params.NaverTokenTimeout})
	token, err := client.Token(ctx.Context, creds)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, string(out))
	return nil
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
