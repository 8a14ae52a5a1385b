// Sami — a voice-activated personal assistant.
//
// Usage:
//
//	sami [--verbose] [--text] [--no-speech] [--no-status] [--no-ai]
package main

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/samivoice/sami/internal/apps"
	"github.com/samivoice/sami/internal/config"
	"github.com/samivoice/sami/internal/dispatch"
	"github.com/samivoice/sami/internal/domain"
	"github.com/samivoice/sami/internal/logger"
	"github.com/samivoice/sami/internal/openrouter"
	"github.com/samivoice/sami/internal/session"
	"github.com/samivoice/sami/internal/skills"
	"github.com/samivoice/sami/internal/speech"
	"github.com/samivoice/sami/internal/status"
	"github.com/samivoice/sami/internal/wakeword"
)

func main() {
	_ = godotenv.Load()

	verbose := pflag.Bool("verbose", false, "enable verbose/debug logging")
	quiet := pflag.Bool("quiet", false, "disable all logging")
	logFile := pflag.String("log-file", ".sami-logs/sami.log", "file to write logs to (use \"stderr\" to log to console)")
	textMode := pflag.Bool("text", false, "type commands instead of speaking them")
	noSpeech := pflag.Bool("no-speech", false, "disable text-to-speech even if Azure keys are set")
	noStatus := pflag.Bool("no-status", false, "disable the web status mirror")
	noAI := pflag.Bool("no-ai", false, "disable the conversation backend even if a key is set")
	cacheDir := pflag.String("cache-dir", ".sami-cache", "directory for persistent TTS audio cache")
	whisperBin := pflag.String("whisper-bin", "whisper-cli", "path to the whisper-cpp CLI binary")
	whisperModel := pflag.String("whisper-model", "bin/ggml-small.bin", "path to the Whisper GGML model file")
	pflag.Parse()

	logLevel := logger.LevelNormal
	if *verbose {
		logLevel = logger.LevelVerbose
	}
	if *quiet {
		logLevel = logger.LevelOff
	}

	// Direct logs to a file by default so the terminal stays clean.
	var logOut io.Writer = os.Stderr
	if *logFile != "" && *logFile != "stderr" {
		dir := filepath.Dir(*logFile)
		if dir != "" && dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", *logFile, err)
		} else {
			logOut = f
			defer f.Close()
		}
	}

	// Redirect Go's default log package (used by third-party libs like
	// the whisper transcriber) to the same output.
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	log := logger.New(logLevel, logOut)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Local commands ───────────────────────────────────────────
	registry := apps.LoadRegistry(cfg.AppsFile, log)
	launcher := apps.NewLauncher(registry, log)
	contacts := skills.LoadContacts(cfg.ContactsFile, log)

	var skillSet []domain.Skill
	if cfg.Weather.Enabled() {
		skillSet = append(skillSet, skills.NewWeather(cfg.Weather, log))
		log.Info("weather skill enabled")
	}
	if cfg.Email.Enabled() {
		skillSet = append(skillSet, skills.NewEmail(cfg.Email, contacts, log))
		log.Info("email skill enabled")
	}
	if cfg.WhatsApp.Enabled() {
		skillSet = append(skillSet, skills.NewWhatsApp(cfg.WhatsApp, contacts, log))
		log.Info("whatsapp skill enabled")
	}

	// ── Voice output ─────────────────────────────────────────────
	var voice domain.Synthesizer = speech.NewConsoleVoice(os.Stdout)
	if cfg.Speech.Enabled() && !*noSpeech && !*textMode {
		player, err := speech.NewPlayer(log)
		if err != nil {
			log.Error("audio player init failed, falling back to console output: %v", err)
		} else {
			tts := speech.NewAzureClient(cfg.Speech.AzureKey, cfg.Speech.AzureRegion, log)
			cache := speech.NewAudioCache(tts.Voice(), *cacheDir, log)
			spoken := speech.NewVoice(tts, player, cache, log)
			go spoken.Prefetch(ctx, speech.PersonaLines())
			voice = spoken
			log.Info("TTS enabled (voice=%s, region=%s)", tts.Voice(), cfg.Speech.AzureRegion)
		}
	} else if !*noSpeech && !*textMode {
		log.Info("TTS disabled: set %s and %s env vars to enable",
			speech.EnvAzureSpeechKey, speech.EnvAzureSpeechRegion)
	}

	router := dispatch.NewRouter(registry, launcher, voice, skillSet, log)

	// ── Conversation backend ─────────────────────────────────────
	machineOpts := []session.Option{
		session.WithName(cfg.AssistantName),
		session.WithWakeVariants(wakeword.DefaultVariants),
		session.WithListenTimeout(cfg.ListenTimeout),
	}

	if cfg.OpenRouter.Enabled() && !*noAI {
		backend := openrouter.New(cfg.OpenRouter.APIKey, log,
			openrouter.WithURL(cfg.OpenRouter.URL),
			openrouter.WithModel(cfg.OpenRouter.Model),
			openrouter.WithHTTPTimeout(cfg.OpenRouter.Timeout),
			openrouter.WithMaxRetries(cfg.OpenRouter.MaxRetries),
		)
		machineOpts = append(machineOpts, session.WithBackend(backend))
		log.Info("conversation backend enabled (model=%s)", cfg.OpenRouter.Model)
	} else if !*noAI {
		log.Info("conversation backend disabled: set OPENROUTER_API_KEY to enable")
	}

	// ── Status mirror ────────────────────────────────────────────
	if !*noStatus {
		hub := status.NewHub(log)
		go func() {
			if err := hub.Serve(ctx, cfg.Status.Addr); err != nil {
				log.Warn("status server stopped: %v", err)
			}
		}()
		machineOpts = append(machineOpts, session.WithStatus(hub))
	}

	// ── Voice input ──────────────────────────────────────────────
	var ears domain.Transcriber
	if *textMode {
		ears = speech.NewConsole(os.Stdin, log)
		fmt.Printf("Text mode. Type %q to wake the assistant.\n", cfg.AssistantName)
	} else {
		if _, err := os.Stat(*whisperModel); err != nil {
			fmt.Fprintf(os.Stderr, "error: whisper model not found at %s (try --text mode)\n", *whisperModel)
			os.Exit(1)
		}
		ears = speech.NewMic(*whisperBin, *whisperModel, log)
	}

	trigger := wakeword.New(cfg.AssistantName, ears, log)
	go trigger.Run(ctx)

	// Detection shares the microphone with the session loop, so the
	// machine pauses it while a session is open.
	machineOpts = append(machineOpts, session.WithWakePauser(trigger))

	machine := session.New(ears, voice, router, log, machineOpts...)

	log.Info("sami started (name=%s)", cfg.AssistantName)
	machine.Run(ctx, trigger.C())
}
