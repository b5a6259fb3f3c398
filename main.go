package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/dx-advisor/server/internal/advisor/catalog"
	"github.com/dx-advisor/server/internal/advisor/extract"
	"github.com/dx-advisor/server/internal/advisor/llm"
	"github.com/dx-advisor/server/internal/advisor/machine"
	"github.com/dx-advisor/server/internal/advisor/model"
	"github.com/dx-advisor/server/internal/advisor/prompts"
	"github.com/dx-advisor/server/internal/advisor/render"
	"github.com/dx-advisor/server/internal/advisor/rounds"
	"github.com/dx-advisor/server/internal/advisor/session"
	"github.com/dx-advisor/server/internal/advisor/telemetry"
	"github.com/dx-advisor/server/internal/core"
	errx "github.com/dx-advisor/server/internal/core/error"
	logx "github.com/dx-advisor/server/pkg/logger"
	pkgredis "github.com/dx-advisor/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the advisor,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// User identity for the console front end
	UserEmail string `envconfig:"USER_EMAIL"`

	// Advisor configs
	Conversation model.ConversationConfig
	Prompt       model.PromptConfig
	Model        model.AdvisorModelConfig
	Catalog      model.CatalogConfig
	Telemetry    model.TelemetryConfig
}

func main() {
	ctx := context.Background()
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}
	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	rdb, err := cfg.Redis.New()
	if err != nil {
		log.Fatalf("Failed to initialise Redis client: %v", err)
	}
	defer rdb.Close()

	ttl, err := time.ParseDuration(cfg.Conversation.TTL)
	if err != nil {
		log.Fatalf("Invalid CONVERSATION_TTL '%s': %v", cfg.Conversation.TTL, err)
	}

	cached, err := catalog.NewCached(
		catalog.NewRedisCatalog(rdb, cfg.Catalog.Key),
		cfg.Catalog.Key,
		cfg.Catalog.CacheSize,
	)
	if err != nil {
		log.Fatalf("Failed to initialise catalog cache: %v", err)
	}

	invoker, err := llm.NewGeminiInvoker(ctx, llm.GeminiConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	})
	if err != nil {
		log.Fatalf("Failed to initialise model invoker: %v", err)
	}

	policy := rounds.NewPolicy(cfg.Conversation.MaxRounds)
	selector := prompts.NewSelector(cached, cfg.Prompt, cfg.Conversation.MaxRounds)
	svc := session.NewService(
		session.NewRedisSessionRepository(rdb, ttl),
		machine.New(selector, invoker, policy),
		telemetry.NewSubmitter(cfg.Telemetry),
	)

	if err := runConsole(ctx, svc, cfg); err != nil {
		log.Fatalf("Console session failed: %v", err)
	}
}

// runConsole drives one conversation over stdin/stdout. The renderer is
// a pure function of the state; every input event goes through the
// session service and the next state comes back.
func runConsole(ctx context.Context, svc *session.Service, cfg AppConfig) error {
	sessionID := uuid.NewString()
	state, err := svc.Init(ctx, sessionID, cfg.UserEmail)
	if err != nil {
		return err
	}

	fmt.Println("DX theme advisor - turn a vague goal into tools and to-dos.")
	fmt.Println("Commands: /upload <path>, /drop <filename>, /restart, /quit")

	in := bufio.NewScanner(os.Stdin)
	in.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var warnings []string

	for {
		render.Print(os.Stdout, render.Compose(state, cfg.Conversation.MaxRounds, warnings...))
		warnings = nil

		switch state.Stage {
		case model.StageInitialInput:
			line, ok := readLine(in, "> ")
			if !ok {
				return nil
			}
			if done, next, warn := handleCommand(ctx, svc, sessionID, line); done {
				if next != nil {
					state = *next
				}
				if warn != "" {
					warnings = append(warnings, warn)
				}
				continue
			}
			if line == "/quit" {
				return nil
			}
			state, err = svc.Submit(ctx, sessionID, line)
			if err != nil {
				warnings = append(warnings, userMessage(err))
			}

		case model.StageProcessing:
			state, err = svc.Advance(ctx, sessionID)
			if err != nil {
				warnings = append(warnings, userMessage(err))
			}

		case model.StageAwaitingAnswers:
			answers := make(map[string]string, len(state.PendingQuestions))
			for i, q := range state.PendingQuestions {
				answer, ok := readLine(in, fmt.Sprintf("answer %d> ", i+1))
				if !ok {
					return nil
				}
				answers[q] = answer
			}
			state, err = svc.Answer(ctx, sessionID, answers)
			if err != nil {
				warnings = append(warnings, userMessage(err))
			}

		case model.StageShowingSolution:
			line, ok := readLine(in, "restart? (y/n)> ")
			if !ok || !strings.EqualFold(strings.TrimSpace(line), "y") {
				return nil
			}
			state, err = svc.Reset(ctx, sessionID)
			if err != nil {
				return err
			}

		default:
			state, err = svc.Reset(ctx, sessionID)
			if err != nil {
				return err
			}
		}
	}
}

// handleCommand processes upload management commands; it reports whether
// the line was a command, the refreshed state and a warning to surface.
func handleCommand(ctx context.Context, svc *session.Service, sessionID, line string) (bool, *model.ConversationState, string) {
	switch {
	case strings.HasPrefix(line, "/upload "):
		path := strings.TrimSpace(strings.TrimPrefix(line, "/upload "))
		data, err := os.ReadFile(path)
		if err != nil {
			return true, nil, fmt.Sprintf("could not read %s: %v", path, err)
		}
		name := filepath.Base(path)
		att := extract.File(name, data)
		state, err := svc.AddAttachment(ctx, sessionID, name, att)
		if err != nil {
			return true, nil, userMessage(err)
		}
		return true, &state, fmt.Sprintf("uploaded %s: %s", name, att.Summary)

	case strings.HasPrefix(line, "/drop "):
		name := strings.TrimSpace(strings.TrimPrefix(line, "/drop "))
		state, err := svc.RemoveAttachment(ctx, sessionID, name)
		if err != nil {
			return true, nil, userMessage(err)
		}
		return true, &state, fmt.Sprintf("removed %s", name)

	case line == "/restart":
		state, err := svc.Reset(ctx, sessionID)
		if err != nil {
			return true, nil, userMessage(err)
		}
		return true, &state, ""
	}
	return false, nil, ""
}

func readLine(in *bufio.Scanner, prompt string) (string, bool) {
	fmt.Print(prompt)
	if !in.Scan() {
		return "", false
	}
	return strings.TrimSpace(in.Text()), true
}

// userMessage extracts the safe message for display, falling back to the
// raw error text for unclassified failures.
func userMessage(err error) string {
	var ae *errx.AppError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}
