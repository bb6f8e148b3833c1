package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/katarsees/leadbot/bot/leads"
	"github.com/katarsees/leadbot/bot/leads/storage"
	coreconfig "github.com/katarsees/leadbot/core/config"
	coretelegram "github.com/katarsees/leadbot/core/telegram"
	"github.com/katarsees/leadbot/core/telegram/commands"
	tghelpers "github.com/katarsees/leadbot/core/telegram/helpers"
	"github.com/katarsees/leadbot/core/telegram/router"
	"github.com/katarsees/leadbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// App wires the lead workflow onto the Telegram runtime.
type App struct {
	cfg      *Config
	sessions state.Manager
	service  *leads.Service
	notifier *telegramNotifier
	now      func() time.Time
}

// New builds the application from configuration and optional database handle.
// db is required only for the postgres storage driver.
func New(cfg *Config, db *sqlx.DB) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bot: nil config")
	}

	var store leads.Store
	switch cfg.Storage.Driver {
	case coreconfig.StoragePostgres:
		if db == nil {
			return nil, fmt.Errorf("bot: postgres driver requires a database handle")
		}
		pg, err := storage.NewPostgres(db)
		if err != nil {
			return nil, err
		}
		store = pg
	default:
		store = storage.NewMemory()
	}

	notifier := newTelegramNotifier(cfg.Telegram.OperatorID)
	service, err := leads.NewService(leads.Options{
		Store:             store,
		Notifier:          notifier,
		OperatorID:        cfg.Telegram.OperatorID,
		ParseProposedTime: tghelpers.ParseFlexibleDate,
	})
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:      cfg,
		sessions: state.NewMemoryManager(cfg.Leads.SessionTTL),
		service:  service,
		notifier: notifier,
		now:      time.Now,
	}, nil
}

// TelegramRunOptions assembles registry, middlewares, and routes for the runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.registerCommands(reg)

	if err := reg.RegisterCallback(decisionCallbackKey, a.handleDecision); err != nil {
		return coretelegram.RunOptions{}, err
	}
	reg.SetTextFallback(a.handleImplicitLead)
	state.RegisterHandler(StateAwaitingRequest, a.handleAwaitedText)

	onLimited := func(c tele.Context) error {
		return tghelpers.SendText(c, textRateLimited)
	}
	operatorReject := func(c tele.Context) error {
		return tghelpers.SendText(c, textNoticeUnauthorized)
	}

	var routes []coretelegram.Route
	routes = append(routes, router.CommandRoutes(reg, router.CommandRouteOptions{
		OperatorID:       a.cfg.Telegram.OperatorID,
		OnOperatorReject: operatorReject,
	})...)
	routes = append(routes, router.TextRoutes(a.sessions, reg, router.TextOptions{
		UnknownDocument: a.handleDocument,
	})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))

	return coretelegram.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg.CoreConfig(), onLimited),
		Routes:      routes,
		OnStart: func(_ context.Context, rt coretelegram.Runtime) error {
			a.notifier.Bind(rt.Bot)
			return nil
		},
	}, nil
}

// registerCommands binds slash commands; hidden ones exist so reply-keyboard
// button labels resolve through the same routing as commands.
func (a *App) registerCommands(reg *coretelegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Головне меню",
	})
	reg.RegisterCommand("/menu", commands.Command{
		Handler:     a.handleBack,
		Description: "Головне меню",
		Hidden:      true,
		Aliases:     []string{btnBack},
	})
	reg.RegisterCommand("/pay", commands.Command{
		Handler:     a.handlePayment,
		Description: "Оплата",
		Hidden:      true,
		Aliases:     []string{btnPayment},
	})
	reg.RegisterCommand("/learning", commands.Command{
		Handler:     a.handleLearning,
		Description: "Навчання",
		Hidden:      true,
		Aliases:     []string{btnLearning},
	})
	reg.RegisterCommand("/diagnostics", commands.Command{
		Handler:     a.selectCategory(leads.CategoryDiagnostics, textPromptDiagnostics),
		Description: "Діагностика",
		Hidden:      true,
		Aliases:     []string{btnDiagnostics},
	})
	reg.RegisterCommand("/consultation", commands.Command{
		Handler:     a.selectCategory(leads.CategoryConsultation, textPromptConsult),
		Description: "Запис на консультацію",
		Hidden:      true,
		Aliases:     []string{btnConsultation},
	})
	reg.RegisterCommand("/course", commands.Command{
		Handler:     a.selectCategory(leads.CategoryCourse, textPromptCourse),
		Description: "Запис на курс",
		Hidden:      true,
		Aliases:     []string{btnCourseSignup},
	})
	reg.RegisterCommand("/leads", commands.Command{
		Handler:      a.handleRecentLeads,
		Description:  "Останні заявки",
		OperatorOnly: true,
	})
	reg.RegisterCommand("/test_alert", commands.Command{
		Handler:      a.handleTestAlert,
		Description:  "Перевірка сповіщень",
		OperatorOnly: true,
	})
}
