package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"factionbot/internal/common"
	"factionbot/internal/config"
	"factionbot/internal/database"
	"factionbot/internal/faction"
	"factionbot/internal/notify"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

type Bot struct {
	guildID         string
	database        *database.DatabaseFaction
	session         *discordgo.Session
	registry        *faction.Registry
	router          *Router
	resetInterval   time.Duration
	mainCycle       time.Duration
	shutdownTimeout time.Duration
	// Interactions still being handled
	inflight sync.WaitGroup
}

func CreateBot(cfg *config.Config, registerer prometheus.Registerer) (*Bot, error) {

	bot := &Bot{
		guildID:         cfg.GuildID,
		resetInterval:   cfg.ResetInterval,
		mainCycle:       cfg.MainCycle,
		shutdownTimeout: cfg.ShutdownTimeout,
	}

	// Database
	db, err := database.NewDatabaseFaction(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	bot.database = db

	// Session
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	bot.session = session

	// Everything the commands need
	platform := NewDiscordPlatform(session, cfg.GuildID)
	bot.registry = faction.NewRegistry(db, platform)
	notifier := notify.NewNotifier(platform, platform, notify.Config{
		Timeout:      cfg.DmTimeout,
		Concurrency:  cfg.DmConcurrency,
		Restrictions: cfg.DmRestrictions,
		Registerer:   registerer,
	})
	bot.router = NewRouter(bot.registry, faction.NewTrustPolicy(db), notifier, registerer)

	return bot, nil
}

// Run connects to the platform and serves commands until the context is done
func (bot *Bot) Run(ctx context.Context) error {

	defer bot.close()

	bot.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Info().Str("user", r.User.Username).Msg("Connected")
	})
	// Commands in flight are allowed to finish after shutdown starts
	handlerCtx := context.WithoutCancel(ctx)
	bot.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		bot.Receive(handlerCtx, s, i)
	})

	if err := bot.session.Open(); err != nil {
		return fmt.Errorf("could not open discord session: %w", err)
	}

	_, err := bot.session.ApplicationCommandBulkOverwrite(bot.session.State.User.ID, bot.guildID, ApplicationCommands(), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("could not register commands: %w", err)
	}
	log.Info().Int("commands", len(commandSpecs)).Msg("Commands registered")

	// Factions created by hand are taken into account from now on
	if _, err := bot.registry.Sync(ctx); err != nil {
		log.Error().Err(err).Msg("Could not sync factions")
	}

	var resetExecutor *common.TimedExecutor
	if bot.resetInterval > 0 {
		executor := common.NewTimedExecutor(bot.resetInterval, func() { bot.weeklyReset(ctx) })
		resetExecutor = &executor
		log.Info().Dur("interval", bot.resetInterval).Msg("Automatic weekly reset enabled")
	}

	log.Info().Msg("Starting main loop")
	ticker := time.NewTicker(bot.mainCycle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Shutting down")
			return nil
		case <-ticker.C:
			if resetExecutor != nil {
				resetExecutor.Execute()
			}
		}
	}
}

func (bot *Bot) Receive(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {

	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	bot.inflight.Add(1)
	defer bot.inflight.Done()

	replier := interactionReplier{session: s, interaction: i.Interaction}

	// Ignore commands from private channels
	if i.Member == nil {
		log.Info().Msg("Ignoring command outside of a guild")
		if err := replier.Reply(PrivateMessagesIgnored()); err != nil {
			log.Error().Err(err).Msg("Could not send response")
		}
		return
	}

	data := i.ApplicationCommandData()
	log.Debug().Str("command", data.Name).Msg("Received command")
	bot.router.Dispatch(ctx, Parse(data), ActorOf(i.Member), replier)
}

func (bot *Bot) weeklyReset(ctx context.Context) {
	if err := bot.registry.WeeklyReset(ctx); err != nil {
		log.Error().Err(err).Msg("Automatic weekly reset failed")
	}
}

func (bot *Bot) waitInflight() {
	done := make(chan struct{})
	go func() {
		bot.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(bot.shutdownTimeout):
		log.Warn().Dur("timeout", bot.shutdownTimeout).Msg("Commands still running at shutdown")
	}
}

// No new interactions arrive once the session is closed, the ones in
// flight can still reply
func (bot *Bot) close() {
	if err := bot.session.Close(); err != nil {
		log.Error().Err(err).Msg("Could not close discord session")
	}
	bot.waitInflight()
	if err := bot.database.Close(); err != nil {
		log.Error().Err(err).Msg("Could not close database")
	}
}
