// Package brobot provides a multi-transport chat bot with focus on easy
// extension writing. The bot dispatches chat commands to registered handlers
// and drives periodic work, like reminder delivery, through tick events.
package brobot

import (
	"database/sql"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pawelszydlo/humanize"
	"github.com/pelletier/go-toml"
	"github.com/sirupsen/logrus"

	"github.com/jonathanwall/brobot/events"
	"github.com/jonathanwall/brobot/transports"
	ircTransport "github.com/jonathanwall/brobot/transports/irc"
	mattermostTransport "github.com/jonathanwall/brobot/transports/mattermost"
)

const (
	Version = "1.0.0"
	Debug   = false // Set to true to crash on runtime errors.
)

// New creates a new bot.
func New(configFile, textsFile string) (*Bot, error) {
	rand.Seed(time.Now().Unix())

	// Default configuration.
	config := &Configuration{
		Name:                 "brobot",
		Language:             "en",
		DbFile:               "brobot.db",
		LogLevel:             "debug",
		CommandsPer5:         3,
		PageBodyMaxSize:      100 * 1024,
		HTTPDefaultUserAgent: "brobot/" + Version,
		HTTPTimeoutSeconds:   10,
		TickIntervalMinutes:  1,
		DailyTickHour:        8,
		DailyTickMinute:      0,
	}

	// Init bot struct.
	bot := &Bot{
		initDone: false,
		Log:      logrus.New(),

		ConfigFile: configFile,
		Config:     config,
		TextsFile:  textsFile,
		Texts:      &botTexts{},

		transports:      map[string]transports.Transport{},
		transportsReady: map[string]bool{},

		commands:           map[string]*BotCommand{},
		commandUseLimit:    map[string]int{},
		commandWarn:        map[string]bool{},
		commandsHideParams: map[string]bool{},

		authenticatedUsers:  map[string]string{},
		authenticatedAdmins: map[string]string{},
		authenticatedOwners: map[string]string{},

		customVars: map[string]string{},
		extensions: []extension{},

		startTime: time.Now(),
		stop:      make(chan struct{}),
	}
	// Logging configuration.
	bot.Log.Formatter = &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02][15:04:05"}
	bot.EventDispatcher = events.New(bot.Log)

	// Load config.
	fullConfig, err := toml.LoadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("can't load config: %w", err)
	}
	bot.fullConfig = fullConfig
	bot.loadConfig()

	if level, err := logrus.ParseLevel(bot.Config.LogLevel); err == nil {
		bot.Log.Level = level
	} else {
		bot.Log.Warningf("Unknown log level %q, staying on %s.", bot.Config.LogLevel, bot.Log.Level)
	}

	// Humanized texts generation.
	if bot.Humanizer, err = humanize.New(bot.Config.Language); err != nil {
		return nil, fmt.Errorf("can't init humanizer: %w", err)
	}

	// Load texts.
	if bot.fullTexts, err = toml.LoadFile(textsFile); err != nil {
		return nil, fmt.Errorf("can't load texts: %w", err)
	}
	if err := bot.LoadTexts("bot", bot.Texts); err != nil {
		return nil, fmt.Errorf("can't load bot texts: %w", err)
	}

	bot.HTTPClient = &http.Client{Timeout: time.Duration(bot.Config.HTTPTimeoutSeconds) * time.Second}

	return bot, nil
}

// loadConfig fills the typed configuration from the raw config tree.
func (bot *Bot) loadConfig() {
	config := bot.Config
	config.Name = bot.fullConfig.GetDefault("bot.name", config.Name).(string)
	config.Language = bot.fullConfig.GetDefault("bot.language", config.Language).(string)
	config.DbFile = bot.fullConfig.GetDefault("bot.db_file", config.DbFile).(string)
	config.LogLevel = bot.fullConfig.GetDefault("bot.log_level", config.LogLevel).(string)
	config.CommandsPer5 = intFromConfig(bot.fullConfig, "bot.commands_per_5", config.CommandsPer5)
	config.PageBodyMaxSize = uint(intFromConfig(bot.fullConfig, "bot.page_body_max_size", int(config.PageBodyMaxSize)))
	config.HTTPDefaultUserAgent = bot.fullConfig.GetDefault("bot.user_agent", config.HTTPDefaultUserAgent).(string)
	config.HTTPTimeoutSeconds = intFromConfig(bot.fullConfig, "bot.http_timeout_seconds", config.HTTPTimeoutSeconds)
	config.TickIntervalMinutes = intFromConfig(bot.fullConfig, "bot.tick_interval_minutes", config.TickIntervalMinutes)
	config.DailyTickHour = intFromConfig(bot.fullConfig, "bot.daily_tick_hour", config.DailyTickHour)
	config.DailyTickMinute = intFromConfig(bot.fullConfig, "bot.daily_tick_minute", config.DailyTickMinute)
	config.OwnerNick = bot.fullConfig.GetDefault("bot.owner_nick", "").(string)
	config.OwnerPassword = bot.fullConfig.GetDefault("bot.owner_password", "").(string)
}

// intFromConfig reads an integer key from the TOML tree, which keeps them as int64.
func intFromConfig(tree *toml.Tree, key string, fallback int) int {
	return int(tree.GetDefault(key, int64(fallback)).(int64))
}

// initialize performs initialization of bot's mechanisms.
func (bot *Bot) initialize() error {
	bot.Log.Infof("I am brobot, version %s", Version)

	// Init database.
	if err := bot.initDb(); err != nil {
		return fmt.Errorf("can't init database: %w", err)
	}
	if err := bot.ensureOwnerExists(); err != nil {
		return fmt.Errorf("can't create owner: %w", err)
	}

	// Load custom vars.
	bot.loadVars()

	// Attach own event listeners.
	bot.EventDispatcher.RegisterMultiListener(
		[]events.EventCode{events.EventChatMessage, events.EventPrivateMessage}, bot.messageListener)
	bot.EventDispatcher.RegisterListener(events.EventConnected, bot.connectedListener)
	bot.EventDispatcher.RegisterListener(events.EventJoinedChannel, bot.joinedListener)

	// Init bot commands.
	bot.initBotCommands()

	// Init transports.
	bot.registerBuiltinTransports()

	// Get next daily tick.
	now := time.Now()
	bot.nextDailyTick = time.Date(
		now.Year(), now.Month(), now.Day(), bot.Config.DailyTickHour, bot.Config.DailyTickMinute, 0, 0, now.Location())
	if time.Since(bot.nextDailyTick) >= 0 {
		bot.nextDailyTick = bot.nextDailyTick.Add(24 * time.Hour)
	}
	bot.Log.Debugf("Next daily tick: %s", bot.nextDailyTick)

	// Init extensions.
	for i := range bot.extensions {
		if err := bot.extensions[i].Init(bot); err != nil {
			return fmt.Errorf("error initializing extension %T: %w", bot.extensions[i], err)
		}
	}

	bot.initDone = true
	bot.Log.Infof("Bot init done.")
	return nil
}

// registerBuiltinTransports creates and registers the built-in transports.
// Only transports enabled in the config will actually be added.
func (bot *Bot) registerBuiltinTransports() {
	ircT := &ircTransport.IRCTransport{}
	ircT.Init(bot.Config.Name, bot.fullConfig, bot.Log, bot.EventDispatcher)
	bot.RegisterTransport(ircT)

	mattermostT := &mattermostTransport.MattermostTransport{}
	mattermostT.Init(bot.Config.Name, bot.fullConfig, bot.Log, bot.EventDispatcher)
	bot.RegisterTransport(mattermostT)
}

// initDb opens the bot's database and creates the core tables.
func (bot *Bot) initDb() error {
	db, err := sql.Open("sqlite3", bot.Config.DbFile)
	if err != nil {
		return err
	}
	queries := []string{
		`CREATE TABLE IF NOT EXISTS "vars" (
			"name" VARCHAR PRIMARY KEY NOT NULL,
			"value" VARCHAR NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS "users" (
			"id" INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
			"nick" VARCHAR UNIQUE NOT NULL,
			"password" VARCHAR NOT NULL,
			"owner" INTEGER DEFAULT 0,
			"admin" INTEGER DEFAULT 0,
			"joined" DATE DEFAULT (datetime('now','localtime'))
		);`,
	}
	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			db.Close()
			return err
		}
	}
	bot.Db = db
	return nil
}

// connectedListener marks a transport as ready to deliver messages.
func (bot *Bot) connectedListener(message events.EventMessage) {
	bot.readyMutex.Lock()
	bot.transportsReady[message.TransportName] = true
	bot.readyMutex.Unlock()
	bot.Log.Infof("Transport %s is ready.", message.TransportName)
}

// joinedListener greets the channel.
func (bot *Bot) joinedListener(message events.EventMessage) {
	if len(bot.Texts.Hellos) == 0 || !message.AtBot {
		return
	}
	bot.SendMessage(&message, bot.Texts.Hellos[rand.Intn(len(bot.Texts.Hellos))])
}

// messageListener handles incoming chat messages.
func (bot *Bot) messageListener(message events.EventMessage) {
	if message.AtBot || message.IsPrivate() {
		bot.handleBotCommand(&message)
	}
}

// runTickers triggers the tick events.
func (bot *Bot) runTickers() {
	// Check if it's time for a daily tick.
	if time.Since(bot.nextDailyTick) >= 0 {
		bot.nextDailyTick = bot.nextDailyTick.Add(24 * time.Hour)
		bot.Log.Debugf("Daily tick now. Next at %s.", bot.nextDailyTick)
		bot.EventDispatcher.Trigger(events.EventMessage{EventCode: events.EventDailyTick})
	}
	bot.EventDispatcher.Trigger(events.EventMessage{EventCode: events.EventTick})
}

// close cleans up after the bot.
func (bot *Bot) close() {
	for _, stopper := range bot.stoppers {
		stopper()
	}
	bot.Db.Close()
}

// Stop shuts the bot down.
func (bot *Bot) Stop() {
	bot.stopOnce.Do(func() { close(bot.stop) })
}

// Run starts the bot's main loop. It blocks until Stop is called.
func (bot *Bot) Run() error {
	// Initialize bot mechanisms.
	if err := bot.initialize(); err != nil {
		return err
	}
	defer bot.close()

	if len(bot.transports) == 0 {
		return fmt.Errorf("no transports registered or enabled")
	}

	// Run the transports.
	for name := range bot.transports {
		go bot.transports[name].Run()
	}

	// Command use clearing and tick ticker.
	ticker := time.NewTicker(time.Minute * time.Duration(bot.Config.TickIntervalMinutes))
	defer ticker.Stop()
	tick := 0
	go func() {
		for range ticker.C {
			tick++
			// Clear command use limits every 5 minutes.
			if tick*bot.Config.TickIntervalMinutes%5 == 0 {
				for k := range bot.commandUseLimit {
					delete(bot.commandUseLimit, k)
				}
				for k := range bot.commandWarn {
					delete(bot.commandWarn, k)
				}
			}
			bot.runTickers()
		}
	}()

	// Main loop.
	<-bot.stop
	bot.Log.Infof("Exiting...")
	return nil
}
