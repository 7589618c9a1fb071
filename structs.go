package brobot

// All structures used by the bot (sans extensions).

import (
	"database/sql"
	"net/http"
	"sync"
	"time"

	"github.com/pawelszydlo/humanize"
	"github.com/pelletier/go-toml"
	"github.com/sirupsen/logrus"

	"github.com/jonathanwall/brobot/events"
	"github.com/jonathanwall/brobot/transports"
)

// Bot itself.
type Bot struct {
	// Was initialization complete?
	initDone bool
	// Logger.
	Log *logrus.Logger
	// Database connection.
	Db *sql.DB
	// HTTP client.
	HTTPClient *http.Client
	// Humanized text generation.
	Humanizer *humanize.Humanizer
	// Event dispatcher.
	EventDispatcher *events.EventDispatcher

	// Path to config file.
	ConfigFile string
	// Bot's configuration.
	Config *Configuration
	// Raw config tree, for transports and extensions.
	fullConfig *toml.Tree
	// Path to texts file.
	TextsFile string
	// Bot's core texts.
	Texts *botTexts
	// Raw texts tree, for LoadTexts.
	fullTexts *toml.Tree

	// Registered transports.
	transports map[string]transports.Transport
	// Transports that finished connecting.
	readyMutex      sync.RWMutex
	transportsReady map[string]bool

	// Registered bot commands.
	commands map[string]*BotCommand
	// Number of uses per command.
	commandUseLimit map[string]int
	// Was the warning sent, per channel.
	commandWarn map[string]bool
	// Commands that will not have their params listed in the logs (auth etc.)
	commandsHideParams map[string]bool

	// Currently authenticated users.
	authenticatedUsers  map[string]string
	authenticatedAdmins map[string]string
	authenticatedOwners map[string]string

	// Custom variables for use in extensions.
	customVars map[string]string
	// Registered bot extensions.
	extensions []extension
	// Functions to run on shutdown.
	stoppers []func()

	// Time the bot was started.
	startTime time.Time
	// Time for next daily tick.
	nextDailyTick time.Time
	// Closed to stop the bot.
	stop     chan struct{}
	stopOnce sync.Once
}

// Interface for handling of extensions.
type extension interface {
	Init(bot *Bot) error
}

// Bot's commands.
type BotCommand struct {
	// Names of the command (main and aliases).
	CommandNames []string
	// Does this command require a private query?
	Private bool
	// This command can only be run by the owner?
	Owner bool
	// This command can only be run by an admin?
	Admin bool
	// Help string showing possible parameters.
	HelpParams string
	// Help string with the description.
	HelpDescription string
	// Function to be executed.
	CommandFunc func(bot *Bot, sourceEvent *events.EventMessage, params []string)
}

// Bot's configuration. Loaded from the provided file on New(), overwriting any defaults.
type Configuration struct {
	Name                 string
	Language             string
	DbFile               string
	LogLevel             string
	CommandsPer5         int
	PageBodyMaxSize      uint
	HTTPDefaultUserAgent string
	HTTPTimeoutSeconds   int
	TickIntervalMinutes  int
	DailyTickHour        int
	DailyTickMinute      int
	OwnerNick            string
	OwnerPassword        string
}

// Bot's core texts.
type botTexts struct {
	NeedsPriv    string
	NeedsAdmin   string
	CommandLimit string
	Hellos       []string
	WrongCommand []string
}
