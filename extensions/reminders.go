package extensions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/jonathanwall/brobot"
	"github.com/jonathanwall/brobot/events"
	"github.com/jonathanwall/brobot/reminders"
	"github.com/jonathanwall/brobot/utils"
)

// ExtensionReminders - lets users schedule messages for future delivery.
type ExtensionReminders struct {
	Extension
	bot       *brobot.Bot
	service   *reminders.Service
	scheduler *reminders.Scheduler
	texts     *extensionRemindersTexts
}

type extensionRemindersTexts struct {
	TempAnnounce *template.Template
	TempSet      *template.Template
}

// remindersSink routes scheduled deliveries back through the bot's transports.
// A reminder target is encoded as "transport/channel".
type remindersSink struct {
	bot   *brobot.Bot
	texts *extensionRemindersTexts
}

func (sink *remindersSink) Send(targetID, text, ownerID string) error {
	transportName, channel, err := splitTarget(targetID)
	if err != nil {
		return err
	}
	message := utils.Format(sink.texts.TempAnnounce, map[string]string{
		"who":  ownerID,
		"what": text,
	})
	return sink.bot.SendToChannel(transportName, channel, message)
}

func (sink *remindersSink) Ready() bool {
	return sink.bot.TransportsReady()
}

// splitTarget decodes a "transport/channel" target id.
func splitTarget(targetID string) (transportName, channel string, err error) {
	parts := strings.SplitN(targetID, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed reminder target %q", targetID)
	}
	return parts[0], parts[1], nil
}

// targetFor encodes the channel an event came from as a reminder target id.
func targetFor(sourceEvent *events.EventMessage) string {
	return sourceEvent.TransportName + "/" + sourceEvent.Channel
}

// Init initializes the extension and starts the delivery scheduler.
func (ext *ExtensionReminders) Init(bot *brobot.Bot) error {
	ext.bot = bot

	// Load texts.
	texts := &extensionRemindersTexts{}
	if err := bot.LoadTexts("reminders", texts); err != nil {
		return err
	}
	ext.texts = texts

	store, err := reminders.NewStore(bot.Db)
	if err != nil {
		return err
	}
	ext.service = reminders.NewService(store, bot.Humanizer, bot.Log)

	interval := time.Duration(bot.GetConfig("reminders.interval_seconds", int64(60)).(int64)) * time.Second
	ext.scheduler = reminders.NewScheduler(store, &remindersSink{bot: bot, texts: texts}, bot.Log, interval)
	ext.scheduler.Start()
	bot.RegisterStopper(ext.scheduler.Stop)

	// Add commands for handling the reminders.
	bot.RegisterCommand(&brobot.BotCommand{
		CommandNames:    []string{"rm", "remind"},
		Private:         false,
		Owner:           false,
		Admin:           false,
		HelpParams:      "help / list / del <id> / add <when> -- <text>",
		HelpDescription: "Creates and manages reminders.",
		CommandFunc:     ext.commandRemind})

	return nil
}

// commandRemind is a command for handling the reminders.
func (ext *ExtensionReminders) commandRemind(bot *brobot.Bot, sourceEvent *events.EventMessage, params []string) {
	if len(params) < 1 {
		return
	}
	ctx := context.Background()
	command := params[0]

	switch command {
	case "help":
		bot.SendMessage(sourceEvent, "To add a new reminder: .rm add <when> -- <text>")
		bot.SendMessage(sourceEvent, "For <when>, "+reminders.FormatGuidance+".")
	case "list":
		ext.listReminders(ctx, bot, sourceEvent)
	case "del":
		if len(params) == 2 {
			ext.deleteReminder(ctx, bot, sourceEvent, params[1])
		}
	case "add":
		ext.addReminder(ctx, bot, sourceEvent, strings.Join(params[1:], " "))
	}
}

// addReminder parses "when -- text" and creates the reminder.
func (ext *ExtensionReminders) addReminder(
	ctx context.Context, bot *brobot.Bot, sourceEvent *events.EventMessage, args string) {
	parts := strings.SplitN(args, " -- ", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		bot.SendMessage(sourceEvent, "Usage: add <when> -- <text>")
		return
	}
	when := strings.TrimSpace(strings.ToLower(parts[0]))
	text := strings.TrimSpace(parts[1])

	confirmation, err := ext.service.CreateReminder(ctx, sourceEvent.Nick, targetFor(sourceEvent), text, when)
	if err != nil {
		var parseErr *reminders.ParseError
		if errors.As(err, &parseErr) {
			bot.SendMessage(sourceEvent, fmt.Sprintf("%s, %s.", sourceEvent.Nick, parseErr))
			return
		}
		bot.Log.Warningf("Error while adding a reminder: %s", err)
		bot.SendMessage(sourceEvent, fmt.Sprintf("Error: %s", err))
		return
	}
	bot.SendMessage(sourceEvent, utils.Format(ext.texts.TempSet, map[string]string{
		"id":   fmt.Sprintf("%d", confirmation.ID),
		"when": confirmation.DueAt.Format("2006-01-02 15:04"),
		"in":   ext.bot.Humanizer.TimeDiffNow(confirmation.DueAt, false),
	}))
}

// listReminders prints the sender's pending reminders.
func (ext *ExtensionReminders) listReminders(
	ctx context.Context, bot *brobot.Bot, sourceEvent *events.EventMessage) {
	pending, err := ext.service.ListReminders(ctx, sourceEvent.Nick)
	if err != nil {
		bot.Log.Warningf("Error while listing reminders: %s", err)
		bot.SendMessage(sourceEvent, fmt.Sprintf("Error: %s", err))
		return
	}
	if len(pending) == 0 {
		bot.SendMessage(sourceEvent, "No reminders yet.")
		return
	}
	rows := []string{}
	for _, reminder := range pending {
		if sourceEvent.TransportFormatting == events.FormatMarkdown {
			rows = append(rows, fmt.Sprintf(
				"| %d | %s | %s | %s |",
				reminder.ID,
				reminder.DueAt.Format("2006-01-02 15:04"),
				bot.Humanizer.TimeDiffNow(reminder.DueAt, false),
				reminder.Text))
		} else {
			rows = append(rows, fmt.Sprintf(
				"%d | %s (%s) | %s",
				reminder.ID,
				reminder.DueAt.Format("2006-01-02 15:04"),
				bot.Humanizer.TimeDiffNow(reminder.DueAt, false),
				reminder.Text))
		}
	}
	if sourceEvent.TransportFormatting == events.FormatMarkdown {
		result := "\n\n| id | due | in | text |\n| -:- | :-- | :-- | :-- |\n"
		bot.SendMessage(sourceEvent, result+strings.Join(rows, "\n"))
	} else {
		bot.SendMessage(sourceEvent, "Your reminders:")
		for _, row := range rows {
			bot.SendMessage(sourceEvent, row)
		}
	}
}

// deleteReminder removes a reminder if the sender owns it.
func (ext *ExtensionReminders) deleteReminder(
	ctx context.Context, bot *brobot.Bot, sourceEvent *events.EventMessage, idParam string) {
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		bot.SendMessage(sourceEvent, "id must be a number.")
		return
	}
	switch err := ext.service.DeleteReminder(ctx, id, sourceEvent.Nick); {
	case errors.Is(err, reminders.ErrNotFound):
		bot.SendMessage(sourceEvent, "Reminder not found.")
	case errors.Is(err, reminders.ErrNotOwner):
		bot.SendMessage(sourceEvent, "That reminder isn't yours.")
	case err != nil:
		bot.Log.Warningf("Error while deleting a reminder: %s", err)
		bot.SendMessage(sourceEvent, fmt.Sprintf("Error: %s", err))
	default:
		bot.SendMessage(sourceEvent, fmt.Sprintf("Removed reminder number %d.", id))
	}
}
