package extensions

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/jonathanwall/brobot"
	"github.com/jonathanwall/brobot/events"
)

// ExtensionApod - NASA's Astronomy Picture of the Day, with channel subscriptions
// announced on the daily tick.
type ExtensionApod struct {
	Extension
	bot    *brobot.Bot
	apiKey string
}

type apodPicture struct {
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	URL         string `json:"url"`
	HdURL       string `json:"hdurl"`
	MediaType   string `json:"media_type"`
	Date        string `json:"date"`
}

func (ext *ExtensionApod) Init(bot *brobot.Bot) error {
	ext.bot = bot
	ext.apiKey = bot.GetConfig("apod.api_key", "DEMO_KEY").(string)

	// Table for daily announce subscriptions.
	query := `
		CREATE TABLE IF NOT EXISTS "apod_subscriptions" (
			"transport" VARCHAR NOT NULL,
			"channel" VARCHAR NOT NULL,
			PRIMARY KEY ("transport", "channel")
		);`
	if _, err := bot.Db.Exec(query); err != nil {
		return err
	}

	bot.RegisterCommand(&brobot.BotCommand{
		CommandNames: []string{"apod"},
		Private:      false,
		Owner:        false,
		Admin:        false,
		HelpParams:   "[date | sub | unsub]",
		HelpDescription: "Show NASA's Astronomy Picture of the Day, today's or for a date (YYYY-MM-DD). " +
			"Sub(scribe) the channel for daily announces.",
		CommandFunc: ext.commandApod})

	// Attach to events.
	bot.EventDispatcher.RegisterListener(events.EventDailyTick, ext.DailyTickListener)
	return nil
}

// fetch grabs the picture of the day. Pass "" for today's picture.
func (ext *ExtensionApod) fetch(date string) (*apodPicture, error) {
	address := fmt.Sprintf("https://api.nasa.gov/planetary/apod?api_key=%s", url.QueryEscape(ext.apiKey))
	if date != "" {
		address += "&date=" + url.QueryEscape(date)
	}
	_, body, err := ext.bot.GetPageBody(address, nil)
	if err != nil {
		return nil, err
	}
	picture := &apodPicture{}
	if err := json.Unmarshal(body, picture); err != nil {
		return nil, err
	}
	return picture, nil
}

func (ext *ExtensionApod) announceMessage(picture *apodPicture) string {
	link := picture.URL
	if picture.HdURL != "" {
		link = picture.HdURL
	}
	return fmt.Sprintf("APOD %s: %s - %s", picture.Date, picture.Title, link)
}

// DailyTickListener announces the picture on subscribed channels.
func (ext *ExtensionApod) DailyTickListener(message events.EventMessage) {
	rows, err := ext.bot.Db.Query(`SELECT transport, channel FROM apod_subscriptions`)
	if err != nil {
		ext.bot.Log.Warningf("Error loading APOD subscriptions: %s", err)
		return
	}
	defer rows.Close()

	type subscription struct{ transport, channel string }
	subscriptions := []subscription{}
	for rows.Next() {
		var s subscription
		if err := rows.Scan(&s.transport, &s.channel); err != nil {
			ext.bot.Log.Warningf("Can't load APOD subscription: %s", err)
			continue
		}
		subscriptions = append(subscriptions, s)
	}
	if len(subscriptions) == 0 {
		return
	}

	picture, err := ext.fetch("")
	if err != nil {
		ext.bot.Log.Warningf("Error getting APOD: %s", err)
		return
	}
	message1 := ext.announceMessage(picture)
	for _, s := range subscriptions {
		if err := ext.bot.SendToChannel(s.transport, s.channel, message1); err != nil {
			ext.bot.Log.Warningf("Can't announce APOD on [%s]%s: %s", s.transport, s.channel, err)
		}
	}
}

func (ext *ExtensionApod) commandApod(bot *brobot.Bot, sourceEvent *events.EventMessage, params []string) {
	if len(params) > 0 && params[0] == "sub" {
		if _, err := bot.Db.Exec(`INSERT OR IGNORE INTO apod_subscriptions (transport, channel) VALUES (?, ?)`,
			sourceEvent.TransportName, sourceEvent.Channel); err != nil {
			bot.Log.Warningf("Error adding APOD subscription: %s", err)
			return
		}
		bot.SendMessage(sourceEvent, "This channel will now get the astronomy picture daily.")
		return
	}
	if len(params) > 0 && params[0] == "unsub" {
		if _, err := bot.Db.Exec(`DELETE FROM apod_subscriptions WHERE transport=? AND channel=?`,
			sourceEvent.TransportName, sourceEvent.Channel); err != nil {
			bot.Log.Warningf("Error removing APOD subscription: %s", err)
			return
		}
		bot.SendMessage(sourceEvent, "Daily astronomy pictures disabled for this channel.")
		return
	}

	date := ""
	if len(params) > 0 {
		if _, err := time.Parse("2006-01-02", params[0]); err != nil {
			bot.SendMessage(sourceEvent, "That doesn't look like a date (YYYY-MM-DD).")
			return
		}
		date = params[0]
	}
	picture, err := ext.fetch(date)
	if err != nil {
		bot.Log.Warningf("Error getting APOD: %s", err)
		bot.SendMessage(sourceEvent, "Couldn't reach NASA.")
		return
	}
	bot.SendMessage(sourceEvent, ext.announceMessage(picture))
	if picture.Explanation != "" {
		bot.SendNotice(sourceEvent, picture.Explanation)
	}
}
