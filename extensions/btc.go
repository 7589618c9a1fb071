package extensions

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"text/template"
	"time"

	"github.com/jonathanwall/brobot"
	"github.com/jonathanwall/brobot/events"
	"github.com/jonathanwall/brobot/utils"
)

// ExtensionBtc - extension for getting BTC price from BitStamp.com.
type ExtensionBtc struct {
	Extension
	HourlyData map[string]interface{}

	LastAsk map[string]time.Time
	Warned  map[string]bool

	priceSeries          []float64
	seriousChangePercent float64

	Texts *extensionBtcTexts

	bot *brobot.Bot
}

type extensionBtcTexts struct {
	NothingHasChanged  string
	NoData             string
	TempBtcNotice      *template.Template
	TempBtcSeriousRise *template.Template
	TempBtcSeriousFall *template.Template
}

func (ext *ExtensionBtc) Init(bot *brobot.Bot) error {
	// Register new command.
	bot.RegisterCommand(&brobot.BotCommand{
		CommandNames:    []string{"b", "btc"},
		Private:         false,
		Owner:           false,
		Admin:           false,
		HelpParams:      "",
		HelpDescription: "Show current BTC price.",
		CommandFunc:     ext.commandBtc})
	// Init variables.
	ext.LastAsk = map[string]time.Time{}
	ext.Warned = map[string]bool{}
	ext.seriousChangePercent = 5
	ext.priceSeries = make([]float64, 12)
	ext.bot = bot
	// Load texts.
	texts := new(extensionBtcTexts)
	if err := bot.LoadTexts("btc", texts); err != nil {
		return err
	}
	ext.Texts = texts
	// Attach to events.
	bot.EventDispatcher.RegisterListener(events.EventTick, ext.TickListener)
	bot.EventDispatcher.RegisterListener(events.EventDailyTick, ext.DailyTickListener)
	return nil
}

// diffStr will get a string representing the rise/fall of price.
func (ext *ExtensionBtc) diffStr(diff float64) string {
	if diff > 0 {
		return fmt.Sprintf("⬆$%.2f", math.Abs(diff))
	}
	return fmt.Sprintf("⬇$%.2f", math.Abs(diff))
}

func (ext *ExtensionBtc) simpleAnnounceMessage() string {
	if ext.HourlyData == nil {
		// No data yet received? This can happen only if bot didn't tick the extension!
		ext.bot.Log.Error("BTC extension wasn't ticked before it was asked a price!")
		return ext.Texts.NoData
	}

	price, _ := strconv.ParseFloat(ext.HourlyData["last"].(string), 64)
	diff := price - ext.HourlyData["open"].(float64)
	high, _ := strconv.ParseFloat(ext.HourlyData["high"].(string), 64)
	low, _ := strconv.ParseFloat(ext.HourlyData["low"].(string), 64)

	return utils.Format(ext.Texts.TempBtcNotice, map[string]string{
		"price": fmt.Sprintf("$%.0f", price),
		"diff":  ext.diffStr(diff),
		"low":   fmt.Sprintf("$%.0f", low),
		"high":  fmt.Sprintf("$%.0f", high),
	})
}

// DailyTickListener announces the price.
func (ext *ExtensionBtc) DailyTickListener(message events.EventMessage) {
	ext.bot.SendMassNotice(ext.simpleAnnounceMessage())
}

// TickListener will monitor BTC price and warn if anything serious happens.
func (ext *ExtensionBtc) TickListener(message events.EventMessage) {
	// Fetch fresh data.
	_, body, err := ext.bot.GetPageBody("https://www.bitstamp.net/api/ticker/", nil)
	if err != nil {
		ext.bot.Log.Warningf("Error getting BTC data: %s", err)
		return
	}

	// Convert from JSON.
	var rawData interface{}
	if err := json.Unmarshal(body, &rawData); err != nil {
		ext.bot.Log.Warningf("Error parsing JSON from Bitstamp: %s", err)
		return
	}
	data, ok := rawData.(map[string]interface{})
	if !ok {
		ext.bot.Log.Warningf("Unexpected data from Bitstamp.")
		return
	}
	ext.HourlyData = data

	// Get current price.
	price, err := strconv.ParseFloat(data["last"].(string), 64)
	if err != nil {
		ext.bot.Log.Warningf("Error in the BTC ticker: %s", err)
		return
	}

	// Append to the FIFO series.
	ext.priceSeries = append(ext.priceSeries[1:], price)

	// Check if we have a serious change.
	minPrice := math.MaxFloat64
	maxPrice := 0.0
	minIndex := -1
	maxIndex := -1
	for i, v := range ext.priceSeries {
		if v == 0.0 {
			continue
		}
		if v >= maxPrice {
			maxPrice = v
			maxIndex = i
		}
		if v < minPrice {
			minPrice = v
			minIndex = i
		}
	}
	// Was anything found?
	if minIndex != maxIndex {
		diff := maxPrice - minPrice
		rise := minIndex < maxIndex
		timeDiff := math.Abs(float64(maxIndex)-float64(minIndex)) * 5
		// Announce threshold.
		thresh := ext.seriousChangePercent / 100 * maxPrice
		if rise {
			thresh = ext.seriousChangePercent / 100 * minPrice
		}
		if diff > thresh {
			values := map[string]string{
				"diff": "", "minutes": fmt.Sprintf("%.0f", timeDiff), "price": fmt.Sprintf("$%.2f", price)}
			if rise {
				values["diff"] = ext.diffStr(diff)
				ext.bot.SendMassNotice(utils.Format(ext.Texts.TempBtcSeriousRise, values))
			} else {
				values["diff"] = ext.diffStr(-diff)
				ext.bot.SendMassNotice(utils.Format(ext.Texts.TempBtcSeriousFall, values))
			}
			ext.priceSeries = make([]float64, 12) // Empty the series.
		}
	}
}

func (ext *ExtensionBtc) commandBtc(bot *brobot.Bot, sourceEvent *events.EventMessage, params []string) {
	// Answer only once per 5 minutes per channel.
	if time.Since(ext.LastAsk[sourceEvent.Channel]) > 5*time.Minute {
		ext.LastAsk[sourceEvent.Channel] = time.Now()
		ext.Warned[sourceEvent.Channel] = false
		bot.SendNotice(sourceEvent, ext.simpleAnnounceMessage())
	} else {
		// Only warn once.
		if !ext.Warned[sourceEvent.Channel] {
			bot.SendMessage(sourceEvent, fmt.Sprintf("%s, %s", sourceEvent.Nick, ext.Texts.NothingHasChanged))
			ext.Warned[sourceEvent.Channel] = true
		}
	}
}
