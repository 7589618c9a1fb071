package brobot

// Public bot API.

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"text/template"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"

	"github.com/jonathanwall/brobot/events"
	"github.com/jonathanwall/brobot/transports"
	"github.com/jonathanwall/brobot/utils"
)

// Sample of the content used for encoding detection.
var webContentSampleRe = regexp.MustCompile(`(?i)<(title|meta)[^>]*>`)

// RegisterTransport will register a new transport with the bot.
func (bot *Bot) RegisterTransport(transport transports.Transport) {
	// Is the transport enabled in the config?
	name := transport.Name()
	if bot.fullConfig.GetDefault(fmt.Sprintf("%s.enabled", name), false).(bool) {
		if _, exists := bot.transports[name]; exists {
			bot.Log.Fatalf("Transport with name '%s' is already registered.", name)
		}
		bot.transports[name] = transport
		bot.Log.Infof("Added transport: %s", name)
	} else {
		bot.Log.Infof("Transport with name '%s' disabled in the config.", name)
	}
}

// RegisterExtension will register a new extension with the bot.
func (bot *Bot) RegisterExtension(ext extension) {
	if ext == nil {
		bot.Log.Fatal("Nil extension provided.")
	}
	bot.extensions = append(bot.extensions, ext)
	bot.Log.Debugf("Added extension: %T", ext)
	// If bot's init was already done, all other extensions have already been initialized.
	if bot.initDone {
		if err := ext.Init(bot); err != nil {
			bot.Log.Fatalf("Error initializing extension: %s", err)
		}
	}
}

// RegisterCommand will register a new command with the bot.
func (bot *Bot) RegisterCommand(cmd *BotCommand) {
	for _, name := range cmd.CommandNames {
		if _, exists := bot.commands[name]; exists {
			bot.Log.Fatalf("Command under alias '%s' already exists.", name)
		}
		bot.commands[name] = cmd
	}
}

// RegisterStopper will register a function to be run when the bot shuts down.
func (bot *Bot) RegisterStopper(stopper func()) {
	bot.stoppers = append(bot.stoppers, stopper)
}

// SendMessage sends a message to the channel the event came from.
func (bot *Bot) SendMessage(sourceEvent *events.EventMessage, message string) {
	bot.Log.Debugf("Sending message to [%s]%s: %s", sourceEvent.TransportName, sourceEvent.Channel, message)
	transport := bot.getTransportOrDie(sourceEvent.TransportName)
	transport.SendMessage(sourceEvent, message)
}

// SendPrivateMessage sends a message directly to the user.
func (bot *Bot) SendPrivateMessage(sourceEvent *events.EventMessage, nick, message string) {
	bot.Log.Debugf("Sending private message to [%s]%s: %s", sourceEvent.TransportName, nick, message)
	transport := bot.getTransportOrDie(sourceEvent.TransportName)
	transport.SendPrivateMessage(sourceEvent, nick, message)
}

// SendNotice sends a notice to the channel the event came from.
func (bot *Bot) SendNotice(sourceEvent *events.EventMessage, message string) {
	bot.Log.Debugf("Sending notice to [%s]%s: %s", sourceEvent.TransportName, sourceEvent.Channel, message)
	transport := bot.getTransportOrDie(sourceEvent.TransportName)
	transport.SendNotice(sourceEvent, message)
}

// SendMassNotice sends a notice to all the channels bot is on, on all transports.
func (bot *Bot) SendMassNotice(message string) {
	bot.Log.Debugf("Sending mass notice: %s", message)
	for _, transport := range bot.transports {
		transport.SendMassNotice(message)
	}
}

// SendToChannel sends a message to an arbitrary channel on a transport. Used
// for deliveries that don't originate from a chat event, like reminders.
func (bot *Bot) SendToChannel(transportName, channel, message string) error {
	transport, exists := bot.transports[transportName]
	if !exists {
		return fmt.Errorf("unknown transport %q", transportName)
	}
	bot.Log.Debugf("Sending message to [%s]%s: %s", transportName, channel, message)
	return transport.SendToChannel(channel, message)
}

// TransportReady tells whether a single transport has finished connecting.
func (bot *Bot) TransportReady(transportName string) bool {
	bot.readyMutex.RLock()
	defer bot.readyMutex.RUnlock()
	return bot.transportsReady[transportName]
}

// TransportsReady tells whether all registered transports have finished connecting.
func (bot *Bot) TransportsReady() bool {
	bot.readyMutex.RLock()
	defer bot.readyMutex.RUnlock()
	if len(bot.transports) == 0 {
		return false
	}
	for name := range bot.transports {
		if !bot.transportsReady[name] {
			return false
		}
	}
	return true
}

// getTransportOrDie returns the transport or ends the bot's life.
func (bot *Bot) getTransportOrDie(transportName string) transports.Transport {
	transport, exists := bot.transports[transportName]
	if !exists {
		bot.Log.Fatalf("Can't find transport '%s'.", transportName)
	}
	return transport
}

// GetPageBody gets and returns a body of a page. Return format is final url, body, error.
func (bot *Bot) GetPageBody(URL string, customHeaders map[string]string) (string, []byte, error) {
	if URL == "" {
		return "", nil, errors.New("empty URL")
	}
	// Build the request.
	req, err := http.NewRequest("GET", URL, nil)
	if err != nil {
		return "", nil, err
	}
	if customHeaders == nil {
		customHeaders = map[string]string{}
	}
	if customHeaders["User-Agent"] == "" {
		customHeaders["User-Agent"] = bot.Config.HTTPDefaultUserAgent
	}
	for k, v := range customHeaders {
		req.Header.Set(k, v)
	}

	// Get response.
	bot.Log.Debugf("Fetching page: %s", URL)
	resp, err := bot.HTTPClient.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		bot.Log.Warnf("Got HTTP response: %s", resp.Status)
		return "", nil, errors.New(resp.Status)
	}

	// Update the URL if it changed after redirects.
	finalLink := resp.Request.URL.String()
	if finalLink != "" && finalLink != URL {
		bot.Log.Debugf("%s becomes %s", URL, finalLink)
		URL = finalLink
	}

	// Load the body up to PageBodyMaxSize.
	body := make([]byte, bot.Config.PageBodyMaxSize)
	if num, err := io.ReadFull(resp.Body, body); err != nil && err != io.ErrUnexpectedEOF {
		return URL, nil, err
	} else {
		// Trim unneeded 0 bytes so that JSON unmarshaller won't complain.
		body = body[:num]
	}
	// Get the content-type.
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}

	// If type is text, decode the body to UTF-8.
	if strings.Contains(contentType, "text/") || strings.Contains(contentType, "www-form-urlencoded") {
		// Try to get more significant part for encoding detection.
		sample := bytes.Join(webContentSampleRe.FindAll(body, -1), []byte{})
		if len(sample) < 100 {
			sample = body
		}
		// Unescape HTML tokens.
		sample = []byte(html.UnescapeString(string(sample)))
		// Try to only get charset from content type. Needed because some pages serve broken Content-Type header.
		detectionContentType := contentType
		tokens := strings.Split(contentType, ";")
		for _, t := range tokens {
			if strings.Contains(strings.ToLower(t), "charset") {
				detectionContentType = "text/plain; " + t
				break
			}
		}
		// Detect encoding and transform.
		encoding, _, _ := charset.DetermineEncoding(sample, detectionContentType)
		decodedBody, _, _ := transform.Bytes(encoding.NewDecoder(), body)
		return URL, decodedBody, nil
	} else if strings.Contains(contentType, "application/json") ||
		strings.Contains(contentType, "application/csv") {
		return URL, body, nil
	}
	bot.Log.Debugf("Not fetching the body for Content-Type: %s", contentType)
	return URL, nil, nil
}

// LoadTexts loads texts from a section of the texts file into a struct, auto handling templates and lists.
// The name of the field in the data struct defines the name in the file.
// The type of the field determines the expected value.
func (bot *Bot) LoadTexts(section string, data interface{}) error {
	reflectedData := reflect.ValueOf(data).Elem()

	for i := 0; i < reflectedData.NumField(); i++ {
		fieldDef := reflectedData.Type().Field(i)
		// Get the field name.
		fieldName := fieldDef.Name
		// Get the field type name.
		fieldType := fmt.Sprint(fieldDef.Type)
		// Get the field itself.
		field := reflectedData.FieldByName(fieldName)
		if !field.CanSet() {
			bot.Log.Fatalf("Field %s is not settable.", fieldName)
		}

		// Load configured text for the field.
		key := fmt.Sprintf("%s.%s", section, fieldName)
		if !bot.fullTexts.Has(key) {
			bot.Log.Fatalf("Couldn't load text for field %s, key %s.", fieldName, key)
		}

		if fieldType == "*template.Template" { // This field is a template.
			temp, err := template.New(fieldName).Parse(bot.fullTexts.Get(key).(string))
			if err != nil {
				return err
			}
			field.Set(reflect.ValueOf(temp))
		} else if fieldType == "string" { // Regular text field.
			field.Set(reflect.ValueOf(bot.fullTexts.Get(key).(string)))
		} else if fieldType == "[]string" {
			field.Set(reflect.ValueOf(utils.ToStringSlice(bot.fullTexts.Get(key).([]interface{}))))
		} else {
			bot.Log.Fatalf("Unsupported type of text field: %s", fieldType)
		}
	}

	return nil
}

// GetConfig returns a raw config file value, for use by extensions.
func (bot *Bot) GetConfig(key string, fallback interface{}) interface{} {
	return bot.fullConfig.GetDefault(key, fallback)
}

// SetVar will set a custom variable. Set to empty string to delete.
func (bot *Bot) SetVar(name, value string) {
	if name == "" {
		return
	}
	// Delete.
	if value == "" {
		delete(bot.customVars, name)
		if _, err := bot.Db.Exec(`DELETE FROM vars WHERE name=?`, name); err != nil {
			bot.Log.Errorf("Can't delete custom variable %s: %s", name, err)
		}
		return
	}
	bot.customVars[name] = value
	if _, err := bot.Db.Exec(`INSERT OR REPLACE INTO vars VALUES(?, ?)`, name, value); err != nil {
		bot.Log.Errorf("Can't add custom variable %s: %s", name, err)
	}
}

// GetVar returns the value of a custom variable.
func (bot *Bot) GetVar(name string) string {
	return bot.customVars[name]
}

// loadVars loads all custom variables from the database.
func (bot *Bot) loadVars() {
	rows, err := bot.Db.Query(`SELECT name, value FROM vars`)
	if err != nil {
		bot.Log.Errorf("Can't load custom variables: %s", err)
		return
	}
	defer rows.Close()
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			bot.Log.Errorf("Can't load custom variable: %s", err)
			continue
		}
		bot.customVars[name] = value
	}
	// Feed the ignore list to the dispatcher.
	if ignored := bot.GetVar("_ignored"); ignored != "" {
		bot.EventDispatcher.SetBlackList(strings.Split(ignored, " "))
	}
}

// NextDailyTick will get the time for bot's next daily tick.
func (bot *Bot) NextDailyTick() time.Time {
	return bot.nextDailyTick
}

// Uptime returns how long the bot has been running.
func (bot *Bot) Uptime() time.Duration {
	return time.Since(bot.startTime)
}

// AddToIgnoreList will add a user to the ignore list.
func (bot *Bot) AddToIgnoreList(userID string) {
	ignored := strings.Split(bot.GetVar("_ignored"), " ")
	ignored = utils.RemoveDuplicates(append(ignored, userID))
	bot.SetVar("_ignored", strings.Join(ignored, " "))
	// Update the actual blocklist in the event dispatcher.
	bot.EventDispatcher.SetBlackList(ignored)
	bot.Log.Infof("%s added to ignore list.", userID)
}

// RemoveFromIgnoreList will remove user from the ignore list.
func (bot *Bot) RemoveFromIgnoreList(userID string) {
	ignored := strings.Split(bot.GetVar("_ignored"), " ")
	ignored = utils.RemoveFromSlice(ignored, userID)
	bot.SetVar("_ignored", strings.Join(ignored, " "))
	// Update the actual blocklist in the event dispatcher.
	bot.EventDispatcher.SetBlackList(ignored)
	bot.Log.Infof("%s removed from ignore list.", userID)
}
