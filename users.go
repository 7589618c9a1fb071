package brobot

// Functions regarding user handling.

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/jonathanwall/brobot/utils"
)

// ensureOwnerExists makes sure that at least one owner exists in the database.
func (bot *Bot) ensureOwnerExists() error {
	var ownerExists bool
	err := bot.Db.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE owner=1 LIMIT 1);`).Scan(&ownerExists)
	if err != nil {
		return fmt.Errorf("can't check if owner exists: %w", err)
	}
	if ownerExists {
		return nil
	}

	// Bootstrap the owner account from the config.
	nick := utils.CleanString(bot.Config.OwnerNick, false)
	password := bot.Config.OwnerPassword
	if nick == "" || password == "" {
		return errors.New("no owner in the database and no owner_nick/owner_password in the config")
	}
	bot.Log.Warningf("No owner found in the database. Creating %s from the config.", nick)
	return bot.addUser(nick, password, true, true)
}

// addUser adds new user to bot's database.
func (bot *Bot) addUser(nick, password string, owner, admin bool) error {
	if password == "" {
		return errors.New("password can't be empty")
	}
	// Insert user into the db.
	if _, err := bot.Db.Exec(`INSERT INTO users(nick, password, owner, admin) VALUES(?, ?, ?, ?)`,
		nick, utils.HashPassword(password), owner, admin); err != nil {
		// Get exact error.
		if driverErr, ok := err.(sqlite3.Error); ok && driverErr.Code == sqlite3.ErrConstraint {
			return errors.New("user already exists")
		}
		return fmt.Errorf("error while adding new user: %w", err)
	}
	return nil
}

// getUserData fetches user information from database.
func (bot *Bot) getUserData(nick string) (dbNick, password string, owner, admin bool, err error) {
	err = bot.Db.QueryRow(`
		SELECT nick, password, owner, admin
		FROM users WHERE nick=? LIMIT 1`, nick).Scan(&dbNick, &password, &owner, &admin)
	if err != nil {
		err = errors.New("user not in the database")
	}
	return
}

// authenticateUser authenticates the user as an owner or admin.
// Authentication is done on the basis of userId, which is assumed to be globally unique.
func (bot *Bot) authenticateUser(nick, userID, password string) error {
	_, dbPassword, owner, admin, err := bot.getUserData(nick)
	if err != nil {
		return fmt.Errorf("error when getting user data for %s: %w", nick, err)
	}
	// Check the password.
	if utils.HashPassword(password) != dbPassword {
		return errors.New("invalid password for user")
	}
	// Check if user has any privileges.
	if owner {
		bot.Log.Infof("Authenticating %s as an owner.", nick)
		bot.authenticatedOwners[userID] = nick
	}
	if admin {
		bot.Log.Infof("Authenticating %s as an admin.", nick)
		bot.authenticatedAdmins[userID] = nick
	}
	if !admin && !owner {
		bot.Log.Infof("Authenticating %s with no special privileges.", nick)
		bot.authenticatedUsers[userID] = nick
	}
	return nil
}

// GetAuthenticatedNick will get authenticated user's nick by their user id.
func (bot *Bot) GetAuthenticatedNick(userID string) string {
	if bot.authenticatedOwners[userID] != "" {
		return bot.authenticatedOwners[userID]
	}
	if bot.authenticatedAdmins[userID] != "" {
		return bot.authenticatedAdmins[userID]
	}
	if bot.authenticatedUsers[userID] != "" {
		return bot.authenticatedUsers[userID]
	}
	return ""
}

// NickIsMe checks if the sender is the bot.
func (bot *Bot) NickIsMe(transportName, nick string) bool {
	transport := bot.getTransportOrDie(transportName)
	return transport.NickIsMe(nick)
}

// UserIsAuthenticated checks if the user is authenticated with the bot.
func (bot *Bot) UserIsAuthenticated(userID string) bool {
	return bot.authenticatedOwners[userID] != "" || bot.authenticatedAdmins[userID] != "" ||
		bot.authenticatedUsers[userID] != ""
}

// UserIsOwner checks if the user is an authenticated owner.
func (bot *Bot) UserIsOwner(userID string) bool {
	return bot.authenticatedOwners[userID] != ""
}

// UserIsAdmin checks if the user is an authenticated admin.
func (bot *Bot) UserIsAdmin(userID string) bool {
	return bot.authenticatedAdmins[userID] != ""
}

// UserIsOwnerOrAdmin will check whether user has privileges.
func (bot *Bot) UserIsOwnerOrAdmin(userID string) bool {
	return bot.UserIsOwner(userID) || bot.UserIsAdmin(userID)
}
