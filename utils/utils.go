package utils

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"html"
	"log"
	"strings"
	"text/template"
	"unicode"

	"golang.org/x/crypto/pbkdf2"
)

// Format formats the template with passed string map values.
func Format(tpl *template.Template, params map[string]string) string {
	var text bytes.Buffer
	if err := tpl.Execute(&text, params); err != nil {
		log.Fatalln("Error executing template", err)
		return ""
	}
	return text.String()
}

// CleanString cleans a string from new lines and caret returns, un-escapes HTML entities and trims spaces.
func CleanString(str string, unescape bool) string {
	if unescape {
		str = html.UnescapeString(str)
	}
	str = strings.Replace(str, "\n", "", -1)
	str = strings.Replace(str, "\r", "", -1)
	return strings.TrimFunc(str, unicode.IsSpace)
}

// ToStringSlice converts an interface slice, as returned by the TOML parser, into a string slice.
func ToStringSlice(slice []interface{}) []string {
	strings := make([]string, 0, len(slice))
	for _, elem := range slice {
		if str, ok := elem.(string); ok {
			strings = append(strings, str)
		}
	}
	return strings
}

// SliceToMap will convert a string slice into a string map.
func SliceToMap(slice []string) map[string]bool {
	unique := map[string]bool{}
	for _, elem := range slice {
		unique[elem] = true
	}
	return unique
}

// MapToSlice will save keys of a string map into a slice.
func MapToSlice(boolMap map[string]bool) []string {
	slice := []string{}
	for key := range boolMap {
		slice = append(slice, key)
	}
	return slice
}

// RemoveDuplicates will remove duplicates from a slice of strings.
func RemoveDuplicates(slice []string) []string {
	return MapToSlice(SliceToMap(slice))
}

// RemoveFromSlice will remove an element from a slice of strings.
func RemoveFromSlice(slice []string, element string) []string {
	result := make([]string, 0, len(slice))
	for _, elem := range slice {
		if elem != element {
			result = append(result, elem)
		}
	}
	return result
}

// HashPassword hashes a password.
func HashPassword(password string) string {
	return base64.StdEncoding.EncodeToString(
		pbkdf2.Key([]byte(password), []byte(password), 4096, sha256.Size, sha256.New))
}
