// Package skills holds the assistant's request/response capabilities:
// weather lookups and outbound messaging. Skills are consulted only
// for utterances no local command matched.
package skills

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/samivoice/sami/internal/logger"
)

// Contact is one addressable person.
type Contact struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Contacts maps lowercase names to contact details.
type Contacts map[string]Contact

// LoadContacts reads the contact book from a JSON file. Like the app
// registry, a missing or malformed file degrades to an empty book.
func LoadContacts(path string, log *logger.Logger) Contacts {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("contacts: could not read %s: %v", path, err)
		return Contacts{}
	}

	var raw map[string]Contact
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Warn("contacts: malformed %s: %v", path, err)
		return Contacts{}
	}

	book := make(Contacts, len(raw))
	for name, c := range raw {
		book[strings.ToLower(strings.TrimSpace(name))] = c
	}
	log.Info("contacts: loaded %d entries from %s", len(book), path)
	return book
}

// Find looks a contact up by spoken name.
func (c Contacts) Find(name string) (Contact, bool) {
	contact, ok := c[strings.ToLower(strings.TrimSpace(name))]
	return contact, ok
}
