// internal/app/composer.go
package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/Telyonok/Congratulator-Plugin/internal/domain/contact"
)

// ErrTemplateNotFound means the requested template key is absent from the table.
var ErrTemplateNotFound = fmt.Errorf("email template not found")

// Honorifics inserted for the [GendercodeTitle] placeholder. Any gender code
// other than male/female renders an empty string.
const (
	honorificMale   = "Sehr geehrter Herr"
	honorificFemale = "Sehr geehrte Frau"
)

// birthdateLayout is the fixed short date format used for [Birthdate].
const birthdateLayout = "02.01.2006"

// ComposeFields are the recipient fields substituted into a template.
type ComposeFields struct {
	FirstName  string
	LastName   string
	GenderCode contact.GenderCode
	BirthDate  time.Time
}

// Composer fills templates by literal placeholder substitution. The template
// table is injected at construction and treated as read-only.
type Composer struct {
	templates map[string]string
}

func NewComposer(templates map[string]string) *Composer {
	return &Composer{templates: templates}
}

// Compose looks up the template by exact key and replaces each placeholder
// token verbatim and globally. Unmatched placeholders are left as-is.
func (c *Composer) Compose(templateKey string, fields ComposeFields) (string, error) {
	template, ok := c.templates[templateKey]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, templateKey)
	}

	body := strings.ReplaceAll(template, "[Firstname]", fields.FirstName)
	body = strings.ReplaceAll(body, "[Lastname]", fields.LastName)
	body = strings.ReplaceAll(body, "[GendercodeTitle]", honorificFor(fields.GenderCode))
	body = strings.ReplaceAll(body, "[Birthdate]", fields.BirthDate.Format(birthdateLayout))
	return body, nil
}

func honorificFor(code contact.GenderCode) string {
	switch code {
	case contact.GenderMale:
		return honorificMale
	case contact.GenderFemale:
		return honorificFemale
	default:
		return ""
	}
}
