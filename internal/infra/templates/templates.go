// Package templates holds the email template table: a static mapping from
// template key to a body with named placeholders, loaded once at startup and
// never mutated afterwards.
package templates

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// KeyBirthdayCongratulation is the template used by the congratulation
// pipeline.
const KeyBirthdayCongratulation = "Birthday Congratulation"

const birthdayCongratulationBody = `<div>Alles Gute zum Geburtstag, [GendercodeTitle] [Firstname] [Lastname]!</div><div class=keyboardFocusClass><div><br></div><div>Heute ist [Birthdate]. Ich hoffe, diese Nachricht findet dich gut und du hast eine wundervolle Geburtstagsfeier. Möge dein Tag voller Freude, Lachen und der Gesellschaft derer sein, die dir lieb und teuer sind.</div><div><br></div><div>Ich wünsche Ihnen alles Gute an Ihrem besonderen Tag und für das kommende Jahr. Genieße deinen Geburtstag, [Firstname] [Lastname]!</div></div>`

// Defaults returns the built-in template table.
func Defaults() map[string]string {
	return map[string]string{
		KeyBirthdayCongratulation: birthdayCongratulationBody,
	}
}

// Load returns the template table from the given YAML file (a flat mapping
// of template key to body). An empty path selects the built-in defaults.
func Load(path string) (map[string]string, error) {
	if path == "" {
		return Defaults(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates file %s: %w", path, err)
	}
	table := make(map[string]string)
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse templates file %s: %w", path, err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("templates file %s contains no templates", path)
	}
	return table, nil
}
