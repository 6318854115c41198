package emails

import (
	"fmt"
	"os"
	"path/filepath"
)

const defaultManifest = `[reminder]
file = "reminder.txt"
subject = "Reminder: dataset archiving for {{.PublicationID}}"

[completion]
file = "completion.txt"
subject = "Dataset archived for {{.PublicationID}}"
`

const defaultReminder = `Subject: {{.Subject}}

Dear data contact,

This is reminder #{{.ReminderNumber}} about the dataset folder for
publication {{.PublicationID}}, active since {{.BecameActiveAt}}
(current status: {{.CurrentStatus}}).

Please review the folder contents so we can proceed with the deposit.

Kind regards,
The archiving team
`

const defaultCompletion = `Subject: {{.Subject}}

Dear data contact,

The dataset for publication {{.PublicationID}} has been published.

  PID: {{.FinalPID}}
  URL: {{.FinalURL}}

Please verify the record and let us know if anything needs correcting.

Kind regards,
The archiving team
`

// WriteDefaults seeds the template directory with a starter manifest and
// template pair. Existing files are left alone.
func WriteDefaults(templateDir string) error {
	if err := os.MkdirAll(templateDir, 0o755); err != nil {
		return fmt.Errorf("failed to create template directory: %w", err)
	}
	files := map[string]string{
		"templates.toml": defaultManifest,
		"reminder.txt":   defaultReminder,
		"completion.txt": defaultCompletion,
	}
	for name, content := range files {
		path := filepath.Join(templateDir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}
