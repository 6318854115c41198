// Package emails renders email drafts from text templates. The template
// set is described by a templates.toml manifest in the template
// directory; drafts are written as individual files for the operator to
// review and send.
package emails

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/oa-archive/oat/internal/storage"
	"github.com/oa-archive/oat/internal/types"
)

// Manifest is the parsed templates.toml.
type Manifest struct {
	Reminder   TemplateRef `toml:"reminder"`
	Completion TemplateRef `toml:"completion"`
}

// TemplateRef names one template file and its draft subject line.
type TemplateRef struct {
	File    string `toml:"file"`
	Subject string `toml:"subject"`
}

// LoadManifest reads templates.toml from the template directory. A
// missing manifest or template dir is an infrastructural failure, not a
// per-archive diagnostic.
func LoadManifest(templateDir string) (*Manifest, error) {
	path := filepath.Join(templateDir, "templates.toml")
	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, fmt.Errorf("failed to load template manifest %s: %w", path, err)
	}
	if m.Reminder.File == "" || m.Completion.File == "" {
		return nil, fmt.Errorf("template manifest %s must name reminder and completion files", path)
	}
	return &m, nil
}

type reminderData struct {
	PublicationID  string
	ReminderNumber int
	BecameActiveAt string
	CurrentStatus  types.Status
	Subject        string
}

type completionData struct {
	PublicationID string
	FinalPID      string
	FinalURL      string
	Subject       string
}

// Generate renders reminder drafts for every archive with a reminder due
// and completion drafts for every archive at the published stage.
// Returns the paths written.
func Generate(ctx context.Context, store storage.Store, templateDir, draftsDir string, now time.Time) ([]string, error) {
	manifest, err := LoadManifest(templateDir)
	if err != nil {
		return nil, err
	}
	reminderTpl, err := loadTemplate(templateDir, manifest.Reminder.File)
	if err != nil {
		return nil, err
	}
	completionTpl, err := loadTemplate(templateDir, manifest.Completion.File)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(draftsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create drafts directory: %w", err)
	}

	var generated []string

	due, err := store.RemindersDue(ctx, now)
	if err != nil {
		return nil, err
	}
	for _, a := range due {
		n := a.ReminderCount + 1
		becameActive := "unknown"
		if a.BecameActiveAt != nil {
			becameActive = a.BecameActiveAt.Format(time.DateTime)
		}
		data := reminderData{
			PublicationID:  a.PublicationID,
			ReminderNumber: n,
			BecameActiveAt: becameActive,
			CurrentStatus:  a.Status,
		}
		data.Subject, err = renderString("reminder-subject", manifest.Reminder.Subject, data)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(draftsDir, fmt.Sprintf("reminder_%s_%d.txt", a.PublicationID, n))
		if err := renderTo(path, reminderTpl, data); err != nil {
			return nil, err
		}
		generated = append(generated, path)
	}

	published, err := store.ListArchives(ctx, storage.ArchiveFilter{Status: types.StatusPublished})
	if err != nil {
		return nil, err
	}
	for _, a := range published {
		pid, url := "(pending)", "(pending)"
		if a.HasPID() {
			pid = *a.FinalPID
		}
		if a.FinalURL != nil && *a.FinalURL != "" {
			url = *a.FinalURL
		}
		data := completionData{
			PublicationID: a.PublicationID,
			FinalPID:      pid,
			FinalURL:      url,
		}
		data.Subject, err = renderString("completion-subject", manifest.Completion.Subject, data)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(draftsDir, fmt.Sprintf("completion_%s.txt", a.PublicationID))
		if err := renderTo(path, completionTpl, data); err != nil {
			return nil, err
		}
		generated = append(generated, path)
	}

	return generated, nil
}

func loadTemplate(templateDir, name string) (*template.Template, error) {
	path := filepath.Join(templateDir, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}
	tpl, err := template.New(name).Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", path, err)
	}
	return tpl, nil
}

// renderString expands a one-line manifest value, such as a subject,
// against the same data as the draft body.
func renderString(name, text string, data any) (string, error) {
	tpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var b strings.Builder
	if err := tpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return b.String(), nil
}

func renderTo(path string, tpl *template.Template, data any) error {
	var b strings.Builder
	if err := tpl.Execute(&b, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write draft %s: %w", path, err)
	}
	return nil
}
