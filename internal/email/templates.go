package email

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	"path"
	"strings"
	"sync"
	texttemplate "text/template"

	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/types"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var funcs = map[string]any{"upper": strings.ToUpper}

type templateSet struct {
	text *texttemplate.Template
	html *htmltemplate.Template
}

var (
	loadOnce  sync.Once
	templates map[types.NotificationKind]*templateSet
	loadErr   error
)

// Each file defines "subject", "text" and "html" and is named after the notification kind
func loadTemplates() {
	templates = make(map[types.NotificationKind]*templateSet)

	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		loadErr = err
		return
	}

	for _, entry := range entries {
		name := path.Join("templates", entry.Name())
		kind := types.NotificationKind(strings.TrimSuffix(entry.Name(), ".tmpl"))

		text, err := texttemplate.New(entry.Name()).Funcs(funcs).ParseFS(templateFS, name)
		if err != nil {
			loadErr = err
			return
		}
		html, err := htmltemplate.New(entry.Name()).Funcs(funcs).ParseFS(templateFS, name)
		if err != nil {
			loadErr = err
			return
		}
		templates[kind] = &templateSet{text: text, html: html}
	}
}

// HasTemplate reports whether kind can be rendered as an email
func HasTemplate(kind types.NotificationKind) bool {
	loadOnce.Do(loadTemplates)
	_, ok := templates[kind]
	return ok
}

// Render builds the message for kind. The caller sets the recipient.
func Render(kind types.NotificationKind, data map[string]interface{}) (*Message, error) {
	loadOnce.Do(loadTemplates)
	if loadErr != nil {
		return nil, ierr.WithError(loadErr).
			WithHint("Email templates failed to load").
			Mark(ierr.ErrSystem)
	}

	set, ok := templates[kind]
	if !ok {
		return nil, ierr.NewErrorf("no email template for %s", kind).
			WithHintf("Notification %s cannot be sent by email", kind).
			Mark(ierr.ErrNotification)
	}

	var subject, text, html bytes.Buffer
	if err := set.text.ExecuteTemplate(&subject, "subject", data); err != nil {
		return nil, renderErr(kind, err)
	}
	if err := set.text.ExecuteTemplate(&text, "text", data); err != nil {
		return nil, renderErr(kind, err)
	}
	if err := set.html.ExecuteTemplate(&html, "html", data); err != nil {
		return nil, renderErr(kind, err)
	}

	return &Message{
		Subject: strings.TrimSpace(subject.String()),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

func renderErr(kind types.NotificationKind, err error) error {
	return ierr.WithError(err).
		WithHintf("Failed to render %s email", kind).
		Mark(ierr.ErrNotification)
}
