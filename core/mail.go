package core

import (
	"bytes"
	"encoding/base64"
	htmltmpl "html/template"
	"io"
	"io/fs"
	"io/ioutil"
	"log"
	"net/http"
	"net/mail"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"

	"github.com/prologin/gccsite/assets"
)

const mailTemplateDir = "templates/email"

// mailTemplates holds the parsed text and HTML variants of one template
// name. Either side may be nil when the asset only ships one format.
type mailTemplates struct {
	text *texttmpl.Template
	html *htmltmpl.Template
}

var (
	templates map[string]*mailTemplates
	tmplInit  sync.Once
)

type (
	Attachment struct {
		Content     *bytes.Buffer // base64-encoded
		ContentType string
		Filename    string
	}

	// EmailMessage is one outbound mail. The body comes either from
	// BodyStr (sent as plain text as is) or from the TemplateName pair
	// under assets/templates/email rendered with TemplateData.
	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		BodyStr     string
		Attachments []Attachment

		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	// ContextData is the root object every mail template executes
	// against; templates link back to the site through FrontendBaseURL.
	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService sends messages without blocking the caller.
	EmailService interface {
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) contextData() ContextData {
	return ContextData{
		FrontendBaseURL: Conf.FrontendBaseURL,
		Data:            m.TemplateData,
	}
}

// Render fills TextContent and HTMLContent from BodyStr or the named
// template pair.
func (m *EmailMessage) Render() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}
	tmplInit.Do(parseTemplates)

	set, ok := templates[m.TemplateName]
	if !ok {
		return errors.Errorf("unknown mail template %q", m.TemplateName)
	}

	var buff bytes.Buffer
	if set.text != nil && m.TextContent == "" {
		if err := set.text.Execute(&buff, m.contextData()); err != nil {
			return errors.Wrap(err, "rendering "+m.TemplateName+".txt")
		}
		m.TextContent = buff.String()
	}
	if set.html != nil {
		buff.Reset()
		if err := set.html.Execute(&buff, m.contextData()); err != nil {
			return errors.Wrap(err, "rendering "+m.TemplateName+".gohtml")
		}
		m.HTMLContent = buff.String()
	}
	return nil
}

// Attach base64-encodes the reader's content into the message. The
// content type is sniffed when not given.
func (m *EmailMessage) Attach(r io.Reader, filename string, ct ...string) error {
	at := Attachment{Filename: filename, Content: new(bytes.Buffer)}

	content, err := ioutil.ReadAll(r)
	if err != nil {
		return err
	}
	encoder := base64.NewEncoder(base64.StdEncoding, at.Content)
	if _, err := encoder.Write(content); err != nil {
		return err
	}
	_ = encoder.Close()

	if len(ct) > 0 {
		at.ContentType = ct[0]
	} else {
		at.ContentType = http.DetectContentType(content)
	}
	m.Attachments = append(m.Attachments, at)
	return nil
}

func (m *EmailMessage) AttachFile(fp string, contentType ...string) error {
	f, err := os.Open(fp)
	if err != nil {
		return err
	}
	defer f.Close()
	return m.Attach(f, filepath.Base(fp), contentType...)
}

func (m *EmailMessage) HasRecipients() bool  { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool     { return (m.TextContent != "") || (m.HTMLContent != "") }
func (m *EmailMessage) HasAttachments() bool { return len(m.Attachments) > 0 }

// parseTemplates loads every <name>.txt / <name>.gohtml pair from the
// embedded assets; files starting with "_" are shared bases pulled into
// each pair, never templates of their own.
func parseTemplates() {
	templates = make(map[string]*mailTemplates)

	entries, err := fs.ReadDir(assets.FS, mailTemplateDir)
	if err != nil {
		log.Printf("core: parsing mail templates: %v", err)
		return
	}

	for _, entry := range entries {
		fname := entry.Name()
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") || (ext != ".txt" && ext != ".gohtml") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		set, ok := templates[name]
		if !ok {
			set = new(mailTemplates)
			templates[name] = set
		}

		fp := path.Join(mailTemplateDir, fname)
		if ext == ".txt" {
			tmpl, err := texttmpl.ParseFS(assets.FS, path.Join(mailTemplateDir, "_base.txt"), fp)
			if err != nil {
				log.Printf("core: parsing %s: %v", fp, err)
				continue
			}
			if Conf.Debug || Conf.TestMode {
				tmpl = tmpl.Option("missingkey=error")
			}
			set.text = tmpl
		} else {
			tmpl, err := htmltmpl.ParseFS(assets.FS, path.Join(mailTemplateDir, "_base.gohtml"), fp)
			if err != nil {
				log.Printf("core: parsing %s: %v", fp, err)
				continue
			}
			if Conf.Debug || Conf.TestMode {
				tmpl = tmpl.Option("missingkey=error")
			}
			set.html = tmpl
		}
	}
}
