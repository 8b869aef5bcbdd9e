package emailsvc

import (
	"fmt"
	"log"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/prologin/gccsite/core"
)

// SentMessages records every message the console backend processed, so
// tests can assert on outbound mail without touching the network.
var (
	SentMessages = make([]core.EmailMessage, 0)
	mu           sync.Mutex
)

type consoleService struct {
	from          mail.Address
	subjPrefix    string
	disableOutput bool
}

var _ core.EmailService = (*consoleService)(nil)

// NewConsoleService returns the debug mail backend: messages are
// rendered, recorded in SentMessages and printed to the process log
// instead of being sent.
func NewConsoleService() core.EmailService {
	return &consoleService{
		from:       mail.Address{Name: core.Conf.AppName, Address: core.Conf.DefaultFromEmail},
		subjPrefix: "[" + core.Conf.AppName + "] ",
	}
}

func (svc consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go svc.sendMessage(msg)
	}
}

func (svc consoleService) sendMessage(msg *core.EmailMessage) {
	if err := msg.Render(); err != nil {
		log.Printf("rendering email: %+v", err)
		return
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return
	}
	svc.print(*msg)
	mu.Lock()
	SentMessages = append(SentMessages, *msg)
	mu.Unlock()
}

func (svc consoleService) print(msg core.EmailMessage) {
	if svc.disableOutput {
		return
	}
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "From: %s\n", svc.from.String())
	_, _ = fmt.Fprintf(&b, "Date: %s\n", time.Now().Format(time.RFC1123Z))
	_, _ = fmt.Fprintf(&b, "Subject: %s\n", svc.subjPrefix+msg.Subject)
	_, _ = fmt.Fprintf(&b, "To: %s\n", joinAddresses(msg.To))
	if len(msg.Cc) > 0 {
		_, _ = fmt.Fprintf(&b, "CC: %s\n", joinAddresses(msg.Cc))
	}
	if len(msg.Bcc) > 0 {
		_, _ = fmt.Fprintf(&b, "BCC: %s\n", joinAddresses(msg.Bcc))
	}
	for _, at := range msg.Attachments {
		_, _ = fmt.Fprintf(&b, "Attachment: %s (%s)\n", at.Filename, at.ContentType)
	}
	_, _ = fmt.Fprintf(&b, "\n%s\n", msg.TextContent)
	log.Println(b.String())
}

func joinAddresses(addrs []mail.Address) string {
	strs := make([]string, 0, len(addrs))
	for _, a := range addrs {
		strs = append(strs, a.String())
	}
	return strings.Join(strs, ", ")
}

type consoleServiceMock struct {
	consoleService
}

// NewConsoleServiceMock runs synchronously and prints nothing; messages
// only end up in SentMessages.
func NewConsoleServiceMock() core.EmailService {
	return &consoleServiceMock{consoleService{
		from:          mail.Address{Name: core.Conf.AppName, Address: core.Conf.DefaultFromEmail},
		subjPrefix:    "[" + core.Conf.AppName + "] ",
		disableOutput: true,
	}}
}

func (svc *consoleServiceMock) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		svc.sendMessage(msg)
	}
}
