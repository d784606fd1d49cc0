package notify

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/fatih/color"

	"github.com/allenbenz/cargo-testify/internal/domain"
)

// sendTimeout bounds every shell-out to a native notification tool.
const sendTimeout = 5 * time.Second

// Backend names accepted by configuration.
const (
	BackendAuto       = "auto"
	BackendNotifySend = "notify-send"
	BackendOsascript  = "osascript"
	BackendPowershell = "powershell"
	BackendConsole    = "console"
)

// ForBackend resolves a backend name to a Sender. "auto" picks the native
// tool for the current platform and falls back to the console when the tool
// is not installed.
func ForBackend(backend string) (Sender, error) {
	switch backend {
	case "", BackendAuto:
		return autoSender(), nil
	case BackendNotifySend:
		return &NotifySendSender{}, nil
	case BackendOsascript:
		return &OsascriptSender{}, nil
	case BackendPowershell:
		return &PowershellSender{}, nil
	case BackendConsole:
		return NewConsoleSender(os.Stderr), nil
	default:
		return nil, fmt.Errorf("unknown notify backend %q", backend)
	}
}

func autoSender() Sender {
	var tool string
	var sender Sender

	switch runtime.GOOS {
	case "darwin":
		tool, sender = "osascript", &OsascriptSender{}
	case "windows":
		tool, sender = "powershell", &PowershellSender{}
	default:
		tool, sender = "notify-send", &NotifySendSender{}
	}

	if _, err := exec.LookPath(tool); err != nil {
		log.Printf("notify: %s not found, falling back to console output", tool)
		return NewConsoleSender(os.Stderr)
	}
	return sender
}

// NotifySendSender delivers via notify-send (Linux / freedesktop).
type NotifySendSender struct{}

func (s *NotifySendSender) Name() string { return BackendNotifySend }

func (s *NotifySendSender) Send(ctx context.Context, p domain.NotificationPayload) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "notify-send",
		"--urgency", string(p.Urgency),
		"--app-name", "cargo-testify",
		p.Title, p.Body)
	return cmd.Run()
}

// OsascriptSender delivers via the macOS notification center.
type OsascriptSender struct{}

func (s *OsascriptSender) Name() string { return BackendOsascript }

func (s *OsascriptSender) Send(ctx context.Context, p domain.NotificationPayload) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	script := fmt.Sprintf("display notification %q with title %q", p.Body, p.Title)
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)
	return cmd.Run()
}

// PowershellSender delivers a Windows toast notification.
type PowershellSender struct{}

func (s *PowershellSender) Name() string { return BackendPowershell }

func (s *PowershellSender) Send(ctx context.Context, p domain.NotificationPayload) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	script := fmt.Sprintf(`
[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
$xml = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)
$text = $xml.GetElementsByTagName('text')
$text.Item(0).AppendChild($xml.CreateTextNode(%q)) | Out-Null
$text.Item(1).AppendChild($xml.CreateTextNode(%q)) | Out-Null
$toast = [Windows.UI.Notifications.ToastNotification]::new($xml)
[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier('cargo-testify').Show($toast)`,
		p.Title, p.Body)
	cmd := exec.CommandContext(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	return cmd.Run()
}

// ConsoleSender prints the notification to a writer, color-coded by urgency.
// Used as the explicit "console" backend and as the fallback when no native
// tool is available.
type ConsoleSender struct {
	out io.Writer

	pass *color.Color
	fail *color.Color
}

func NewConsoleSender(out io.Writer) *ConsoleSender {
	return &ConsoleSender{
		out:  out,
		pass: color.New(color.FgGreen, color.Bold),
		fail: color.New(color.FgRed, color.Bold),
	}
}

func (s *ConsoleSender) Name() string { return BackendConsole }

func (s *ConsoleSender) Send(ctx context.Context, p domain.NotificationPayload) error {
	c := s.pass
	if p.Urgency == domain.UrgencyCritical {
		c = s.fail
	}
	if _, err := c.Fprintf(s.out, "== %s", p.Title); err != nil {
		return err
	}
	if p.Body != "" {
		if _, err := fmt.Fprintf(s.out, ": %s", p.Body); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(s.out)
	return err
}
