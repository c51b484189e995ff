// Package notify posts desktop notifications after generation runs.
// Delivery is best effort: a missing platform tool must never fail a
// map run, so every path degrades to a false return.
package notify

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

const appName = "RepoMap"

// toastTemplate is the Windows toast XML fed to PowerShell.
const toastTemplate = `
[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
$template = @"
<toast>
    <visual>
        <binding template="ToastText02">
            <text id="1">%s</text>
            <text id="2">%s</text>
        </binding>
    </visual>
    <audio src="ms-winsoundevent:Notification.Default"/>
</toast>
"@
$xml = New-Object Windows.Data.Xml.Dom.XmlDocument
$xml.LoadXml($template)
$toast = [Windows.UI.Notifications.ToastNotification]::new($xml)
$notifier = [Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("%s")
$notifier.Show($toast)
`

// Send posts a notification and reports whether the platform tool
// accepted it.
func Send(title, message string) bool {
	switch runtime.GOOS {
	case "darwin":
		return run("osascript", "-e", appleScript(title, message))
	case "windows":
		return run("powershell", "-ExecutionPolicy", "Bypass", "-Command", toastScript(title, message))
	default:
		return run("notify-send", "-a", appName, title, message)
	}
}

func run(name string, args ...string) bool {
	path, err := exec.LookPath(name)
	if err != nil {
		return false
	}
	return exec.Command(path, args...).Run() == nil
}

// appleScript renders the osascript body. Double quotes are the only
// character AppleScript strings need escaped.
func appleScript(title, message string) string {
	return fmt.Sprintf(`display notification "%s" with title "%s" sound name "default"`,
		escapeApple(message), escapeApple(title))
}

func escapeApple(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// toastScript renders the PowerShell toast command with title and
// message escaped for both single-quote and here-string contexts.
func toastScript(title, message string) string {
	return fmt.Sprintf(toastTemplate, escapePowershell(title), escapePowershell(message), appName)
}

func escapePowershell(s string) string {
	s = strings.ReplaceAll(s, "'", "''")
	return strings.ReplaceAll(s, `"`, "`\"")
}
