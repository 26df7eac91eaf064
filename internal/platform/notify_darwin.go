//go:build darwin

package platform

import (
	"fmt"
	"os/exec"
)

// Notify posts to the macOS Notification Center through osascript.
// Notification Center picks its own badge, so opts.IconPath is ignored here.
func Notify(title, body string, opts Options) error {
	script := fmt.Sprintf("display notification %q with title %q", body, title)
	return exec.Command("osascript", "-e", script).Run()
}
