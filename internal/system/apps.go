package system

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"zendaya/internal/fuzzy"
)

// AppCutoff is the similarity needed to correct a misheard app name.
const AppCutoff = 0.7

// procName is what an unmapped close target must look like.
var procName = regexp.MustCompile(`^[a-z][a-z0-9._+-]+$`)

var DefaultApps = map[string]string{
	"chrome":        "google-chrome",
	"firefox":       "firefox",
	"vscode":        "code",
	"notepad":       "gedit",
	"notepad++":     "notepadqq",
	"calculator":    "gnome-calculator",
	"spotify":       "spotify",
	"brave":         "brave-browser",
	"edge":          "microsoft-edge-stable",
	"paint":         "kolourpaint",
	"file explorer": "nautilus",
	"terminal":      "gnome-terminal",
}

var DefaultShortcuts = map[string]string{
	"youtube": "https://www.youtube.com",
	"google":  "https://www.google.com",
	"gmail":   "https://mail.google.com",
	"mails":   "https://mail.google.com",
}

// Apps opens and closes applications and web shortcuts.
type Apps struct {
	apps      map[string]string
	shortcuts map[string]string
	names     []string
	run       Runner
	// Opener is the program that opens URLs.
	Opener string
}

func NewApps(apps, shortcuts map[string]string, run Runner) *Apps {
	if run == nil {
		run = ExecRunner{}
	}
	a := &Apps{
		apps:      lowerKeys(apps),
		shortcuts: lowerKeys(shortcuts),
		run:       run,
		Opener:    "xdg-open",
	}
	a.names = slices.Sorted(maps.Keys(a.apps))
	return a
}

func lowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

// Resolve maps a spoken app name to its executable. corrected reports
// whether the name was fuzzily matched.
func (a *Apps) Resolve(name string) (app, exe string, corrected bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if exe, ok := a.apps[name]; ok {
		return name, exe, false
	}
	if best, ok := fuzzy.Best(name, a.names, AppCutoff); ok {
		return best, a.apps[best], true
	}
	return "", "", false
}

func (a *Apps) Open(_ context.Context, target string) (string, error) {
	t := strings.ToLower(strings.TrimSpace(target))

	if url, ok := a.shortcuts[t]; ok {
		if err := a.run.Start(a.Opener, url); err != nil {
			return "", fmt.Errorf("open %s: %w", url, err)
		}
		return fmt.Sprintf("Opening %s.", t), nil
	}

	if app, exe, corrected := a.Resolve(t); exe != "" {
		path, err := a.run.LookPath(exe)
		if err == nil {
			var prefix string
			if corrected {
				prefix = fmt.Sprintf("Did you mean '%s'? I'll open that.\n", capitalize(app))
			}
			if err := a.run.Start(path); err != nil {
				return prefix + fmt.Sprintf("I tried to launch %s but encountered an error: %v", app, err), nil
			}
			return prefix + fmt.Sprintf("Launching %s.", filepath.Base(path)), nil
		}
	}

	if strings.HasPrefix(t, "http://") || strings.HasPrefix(t, "https://") {
		if err := a.run.Start(a.Opener, strings.TrimSpace(target)); err != nil {
			return "", fmt.Errorf("open %s: %w", target, err)
		}
		return "Opening the URL.", nil
	}

	return fmt.Sprintf("I couldn't find or open '%s'. Is it installed?", target), nil
}

// Close kills processes whose name is exactly the resolved executable.
// Unknown targets must look like a process name; anything else is refused
// rather than handed to pkill as a pattern.
func (a *Apps) Close(ctx context.Context, target string) (string, error) {
	t := strings.ToLower(strings.TrimSpace(target))
	proc := t
	if _, exe, _ := a.Resolve(t); exe != "" {
		proc = filepath.Base(exe)
	} else if !procName.MatchString(t) {
		return fmt.Sprintf("I don't know an application called '%s'.", target), nil
	}

	if err := a.run.Run(ctx, "pkill", "-i", "-x", regexp.QuoteMeta(proc)); err != nil {
		return fmt.Sprintf("Could not close %s. Is it running?", target), nil
	}
	return fmt.Sprintf("Closed %s.", target), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
