package wipe

import (
	"fmt"
	"strings"
	"time"
)

// Style is how a presentation names the wipe control in each phase.
type Style struct {
	Name         string
	IdleLabel    string
	ConfirmLabel string
	WipingLabel  string
	Countdown    bool
}

var (
	ButtonStyle = Style{
		Name:         "button",
		IdleLabel:    "clear clipboard",
		ConfirmLabel: "yes",
		WipingLabel:  "clearing...",
	}
	PromptStyle = Style{
		Name:         "prompt",
		IdleLabel:    "wipe history",
		ConfirmLabel: "press again to confirm",
		WipingLabel:  "wiping history...",
		Countdown:    true,
	}
)

func StyleByName(name string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ButtonStyle.Name:
		return ButtonStyle, nil
	case PromptStyle.Name:
		return PromptStyle, nil
	default:
		return Style{}, fmt.Errorf("unknown confirm style %q (want button or prompt)", name)
	}
}

func (s Style) Label(st State, now time.Time) string {
	switch st.Phase {
	case Confirming:
		if !s.Countdown {
			return s.ConfirmLabel
		}
		left := st.Deadline.Sub(now).Round(time.Second)
		if left < time.Second {
			left = time.Second
		}
		return fmt.Sprintf("%s (%ds)", s.ConfirmLabel, int(left.Seconds()))
	case Wiping, Wiped:
		return s.WipingLabel
	default:
		return s.IdleLabel
	}
}
