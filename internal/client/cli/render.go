package cli

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/reichert621/instachat/internal/client/services"
	"github.com/reichert621/instachat/internal/client/timeline"
)

const defaultWidth = 80

// termWidth is a test seam for the terminal width.
var termWidth = func() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

// renderer prints session views incrementally: a header when the channel
// changes, then timeline entries appended since the last view. When the
// printed lines are no longer a prefix of the timeline, e.g. a late message
// sorted before the tail, the channel block is printed again.
type renderer struct {
	width func() int

	mu         sync.Mutex
	started    bool
	channel    string
	user       string
	shown      []string
	headerDone bool
	askedName  bool

	ready     chan struct{}
	readyOnce sync.Once
}

func newRenderer(width func() int) *renderer {
	return &renderer{width: width, ready: make(chan struct{})}
}

// Ready is closed after the first complete view.
func (r *renderer) Ready() <-chan struct{} {
	return r.ready
}

func (r *renderer) Channel() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channel
}

func (r *renderer) User() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.user
}

func (r *renderer) Render(v services.View) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.user = ""
	if v.CurrentUser != nil {
		r.user = v.CurrentUser.Name
	}

	if !r.started || v.ActiveChannelName != r.channel {
		r.started = true
		r.channel = v.ActiveChannelName
		r.shown = nil
		r.headerDone = false
	}
	if !v.Ready {
		return
	}
	r.readyOnce.Do(func() { close(r.ready) })

	if !r.headerDone {
		r.header(v)
		r.headerDone = true
	}

	if v.NeedsRegistration && !r.askedName {
		r.askedName = true
		printlnFn("Pick a username with /register <name>")
	} else if !v.NeedsRegistration {
		r.askedName = false
	}

	if !r.isPrefix(v.Timeline) {
		r.header(v)
		r.shown = r.shown[:0]
		for _, g := range timeline.Groups(v.Timeline) {
			r.author(g[0])
			for _, e := range g {
				r.body(e)
			}
		}
		return
	}
	for _, e := range v.Timeline[len(r.shown):] {
		if e.IsFirstInGroup {
			r.author(e)
		}
		r.body(e)
	}
}

// isPrefix reports whether the entries printed so far start entries in the
// same order.
func (r *renderer) isPrefix(entries []timeline.Entry) bool {
	if len(r.shown) > len(entries) {
		return false
	}
	for i, id := range r.shown {
		if entries[i].ID != id {
			return false
		}
	}
	return true
}

func (r *renderer) header(v services.View) {
	title := " #" + v.ActiveChannelName + " "
	switch {
	case v.ActiveChannelName == "":
		title = " no channel, /join <channel> "
	case v.ActiveChannel == nil:
		title = " #" + v.ActiveChannelName + " (not found) "
	}
	pad := r.width() - len([]rune(title))
	if pad < 2 {
		pad = 2
	}
	printlnFn(strings.Repeat("─", pad/2) + title + strings.Repeat("─", pad-pad/2))
}

func (r *renderer) author(e timeline.Entry) {
	name := e.AuthorName
	if e.IsMine {
		name += " (you)"
	}
	printlnFn(fmt.Sprintf("%s  %s", name, e.DisplayTime))
}

func (r *renderer) body(e timeline.Entry) {
	r.shown = append(r.shown, e.ID)
	for _, line := range wrap(e.Body, r.width()-2) {
		printlnFn("  " + line)
	}
}

// wrap breaks s on spaces so no line exceeds width runes, except single
// words longer than width.
func wrap(s string, width int) []string {
	if width < 10 {
		width = 10
	}
	var out []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len([]rune(line))+1+len([]rune(w)) > width {
				out = append(out, line)
				line = w
				continue
			}
			line += " " + w
		}
		out = append(out, line)
	}
	return out
}
