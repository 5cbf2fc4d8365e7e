// Package cli is the interactive console for driving a search session
// from a terminal, mainly for testing and debugging the session flow.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/mvillard/docsearch/pkg/query"
	"github.com/mvillard/docsearch/pkg/results"
	"github.com/mvillard/docsearch/pkg/server"
	"github.com/mvillard/docsearch/pkg/session"
	"github.com/mvillard/docsearch/pkg/suggest"
)

var (
	matchStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#b4637a", Dark: "#eb6f92"})
	filenameStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	metaStyle = lipgloss.NewStyle().Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#9893a5", Dark: "#6e6a86"})
)

// settleWait bounds how long one REPL turn waits for the debounced
// suggestion fetch to settle.
const settleWait = 2 * time.Second

// Console reads lines from stdin and drives the suggestion engine and
// session controller the way keystrokes and Enter would.
type Console struct {
	engine     *suggest.Engine
	controller *session.Controller
	dir        server.Directory
	cloudCfg   results.ScaleConfig
	window     int
	fallback   int
}

// NewConsole creates a console over an engine, a controller and the
// backend directory endpoints.
func NewConsole(engine *suggest.Engine, controller *session.Controller, dir server.Directory, window, fallback int) *Console {
	return &Console{
		engine:     engine,
		controller: controller,
		dir:        dir,
		cloudCfg:   results.DefaultScaleConfig(),
		window:     window,
		fallback:   fallback,
	}
}

// Start begins the console loop. It returns when stdin closes.
func (c *Console) Start(ctx context.Context) error {
	log.Print("docsearch console [BETA]")
	log.Print("type to see completions, :s to search, :help for commands (Ctrl+C to exit):")
	reader := bufio.NewReader(os.Stdin)

	for {
		log.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			if done := c.handleCommand(ctx, line); done {
				return nil
			}
			continue
		}
		c.handleTyping(line)
	}
}

// handleTyping feeds a line into the suggestion engine as if it had been
// typed, then waits for the debounced fetch to settle.
func (c *Console) handleTyping(text string) {
	c.engine.SetText(text)
	c.waitSettled()

	words := c.engine.Suggestions()
	if len(words) == 0 {
		log.Warnf("No completions for '%s'", text)
		return
	}
	log.Printf("Found %d completions for '%s':", len(words), text)
	for i, w := range words {
		log.Printf("%2d. %s", i+1, w)
	}
	log.Print(metaStyle.Render("use :pick N to accept, :s to search as typed"))
}

func (c *Console) waitSettled() {
	deadline := time.Now().Add(settleWait)
	for time.Now().Before(deadline) {
		switch c.engine.State() {
		case suggest.StateIdle, suggest.StateShowing:
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	log.Warn("Completion request did not settle in time")
}

// handleCommand dispatches a :command line. It returns true when the
// console should exit.
func (c *Console) handleCommand(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case ":q", ":quit":
		return true
	case ":help":
		c.printHelp()
	case ":pick":
		c.pick(args)
	case ":s", ":search":
		c.search(ctx, args)
	case ":mode":
		c.setMode(args)
	case ":types":
		c.setTypes(ctx, args)
	case ":page":
		c.setPage(args)
	case ":next":
		c.controller.SetPage(c.controller.CurrentPage().Index + 1)
		c.RenderPage()
	case ":prev":
		c.controller.SetPage(c.controller.CurrentPage().Index - 1)
		c.RenderPage()
	case ":cloud":
		c.cloud(ctx, args)
	case ":state":
		c.renderState()
	default:
		log.Errorf("Unknown command: %s (try :help)", cmd)
	}
	return false
}

func (c *Console) printHelp() {
	log.Print(":s [text]     search for text (or the current input)")
	log.Print(":pick N       accept completion number N")
	log.Print(":mode M       set match mode: or | all_words_and | exact")
	log.Print(":types a,b    filter by document types (:types to list them)")
	log.Print(":page N       jump to result page N (:next / :prev to step)")
	log.Print(":cloud FILE   show the word cloud for a document")
	log.Print(":state        show the session state")
	log.Print(":q            quit")
}

// pick accepts the N-th completion by walking the highlight down to it
// and pressing Enter, same as the arrow keys would.
func (c *Console) pick(args []string) {
	if len(args) != 1 {
		log.Error("Usage: :pick N")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(c.engine.Suggestions()) {
		log.Errorf("No completion number %s", args[0])
		return
	}
	for i := 0; i < n; i++ {
		c.engine.HandleKey(suggest.KeyArrowDown)
	}
	word, ok := c.engine.HandleKey(suggest.KeyEnter)
	if !ok {
		log.Error("Nothing to accept")
		return
	}
	log.Printf("Accepted '%s'", word)
}

func (c *Console) search(ctx context.Context, args []string) {
	text := strings.Join(args, " ")
	if text == "" {
		text = c.engine.Text()
	}
	if strings.TrimSpace(text) == "" {
		log.Error("Nothing to search for")
		return
	}
	if err := c.controller.Update(query.Patch{Text: &text}); err != nil {
		log.Errorf("Bad query: %v", err)
		return
	}

	start := time.Now()
	if err := c.controller.SubmitWait(ctx, c.controller.Query()); err != nil {
		log.Errorf("Search failed: %v", err)
		return
	}
	log.Debugf("Took [ %v ] for '%s'", time.Since(start), text)
	c.RenderPage()
}

func (c *Console) setMode(args []string) {
	if len(args) != 1 {
		log.Error("Usage: :mode or | all_words_and | exact")
		return
	}
	mode := query.Mode(args[0])
	if err := c.controller.Update(query.Patch{Mode: &mode}); err != nil {
		log.Errorf("Bad mode: %v", err)
		return
	}
	log.Printf("Match mode set to '%s'", mode)
}

func (c *Console) setTypes(ctx context.Context, args []string) {
	if len(args) == 0 {
		types, err := c.dir.DocumentTypes(ctx)
		if err != nil {
			log.Errorf("Listing document types: %v", err)
			return
		}
		log.Printf("Available types: %s", strings.Join(types, ", "))
		return
	}
	types := strings.Split(args[0], ",")
	if err := c.controller.Update(query.Patch{Types: &types}); err != nil {
		log.Errorf("Bad types: %v", err)
		return
	}
	log.Printf("Type filter set to [%s]", strings.Join(types, ", "))
}

func (c *Console) setPage(args []string) {
	if len(args) != 1 {
		log.Error("Usage: :page N")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		log.Errorf("Not a page number: %s", args[0])
		return
	}
	c.controller.SetPage(n)
	c.RenderPage()
}

func (c *Console) cloud(ctx context.Context, args []string) {
	if len(args) != 1 {
		log.Error("Usage: :cloud FILE")
		return
	}
	counts, err := c.dir.WordFrequencies(ctx, args[0])
	if err != nil {
		log.Errorf("Word frequencies for %s: %v", args[0], err)
		return
	}
	entries := results.ScaleWeights(counts, c.cloudCfg)
	if len(entries) == 0 {
		log.Warnf("No word statistics for %s", args[0])
		return
	}
	for i, e := range entries {
		log.Printf("%2d. %-30s (weight: %6.1f)", i+1, e.Word, e.Weight)
	}
}

func (c *Console) renderState() {
	q := c.controller.Query()
	page := c.controller.CurrentPage()
	log.Printf("status: %s", c.controller.Status())
	log.Printf("query:  '%s' mode=%s types=[%s]", q.Text, q.Mode, strings.Join(q.Types, ", "))
	log.Printf("page:   %d/%d (%d results)", page.Index, page.TotalPages, page.TotalItems)
	if msg := c.controller.ErrorMessage(); msg != "" {
		log.Warnf("last error: %s", msg)
	}
}

// RenderPage prints the current result page with highlighted snippets.
func (c *Console) RenderPage() {
	page := c.controller.CurrentPage()
	if page.TotalItems == 0 {
		log.Warn("No results")
		if dym := c.controller.DidYouMean(); len(dym) > 0 {
			log.Printf("Did you mean: %s?", strings.Join(dym, ", "))
		}
		return
	}

	term := c.controller.Query().Trimmed()
	counts := results.TypeCounts(c.controller.Results())
	var parts []string
	for t, n := range counts {
		parts = append(parts, fmt.Sprintf("%s: %d", t, n))
	}
	log.Printf("Page %d/%d of %d results (%s)", page.Index, page.TotalPages, page.TotalItems, strings.Join(parts, ", "))

	for _, it := range page.Items {
		header := filenameStyle.Render(it.Filename)
		meta := metaStyle.Render(fmt.Sprintf("%s  %s  %d occurrences", it.Type, it.Date, it.TotalOccurrences))
		log.Printf("%s  %s", header, meta)

		if top := results.TopOccurrences(it, 3); len(top) > 0 {
			var hits []string
			for _, wc := range top {
				hits = append(hits, fmt.Sprintf("%s×%d", wc.Word, wc.Count))
			}
			log.Printf("    %s", metaStyle.Render(strings.Join(hits, "  ")))
		}

		if it.Context == "" {
			continue
		}
		snippet := results.Snippet(it.Context, term, c.window, c.fallback)
		var sb strings.Builder
		for _, span := range results.Highlight(snippet, term) {
			if span.Match {
				sb.WriteString(matchStyle.Render(span.Text))
			} else {
				sb.WriteString(span.Text)
			}
		}
		log.Printf("    %s", sb.String())
	}
}
