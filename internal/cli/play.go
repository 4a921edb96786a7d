package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fabula/internal/engine"
	"github.com/roach88/fabula/internal/loader"
	"github.com/roach88/fabula/internal/session"
	"github.com/roach88/fabula/internal/state"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	Start   string // override start node
	Session string // named session to save/resume
	DB      string // session database path
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play <story-file>",
		Short: "Play a story interactively",
		Long: `Play a story interactively on the terminal.

Reads commands from stdin. Enter a choice number to pick a choice, or:

  answer <value>   submit a puzzle answer (JSON or plain text)
  hints            show hints for the current puzzle
  state            print the current game state as JSON
  save             save the session (requires --session)
  quit             exit

With --session, progress is saved to a SQLite database after every move
and play resumes from the saved snapshot on the next run.

Examples:
  fabula play story.yaml
  fabula play story.json --session alice --db saves.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Start, "start", "", "start node id (defaults to the first node)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session name to save and resume")
	cmd.Flags().StringVar(&opts.DB, "db", "fabula.db", "session database path")

	return cmd
}

// player drives one interactive run of a story.
type player struct {
	eng   *engine.Engine
	store *session.Store // nil when sessions are disabled
	name  string
	title string
	out   io.Writer
}

func runPlay(opts *PlayOptions, storyFile string, cmd *cobra.Command) error {
	doc, _, err := loader.Load(storyFile)
	if err != nil {
		var invalid *loader.InvalidStoryError
		if errors.As(err, &invalid) {
			return WrapExitError(ExitFailure, "story is not valid", err)
		}
		return WrapExitError(ExitCommandError, "failed to load story", err)
	}

	p := &player{
		eng:   engine.New(doc),
		title: doc.Title,
		out:   cmd.OutOrStdout(),
	}

	var resume *state.GameState
	if opts.Session != "" {
		store, err := session.Open(opts.DB, session.UUIDv7Generator{})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open session database", err)
		}
		defer store.Close()
		p.store = store
		p.name = opts.Session

		saved, err := store.LoadByName(context.Background(), opts.Session)
		switch {
		case err == nil:
			resume = saved.State
		case errors.Is(err, session.ErrNotFound):
			// Fresh session
		default:
			return WrapExitError(ExitCommandError, "failed to load session", err)
		}
	}

	if resume != nil {
		if err := p.eng.Restore(resume); err != nil {
			return WrapExitError(ExitCommandError, "saved session does not match this story", err)
		}
		fmt.Fprintf(p.out, "Resuming session %q at %s.\n\n", p.name, resume.CurrentNode)
	} else {
		if err := p.eng.Start(opts.Start); err != nil {
			return WrapExitError(ExitCommandError, "failed to start story", err)
		}
	}

	fmt.Fprintf(p.out, "=== %s ===\n\n", p.title)
	return p.loop(cmd.InOrStdin())
}

func (p *player) loop(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		if err := p.showNode(); err != nil {
			return err
		}
		if p.eng.Ended() {
			fmt.Fprintln(p.out, "The End.")
			return p.save()
		}

		fmt.Fprint(p.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		done, err := p.handle(line)
		if err != nil {
			return err
		}
		if done {
			return p.save()
		}
	}
}

// handle executes a single input line. Returns true when the player quit.
func (p *player) handle(line string) (bool, error) {
	cmd, rest, _ := strings.Cut(line, " ")
	switch cmd {
	case "quit", "exit":
		return true, nil
	case "hints":
		p.showHints()
		return false, nil
	case "state":
		p.showState()
		return false, nil
	case "save":
		if p.store == nil {
			fmt.Fprintln(p.out, "No session configured. Run with --session to enable saving.")
			return false, nil
		}
		if err := p.save(); err != nil {
			return false, err
		}
		fmt.Fprintf(p.out, "Saved session %q.\n", p.name)
		return false, nil
	case "answer":
		p.submitAnswer(strings.TrimSpace(rest))
		return false, p.save()
	default:
		n, err := strconv.Atoi(cmd)
		if err != nil {
			fmt.Fprintf(p.out, "Unknown command %q.\n", cmd)
			return false, nil
		}
		p.pickChoice(n)
		return false, p.save()
	}
}

func (p *player) showNode() error {
	node, err := p.eng.CurrentNode()
	if err != nil {
		return err
	}

	if node.Title != "" {
		fmt.Fprintf(p.out, "-- %s --\n", node.Title)
	}
	fmt.Fprintln(p.out, node.Text)
	fmt.Fprintln(p.out)

	if node.Puzzle != nil && !p.eng.Snapshot().PuzzleSolved(node.Puzzle.ID) {
		fmt.Fprintf(p.out, "Puzzle: %s\n", node.Puzzle.Prompt)
		fmt.Fprintln(p.out, `Type "answer <value>" to respond, or "hints" for a hint.`)
		fmt.Fprintln(p.out)
	}

	choices, err := p.eng.AvailableChoices()
	if err != nil {
		return err
	}
	for _, c := range choices {
		switch {
		case c.Available:
			fmt.Fprintf(p.out, "  %d. %s\n", c.Index, c.Choice.Label)
		case c.Reason != "":
			fmt.Fprintf(p.out, "  %d. %s [%s]\n", c.Index, c.Choice.Label, c.Reason)
		default:
			fmt.Fprintf(p.out, "  %d. %s [locked]\n", c.Index, c.Choice.Label)
		}
	}
	if len(choices) > 0 {
		fmt.Fprintln(p.out)
	}
	return nil
}

func (p *player) pickChoice(index int) {
	if err := p.eng.MakeChoice(index); err != nil {
		var rtErr *engine.RuntimeError
		if errors.As(err, &rtErr) {
			fmt.Fprintln(p.out, rtErr.Message)
			return
		}
		fmt.Fprintln(p.out, err.Error())
	}
}

func (p *player) submitAnswer(raw string) {
	if raw == "" {
		fmt.Fprintln(p.out, "Usage: answer <value>")
		return
	}

	// JSON input covers structured answers (lists, maps, numbers); anything
	// that fails to parse is treated as plain text.
	var answer any
	if err := json.Unmarshal([]byte(raw), &answer); err != nil {
		answer = raw
	}

	result, err := p.eng.SolvePuzzle(answer)
	if err != nil {
		fmt.Fprintln(p.out, err.Error())
		return
	}

	if result.Correct {
		fmt.Fprintln(p.out, "Correct!")
	} else {
		fmt.Fprintf(p.out, "Not quite (score %.2f).\n", result.Score)
	}
	if result.Message != "" {
		fmt.Fprintln(p.out, result.Message)
	}
}

func (p *player) showHints() {
	hints, err := p.eng.Hints()
	if err != nil {
		fmt.Fprintln(p.out, err.Error())
		return
	}
	if len(hints) == 0 {
		fmt.Fprintln(p.out, "No hints available.")
		return
	}
	for _, h := range hints {
		fmt.Fprintf(p.out, "Hint: %s\n", h)
	}
}

func (p *player) showState() {
	data, err := state.Marshal(p.eng.Snapshot())
	if err != nil {
		fmt.Fprintln(p.out, err.Error())
		return
	}
	fmt.Fprintf(p.out, "%s\n", data)
}

// save persists the current snapshot when a session is configured.
func (p *player) save() error {
	if p.store == nil {
		return nil
	}
	_, err := p.store.Save(context.Background(), p.name, p.title, p.eng.Snapshot())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to save session", err)
	}
	return nil
}
