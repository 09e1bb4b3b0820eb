package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vertextoedge/audio-dedup/internal/domain"
)

// Prompter collects run preferences interactively. A closed input answers
// every remaining question with its default.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter creates a Prompter reading answers from in and writing
// questions to out
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Directory asks for the directory to scan
func (p *Prompter) Directory() (string, error) {
	return p.ask("Directory to scan: ")
}

// Preferences asks every preference question. defaults supplies the
// output directory and threshold used for empty or invalid answers.
func (p *Prompter) Preferences(defaults domain.Preferences) (domain.Preferences, error) {
	defaults = defaults.Normalize()
	prefs := domain.Preferences{
		OutputDir: defaults.OutputDir,
		Threshold: defaults.Threshold,
	}

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "Audio duplicate finder")
	fmt.Fprintln(p.out, "Choose what to prefer when picking the file to keep.")
	fmt.Fprintln(p.out)

	var err error
	if prefs.PreferCover, err = p.yesNo("Prefer files with cover art? (y/n): "); err != nil {
		return prefs, err
	}
	if prefs.PreferLyrics, err = p.yesNo("Prefer files with embedded lyrics? (y/n): "); err != nil {
		return prefs, err
	}
	if prefs.PreferQuality, err = p.yesNo("Prefer higher quality files (usually higher bitrate)? (y/n): "); err != nil {
		return prefs, err
	}

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "What should happen to duplicates?")
	fmt.Fprintln(p.out, "1. Report only")
	fmt.Fprintln(p.out, "2. Move to a directory")
	fmt.Fprintln(p.out, "3. Delete")

	choice, err := p.ask("Option (1/2/3): ")
	if err != nil {
		return prefs, err
	}
	action, ok := domain.ParseAction(choice)
	if !ok {
		fmt.Fprintln(p.out, "Invalid choice, reporting only")
	}
	prefs.Action = action

	if prefs.Action == domain.ActionMove {
		dir, err := p.ask(fmt.Sprintf("Output directory (default %q): ", defaults.OutputDir))
		if err != nil {
			return prefs, err
		}
		if dir != "" {
			prefs.OutputDir = dir
		}
	}

	answer, err := p.ask(fmt.Sprintf("Filename similarity threshold (0-1, default %g): ", defaults.Threshold))
	if err != nil {
		return prefs, err
	}
	if answer != "" {
		t, err := strconv.ParseFloat(answer, 64)
		switch {
		case err != nil:
			fmt.Fprintf(p.out, "Invalid threshold, using %g\n", defaults.Threshold)
		case !domain.ValidThreshold(t):
			fmt.Fprintf(p.out, "Threshold must be between 0 and 1, using %g\n", defaults.Threshold)
		default:
			prefs.Threshold = t
		}
	}

	return prefs, nil
}

// yesNo treats any answer starting with y as yes
func (p *Prompter) yesNo(question string) (bool, error) {
	answer, err := p.ask(question)
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(strings.ToLower(answer), "y"), nil
}

// ask prints question and returns the trimmed answer line
func (p *Prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}
