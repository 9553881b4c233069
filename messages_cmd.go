package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/editor"
	"github.com/dgnsrekt/nudge/internal/messages"
	"github.com/dgnsrekt/nudge/internal/resources"
	"github.com/dgnsrekt/nudge/utils"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	messagesCmd = &cobra.Command{
		Use:     "messages",
		Aliases: []string{"msg"},
		Short:   "Manage the spoken messages",
		Long: paragraph(fmt.Sprintf("\nEach of the four categories keeps its messages in a %s file, one message per line. When the timer completes, one random message is spoken from each category in turn.",
			keyword("markdown"))),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return messagesListCmd.RunE(cmd, nil)
		},
	}

	messagesListCmd = &cobra.Command{
		Use:   "list",
		Short: "List the message categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, _, err := openCatalog()
			if err != nil {
				return err
			}
			listMessages(cmd.OutOrStdout(), c)
			return nil
		},
	}

	messagesShowCmd = &cobra.Command{
		Use:   "show CATEGORY",
		Short: "Print the messages of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := messages.ParseCategory(args[0])
			if err != nil {
				return err
			}
			c, _, err := openCatalog()
			if err != nil {
				return err
			}
			return showMessages(cmd.OutOrStdout(), c, cat)
		},
	}

	messagesEditCmd = &cobra.Command{
		Use:   "edit CATEGORY",
		Short: "Edit the messages of a category with $EDITOR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := messages.ParseCategory(args[0])
			if err != nil {
				return err
			}
			c, _, err := openCatalog()
			if err != nil {
				return err
			}

			e, err := editor.Cmd("Nudge", c.Path(cat))
			if err != nil {
				return fmt.Errorf("unable to set editor: %w", err)
			}
			e.Stdin = os.Stdin
			e.Stdout = os.Stdout
			e.Stderr = os.Stderr
			if err := e.Run(); err != nil {
				return fmt.Errorf("unable to run command: %w", err)
			}

			c.Reload(cat)
			fmt.Fprintf(cmd.OutOrStdout(), "%s now has %s\n", cat.Name(),
				humanize.Plural(c.Len(cat), "message", "messages"))
			return nil
		},
	}

	messagesAddCmd = &cobra.Command{
		Use:     "add CATEGORY MESSAGE",
		Short:   "Add a message to a category",
		Example: paragraph("nudge messages add 2 \"Keep going, you're doing great!\""),
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := messages.ParseCategory(args[0])
			if err != nil {
				return err
			}
			c, _, err := openCatalog()
			if err != nil {
				return err
			}
			msg := strings.Join(args[1:], " ")
			if err := c.Add(cat, msg); err != nil {
				return fmt.Errorf("unable to add message: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %q to %s\n", strings.TrimSpace(msg), cat.Name())
			return nil
		},
	}

	messagesSearchCmd = &cobra.Command{
		Use:   "search QUERY",
		Short: "Fuzzy-find messages across every category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := openCatalog()
			if err != nil {
				return err
			}
			searchMessages(cmd.OutOrStdout(), c, strings.Join(args, " "))
			return nil
		},
	}

	messagesAudioCmd = &cobra.Command{
		Use:   "audio CATEGORY [PATH]",
		Short: "List or import the audio clips of a category",
		Long: paragraph(fmt.Sprintf("\nWithout a path, list the clips stored for a category. With one, %s an audio file, or every audio file in a directory, into it. The check-in category holds a single clip.",
			keyword("import"))),
		Example: paragraph("nudge messages audio 2\nnudge messages audio motivation ~/Music/pep-talks"),
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := messages.ParseCategory(args[0])
			if err != nil {
				return err
			}
			p, err := paths()
			if err != nil {
				return err
			}
			store := resources.NewStore(fsys, p.Sounds)
			if len(args) == 1 {
				return listAudio(cmd.OutOrStdout(), store, cat)
			}
			return importAudio(cmd.OutOrStdout(), store, cat, utils.ExpandPath(args[1]))
		},
	}

	messagesRestoreCmd = &cobra.Command{
		Use:   "restore",
		Short: "Restore the original messages",
		Long:  paragraph(fmt.Sprintf("\n%s every category file from the archive of original messages. Your edits are overwritten.", keyword("Restore"))),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, p, err := openCatalog()
			if err != nil {
				return err
			}
			if err := c.Restore(p.Archive); err != nil {
				return fmt.Errorf("unable to restore messages: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Original messages restored to", c.Dir())
			return nil
		},
	}
)

func init() {
	messagesCmd.AddCommand(messagesListCmd, messagesShowCmd, messagesEditCmd,
		messagesAddCmd, messagesSearchCmd, messagesAudioCmd, messagesRestoreCmd)
}

func listMessages(w io.Writer, c *messages.Catalog) {
	for _, cat := range messages.Categories() {
		edited := ""
		if mod := c.ModTime(cat); !mod.IsZero() {
			edited = subtle("edited " + humanize.Time(mod))
		}
		fmt.Fprintf(w, "%d. %s %s %s\n",
			int(cat),
			runewidth.FillRight(cat.Short(), 13),
			runewidth.FillRight(humanize.Plural(c.Len(cat), "message", "messages"), 12),
			edited)
	}
}

func showMessages(w io.Writer, c *messages.Catalog, cat messages.Category) error {
	md := messages.Format(cat, c.Messages(cat))

	style := styles.AutoStyle
	width := 80
	if !isTerminal() {
		style = styles.NoTTYStyle
	} else if tw, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = min(tw, 120)
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		glamour.WithStylePath(style),
		glamour.WithWordWrap(width),
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return fmt.Errorf("unable to create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("unable to render markdown: %w", err)
	}
	_, err = fmt.Fprint(w, out)
	return err
}

func listAudio(w io.Writer, store *resources.Store, cat messages.Category) error {
	files, err := store.Pool(cat)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("unable to list audio: %w", err)
	}
	if len(files) == 0 {
		fmt.Fprintln(w, subtle(fmt.Sprintf("No audio clips for %s", cat.Name())))
		return nil
	}
	for _, f := range files {
		fmt.Fprintf(w, "%s %s %s\n",
			runewidth.FillRight(f.Name, 24),
			runewidth.FillLeft(humanize.Bytes(uint64(f.Size)), 8),
			subtle("added "+humanize.Time(f.ModTime)))
	}
	return nil
}

func importAudio(w io.Writer, store *resources.Store, cat messages.Category, src string) error {
	saved, err := store.Import(cat, src)
	for _, path := range saved {
		fmt.Fprintf(w, "✓ %s\n", path)
	}
	if err != nil {
		return fmt.Errorf("unable to import audio: %w", err)
	}
	fmt.Fprintf(w, "Imported %s into %s\n", humanize.Plural(len(saved), "clip", "clips"), cat.Name())
	return nil
}

var matchStyle = lipgloss.NewStyle().Bold(true).Underline(true)

func searchMessages(w io.Writer, c *messages.Catalog, query string) {
	found := c.Search(query)
	if len(found) == 0 {
		fmt.Fprintln(w, subtle(fmt.Sprintf("No messages match %q", query)))
		return
	}
	for _, m := range found {
		fmt.Fprintf(w, "%s %s\n", keyword(m.Category.Short()), highlight(m.Message, m.MatchedIndexes))
	}
}

// highlight styles the bytes of s at the matched offsets.
func highlight(s string, matched []int) string {
	hit := make(map[int]bool, len(matched))
	for _, i := range matched {
		hit[i] = true
	}
	var b strings.Builder
	for i, r := range s {
		if hit[i] {
			b.WriteString(matchStyle.Render(string(r)))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
