package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dgnsrekt/nudge/internal/app"
	"github.com/dgnsrekt/nudge/internal/messages"
	"github.com/spf13/cobra"
)

var (
	speakCategory string

	speakCmd = &cobra.Command{
		Use:   "speak [TEXT]",
		Short: "Speak the message sequence once",
		Long: paragraph(fmt.Sprintf("\n%s the completion messages without waiting for the timer. Pass a category to hear one message from it, or some text to hear that instead.",
			keyword("Speak"))),
		Example: paragraph("nudge speak\nnudge speak --category motivation\nnudge speak \"Stand up and stretch\""),
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			return speak(cmd.Context(), a, cmd.OutOrStdout(), speakCategory, strings.Join(args, " "))
		},
	}
)

func init() {
	speakCmd.Flags().StringVarP(&speakCategory, "category", "c", "", "category number or name")
}

func speak(ctx context.Context, a *app.App, w io.Writer, category, text string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if text = strings.TrimSpace(text); text != "" {
		if err := a.Speech.SpeakText(ctx, text); err != nil {
			return fmt.Errorf("unable to speak: %w", err)
		}
		fmt.Fprintln(w, text)
		return nil
	}

	if category != "" {
		cat, err := messages.ParseCategory(category)
		if err != nil {
			return err
		}
		msg, err := a.Speech.Speak(ctx, cat)
		if err != nil {
			return fmt.Errorf("unable to speak: %w", err)
		}
		if msg == "" {
			return fmt.Errorf("no messages in %s", cat.Name())
		}
		fmt.Fprintf(w, "%s %s\n", keyword(cat.Short()), msg)
		return nil
	}

	spoken, err := a.Speech.PlaySequence(ctx)
	for _, u := range spoken {
		fmt.Fprintf(w, "%s %s\n", keyword(u.Category.Short()), u.Message)
	}
	if err != nil {
		return fmt.Errorf("unable to speak: %w", err)
	}
	if len(spoken) == 0 && !a.Settings.Get().Sound {
		fmt.Fprintln(w, subtle("Sound notifications are off, nothing to say."))
	}
	return nil
}
