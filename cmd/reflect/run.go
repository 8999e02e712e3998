package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"ai-notes-reflect/internal/config"
	"ai-notes-reflect/internal/pkg/logger"
	"ai-notes-reflect/pkg/notesclient"
	"ai-notes-reflect/pkg/reflection"
	"ai-notes-reflect/pkg/reflection/fallback"
	"ai-notes-reflect/pkg/reflection/presenter"
	"ai-notes-reflect/pkg/reflection/stream"

	"github.com/spf13/cobra"
)

var (
	runNoteID string
	runMode   string
	runExport bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate a reflection for one note",
	Long: `Streams a reflection for --note in the given --mode
(socratic, structured, weekly or general; socratico, estructurado and
semanal are accepted too). When streaming fails the classic endpoint is
called once instead. With --export the result is saved as a sub-note.`,
	RunE: runReflect,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runNoteID, "note", "", "Id of the note to reflect on")
	runCmd.Flags().StringVar(&runMode, "mode", "socratic", "Reflection mode")
	runCmd.Flags().BoolVar(&runExport, "export", false, "Save the reflection as a sub-note")
	_ = runCmd.MarkFlagRequired("note")
}

func runReflect(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	log := logger.NewFileLogger(cfg.Client.LogFilePath)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := newPrinter(cmd.OutOrStdout())
	notes := notesclient.New(cfg.Client.APIBase, cfg.Client.APIToken)

	panel := stream.NewPanel(stream.Config{
		Transport: stream.NewSSETransport(cfg.Client.APIBase, cfg.Client.APIToken, log),
		Invoker: fallback.NewHTTPInvoker(cfg.Client.APIBase,
			fallback.WithToken(cfg.Client.APIToken),
			fallback.WithLogger(log),
		),
		Logger:    log,
		OnPartial: out.Partial,
	})

	req := stream.Request{SubjectID: runNoteID, Mode: reflection.ParseMode(runMode)}
	handle, err := panel.Start(ctx, req)
	if err != nil {
		return err
	}

	// Wait with a background context: an interrupt cancels the session, which
	// still reports its terminal outcome.
	outcome, err := handle.Wait(context.Background())
	if err != nil {
		return err
	}
	out.Outcome(outcome)

	if outcome.State == stream.StateCancelled {
		return nil
	}

	var exportErr error
	if runExport {
		exportErr = export(context.Background(), out, notes, outcome)
	}
	if outcome.State == stream.StateFallbackFailed {
		return outcome.Err
	}
	return exportErr
}

// exportNotes is the part of the notes API an export needs.
type exportNotes interface {
	notesclient.TitleLookup
	notesclient.NoteCreator
}

// export saves the final result, or the last partial when there is none, as
// a sub-note of the subject.
func export(ctx context.Context, out *printer, notes exportNotes, o stream.Outcome) error {
	v := o.Final
	if v == nil {
		v = o.Partial
	}
	if len(v) == 0 {
		out.Warn("Nothing to export: no reflection content was received.")
		return nil
	}

	title, err := notes.Title(ctx, o.Request.SubjectID)
	if err != nil {
		// the export still works with the default subject title
		out.Warn(fmt.Sprintf("Could not look up the note title: %v", err))
	}

	text := presenter.ExportText(v, o.Shape, title)
	note, err := notes.CreateChildNote(ctx, o.Request.SubjectID, presenter.DeriveTitle(text), text)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	out.Saved(note.Id, note.Title)
	return nil
}
