package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vettahq/vetta/internal/earnings"
	"github.com/vettahq/vetta/internal/ingest"
	"github.com/vettahq/vetta/internal/output"
	"github.com/vettahq/vetta/internal/stt"
)

func newEarningsCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "earnings",
		Short: "Ingest and process earnings calls",
	}
	cmd.AddCommand(newProcessCmd(app))
	return cmd
}

type processFlags struct {
	file        string
	ticker      string
	year        int
	quarter     string
	out         string
	print       bool
	language    string
	prompt      string
	diarization bool
	numSpeakers int
}

func newProcessCmd(app *appState) *cobra.Command {
	var flags processFlags

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Transcribe an earnings-call audio or video file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runProcess(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Audio/video file to process")
	cmd.Flags().StringVarP(&flags.ticker, "ticker", "t", "", "Company ticker symbol, e.g. AAPL")
	cmd.Flags().IntVarP(&flags.year, "year", "y", 0, "Fiscal year of the call")
	cmd.Flags().StringVarP(&flags.quarter, "quarter", "q", "", "Fiscal quarter (Q1-Q4)")
	cmd.Flags().StringVar(&flags.out, "out", "", "Write the transcript to this path (.txt, .srt or .md)")
	cmd.Flags().BoolVar(&flags.print, "print", false, "Print the transcript to stdout")
	cmd.Flags().StringVar(&flags.language, "language", "", "Language hint (defaults from config)")
	cmd.Flags().StringVar(&flags.prompt, "prompt", "", "Initial prompt biasing the model (defaults from config)")
	cmd.Flags().BoolVar(&flags.diarization, "diarization", false, "Request speaker diarization")
	cmd.Flags().IntVar(&flags.numSpeakers, "num-speakers", 0, "Expected speaker count when diarization is on")

	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("ticker")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("quarter")

	return cmd
}

func (a *appState) runProcess(cmd *cobra.Command, flags processFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	quarter, err := earnings.ParseQuarter(flags.quarter)
	if err != nil {
		return err
	}
	meta := earnings.CallMeta{Ticker: flags.ticker, Year: flags.year, Quarter: quarter}
	if err := meta.Validate(); err != nil {
		return err
	}

	audioPath, err := filepath.Abs(flags.file)
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}

	info, err := ingest.Validate(audioPath)
	if err != nil {
		return withHint(fmt.Errorf("validation failed: %w", err))
	}

	cfg, err := a.resolveConfig()
	if err != nil {
		return err
	}

	opts := stt.Options{
		Language:      cfg.Language,
		Diarization:   cfg.Diarization,
		NumSpeakers:   cfg.NumSpeakers,
		InitialPrompt: cfg.InitialPrompt,
	}
	if cmd.Flags().Changed("language") {
		opts.Language = flags.language
	}
	if cmd.Flags().Changed("prompt") {
		opts.InitialPrompt = flags.prompt
	}
	if cmd.Flags().Changed("diarization") {
		opts.Diarization = flags.diarization
	}
	if cmd.Flags().Changed("num-speakers") {
		opts.NumSpeakers = flags.numSpeakers
	}

	strategy, err := a.buildStrategy(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := strategy.Close(); err != nil {
			a.log().Warn("failed to close strategy", zap.Error(err))
		}
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Processing %s\n", meta.Label())
	fmt.Fprintf(cmd.OutOrStdout(), "  input:  %s (%s)\n", audioPath, info.Description())
	fmt.Fprintf(cmd.OutOrStdout(), "  socket: %s\n", cfg.SocketPath)

	a.log().Info("starting transcription",
		zap.String("call", meta.Slug()),
		zap.String("audio", audioPath),
		zap.String("strategy", cfg.Strategy),
		zap.String("format", info.MIME))

	segments, err := a.consumeTranscription(ctx, strategy, audioPath, opts)
	if err != nil {
		return withHint(err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Transcription finished (%d segments)\n", len(segments))

	doc := output.Document{
		Meta:      meta,
		Source:    audioPath,
		Strategy:  cfg.Strategy,
		Generated: a.now(),
		Segments:  segments,
	}

	if flags.out != "" {
		format := output.DetectFormat(flags.out)
		if err := os.WriteFile(flags.out, []byte(output.Render(doc, format)), 0o644); err != nil {
			return fmt.Errorf("write transcript to %s: %w", flags.out, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Transcript written to %s (%s)\n", flags.out, format)
	}

	if flags.print {
		fmt.Fprint(a.outWriter(), output.Render(doc, output.FormatText))
	}

	return nil
}

// consumeTranscription drives one request and drains its stream,
// keeping the progress display in step with arriving segments.
func (a *appState) consumeTranscription(ctx context.Context, strategy stt.Strategy, audioPath string, opts stt.Options) ([]stt.Segment, error) {
	started := a.now()

	stream, err := strategy.Transcribe(ctx, audioPath, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := stream.Close(); err != nil {
			a.log().Warn("failed to close stream", zap.Error(err))
		}
	}()

	tick, stopProgress := startSegmentProgress(a.progressEnabled())
	defer stopProgress()

	var segments []stt.Segment
	for {
		seg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			stopProgress()
			a.log().Warn("transcription failed",
				zap.Int("segments_delivered", len(segments)),
				zap.Duration("elapsed", time.Since(started)),
				zap.Error(err))
			return nil, err
		}
		segments = append(segments, seg)
		tick(len(segments))
	}

	stopProgress()
	a.log().Info("transcription complete",
		zap.Int("segments", len(segments)),
		zap.Duration("elapsed", time.Since(started)))
	return segments, nil
}
