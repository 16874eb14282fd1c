package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Conceptual-Machines/magda-jam/internal/conductor"
	"github.com/Conceptual-Machines/magda-jam/internal/logger"
	"github.com/Conceptual-Machines/magda-jam/internal/lyria"
	"github.com/Conceptual-Machines/magda-jam/internal/models"
	"github.com/caarlos0/ctrlc"
	"github.com/spf13/cobra"
)

var jamCmd = &cobra.Command{
	Use:   "jam",
	Short: "Play music and steer it with typed commands",
	Long: `Start a local music session. Each line typed is a command such as
"play some deep house" or "make it faster". Lines starting with ':' control
playback directly:

  :play  :pause  :stop  :toggle  :reset  :status  :help  :quit`,
	RunE: runJam,
}

func init() {
	jamCmd.Flags().Bool("headless", false, "run without an audio device (use with --record)")
	jamCmd.Flags().String("record", "", "save everything played to this WAV file")
	jamCmd.Flags().String("provider", "", "interpreter provider: gemini or openai (overrides INTERPRETER_PROVIDER)")
	jamCmd.Flags().String("session", "", "session id used for history and tracing")
	rootCmd.AddCommand(jamCmd)
}

func runJam(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if cfg.GoogleAPIKey == "" {
		return errors.New("GOOGLE_API_KEY is required for the music session")
	}

	flush := initSentry(cfg)
	defer flush()

	out := newSyncWriter(cmd.OutOrStdout())
	logger.SetOutput(cmd.ErrOrStderr())

	t := newTelemetry(ctx, cfg)
	defer t.flush(context.Background())

	provider, _ := cmd.Flags().GetString("provider")
	interp, err := newInterpreter(ctx, cfg, t, provider)
	if err != nil {
		return err
	}

	var rec *lyria.Recorder
	if path, _ := cmd.Flags().GetString("record"); path != "" {
		rec = lyria.NewRecorder(path)
	}

	var output lyria.Output
	if headless, _ := cmd.Flags().GetBool("headless"); headless {
		output = lyria.NewHeadlessOutput(rec)
	} else {
		speaker, err := lyria.NewSpeakerOutput(cfg.AudioBuffer, rec)
		if err != nil {
			return err
		}
		output = speaker
	}
	defer func() {
		if err := output.Close(); err != nil {
			log.Printf("⚠️  %v", err)
		} else if rec != nil {
			fmt.Fprintf(out, "💾 Saved %s of audio\n", rec.Duration())
		}
	}()

	manager := lyria.NewManager(lyria.Options{
		Dialer:     lyria.NewWebSocketDialer(cfg.LyriaURL, cfg.GoogleAPIKey, cfg.LyriaModel),
		Output:     output,
		BufferLead: cfg.BufferLead,
	})
	defer manager.Close()

	defer manager.Subscribe(t.metrics.SessionListener())()
	defer manager.Subscribe(func(e lyria.Event) {
		if line := renderEvent(e); line != "" {
			fmt.Fprintln(out, line)
		}
	})()

	opts := []conductor.Option{}
	if id, _ := cmd.Flags().GetString("session"); id != "" {
		opts = append(opts, conductor.WithSessionID(id))
	}
	_, history, err := openHistory(cfg)
	if err != nil {
		log.Printf("⚠️  %v", err)
	} else if history != nil {
		opts = append(opts, conductor.WithHistory(history))
	}

	session := &jamSession{
		player:    manager,
		conductor: conductor.New(interp, manager, opts...),
		out:       out,
	}
	fmt.Fprintln(out, titleStyle.Render("🎵 MAGDA Jam")+"  type a command, :help for controls")

	err = ctrlc.Default.Run(ctx, func() error {
		return session.run(ctx, os.Stdin)
	})
	var sig ctrlc.ErrorCtrlC
	if errors.As(err, &sig) {
		return nil
	}
	return err
}

// player is the playback surface the jam loop controls. *lyria.Manager implements it.
type player interface {
	Play(ctx context.Context) error
	Pause(ctx context.Context)
	Stop(ctx context.Context)
	PlayPause(ctx context.Context) error
	PlaybackState() lyria.PlaybackState
	CurrentTime() time.Duration
}

type commandHandler interface {
	HandleCommand(ctx context.Context, transcript string) (*conductor.Outcome, error)
	Reset(ctx context.Context)
	Snapshot() conductor.Snapshot
}

type jamSession struct {
	player    player
	conductor commandHandler
	out       io.Writer
}

var errQuit = errors.New("quit")

// run reads one command per line until EOF or :quit
func (s *jamSession) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := s.handleLine(ctx, scanner.Text()); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			return err
		}
	}
	return scanner.Err()
}

func (s *jamSession) handleLine(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, ":") {
		s.command(ctx, line)
		return nil
	}

	switch strings.ToLower(line) {
	case ":play":
		s.report(s.player.Play(ctx))
	case ":pause":
		s.player.Pause(ctx)
	case ":stop":
		s.player.Stop(ctx)
	case ":toggle":
		s.report(s.player.PlayPause(ctx))
	case ":reset":
		s.conductor.Reset(ctx)
		fmt.Fprintln(s.out, dimStyle.Render("session reset"))
	case ":status":
		fmt.Fprintln(s.out, renderStatus(s.player.PlaybackState(), s.player.CurrentTime(), s.conductor.Snapshot()))
	case ":help":
		fmt.Fprintln(s.out, dimStyle.Render(":play :pause :stop :toggle :reset :status :quit"))
	case ":quit", ":q", ":exit":
		return errQuit
	default:
		fmt.Fprintln(s.out, errorStyle.Render("unknown control "+line+" (try :help)"))
	}
	return nil
}

func (s *jamSession) command(ctx context.Context, transcript string) {
	fmt.Fprintln(s.out, dimStyle.Render("🎤 "+transcript))
	outcome, err := s.conductor.HandleCommand(ctx, transcript)
	if err != nil {
		s.report(err)
		return
	}
	fmt.Fprintln(s.out, renderOutcome(outcome))
}

func (s *jamSession) report(err error) {
	if err != nil {
		fmt.Fprintln(s.out, errorStyle.Render("✗ "+err.Error()))
	}
}

// syncWriter serialises writes from the command loop and event listeners
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func newSyncWriter(w io.Writer) *syncWriter {
	return &syncWriter{w: w}
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func promptList(prompts []models.WeightedPrompt) string {
	parts := make([]string, 0, len(prompts))
	for _, p := range prompts {
		parts = append(parts, fmt.Sprintf("%s (%.1f)", p.Text, p.Weight))
	}
	return strings.Join(parts, ", ")
}
