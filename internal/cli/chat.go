package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/soyeahso/frontdesk/internal/domain"
	"github.com/soyeahso/frontdesk/internal/engine"
	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	var (
		lang   string
		voice  bool
		memory bool
		caller string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the receptionist in the terminal",
		Long: "Starts a local session and reads turns from stdin. Lines starting with\n" +
			"/press are sent as keypad digits, e.g. \"/press 1\". /quit ends the call.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			dbPath := ":memory:"
			if !memory {
				if err := paths.EnsureDirs(); err != nil {
					return err
				}
				dbPath = paths.StorePath(cfg.Store)
			}

			a, err := buildApp(cfg, dbPath, log)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			mode := domain.ModeChat
			if voice {
				mode = domain.ModeVoice
			}
			return runChat(ctx, a.engine, engine.Start{
				SessionID:     "cli-" + uuid.New().String(),
				CallerAddress: caller,
				Mode:          mode,
				Language:      domain.Language(lang),
			}, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "", "session language (en, hi, mr)")
	cmd.Flags().BoolVar(&voice, "voice", false, "start like a phone call, with the language menu")
	cmd.Flags().BoolVar(&memory, "memory", false, "use a throwaway in-memory booking store")
	cmd.Flags().StringVar(&caller, "caller", "", "caller phone number, used for \"same number\"")

	return cmd
}

// runChat drives one session from in until the receptionist hangs up, the
// caller types /quit, or in is exhausted.
func runChat(ctx context.Context, eng *engine.Engine, st engine.Start, in io.Reader, out io.Writer) error {
	reply, err := eng.Begin(ctx, st)
	if err != nil {
		return err
	}
	printReply(out, reply)
	defer eng.End(context.Background(), st.SessionID)

	scanner := bufio.NewScanner(in)
	for !reply.Directive.Hangup {
		fmt.Fprint(out, "you> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			return nil
		}

		turn := domain.Turn{SessionID: st.SessionID, CallerAddress: st.CallerAddress}
		if digits, ok := strings.CutPrefix(line, "/press"); ok {
			turn.Digits = strings.TrimSpace(digits)
		} else {
			turn.Utterance = line
		}

		reply, err = eng.HandleTurn(ctx, turn)
		if err != nil && !errors.Is(err, engine.ErrSessionNotFound) {
			return err
		}
		printReply(out, reply)
		if ctx.Err() != nil {
			return nil
		}
	}
	return nil
}

func printReply(out io.Writer, r domain.Reply) {
	fmt.Fprintf(out, "frontdesk [%s/%s]> %s\n", r.Language, r.State, r.Text)
}
