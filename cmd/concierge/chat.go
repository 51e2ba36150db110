package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moonpalace/concierge/internal/hotelapi"
	"github.com/moonpalace/concierge/internal/sysutil"
	"github.com/moonpalace/concierge/internal/utils"
	"github.com/moonpalace/concierge/internal/widget"
)

const chatHelp = `Lệnh:
  /reset            kết thúc cuộc trò chuyện (hỏi đánh giá trước)
  /reset!           bắt đầu lại ngay
  /feedback N [ý kiến]  gửi đánh giá 1-5
  /skip             bỏ qua đánh giá
  /human            gặp nhân viên
  /quit             thoát
Nhập số để chọn gợi ý nhanh.`

type chatOptions struct {
	profile string
	userID  string
	name    string
	token   string
}

func newChatCmd(a *app) *cobra.Command {
	var opts chatOptions
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the hotel assistant from the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return a.chat(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.profile, "profile", "terminal", "profile the persisted session id is stored under")
	f.StringVar(&opts.userID, "user-id", "", "signed-in user id")
	f.StringVar(&opts.name, "name", "", "display name used in the greeting (default $CONCIERGE_NAME)")
	f.StringVar(&opts.token, "token", "", "bearer token forwarded to the hotel API (default $CONCIERGE_TOKEN)")
	return cmd
}

func (a *app) chat(ctx context.Context, in io.Reader, out io.Writer, opts chatOptions) error {
	d, err := a.openDeps(ctx)
	if err != nil {
		return err
	}
	defer d.close()

	w, err := a.factory(d)(ctx, opts.profile)
	if err != nil {
		return err
	}
	w.SetUser(widget.User{
		ID:   opts.userID,
		Name: strings.TrimSpace(sysutil.FirstNonEmpty(opts.name, os.Getenv("CONCIERGE_NAME"))),
	})
	ctx = hotelapi.WithBearer(ctx, sysutil.FirstNonEmpty(opts.token, os.Getenv("CONCIERGE_TOKEN")))

	s := &session{w: w, out: out}
	fmt.Fprintln(out, renderNotice(chatHelp))
	w.Open(ctx)
	if w.SessionID() == "" {
		_ = w.StartNewSession(ctx)
	}
	s.flush()

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		quit, err := s.handle(ctx, sc.Text())
		if err != nil {
			fmt.Fprintln(out, renderNotice(err.Error()))
		}
		s.flush()
		if quit || ctx.Err() != nil {
			return nil
		}
	}
}

// session is one terminal conversation. It prints transcript entries as
// they appear and reprints everything when a reset clears the transcript.
type session struct {
	w     *widget.Widget
	out   io.Writer
	epoch uint64
	shown int
}

func (s *session) flush() {
	snap := s.w.Snapshot(s.shown)
	if snap.Epoch != s.epoch || snap.Total < s.shown {
		fmt.Fprintln(s.out, renderNotice("── cuộc trò chuyện mới ──"))
		snap = s.w.Snapshot(0)
	}
	for _, m := range snap.Messages {
		fmt.Fprint(s.out, renderMessage(m))
	}
	s.epoch, s.shown = snap.Epoch, snap.Total
	if snap.FeedbackOpen {
		fmt.Fprintln(s.out, renderNotice("Bạn hài lòng với cuộc trò chuyện chứ? /feedback 1-5 [ý kiến] hoặc /skip"))
	}
}

var errUnknownCommand = errors.New("lệnh không hợp lệ, gõ /help")

func (s *session) handle(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	if !strings.HasPrefix(line, "/") {
		_, err := s.w.Send(ctx, s.expandQuickReply(line))
		return false, err
	}

	cmd, rest, _ := strings.Cut(line, " ")
	switch cmd {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Fprintln(s.out, renderNotice(chatHelp))
	case "/reset":
		_, err := s.w.RequestReset(ctx)
		return false, err
	case "/reset!":
		return false, s.w.ForceReset(ctx)
	case "/skip":
		s.w.DismissFeedback()
	case "/feedback":
		rating, comment, _ := strings.Cut(strings.TrimSpace(rest), " ")
		res, err := s.w.SubmitFeedback(ctx, utils.AtoiDefault(rating, -1), strings.TrimSpace(comment))
		if err != nil {
			return false, err
		}
		if res == widget.FeedbackSent {
			fmt.Fprintln(s.out, renderNotice("Cảm ơn bạn đã đánh giá!"))
		}
	case "/human":
		return false, s.w.RequestHuman(ctx)
	default:
		return false, errUnknownCommand
	}
	return false, nil
}

// expandQuickReply maps "2" onto the value of the second quick reply of the
// last transcript entry.
func (s *session) expandQuickReply(line string) string {
	n := utils.AtoiDefault(line, 0)
	if n <= 0 {
		return line
	}
	snap := s.w.Snapshot(0)
	if len(snap.Messages) == 0 {
		return line
	}
	if qr := snap.Messages[len(snap.Messages)-1].QuickReplies; n <= len(qr) {
		return qr[n-1].Value
	}
	return line
}
