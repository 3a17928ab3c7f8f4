// Package moderator screens submitted reviews and files reports against the
// movie when a review breaks the content rules. Reports are filed as the
// automod system user and land in the regular moderation queue.
package moderator

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cinereview/backend/internal/models"
)

// BannedWords is the default word list applied to review titles and text.
var BannedWords = []string{
	"fuck", "fucking", "fucker", "shit", "shitty", "bullshit",
	"asshole", "bastard", "bitch", "cunt",
	"nigger", "nigga", "chink", "spic", "kike", "faggot", "fag",
	"retard", "retarded", "tranny",
	"porn", "porno", "nude", "nudes",
	"scam", "scammer", "phishing", "malware",
}

const (
	spamWindow    = 10 * time.Second
	spamThreshold = 3
	queueSize     = 256
)

// ReportFiler is the part of the moderation engine the screener needs.
type ReportFiler interface {
	CreateReport(ctx context.Context, reporterID, movieID, reason string, description *string) (*models.Report, error)
}

// Submission is a review as it was accepted by the API.
type Submission struct {
	MovieID  string
	UserID   string
	Username string
	Title    string
	Text     string
}

type recentReview struct {
	text string
	ts   time.Time
}

// Screener checks reviews against a banned-word list and flags users who
// post the same text repeatedly within a short window.
type Screener struct {
	reports ReportFiler
	botUser string
	log     *zap.Logger
	now     func() time.Time

	banned []bannedWord
	queue  chan Submission

	recentMu sync.Mutex
	recent   map[string][]recentReview // key: userID
}

type bannedWord struct {
	word string
	re   *regexp.Regexp
}

// Option configures a Screener.
type Option func(*Screener)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *Screener) { s.now = now } }

// WithWords replaces the banned-word list.
func WithWords(words []string) Option {
	return func(s *Screener) { s.banned = compileWords(words) }
}

// NewScreener returns a screener that files reports as botUser.
func NewScreener(reports ReportFiler, botUser string, log *zap.Logger, opts ...Option) *Screener {
	s := &Screener{
		reports: reports,
		botUser: botUser,
		log:     log.Named("automod"),
		now:     time.Now,
		banned:  compileWords(BannedWords),
		queue:   make(chan Submission, queueSize),
		recent:  make(map[string][]recentReview),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func compileWords(words []string) []bannedWord {
	out := make([]bannedWord, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		out = append(out, bannedWord{
			word: w,
			re:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`),
		})
	}
	return out
}

// Submit queues a review for screening. It never blocks; when the queue is
// full the review is skipped and false is returned.
func (s *Screener) Submit(sub Submission) bool {
	select {
	case s.queue <- sub:
		return true
	default:
		s.log.Warn("screening queue full, review skipped",
			zap.String("movie_id", sub.MovieID),
			zap.String("user_id", sub.UserID),
		)
		return false
	}
}

// Run screens queued reviews until ctx is cancelled.
func (s *Screener) Run(ctx context.Context) {
	s.log.Info("review screener started")
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Forget()
		case <-ctx.Done():
			s.log.Info("review screener stopped")
			return
		case sub := <-s.queue:
			if _, err := s.Screen(ctx, sub); err != nil {
				s.log.Error("failed to file automated report",
					zap.String("movie_id", sub.MovieID),
					zap.String("user_id", sub.UserID),
					zap.Error(err),
				)
			}
		}
	}
}

// Screen checks one review and files a report when it violates a rule. It
// returns the filed report, or nil when the review is clean.
func (s *Screener) Screen(ctx context.Context, sub Submission) (*models.Report, error) {
	reason, ok := s.Check(sub)
	if !ok {
		return nil, nil
	}

	desc := fmt.Sprintf("Review by %s (%s): %q", displayName(sub), sub.UserID, excerpt(sub.Text, 200))
	report, err := s.reports.CreateReport(ctx, s.botUser, sub.MovieID, reason, &desc)
	if err != nil {
		return nil, err
	}
	s.log.Info("automated report filed",
		zap.String("report_id", report.ReportID),
		zap.String("movie_id", sub.MovieID),
		zap.String("user_id", sub.UserID),
		zap.String("reason", reason),
	)
	return report, nil
}

// Check applies the content rules and returns the violation, if any. Every
// call counts toward the user's repeat history, flagged or not.
func (s *Screener) Check(sub Submission) (string, bool) {
	seen := s.repeats(sub)

	for _, bw := range s.banned {
		if bw.re.MatchString(sub.Title) || bw.re.MatchString(sub.Text) {
			return fmt.Sprintf("Automated: banned word %q in review", bw.word), true
		}
	}

	// The spamThreshold-th identical review inside spamWindow is flagged.
	if seen >= spamThreshold {
		return "Automated: repeated identical reviews", true
	}
	return "", false
}

// repeats records sub and returns how many identical reviews the user has
// posted inside the window, sub included.
func (s *Screener) repeats(sub Submission) int {
	body := strings.TrimSpace(strings.ToLower(sub.Text))
	now := s.now()

	s.recentMu.Lock()
	defer s.recentMu.Unlock()

	kept := s.recent[sub.UserID][:0:0]
	count := 1
	for _, r := range s.recent[sub.UserID] {
		if now.Sub(r.ts) > spamWindow {
			continue
		}
		kept = append(kept, r)
		if r.text == body {
			count++
		}
	}
	s.recent[sub.UserID] = append(kept, recentReview{text: body, ts: now})
	return count
}

// Forget drops repeat history older than the spam window.
func (s *Screener) Forget() {
	now := s.now()
	s.recentMu.Lock()
	defer s.recentMu.Unlock()
	for user, list := range s.recent {
		fresh := list[:0]
		for _, r := range list {
			if now.Sub(r.ts) <= spamWindow {
				fresh = append(fresh, r)
			}
		}
		if len(fresh) == 0 {
			delete(s.recent, user)
			continue
		}
		s.recent[user] = fresh
	}
}

func displayName(sub Submission) string {
	if sub.Username != "" {
		return sub.Username
	}
	return "unknown"
}

func excerpt(text string, n int) string {
	r := []rune(strings.TrimSpace(text))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
