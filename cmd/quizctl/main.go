package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"quizclient/internal/account"
	"quizclient/internal/client"
	"quizclient/internal/config"
	"quizclient/internal/credentials"
	"quizclient/internal/database"
	"quizclient/internal/logger"
	"quizclient/internal/models"
	"quizclient/internal/repository"
	"quizclient/internal/session"
)

const usage = `usage: quizctl <command> [flags]

commands:
  login  -u USER -p PASS   sign in and store credentials
  me                       show the signed-in user
  play   -course ID [-n N] answer a quiz, resuming unfinished attempts
  logout                   clear stored credentials

Without REDIS_URL, credentials are kept in memory for a single run, so
"login" followed by "me" fails. Use "play -u USER -p PASS" to sign in and
play in one run.
`

type app struct {
	client   *client.Client
	account  *account.Account
	attempts session.AttemptStore
	closers  []func()
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	logger.Init(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Startup failed")
	}
	defer a.close()

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", client.Describe(err))
		a.close()
		os.Exit(1)
	}
}

// newApp wires durable stores when their URLs are configured and falls back
// to in-memory stores otherwise.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	var creds credentials.Store = credentials.NewMemoryStore()
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { redisClient.Close() })
		creds = credentials.NewRedisStore(redisClient, cfg.CredentialsNamespace)
	} else {
		log.Warn().Msg("REDIS_URL not set, credentials last for this run only")
	}

	a.attempts = repository.NewMemoryQuizStore()
	if cfg.DatabaseURL != "" {
		pool, err := database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		if err := database.RunMigrations(pool); err != nil {
			a.close()
			return nil, err
		}
		a.attempts = repository.NewQuizRepo(pool)
	} else {
		log.Debug().Msg("DATABASE_URL not set, attempts last for this run only")
	}

	a.client = client.New(creds, client.Options{
		BaseURL:           cfg.APIBaseURL,
		RetryLimit:        cfg.RetryLimit,
		RequestTimeout:    cfg.RequestTimeout,
		RefreshTimeout:    cfg.RefreshTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
	a.account = account.New(a.client)
	a.account.Restore(ctx)
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		fs := flag.NewFlagSet("login", flag.ContinueOnError)
		user := fs.String("u", "", "username")
		pass := fs.String("p", "", "password")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := a.account.Login(ctx, *user, *pass); err != nil {
			return err
		}
		fmt.Println("Signed in.")
		return nil

	case "me":
		u, err := a.account.LoadProfile(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s <%s> (%s)\n", u.Name, u.Email, u.ID)
		return nil

	case "play":
		fs := flag.NewFlagSet("play", flag.ContinueOnError)
		course := fs.String("course", "", "course id")
		n := fs.Int("n", 5, "number of questions for a new attempt")
		user := fs.String("u", "", "username, signs in first when set")
		pass := fs.String("p", "", "password")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *user != "" {
			if err := a.account.Login(ctx, *user, *pass); err != nil {
				return err
			}
		}
		if *course == "" {
			return errors.New("-course is required")
		}
		return a.play(ctx, *course, *n, os.Stdin, os.Stdout)

	case "logout":
		a.account.Logout(ctx)
		fmt.Println("Signed out.")
		return nil
	}

	fmt.Fprint(os.Stderr, usage)
	return fmt.Errorf("unknown command %q", cmd)
}

func (a *app) play(ctx context.Context, courseID string, n int, in io.Reader, out io.Writer) error {
	m := session.NewManager(a.client, a.attempts, a.client)
	if _, err := m.StartQuiz(ctx, courseID, n); err != nil {
		return err
	}
	printAlert(out, m.Snapshot().Alert)

	scanner := bufio.NewScanner(in)
	for {
		v := m.Snapshot()
		if v.Phase == session.PhaseFinished {
			fmt.Fprintf(out, "\nFinished: %d/%d correct.\n", v.Score, v.QuestionCount)
			return nil
		}
		q := v.Question
		if q == nil {
			return session.ErrNoQuestion
		}

		if !q.IsSubmitted {
			fmt.Fprintf(out, "\nQuestion %d/%d: %s\n", q.Index+1, v.QuestionCount, q.Text)
			for i, opt := range q.Options {
				fmt.Fprintf(out, "  %d) %s\n", i+1, opt)
			}
			fmt.Fprint(out, "> ")
			if !scanner.Scan() {
				fmt.Fprintln(out, "\nProgress saved.")
				return scanner.Err()
			}
			if err := recordAnswer(m, q, scanner.Text()); err != nil {
				fmt.Fprintln(out, "Invalid answer:", err)
				continue
			}
			correct, err := m.SubmitAnswer(ctx)
			if errors.Is(err, session.ErrNoAnswer) {
				fmt.Fprintln(out, "Please enter an answer.")
				continue
			}
			if err != nil {
				printAlert(out, m.Snapshot().Alert)
				// Only an unsaved but graded answer may move on.
				if cur := m.Snapshot().Question; cur == nil || !cur.IsSubmitted {
					continue
				}
			}
			if correct {
				fmt.Fprintln(out, "Correct!")
			} else {
				fmt.Fprintln(out, "Incorrect.")
			}
		}

		if err := m.AdvanceToNextQuestion(ctx); err != nil {
			printAlert(out, m.Snapshot().Alert)
			return err
		}
	}
}

func recordAnswer(m *session.Manager, q *session.QuestionView, input string) error {
	input = strings.TrimSpace(input)
	if q.Type != models.MultipleChoice {
		return m.SetTextAnswer(input)
	}
	choice, err := strconv.Atoi(input)
	if err != nil {
		return fmt.Errorf("enter an option number")
	}
	return m.SelectOption(choice - 1)
}

func printAlert(out io.Writer, alert *models.Alert) {
	if alert != nil {
		fmt.Fprintf(out, "[%s] %s\n", alert.Title, alert.Message)
	}
}
