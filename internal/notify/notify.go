// Package notify delivers direct messages to many users at once.
// Every recipient is attempted independently: a failed delivery is
// counted and never stops the rest
package notify

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"factionbot/internal/common"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var ErrInvalidTarget = errors.New("exactly one of user or role must be selected")

const (
	DefaultTimeout     = 10 * time.Second
	DefaultConcurrency = 1
)

// Target selects the recipients of a delivery
type Target struct {
	UserID   string
	RoleID   string
	Everyone bool
}

// Validate checks that exactly one way of selecting recipients is used
func (t Target) Validate() error {
	selected := 0
	if t.UserID != "" {
		selected++
	}
	if t.RoleID != "" {
		selected++
	}
	if t.Everyone {
		selected++
	}
	if selected != 1 {
		return ErrInvalidTarget
	}
	return nil
}

type Result struct {
	Sent   int
	Failed int
}

// Directory resolves the human members of the group
type Directory interface {
	// Members returns the non-bot members holding the role,
	// or every non-bot member if the role is empty
	Members(ctx context.Context, roleID string) ([]string, error)
}

type Sender interface {
	SendDirect(ctx context.Context, userID string, message *discordgo.MessageSend) error
}

type Config struct {
	// Per-recipient delivery timeout
	Timeout time.Duration
	// Deliveries in flight at once
	Concurrency int
	// Pacing of the deliveries, none if empty
	Restrictions []common.Restriction
	Registerer   prometheus.Registerer
}

type Notifier struct {
	directory   Directory
	sender      Sender
	limiter     *common.RateLimiter
	timeout     time.Duration
	concurrency int
	deliveries  *prometheus.CounterVec
}

func NewNotifier(directory Directory, sender Sender, config Config) *Notifier {
	n := &Notifier{
		directory:   directory,
		sender:      sender,
		timeout:     config.Timeout,
		concurrency: config.Concurrency,
	}
	if n.timeout <= 0 {
		n.timeout = DefaultTimeout
	}
	if n.concurrency <= 0 {
		n.concurrency = DefaultConcurrency
	}
	if len(config.Restrictions) > 0 {
		n.limiter = common.NewRateLimiter(config.Restrictions)
	}
	n.deliveries = promauto.With(config.Registerer).NewCounterVec(prometheus.CounterOpts{
		Name: "factionbot_dm_deliveries_total",
		Help: "Direct message deliveries by result",
	}, []string{"result"})
	return n
}

// Resolve the recipients of the target, once, from the current membership
func (n *Notifier) Resolve(ctx context.Context, target Target) ([]string, error) {

	if err := target.Validate(); err != nil {
		return nil, err
	}
	if target.UserID != "" {
		return []string{target.UserID}, nil
	}
	members, err := n.directory.Members(ctx, target.RoleID)
	if err != nil {
		return nil, fmt.Errorf("could not resolve members: %w", err)
	}
	// The same user must not get the message twice
	slices.Sort(members)
	return slices.Compact(members), nil
}

// Send validates the target before resolving it and delivering anything
func (n *Notifier) Send(ctx context.Context, target Target, message *discordgo.MessageSend) (Result, error) {
	recipients, err := n.Resolve(ctx, target)
	if err != nil {
		return Result{}, err
	}
	return n.Deliver(ctx, recipients, message), nil
}

// Deliver the message to every recipient
func (n *Notifier) Deliver(ctx context.Context, recipients []string, message *discordgo.MessageSend) Result {

	jobID := uuid.New()
	stopwatch := common.NewStopwatch(0)
	stopwatch.Start()
	log.Debug().Str("job", jobID.String()).Int("recipients", len(recipients)).Msg("Starting delivery")

	var sent, failed atomic.Int64
	var group errgroup.Group
	group.SetLimit(n.concurrency)
	for _, userID := range recipients {
		group.Go(func() error {
			if err := n.deliverOne(ctx, userID, message); err != nil {
				log.Debug().Err(err).Str("job", jobID.String()).Str("user", userID).Msg("Delivery failed")
				failed.Add(1)
				n.deliveries.WithLabelValues("failed").Inc()
				return nil
			}
			sent.Add(1)
			n.deliveries.WithLabelValues("sent").Inc()
			return nil
		})
	}
	// Deliveries never return errors, failures are only counted
	_ = group.Wait()

	result := Result{Sent: int(sent.Load()), Failed: int(failed.Load())}
	log.Info().
		Str("job", jobID.String()).
		Int("sent", result.Sent).
		Int("failed", result.Failed).
		Dur("elapsed", stopwatch.Elapsed()).
		Msg("Delivery finished")
	return result
}

func (n *Notifier) deliverOne(ctx context.Context, userID string, message *discordgo.MessageSend) error {

	if n.limiter != nil {
		if err := n.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	// A sender that ignores the context still cannot hold up the rest
	done := make(chan error, 1)
	go func() {
		done <- n.sender.SendDirect(ctx, userID, message)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
