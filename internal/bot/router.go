package bot

import (
	"context"
	"errors"
	"fmt"

	"factionbot/internal/common"
	"factionbot/internal/faction"
	"factionbot/internal/notify"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

const outcomeOK = "ok"

// Router runs the parsed commands. It holds no state between invocations
type Router struct {
	registry *faction.Registry
	trust    *faction.TrustPolicy
	notifier *notify.Notifier
	metrics  *metrics
}

func NewRouter(registry *faction.Registry, trust *faction.TrustPolicy, notifier *notify.Notifier, registerer prometheus.Registerer) *Router {
	return &Router{
		registry: registry,
		trust:    trust,
		notifier: notifier,
		metrics:  newMetrics(registerer),
	}
}

// Dispatch runs the command and answers the invoker through the replier.
// Unknown commands are dropped without an answer
func (router *Router) Dispatch(ctx context.Context, result ParseResult, actor faction.Actor, replier Replier) {

	out := &onceReplier{replier: replier}

	switch result.parseid {
	case PARSEID_OK:
	case PARSEID_COMMAND_NOT_RECOGNISED:
		log.Warn().Str("command", result.name).Str("actor", actor.ID).Msg("Ignoring unknown command")
		return
	default:
		log.Info().Str("command", result.name).Msgf("Wrong input: %s", result.errorMessage)
		router.send(out, InputNotValid(result.errorMessage))
		router.metrics.commands.WithLabelValues(result.name, "invalid").Inc()
		return
	}

	stopwatch := common.NewStopwatch(0)
	stopwatch.Start()
	response, outcome := router.run(ctx, result, actor, out)
	if response != nil {
		router.send(out, response)
	}

	elapsed := stopwatch.Elapsed()
	router.metrics.commands.WithLabelValues(result.name, outcome).Inc()
	router.metrics.duration.WithLabelValues(result.name).Observe(elapsed.Seconds())
	log.Info().
		Str("command", result.name).
		Str("actor", actor.ID).
		Str("outcome", outcome).
		Dur("elapsed", elapsed).
		Msg("Command handled")
}

func (router *Router) run(ctx context.Context, result ParseResult, actor faction.Actor, out *onceReplier) (response Response, outcome string) {

	// A failing command must never take the bot down
	defer func() {
		if p := recover(); p != nil {
			log.Error().Str("command", result.name).Msgf("Panic while handling command: %v", p)
			response, outcome = SomethingWentWrong(), faction.KindUnexpected.String()
		}
	}()

	spec, _ := specOf(result.name)
	allowed, err := router.authorize(ctx, spec.privilege, actor)
	if err != nil {
		log.Error().Err(err).Str("command", result.name).Msg("Could not check permissions")
		return SomethingWentWrong(), faction.KindUnexpected.String()
	}
	if !allowed {
		log.Info().Str("command", result.name).Str("actor", actor.ID).Msg("Command not permitted")
		return NotPermitted(result.name), faction.KindUnauthorized.String()
	}

	response, err = router.handle(ctx, result.command, actor, out)
	if err == nil {
		return response, outcomeOK
	}
	if !expected(err) {
		log.Error().Err(err).Str("command", result.name).Msg("Could not handle command")
		return SomethingWentWrong(), faction.KindUnexpected.String()
	}
	log.Debug().Err(err).Str("command", result.name).Msg("Command rejected")
	return response, outcomeOf(err)
}

func (router *Router) authorize(ctx context.Context, privilege Privilege, actor faction.Actor) (bool, error) {
	switch privilege {
	case PRIVILEGE_NONE:
		return true, nil
	case PRIVILEGE_ADMIN:
		return actor.Admin, nil
	default:
		return router.trust.IsTrusted(ctx, actor)
	}
}

func (router *Router) send(out *onceReplier, response Response) {
	if err := out.Send(response); err != nil {
		log.Error().Err(err).Msg("Could not send response")
	}
}

// Errors that are answered with a specific message instead of a generic failure
func expected(err error) bool {
	return errors.Is(err, notify.ErrInvalidTarget) || faction.KindOf(err) != faction.KindUnexpected
}

func outcomeOf(err error) string {
	if errors.Is(err, notify.ErrInvalidTarget) {
		return "invalid"
	}
	return faction.KindOf(err).String()
}

func (router *Router) handle(ctx context.Context, command Command, actor faction.Actor, out *onceReplier) (Response, error) {
	switch c := command.(type) {
	case FactionCreate:
		return router.factionCreate(ctx, c)
	case FactionDelete:
		return router.factionDelete(ctx, c)
	case FactionJoin:
		return router.factionJoin(ctx, c, actor)
	case FactionLeave:
		return router.factionLeave(ctx, actor)
	case FactionLeader:
		return router.factionLeader(ctx, c)
	case CheckIn:
		return router.checkIn(ctx, actor)
	case Leaderboard:
		return router.leaderboard(ctx)
	case WeeklyReset:
		return router.weeklyReset(ctx)
	case WarDeclare:
		return router.warDeclare(ctx, c, actor)
	case Help:
		return HelpMessage(), nil
	case FactionAddMember:
		return router.factionAddMember(ctx, c)
	case FactionRemoveMember:
		return router.factionRemoveMember(ctx, c)
	case FactionInfo:
		return router.factionInfo(ctx, c)
	case FactionMembers:
		return router.factionMembers(ctx, c)
	case TrustRole:
		return router.trustRole(ctx, c)
	case DirectMessage:
		return router.directMessage(ctx, c, out)
	case UrgentMessage:
		return router.urgentMessage(ctx, c, out)
	default:
		panic(fmt.Sprintf("Command %T is not one of the possible ones", command))
	}
}

func (router *Router) factionCreate(ctx context.Context, c FactionCreate) (Response, error) {
	err := router.registry.Create(ctx, c.Name)
	switch {
	case err == nil:
		return FactionCreated(c.Name), nil
	case errors.Is(err, faction.ErrAlreadyExists):
		return FactionAlreadyExists(c.Name), err
	default:
		return nil, err
	}
}

func (router *Router) factionDelete(ctx context.Context, c FactionDelete) (Response, error) {
	if _, err := router.registry.Delete(ctx, c.Name); err != nil {
		return nil, err
	}
	return FactionDeleted(c.Name), nil
}

func (router *Router) factionJoin(ctx context.Context, c FactionJoin, actor faction.Actor) (Response, error) {
	err := router.registry.Join(ctx, actor.ID, c.Name)
	var affiliation *faction.AffiliationError
	switch {
	case err == nil:
		return FactionJoined(c.Name), nil
	case errors.Is(err, faction.ErrAlreadyMember):
		return AlreadyInThisFaction(), err
	case errors.As(err, &affiliation):
		return AlreadyInOtherFaction(affiliation.Faction), err
	case errors.Is(err, faction.ErrNotFound):
		return FactionDoesNotExist(c.Name), err
	default:
		return nil, err
	}
}

func (router *Router) factionLeave(ctx context.Context, actor faction.Actor) (Response, error) {
	name, err := router.registry.Leave(ctx, actor.ID)
	switch {
	case err == nil:
		return FactionLeft(name), nil
	case errors.Is(err, faction.ErrNotInFaction):
		return NotInFaction(), err
	default:
		return nil, err
	}
}

func (router *Router) factionLeader(ctx context.Context, c FactionLeader) (Response, error) {
	if err := router.registry.AssignLeader(ctx, c.Faction, c.UserID); err != nil {
		return nil, err
	}
	return LeaderAssigned(c.UserID, c.Faction), nil
}

func (router *Router) checkIn(ctx context.Context, actor faction.Actor) (Response, error) {
	name, err := router.registry.CheckIn(ctx, actor.ID)
	switch {
	case err == nil:
		return CheckedIn(name), nil
	case errors.Is(err, faction.ErrNotInFaction):
		return NotInFaction(), err
	case errors.Is(err, faction.ErrAlreadyCheckedInToday):
		return AlreadyCheckedIn(), err
	default:
		return nil, err
	}
}

func (router *Router) leaderboard(ctx context.Context) (Response, error) {
	factions, err := router.registry.Leaderboard(ctx)
	if err != nil {
		return nil, err
	}
	return LeaderboardMessage(factions), nil
}

func (router *Router) weeklyReset(ctx context.Context) (Response, error) {
	if err := router.registry.WeeklyReset(ctx); err != nil {
		return nil, err
	}
	return WeeklyResetDone(), nil
}

func (router *Router) warDeclare(ctx context.Context, c WarDeclare, actor faction.Actor) (Response, error) {
	war, err := router.registry.DeclareWar(ctx, actor.ID, c.Enemy)
	switch {
	case err == nil:
		return WarDeclared(war), nil
	case errors.Is(err, faction.ErrNotInFaction):
		return NotInFaction(), err
	default:
		return nil, err
	}
}

func (router *Router) factionAddMember(ctx context.Context, c FactionAddMember) (Response, error) {
	err := router.registry.AddMember(ctx, c.UserID, c.Faction)
	var affiliation *faction.AffiliationError
	switch {
	case err == nil:
		return MemberAdded(c.UserID, c.Faction), nil
	case errors.As(err, &affiliation):
		return MemberAlreadyInFaction(affiliation.Faction), err
	case errors.Is(err, faction.ErrNotFound):
		return FactionNotFound(), err
	default:
		return nil, err
	}
}

func (router *Router) factionRemoveMember(ctx context.Context, c FactionRemoveMember) (Response, error) {
	err := router.registry.RemoveMember(ctx, c.UserID, c.Faction)
	switch {
	case err == nil:
		return MemberRemoved(c.UserID, c.Faction), nil
	case errors.Is(err, faction.ErrNotInThatFaction):
		return MemberNotInFaction(), err
	default:
		return nil, err
	}
}

func (router *Router) factionInfo(ctx context.Context, c FactionInfo) (Response, error) {
	info, err := router.registry.Info(ctx, c.Faction)
	switch {
	case err == nil:
		return FactionInfoMessage(info), nil
	case errors.Is(err, faction.ErrNotFound):
		return FactionNotFound(), err
	default:
		return nil, err
	}
}

func (router *Router) factionMembers(ctx context.Context, c FactionMembers) (Response, error) {
	members, err := router.registry.Members(ctx, c.Faction)
	if err != nil {
		return nil, err
	}
	return FactionMembersMessage(c.Faction, members), nil
}

func (router *Router) trustRole(ctx context.Context, c TrustRole) (Response, error) {
	if err := router.trust.Trust(ctx, c.RoleID); err != nil {
		return nil, err
	}
	return RoleTrusted(c.RoleName), nil
}

func (router *Router) directMessage(ctx context.Context, c DirectMessage, out *onceReplier) (Response, error) {
	target := notify.Target{UserID: c.UserID, RoleID: c.RoleID}
	if err := target.Validate(); err != nil {
		return InvalidTarget(target), err
	}

	// Paced deliveries outlast the window to answer the interaction
	if err := out.Defer(true); err != nil {
		log.Error().Err(err).Msg("Could not defer response")
	}
	result, err := router.notifier.Send(ctx, target, DirectMessageContent(c.Message))
	switch {
	case err == nil:
		return DirectMessageSent(result), nil
	case errors.Is(err, notify.ErrInvalidTarget):
		return InvalidTarget(target), err
	default:
		return nil, err
	}
}

func (router *Router) urgentMessage(ctx context.Context, c UrgentMessage, out *onceReplier) (Response, error) {

	target := notify.Target{RoleID: c.RoleID, Everyone: c.RoleID == ""}

	// Acknowledge right away, the report follows once every delivery is done
	router.send(out, UrgentSending())

	result, err := router.notifier.Send(ctx, target, UrgentNotice(c.Subject, c.Ministry, c.Message))
	if err != nil {
		return nil, err
	}
	return UrgentDone(result), nil
}
