package policy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/psds-microservice/complaint-service/internal/errs"
	"github.com/psds-microservice/complaint-service/internal/identity"
)

// DefaultAdminGroup: группа, дающая право изменять категории.
const DefaultAdminGroup = "Administrators"

type Tier string

const (
	TierCategory   Tier = "category"
	TierComplaint  Tier = "complaint"
	TierComment    Tier = "comment"
	TierAttachment Tier = "attachment"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type Outcome int

const (
	Allow Outcome = iota
	DenyUnauthenticated
	DenyForbidden
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case DenyUnauthenticated:
		return "unauthenticated"
	default:
		return "forbidden"
	}
}

// Owned: цель проверки с владельцем (жалоба).
type Owned interface {
	OwnerID() string
}

// Decision: результат авторизации.
type Decision struct {
	Outcome Outcome
	Rule    string
	Reason  string
}

func (d Decision) Allowed() bool { return d.Outcome == Allow }

// Err переводит отказ в доменную ошибку.
func (d Decision) Err() error {
	switch d.Outcome {
	case Allow:
		return nil
	case DenyUnauthenticated:
		return errs.ErrUnauthenticated
	default:
		return errs.Forbidden(d.Reason)
	}
}

// Options: настраиваемая часть политики.
type Options struct {
	AdminGroup string
	// AllowAnonymousComplaints: разрешено ли создавать жалобы без аутентификации.
	AllowAnonymousComplaints bool
}

type request struct {
	actor  identity.Actor
	action Action
	target Owned
}

type rule struct {
	name    string
	when    func(o Options, r request) bool
	outcome Outcome
	reason  string
}

func always(Options, request) bool { return true }

func anonymous(_ Options, r request) bool { return !r.actor.Authenticated }

func isAction(actions ...Action) func(Options, request) bool {
	return func(_ Options, r request) bool {
		for _, a := range actions {
			if r.action == a {
				return true
			}
		}
		return false
	}
}

func staffDoing(action Action) func(Options, request) bool {
	return func(_ Options, r request) bool { return r.action == action && r.actor.IsStaff() }
}

// nestedRules: общие правила для комментариев и вложений. Удаление проверяется
// первым: не-staff (включая анонимов) всегда получает Forbidden.
func nestedRules(tier Tier, immutableReason string) []rule {
	t := string(tier)
	return []rule{
		{name: t + "-delete-staff", when: staffDoing(ActionDelete), outcome: Allow},
		{name: t + "-delete", when: isAction(ActionDelete), outcome: DenyForbidden, reason: "only staff may delete " + t + "s"},
		{name: t + "-anonymous", when: anonymous, outcome: DenyUnauthenticated},
		{name: t + "-update", when: isAction(ActionUpdate), outcome: DenyForbidden, reason: immutableReason},
		{name: t + "-read-create", when: always, outcome: Allow},
	}
}

var tierRules = map[Tier][]rule{
	TierCategory: {
		{name: "category-anonymous", when: anonymous, outcome: DenyUnauthenticated},
		{name: "category-read", when: isAction(ActionRead), outcome: Allow},
		{name: "category-write-admin-group", when: func(o Options, r request) bool { return r.actor.InGroup(o.AdminGroup) }, outcome: Allow},
		{name: "category-write", when: always, outcome: DenyForbidden, reason: "administrators group membership required"},
	},
	TierComplaint: {
		{name: "complaint-create-anonymous-disabled", when: func(o Options, r request) bool {
			return r.action == ActionCreate && !r.actor.Authenticated && !o.AllowAnonymousComplaints
		}, outcome: DenyUnauthenticated},
		{name: "complaint-create", when: isAction(ActionCreate), outcome: Allow},
		// чтение ограничивает Resolver
		{name: "complaint-read", when: isAction(ActionRead), outcome: Allow},
		{name: "complaint-write-anonymous", when: anonymous, outcome: DenyUnauthenticated},
		{name: "complaint-write-staff", when: func(_ Options, r request) bool { return r.actor.IsStaff() }, outcome: Allow},
		{name: "complaint-write-owner", when: func(_ Options, r request) bool {
			return r.target != nil && r.actor.Owns(r.target.OwnerID())
		}, outcome: Allow},
		{name: "complaint-write", when: always, outcome: DenyForbidden, reason: "only the reporter or staff may modify a complaint"},
	},
	TierComment:    nestedRules(TierComment, "comments are immutable"),
	TierAttachment: nestedRules(TierAttachment, "attachments cannot be modified"),
}

var authzDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "complaint_authz_decisions_total",
		Help: "Решения авторизатора по уровню ресурса, действию и исходу.",
	},
	[]string{"tier", "action", "outcome"},
)

// Authorizer решает allow/deny для (актор, действие, уровень, цель).
type Authorizer struct {
	opts Options
}

func NewAuthorizer(opts Options) *Authorizer {
	if opts.AdminGroup == "" {
		opts.AdminGroup = DefaultAdminGroup
	}
	return &Authorizer{opts: opts}
}

// Options возвращает действующие настройки.
func (a *Authorizer) Options() Options { return a.opts }

// Authorize проходит правила уровня по порядку; неизвестный уровень — запрет.
func (a *Authorizer) Authorize(actor identity.Actor, action Action, tier Tier, target Owned) Decision {
	req := request{actor: actor, action: action, target: target}
	d := Decision{Outcome: DenyForbidden, Rule: "unknown-tier", Reason: "unknown resource"}
	for _, r := range tierRules[tier] {
		if r.when(a.opts, req) {
			d = Decision{Outcome: r.outcome, Rule: r.name, Reason: r.reason}
			break
		}
	}
	authzDecisionsTotal.WithLabelValues(string(tier), string(action), d.Outcome.String()).Inc()
	return d
}

// Check: Authorize, возвращающий доменную ошибку.
func (a *Authorizer) Check(actor identity.Actor, action Action, tier Tier, target Owned) error {
	return a.Authorize(actor, action, tier, target).Err()
}
