package policy

import (
	"sort"

	"github.com/psds-microservice/complaint-service/internal/identity"
)

type Field string

const (
	FieldTitle         Field = "title"
	FieldDescription   Field = "description"
	FieldCategory      Field = "category"
	FieldReporterName  Field = "reporter_name"
	FieldReporterEmail Field = "reporter_email"
	FieldReporterPhone Field = "reporter_phone"
	FieldStatus        Field = "status"
	FieldAssignedTo    Field = "assigned_to"
	FieldReporter      Field = "reporter"
	FieldCreatedAt     Field = "created_at"
	FieldUpdatedAt     Field = "updated_at"

	FieldMessage   Field = "message"
	FieldAuthor    Field = "author"
	FieldPublic    Field = "public"
	FieldComplaint Field = "complaint"
	FieldUser      Field = "user"
)

// FieldSet: множество полей.
type FieldSet map[Field]struct{}

func NewFieldSet(fields ...Field) FieldSet {
	s := make(FieldSet, len(fields))
	for _, f := range fields {
		s[f] = struct{}{}
	}
	return s
}

func (s FieldSet) Has(f Field) bool {
	_, ok := s[f]
	return ok
}

// Union возвращает объединение множеств.
func (s FieldSet) Union(other FieldSet) FieldSet {
	out := make(FieldSet, len(s)+len(other))
	for f := range s {
		out[f] = struct{}{}
	}
	for f := range other {
		out[f] = struct{}{}
	}
	return out
}

// Sorted: поля в детерминированном порядке (для логов и ответов).
func (s FieldSet) Sorted() []Field {
	out := make([]Field, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ServerManagedComplaintFields клиент не задаёт ни при какой роли.
var ServerManagedComplaintFields = NewFieldSet(FieldReporter, FieldCreatedAt, FieldUpdatedAt)

// ServerManagedCommentFields проставляются из маршрута и актора.
var ServerManagedCommentFields = NewFieldSet(FieldComplaint, FieldUser, FieldPublic, FieldCreatedAt)

// Role: роль актора для таблиц полей.
type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleUser      Role = "user"
	RoleStaff     Role = "staff"
)

func RoleOf(a identity.Actor) Role {
	switch {
	case a.IsStaff():
		return RoleStaff
	case a.Authenticated:
		return RoleUser
	default:
		return RoleAnonymous
	}
}

var (
	complaintContent = NewFieldSet(FieldTitle, FieldDescription, FieldCategory)
	complaintContact = NewFieldSet(FieldReporterName, FieldReporterEmail, FieldReporterPhone)
	complaintTriage  = NewFieldSet(FieldStatus, FieldAssignedTo)
)

// complaintFieldTable: действие → роль → поля, которые клиент может задать.
// status и assigned_to — только staff.
var complaintFieldTable = map[Action]map[Role]FieldSet{
	ActionCreate: {
		RoleAnonymous: complaintContent.Union(complaintContact),
		RoleUser:      complaintContent.Union(complaintContact),
		RoleStaff:     complaintContent.Union(complaintContact).Union(complaintTriage),
	},
	ActionUpdate: {
		RoleUser:  complaintContent.Union(complaintContact),
		RoleStaff: complaintContent.Union(complaintContact).Union(complaintTriage),
	},
}

var commentFieldTable = map[Action]map[Role]FieldSet{
	ActionCreate: {
		RoleUser:  NewFieldSet(FieldMessage, FieldAuthor),
		RoleStaff: NewFieldSet(FieldMessage, FieldAuthor),
	},
}

// WritableComplaintFields: поля жалобы, которые актор может задать действием.
func WritableComplaintFields(a identity.Actor, action Action) FieldSet {
	return lookupFields(complaintFieldTable, a, action)
}

// WritableCommentFields: поля комментария, которые актор может задать действием.
func WritableCommentFields(a identity.Actor, action Action) FieldSet {
	return lookupFields(commentFieldTable, a, action)
}

func lookupFields(table map[Action]map[Role]FieldSet, a identity.Actor, action Action) FieldSet {
	byRole, ok := table[action]
	if !ok {
		return FieldSet{}
	}
	fs, ok := byRole[RoleOf(a)]
	if !ok {
		return FieldSet{}
	}
	return fs
}
