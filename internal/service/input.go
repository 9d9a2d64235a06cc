package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/psds-microservice/complaint-service/internal/errs"
	"github.com/psds-microservice/complaint-service/internal/model"
	"github.com/psds-microservice/complaint-service/internal/policy"
)

// Ограничения длины полей.
const (
	maxCategoryName  = 100
	maxTitle         = 200
	maxReporterName  = 120
	maxReporterEmail = 254
	maxReporterPhone = 30
	maxAssignedTo    = 150
	maxCommentAuthor = 120
)

// OptionalID: ссылка, различающая "не передано", null и значение.
type OptionalID struct {
	Set   bool
	Value *uint64
}

func (o *OptionalID) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v uint64
	if err := json.Unmarshal(b, &v); err != nil {
		return errs.Invalid("category", "must be a category id or null")
	}
	o.Value = &v
	return nil
}

// SetID: удобный конструктор для тестов и CLI.
func SetID(id uint64) OptionalID { return OptionalID{Set: true, Value: &id} }

// ComplaintInput: поля жалобы от клиента. nil — поле не передано.
// reporter, created_at, updated_at здесь отсутствуют: их задаёт сервер.
type ComplaintInput struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Category      OptionalID `json:"category"`
	ReporterName  *string    `json:"reporter_name"`
	ReporterEmail *string    `json:"reporter_email"`
	ReporterPhone *string    `json:"reporter_phone"`
	Status        *string    `json:"status"`
	AssignedTo    *string    `json:"assigned_to"`
}

// Provided: множество переданных полей.
func (in ComplaintInput) Provided() policy.FieldSet {
	fs := policy.FieldSet{}
	mark := func(ok bool, f policy.Field) {
		if ok {
			fs[f] = struct{}{}
		}
	}
	mark(in.Title != nil, policy.FieldTitle)
	mark(in.Description != nil, policy.FieldDescription)
	mark(in.Category.Set, policy.FieldCategory)
	mark(in.ReporterName != nil, policy.FieldReporterName)
	mark(in.ReporterEmail != nil, policy.FieldReporterEmail)
	mark(in.ReporterPhone != nil, policy.FieldReporterPhone)
	mark(in.Status != nil, policy.FieldStatus)
	mark(in.AssignedTo != nil, policy.FieldAssignedTo)
	return fs
}

// Restrict оставляет только разрешённые поля. Возвращает отброшенные.
func (in ComplaintInput) Restrict(allowed policy.FieldSet) (ComplaintInput, policy.FieldSet) {
	dropped := policy.FieldSet{}
	out := in
	drop := func(f policy.Field, clear func()) {
		if in.Provided().Has(f) && !allowed.Has(f) {
			dropped[f] = struct{}{}
			clear()
		}
	}
	drop(policy.FieldTitle, func() { out.Title = nil })
	drop(policy.FieldDescription, func() { out.Description = nil })
	drop(policy.FieldCategory, func() { out.Category = OptionalID{} })
	drop(policy.FieldReporterName, func() { out.ReporterName = nil })
	drop(policy.FieldReporterEmail, func() { out.ReporterEmail = nil })
	drop(policy.FieldReporterPhone, func() { out.ReporterPhone = nil })
	drop(policy.FieldStatus, func() { out.Status = nil })
	drop(policy.FieldAssignedTo, func() { out.AssignedTo = nil })
	return out, dropped
}

// validate проверяет переданные поля; required — поля, обязательные для действия.
func (in ComplaintInput) validate(required ...policy.Field) error {
	provided := in.Provided()
	for _, f := range required {
		if !provided.Has(f) {
			return errs.Invalid(string(f), "this field is required")
		}
	}
	if in.Title != nil {
		if err := checkText(policy.FieldTitle, *in.Title, maxTitle, true); err != nil {
			return err
		}
	}
	if in.Description != nil && strings.TrimSpace(*in.Description) == "" {
		return errs.Invalid(string(policy.FieldDescription), "this field may not be blank")
	}
	if in.ReporterName != nil {
		if err := checkText(policy.FieldReporterName, *in.ReporterName, maxReporterName, false); err != nil {
			return err
		}
	}
	if in.ReporterEmail != nil {
		if err := checkEmail(*in.ReporterEmail); err != nil {
			return err
		}
	}
	if in.ReporterPhone != nil {
		if err := checkText(policy.FieldReporterPhone, *in.ReporterPhone, maxReporterPhone, false); err != nil {
			return err
		}
	}
	if in.Status != nil && !model.ComplaintStatus(*in.Status).Valid() {
		return errs.Invalid(string(policy.FieldStatus), fmt.Sprintf("%q is not a valid choice", *in.Status))
	}
	if in.AssignedTo != nil {
		if err := checkText(policy.FieldAssignedTo, *in.AssignedTo, maxAssignedTo, false); err != nil {
			return err
		}
	}
	return nil
}

// changes: колонки для UPDATE.
func (in ComplaintInput) changes() map[string]interface{} {
	ch := map[string]interface{}{}
	if in.Title != nil {
		ch["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		ch["description"] = *in.Description
	}
	if in.Category.Set {
		ch["category_id"] = in.Category.Value
	}
	if in.ReporterName != nil {
		ch["reporter_name"] = strings.TrimSpace(*in.ReporterName)
	}
	if in.ReporterEmail != nil {
		ch["reporter_email"] = strings.TrimSpace(*in.ReporterEmail)
	}
	if in.ReporterPhone != nil {
		ch["reporter_phone"] = strings.TrimSpace(*in.ReporterPhone)
	}
	if in.Status != nil {
		ch["status"] = model.ComplaintStatus(*in.Status)
	}
	if in.AssignedTo != nil {
		ch["assigned_to"] = strings.TrimSpace(*in.AssignedTo)
	}
	return ch
}

// CategoryInput: поля категории.
type CategoryInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (in CategoryInput) empty() bool { return in.Name == nil && in.Description == nil }

// CommentInput: поля комментария. public принимается, но задаётся сервером.
type CommentInput struct {
	Message *string `json:"message"`
	Author  *string `json:"author"`
	Public  *bool   `json:"public"`
}

func (in CommentInput) Provided() policy.FieldSet {
	fs := policy.FieldSet{}
	if in.Message != nil {
		fs[policy.FieldMessage] = struct{}{}
	}
	if in.Author != nil {
		fs[policy.FieldAuthor] = struct{}{}
	}
	if in.Public != nil {
		fs[policy.FieldPublic] = struct{}{}
	}
	return fs
}

func (in CommentInput) Restrict(allowed policy.FieldSet) (CommentInput, policy.FieldSet) {
	dropped := policy.FieldSet{}
	out := in
	if in.Message != nil && !allowed.Has(policy.FieldMessage) {
		dropped[policy.FieldMessage] = struct{}{}
		out.Message = nil
	}
	if in.Author != nil && !allowed.Has(policy.FieldAuthor) {
		dropped[policy.FieldAuthor] = struct{}{}
		out.Author = nil
	}
	if in.Public != nil && !allowed.Has(policy.FieldPublic) {
		dropped[policy.FieldPublic] = struct{}{}
		out.Public = nil
	}
	return out, dropped
}

func checkText(f policy.Field, v string, limit int, required bool) error {
	if required && strings.TrimSpace(v) == "" {
		return errs.Invalid(string(f), "this field may not be blank")
	}
	if utf8.RuneCountInString(v) > limit {
		return errs.Invalid(string(f), fmt.Sprintf("ensure this field has no more than %d characters", limit))
	}
	return nil
}

func checkEmail(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	if utf8.RuneCountInString(v) > maxReporterEmail {
		return errs.Invalid(string(policy.FieldReporterEmail), fmt.Sprintf("ensure this field has no more than %d characters", maxReporterEmail))
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		return errs.Invalid(string(policy.FieldReporterEmail), "enter a valid email address")
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
