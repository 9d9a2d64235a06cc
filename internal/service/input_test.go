package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psds-microservice/complaint-service/internal/errs"
	"github.com/psds-microservice/complaint-service/internal/policy"
)

func TestComplaintInput_DecodeCategory(t *testing.T) {
	var absent, null, set ComplaintInput
	require.NoError(t, json.Unmarshal([]byte(`{"title":"t"}`), &absent))
	require.NoError(t, json.Unmarshal([]byte(`{"category":null}`), &null))
	require.NoError(t, json.Unmarshal([]byte(`{"category":7}`), &set))

	assert.False(t, absent.Category.Set)
	assert.True(t, null.Category.Set)
	assert.Nil(t, null.Category.Value)
	require.NotNil(t, set.Category.Value)
	assert.EqualValues(t, 7, *set.Category.Value)

	var bad ComplaintInput
	err := json.Unmarshal([]byte(`{"category":"seven"}`), &bad)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestComplaintInput_Restrict(t *testing.T) {
	var in ComplaintInput
	require.NoError(t, json.Unmarshal([]byte(`{"title":"t","status":"resolved","assigned_to":"me","reporter":"x"}`), &in))

	out, dropped := in.Restrict(policy.NewFieldSet(policy.FieldTitle, policy.FieldDescription))
	assert.Equal(t, []policy.Field{policy.FieldAssignedTo, policy.FieldStatus}, dropped.Sorted())
	assert.Equal(t, []policy.Field{policy.FieldTitle}, out.Provided().Sorted())
	assert.NotNil(t, in.Status, "original input is not modified")
}

func TestCommentInput_Restrict(t *testing.T) {
	in := CommentInput{Message: str("m"), Public: boolPtr(true)}
	out, dropped := in.Restrict(policy.NewFieldSet(policy.FieldMessage, policy.FieldAuthor))
	assert.Nil(t, out.Public)
	assert.True(t, dropped.Has(policy.FieldPublic))
	assert.Equal(t, "m", *out.Message)
}

func TestCleanFilename(t *testing.T) {
	assert.Equal(t, "", cleanFilename(".."))
	assert.Equal(t, "a.txt", cleanFilename(`C:\Users\me\a.txt`))
}
