package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/psds-microservice/complaint-service/internal/events"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, e events.Event) {
	m.Called(ctx, e)
}

// eventOfType: matcher для AssertCalled.
func eventOfType(typ string, complaintID uint64) interface{} {
	return mock.MatchedBy(func(e events.Event) bool {
		return e.Type == typ && e.ComplaintID == complaintID
	})
}
