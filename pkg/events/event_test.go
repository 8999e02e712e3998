package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	got []string
	err error
}

func (r *recorder) Publish(ctx context.Context, event Event) error {
	r.got = append(r.got, event.EventType())
	return r.err
}

func TestFanoutPublishesToAll(t *testing.T) {
	failing := &recorder{err: errors.New("nats down")}
	ok := &recorder{}

	err := Fanout{failing, ok}.Publish(context.Background(), New(NoteCreated, nil))

	assert.ErrorContains(t, err, "nats down")
	assert.Equal(t, []string{NoteCreated}, failing.got)
	assert.Equal(t, []string{NoteCreated}, ok.got)
}

func TestFanoutEmpty(t *testing.T) {
	assert.NoError(t, Fanout{}.Publish(context.Background(), New(NoteDeleted, nil)))
}
