package notifications_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.senan.xyz/lyrictag/notifications"
)

func TestAddURI(t *testing.T) {
	t.Parallel()

	var n notifications.Notifications
	require.NoError(t, n.AddURI(notifications.Complete, "generic://example.com/hook"))
	require.NoError(t, n.AddURI(notifications.Error, "generic://example.com/errors"))
	require.NoError(t, n.AddURI(notifications.Complete, "ntfy://ntfy.sh/lyrics"))

	require.ErrorIs(t, n.AddURI("needs-input", "generic://example.com"), notifications.ErrUnknownEvent)
	require.ErrorIs(t, n.AddURI(notifications.Complete, "not a uri"), notifications.ErrInvalidURI)

	type mapping struct {
		event notifications.Event
		uri   string
	}
	var got []mapping
	n.IterMappings(func(e notifications.Event, uri string) {
		got = append(got, mapping{e, uri})
	})
	assert.Equal(t, []mapping{
		{notifications.Complete, "generic://example.com/hook"},
		{notifications.Complete, "ntfy://ntfy.sh/lyrics"},
		{notifications.Error, "generic://example.com/errors"},
	}, got)
}

func TestSendNoMappings(t *testing.T) {
	t.Parallel()

	var n notifications.Notifications
	n.Send(context.Background(), notifications.Complete, "done") // no uris, no-op
}
