package channels

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vantage-invest/pushkit/internal/model"
)

type fakeRegistrar struct {
	channels map[string]model.NotificationChannel
	upserts  int
	failFor  string
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{channels: map[string]model.NotificationChannel{}}
}

func (f *fakeRegistrar) Upsert(ctx context.Context, ch model.NotificationChannel) error {
	f.upserts++
	if ch.ID == f.failFor {
		return errors.New("channel api failed")
	}
	f.channels[ch.ID] = ch
	return nil
}

func TestInitializeChannelsDeclaresFixedSet(t *testing.T) {
	registrar := newFakeRegistrar()
	init := NewInitializer(model.PlatformAndroid, registrar, nil)

	init.InitializeChannels(context.Background())

	assert.Len(t, registrar.channels, 7)
	for _, id := range []string{
		model.ChannelDefault, model.ChannelSubscription, model.ChannelContent,
		model.ChannelEngagement, model.ChannelPremium, model.ChannelSystem,
		model.ChannelMarketing,
	} {
		assert.Contains(t, registrar.channels, id)
	}
	assert.Equal(t, model.ImportanceHigh, registrar.channels[model.ChannelSystem].Importance)
	assert.Equal(t, model.ImportanceLow, registrar.channels[model.ChannelMarketing].Importance)
}

func TestInitializeChannelsIsIdempotent(t *testing.T) {
	registrar := newFakeRegistrar()
	init := NewInitializer(model.PlatformAndroid, registrar, nil)

	init.InitializeChannels(context.Background())
	once := make(map[string]model.NotificationChannel, len(registrar.channels))
	for id, ch := range registrar.channels {
		once[id] = ch
	}

	init.InitializeChannels(context.Background())
	assert.Equal(t, once, registrar.channels)
}

func TestInitializeChannelsNoOpOnIOS(t *testing.T) {
	registrar := newFakeRegistrar()
	init := NewInitializer(model.PlatformIOS, registrar, nil)

	init.InitializeChannels(context.Background())
	assert.Zero(t, registrar.upserts)
}

func TestInitializeChannelsContinuesPastFailure(t *testing.T) {
	registrar := newFakeRegistrar()
	registrar.failFor = model.ChannelContent
	init := NewInitializer(model.PlatformAndroid, registrar, nil)

	init.InitializeChannels(context.Background())
	assert.Len(t, registrar.channels, 6)
}
