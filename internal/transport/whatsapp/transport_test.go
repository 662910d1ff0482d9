package whatsapp

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/protobuf/proto"

	"stock-bot/internal/common/config"
	"stock-bot/internal/common/logger"
	"stock-bot/internal/session"
)

func TestTranslate_ConnectionEvents(t *testing.T) {
	tests := []struct {
		name   string
		raw    interface{}
		state  session.ConnState
		status int
	}{
		{"connected", &events.Connected{}, session.ConnOpen, 0},
		{"disconnected", &events.Disconnected{}, session.ConnClose, StatusConnectionClosed},
		{"stream replaced", &events.StreamReplaced{}, session.ConnClose, StatusConnectionReplaced},
		{"logged out", &events.LoggedOut{Reason: events.ConnectFailureLoggedOut}, session.ConnClose, session.StatusLoggedOut},
		{"connect failure logged out", &events.ConnectFailure{Reason: events.ConnectFailureLoggedOut}, session.ConnClose, session.StatusLoggedOut},
		{"connect failure other", &events.ConnectFailure{Reason: events.ConnectFailureReason(503)}, session.ConnClose, 503},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt, ok := translate(tt.raw)
			require.True(t, ok)
			update, ok := evt.(session.ConnectionUpdate)
			require.True(t, ok)
			assert.Equal(t, tt.state, update.State)
			assert.Equal(t, tt.status, update.Status)
		})
	}
}

func TestTranslate_PairSuccess(t *testing.T) {
	evt, ok := translate(&events.PairSuccess{})
	require.True(t, ok)
	assert.Equal(t, session.CredentialsUpdated{}, evt)
}

func TestTranslate_Message(t *testing.T) {
	chat := types.NewJID("6281234", types.DefaultUserServer)
	ts := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	t.Run("conversation", func(t *testing.T) {
		raw := &events.Message{
			Info: types.MessageInfo{
				MessageSource: types.MessageSource{Chat: chat, Sender: chat},
				ID:            "3EB0ABC",
				Timestamp:     ts,
			},
			Message: &waE2E.Message{Conversation: proto.String("@stok kabel")},
		}
		evt, ok := translate(raw)
		require.True(t, ok)
		msg := evt.(session.MessageReceived).Message
		assert.Equal(t, "3EB0ABC", msg.ID)
		assert.Equal(t, "6281234@s.whatsapp.net", msg.Sender)
		assert.Equal(t, "@stok kabel", msg.Text)
		assert.False(t, msg.IsSelf)
		assert.Equal(t, ts, msg.Timestamp)
	})

	t.Run("extended text from self", func(t *testing.T) {
		raw := &events.Message{
			Info: types.MessageInfo{MessageSource: types.MessageSource{Chat: chat, IsFromMe: true}},
			Message: &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{
				Text: proto.String("@stok obeng"),
			}},
		}
		evt, _ := translate(raw)
		msg := evt.(session.MessageReceived).Message
		assert.Equal(t, "@stok obeng", msg.Text)
		assert.True(t, msg.IsSelf)
	})

	t.Run("no body", func(t *testing.T) {
		evt, _ := translate(&events.Message{Info: types.MessageInfo{MessageSource: types.MessageSource{Chat: chat}}})
		assert.Empty(t, evt.(session.MessageReceived).Message.Text)
	})
}

func TestTranslate_Unrelated(t *testing.T) {
	_, ok := translate(&events.Receipt{})
	assert.False(t, ok)
}

func TestSqliteDir(t *testing.T) {
	assert.Equal(t, "auth", sqliteDir("file:auth/session.db?_foreign_keys=on"))
	assert.Equal(t, "/var/lib/stokbot", sqliteDir("/var/lib/stokbot/s.db"))
	assert.Equal(t, "", sqliteDir("file:session.db"))
	assert.Equal(t, "", sqliteDir("file:memdb?mode=memory&cache=shared"))
}

func TestWALogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	wl := NewWALogger(logger.NewZapAdapter(zap.New(core)), "client")

	wl.Infof("connected to %s", "web.whatsapp.com")
	wl.Sub("socket").Warnf("frame dropped")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "connected to web.whatsapp.com", entries[0].Message)
	assert.Equal(t, "client", entries[0].ContextMap()["module"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "client/socket", entries[1].ContextMap()["module"])
}

func TestQRRenderer(t *testing.T) {
	var buf bytes.Buffer
	NewQRRenderer(&buf).Render("2@pairing-code,abc,def")
	assert.NotEmpty(t, buf.String())
}

func TestNew_InMemoryDeviceStore(t *testing.T) {
	ctx := context.Background()
	tr, err := New(ctx, config.SessionConfig{
		Store: config.SessionStoreConfig{
			Dialect: "sqlite3",
			Address: "file:transporttest?mode=memory&cache=shared&_foreign_keys=on",
		},
	}, logger.NewNoOpLogger())
	require.NoError(t, err)
	defer tr.Close()

	device, err := tr.container.GetFirstDevice(ctx)
	require.NoError(t, err)
	assert.Nil(t, device.ID, "fresh store has no paired device")

	err = tr.SendMessage(ctx, "6281234@s.whatsapp.net", "hi")
	assert.ErrorIs(t, err, ErrNotConnected)
}

var _ session.Transport = (*Transport)(nil)
