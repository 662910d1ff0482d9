// Package whatsapp is the WhatsApp Web transport, built on whatsmeow with
// credentials kept in a SQL device store.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"

	"stock-bot/internal/common/config"
	"stock-bot/internal/common/logger"
	"stock-bot/internal/models"
	"stock-bot/internal/session"
)

// Disconnect statuses reported to the session controller.
const (
	StatusConnectionClosed   = 428
	StatusConnectionReplaced = 440
	StatusPairingTimeout     = 408
)

var ErrNotConnected = errors.New("whatsapp client not connected")

// Transport implements session.Transport.
type Transport struct {
	container *sqlstore.Container
	logger    logger.Logger

	mu     sync.Mutex
	client *whatsmeow.Client
	sink   func(session.Event)
	qrWG   sync.WaitGroup
}

// New opens the device store described by cfg. The sqlite3 directory is
// created if needed.
func New(ctx context.Context, cfg config.SessionConfig, log logger.Logger) (*Transport, error) {
	if cfg.Store.Dialect == "sqlite3" {
		if dir := sqliteDir(cfg.Store.Address); dir != "" {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("create session dir: %w", err)
			}
		}
	}
	if cfg.DeviceName != "" {
		store.DeviceProps.Os = proto.String(cfg.DeviceName)
	}

	log = log.WithFields(map[string]interface{}{"component": "whatsapp"})
	container, err := sqlstore.New(ctx, cfg.Store.Dialect, cfg.Store.Address, NewWALogger(log, "store"))
	if err != nil {
		return nil, fmt.Errorf("open device store: %w", err)
	}

	return &Transport{
		container: container,
		logger:    log,
		sink:      func(session.Event) {},
	}, nil
}

// OnEvent sets where transport events are delivered.
func (t *Transport) OnEvent(sink func(session.Event)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sink = sink
}

func (t *Transport) emit(evt session.Event) {
	t.mu.Lock()
	sink := t.sink
	t.mu.Unlock()
	sink(evt)
}

// Connect builds a fresh client for the stored device, or a new device when
// none is paired, and opens the websocket. Pairing codes arrive as
// ConnectionUpdate challenges.
func (t *Transport) Connect(ctx context.Context) error {
	t.mu.Lock()
	old := t.client
	t.client = nil
	t.mu.Unlock()
	if old != nil {
		old.RemoveEventHandlers()
		old.Disconnect()
	}

	device, err := t.container.GetFirstDevice(ctx)
	if err != nil {
		return fmt.Errorf("load device: %w", err)
	}

	client := whatsmeow.NewClient(device, NewWALogger(t.logger, "client"))
	client.EnableAutoReconnect = false
	client.AddEventHandler(t.handleEvent)

	if client.Store.ID == nil {
		qrChan, err := client.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("get qr channel: %w", err)
		}
		t.qrWG.Add(1)
		go t.forwardQR(qrChan)
	}

	t.mu.Lock()
	t.client = client
	t.mu.Unlock()

	t.emit(session.ConnectionUpdate{State: session.ConnConnecting})
	return client.Connect()
}

func (t *Transport) forwardQR(qrChan <-chan whatsmeow.QRChannelItem) {
	defer t.qrWG.Done()
	for item := range qrChan {
		switch item.Event {
		case "code":
			t.emit(session.ConnectionUpdate{Challenge: item.Code})
		case "success":
			t.logger.Info("pairing succeeded", nil)
		case "timeout":
			t.emit(session.ConnectionUpdate{
				State:  session.ConnClose,
				Status: StatusPairingTimeout,
				Err:    errors.New("pairing timed out"),
			})
		default:
			t.emit(session.ConnectionUpdate{
				State:  session.ConnClose,
				Status: StatusConnectionClosed,
				Err:    fmt.Errorf("pairing failed: %s: %v", item.Event, item.Error),
			})
		}
	}
}

// Disconnect closes the websocket if open.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	client := t.client
	t.mu.Unlock()
	if client != nil {
		client.Disconnect()
	}
}

// SendMessage sends a plain text message to a chat JID.
func (t *Transport) SendMessage(ctx context.Context, recipient, text string) error {
	t.mu.Lock()
	client := t.client
	t.mu.Unlock()
	if client == nil || !client.IsConnected() {
		return ErrNotConnected
	}

	jid, err := types.ParseJID(recipient)
	if err != nil {
		return fmt.Errorf("parse recipient %q: %w", recipient, err)
	}
	_, err = client.SendMessage(ctx, jid, &waE2E.Message{Conversation: proto.String(text)})
	return err
}

// Close disconnects and closes the device store.
func (t *Transport) Close() error {
	t.Disconnect()
	t.qrWG.Wait()
	return t.container.Close()
}

func (t *Transport) handleEvent(raw interface{}) {
	if evt, ok := translate(raw); ok {
		t.emit(evt)
	}
}

// translate maps whatsmeow events onto session events.
func translate(raw interface{}) (session.Event, bool) {
	switch evt := raw.(type) {
	case *events.Connected:
		return session.ConnectionUpdate{State: session.ConnOpen}, true

	case *events.PairSuccess:
		return session.CredentialsUpdated{}, true

	case *events.LoggedOut:
		return session.ConnectionUpdate{
			State:  session.ConnClose,
			Status: session.StatusLoggedOut,
			Err:    fmt.Errorf("logged out: %s", evt.Reason.String()),
		}, true

	case *events.ConnectFailure:
		status := int(evt.Reason)
		if evt.Reason.IsLoggedOut() {
			status = session.StatusLoggedOut
		}
		return session.ConnectionUpdate{
			State:  session.ConnClose,
			Status: status,
			Err:    fmt.Errorf("connect failure: %s %s", evt.Reason.String(), evt.Message),
		}, true

	case *events.StreamReplaced:
		return session.ConnectionUpdate{
			State:  session.ConnClose,
			Status: StatusConnectionReplaced,
			Err:    errors.New("stream replaced by another client"),
		}, true

	case *events.Disconnected:
		return session.ConnectionUpdate{State: session.ConnClose, Status: StatusConnectionClosed}, true

	case *events.Message:
		return session.MessageReceived{Message: models.InboundMessage{
			ID:        evt.Info.ID,
			Sender:    evt.Info.Chat.String(),
			Text:      messageText(evt.Message),
			IsSelf:    evt.Info.IsFromMe,
			Timestamp: evt.Info.Timestamp,
		}}, true
	}
	return nil, false
}

func messageText(msg *waE2E.Message) string {
	if text := msg.GetConversation(); text != "" {
		return text
	}
	return msg.GetExtendedTextMessage().GetText()
}

// sqliteDir returns the directory of a sqlite3 file DSN such as
// "file:auth/session.db?_foreign_keys=on", or "" for in-memory databases.
func sqliteDir(address string) string {
	path := strings.TrimPrefix(address, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" || strings.Contains(address, "mode=memory") {
		return ""
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return ""
	}
	return dir
}
