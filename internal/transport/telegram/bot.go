package telegram

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"exam-bot/internal/app"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"
)

// Handler is the part of the dispatcher the bot needs.
type Handler interface {
	Handle(ctx context.Context, user app.User, action app.Action) app.Reply
	BindKeyboard(userID int64, messageID int)
}

// botAPI is the subset of *tgbotapi.BotAPI used here.
type botAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Options tunes the update loop.
type Options struct {
	Debug   bool
	Timeout int // long-poll timeout in seconds
	Workers int
}

// Bot long-polls Telegram and feeds every update through the dispatcher. Updates are
// sharded by user id, so one user's actions run in order while users run in parallel.
type Bot struct {
	api     botAPI
	handler Handler
	opts    Options
	client  *http.Client
}

func NewBot(token string, handler Handler, opts Options) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	api.Debug = opts.Debug
	log.Printf("authorised on account %s", api.Self.UserName)
	return newBot(api, handler, opts), nil
}

func newBot(api botAPI, handler Handler, opts Options) *Bot {
	if opts.Timeout <= 0 {
		opts.Timeout = 60
	}
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	return &Bot{
		api:     api,
		handler: handler,
		opts:    opts,
		client:  &http.Client{Timeout: 2 * time.Minute},
	}
}

// Run blocks until ctx is cancelled or the update channel closes.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.opts.Timeout
	updates := b.api.GetUpdatesChan(u)

	g, gctx := errgroup.WithContext(ctx)
	shards := make([]chan inbound, b.opts.Workers)
	for i := range shards {
		shard := make(chan inbound, 64)
		shards[i] = shard
		g.Go(func() error {
			for in := range shard {
				b.render(in, b.handler.Handle(gctx, in.user, in.action))
			}
			return nil
		})
	}

	g.Go(func() error {
		defer func() {
			for _, shard := range shards {
				close(shard)
			}
		}()
		for {
			select {
			case <-gctx.Done():
				b.api.StopReceivingUpdates()
				return nil
			case update, ok := <-updates:
				if !ok {
					return nil
				}
				in, ok := b.decode(update)
				if !ok {
					continue
				}
				shard := shards[uint64(in.user.ID)%uint64(len(shards))]
				select {
				case shard <- in:
				case <-gctx.Done():
					b.api.StopReceivingUpdates()
					return nil
				}
			}
		}
	})
	return g.Wait()
}

// inbound is a decoded update together with where to answer it.
type inbound struct {
	user       app.User
	action     app.Action
	chatID     int64
	callbackID string
	// messageID and editable describe the message whose button was pressed.
	messageID int
	editable  bool
}

func (b *Bot) decode(update tgbotapi.Update) (inbound, bool) {
	if cq := update.CallbackQuery; cq != nil {
		if cq.From == nil {
			return inbound{}, false
		}
		in := inbound{
			user:       toUser(cq.From),
			chatID:     cq.From.ID,
			callbackID: cq.ID,
		}
		if cq.Message != nil && cq.Message.Chat != nil {
			in.chatID = cq.Message.Chat.ID
			in.messageID = cq.Message.MessageID
			in.editable = cq.Message.Text != ""
		}
		in.action = app.ButtonAction{Command: app.ParseCommand(cq.Data), MessageID: in.messageID}
		return in, true
	}

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return inbound{}, false
	}
	in := inbound{user: toUser(msg.From), chatID: msg.Chat.ID}
	switch {
	case msg.IsCommand():
		if msg.Command() != "start" {
			return inbound{}, false
		}
		in.action = app.StartAction{}
	case msg.Audio != nil:
		in.action = b.media(app.MediaAudio, msg.Audio.FileID)
	case len(msg.Photo) > 0:
		// the last size is the largest
		in.action = b.media(app.MediaImage, msg.Photo[len(msg.Photo)-1].FileID)
	case msg.Text != "":
		in.action = app.TextAction{Text: msg.Text}
	default:
		return inbound{}, false
	}
	return in, true
}

func toUser(u *tgbotapi.User) app.User {
	return app.User{ID: u.ID, FirstName: u.FirstName, Username: u.UserName}
}

// media defers the download until the dispatcher actually wants the file.
func (b *Bot) media(kind app.MediaKind, fileID string) app.MediaAction {
	return app.MediaAction{
		Kind:   kind,
		FileID: fileID,
		Source: func(ctx context.Context) (io.ReadCloser, error) {
			url, err := b.api.GetFileDirectURL(fileID)
			if err != nil {
				return nil, fmt.Errorf("resolve file %s: %w", fileID, err)
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return nil, err
			}
			resp, err := b.client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("download file %s: %w", fileID, err)
			}
			if resp.StatusCode != http.StatusOK {
				resp.Body.Close()
				return nil, fmt.Errorf("download file %s: status %d", fileID, resp.StatusCode)
			}
			return resp.Body, nil
		},
	}
}

// render answers the callback (with the toast, if any) and sends the reply messages.
// The first text message of a button press replaces the pressed message when that
// message was plain text; everything else is sent as a new message. An answered media
// question loses its keyboard, and wherever the next answer keyboard lands is bound
// to the user's session.
func (b *Bot) render(in inbound, reply app.Reply) {
	if in.callbackID != "" {
		var cb tgbotapi.CallbackConfig
		if reply.Toast != "" {
			cb = tgbotapi.NewCallbackWithAlert(in.callbackID, reply.Toast)
		} else {
			cb = tgbotapi.NewCallback(in.callbackID, "")
		}
		if _, err := b.api.Request(cb); err != nil {
			log.Printf("answer callback: %v", err)
		}
	}

	if answered(in) && len(reply.Messages) > 0 && !in.editable {
		strip := tgbotapi.NewEditMessageReplyMarkup(in.chatID, in.messageID, tgbotapi.InlineKeyboardMarkup{
			InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
		})
		if _, err := b.api.Request(strip); err != nil {
			log.Printf("strip keyboard of message %d: %v", in.messageID, err)
		}
	}

	edit := in.editable
	for _, msg := range reply.Messages {
		var c tgbotapi.Chattable
		edited := false
		switch {
		case msg.Media != nil:
			c = mediaMessage(in.chatID, msg)
		case edit:
			c = editMessage(in.chatID, in.messageID, msg)
			edited = true
		default:
			out := tgbotapi.NewMessage(in.chatID, msg.Text)
			if len(msg.Buttons) > 0 {
				out.ReplyMarkup = keyboard(msg.Buttons)
			}
			c = out
		}
		edit = false
		sent, err := b.api.Send(c)
		if err != nil {
			log.Printf("send reply to chat %d: %v", in.chatID, err)
			continue
		}
		if msg.Answerable {
			id := sent.MessageID
			if edited && id == 0 {
				id = in.messageID
			}
			b.handler.BindKeyboard(in.user.ID, id)
		}
	}
}

func answered(in inbound) bool {
	btn, ok := in.action.(app.ButtonAction)
	return ok && in.messageID != 0 && btn.Command.Kind == app.CmdAnswer
}

func editMessage(chatID int64, messageID int, msg app.Message) tgbotapi.Chattable {
	if len(msg.Buttons) == 0 {
		return tgbotapi.NewEditMessageText(chatID, messageID, msg.Text)
	}
	return tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, msg.Text, keyboard(msg.Buttons))
}

func mediaMessage(chatID int64, msg app.Message) tgbotapi.Chattable {
	file := tgbotapi.FilePath(msg.Media.Ref)
	if msg.Media.Kind == app.MediaAudio {
		audio := tgbotapi.NewAudio(chatID, file)
		audio.Caption = msg.Text
		if len(msg.Buttons) > 0 {
			audio.ReplyMarkup = keyboard(msg.Buttons)
		}
		return audio
	}
	photo := tgbotapi.NewPhoto(chatID, file)
	photo.Caption = msg.Text
	if len(msg.Buttons) > 0 {
		photo.ReplyMarkup = keyboard(msg.Buttons)
	}
	return photo
}

func keyboard(buttons [][]app.Button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, r := range buttons {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, btn := range r {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Data))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
