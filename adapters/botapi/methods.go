package botapi

import (
	"context"

	"github.com/pkg/errors"

	"github.com/jdelaire/tgrambot/core"
)

// call merges opts over the required fields and sends the request.
func (c *Client) call(ctx context.Context, method string, required Params, opts Params) (*Response, error) {
	return c.upload(ctx, method, required, opts, nil)
}

func (c *Client) upload(ctx context.Context, method string, required Params, opts Params, files map[string]InputFile) (*Response, error) {
	params := make(Params, len(required)+len(opts))
	for k, v := range opts {
		params[k] = v
	}
	for k, v := range required {
		params[k] = v
	}
	return c.Request(ctx, method, params, files)
}

// GetMe returns basic information about the bot. It doubles as a token check.
func (c *Client) GetMe(ctx context.Context) (*Response, error) {
	return c.call(ctx, "getMe", nil, nil)
}

// LogOut logs the bot out of the cloud Bot API server.
func (c *Client) LogOut(ctx context.Context) (*Response, error) {
	return c.call(ctx, "logOut", nil, nil)
}

// Close closes the bot instance before moving it between servers.
func (c *Client) Close(ctx context.Context) (*Response, error) {
	return c.call(ctx, "close", nil, nil)
}

// GetFile returns file info for downloading fileID.
func (c *Client) GetFile(ctx context.Context, fileID string, opts Params) (*Response, error) {
	return c.call(ctx, "getFile", Params{"file_id": fileID}, opts)
}

// GetUpdates long-polls for updates starting at offset. timeout is in seconds.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int, opts Params) ([]core.Envelope, error) {
	resp, err := c.call(ctx, "getUpdates", Params{"offset": offset, "timeout": timeout}, opts)
	if err != nil {
		return nil, err
	}
	var updates []core.Envelope
	if err := resp.Decode(&updates); err != nil {
		return nil, errors.Wrap(err, "decode updates")
	}
	return updates, nil
}

// SetWebhook registers url for update delivery. certificate may be nil.
func (c *Client) SetWebhook(ctx context.Context, url string, certificate *InputFile, opts Params) (*Response, error) {
	var files map[string]InputFile
	if certificate != nil {
		files = map[string]InputFile{"certificate": *certificate}
	}
	return c.upload(ctx, "setWebhook", Params{"url": url}, opts, files)
}

// DeleteWebhook removes the webhook integration.
func (c *Client) DeleteWebhook(ctx context.Context, opts Params) (*Response, error) {
	return c.call(ctx, "deleteWebhook", nil, opts)
}

// GetWebhookInfo returns the current webhook status.
func (c *Client) GetWebhookInfo(ctx context.Context) (*Response, error) {
	return c.call(ctx, "getWebhookInfo", nil, nil)
}

func (c *Client) SendMessage(ctx context.Context, chatID any, text string, opts Params) (*Response, error) {
	return c.call(ctx, "sendMessage", Params{"chat_id": chatID, "text": text}, opts)
}

func (c *Client) DeleteMessage(ctx context.Context, chatID any, messageID int64, opts Params) (*Response, error) {
	return c.call(ctx, "deleteMessage", Params{"chat_id": chatID, "message_id": messageID}, opts)
}

func (c *Client) ForwardMessage(ctx context.Context, chatID, fromChatID any, messageID int64, opts Params) (*Response, error) {
	return c.call(ctx, "forwardMessage", Params{"chat_id": chatID, "from_chat_id": fromChatID, "message_id": messageID}, opts)
}

func (c *Client) CopyMessage(ctx context.Context, chatID, fromChatID any, messageID int64, opts Params) (*Response, error) {
	return c.call(ctx, "copyMessage", Params{"chat_id": chatID, "from_chat_id": fromChatID, "message_id": messageID}, opts)
}

func (c *Client) SetMessageReaction(ctx context.Context, chatID any, messageID int64, opts Params) (*Response, error) {
	return c.call(ctx, "setMessageReaction", Params{"chat_id": chatID, "message_id": messageID}, opts)
}

func (c *Client) GetUserProfilePhotos(ctx context.Context, userID int64, opts Params) (*Response, error) {
	return c.call(ctx, "getUserProfilePhotos", Params{"user_id": userID}, opts)
}

func (c *Client) GetChat(ctx context.Context, chatID any) (*Response, error) {
	return c.call(ctx, "getChat", Params{"chat_id": chatID}, nil)
}

func (c *Client) LeaveChat(ctx context.Context, chatID any) (*Response, error) {
	return c.call(ctx, "leaveChat", Params{"chat_id": chatID}, nil)
}

func (c *Client) GetChatAdministrators(ctx context.Context, chatID any) (*Response, error) {
	return c.call(ctx, "getChatAdministrators", Params{"chat_id": chatID}, nil)
}

func (c *Client) GetChatMemberCount(ctx context.Context, chatID any) (*Response, error) {
	return c.call(ctx, "getChatMemberCount", Params{"chat_id": chatID}, nil)
}

func (c *Client) GetChatMember(ctx context.Context, chatID any, userID int64) (*Response, error) {
	return c.call(ctx, "getChatMember", Params{"chat_id": chatID, "user_id": userID}, nil)
}

func (c *Client) SetChatStickerSet(ctx context.Context, chatID any, stickerSetName string) (*Response, error) {
	return c.call(ctx, "setChatStickerSet", Params{"chat_id": chatID, "sticker_set_name": stickerSetName}, nil)
}

func (c *Client) DeleteChatStickerSet(ctx context.Context, chatID any) (*Response, error) {
	return c.call(ctx, "deleteChatStickerSet", Params{"chat_id": chatID}, nil)
}

func (c *Client) SendDice(ctx context.Context, chatID any, opts Params) (*Response, error) {
	return c.call(ctx, "sendDice", Params{"chat_id": chatID}, opts)
}

func (c *Client) SendChatAction(ctx context.Context, chatID any, action string, opts Params) (*Response, error) {
	return c.call(ctx, "sendChatAction", Params{"chat_id": chatID, "action": action}, opts)
}

func (c *Client) SendLocation(ctx context.Context, chatID any, latitude, longitude float64, opts Params) (*Response, error) {
	return c.call(ctx, "sendLocation", Params{"chat_id": chatID, "latitude": latitude, "longitude": longitude}, opts)
}

// EditMessageLiveLocation needs chat_id+message_id or inline_message_id in opts.
func (c *Client) EditMessageLiveLocation(ctx context.Context, latitude, longitude float64, opts Params) (*Response, error) {
	return c.call(ctx, "editMessageLiveLocation", Params{"latitude": latitude, "longitude": longitude}, opts)
}

func (c *Client) StopMessageLiveLocation(ctx context.Context, opts Params) (*Response, error) {
	return c.call(ctx, "stopMessageLiveLocation", nil, opts)
}

func (c *Client) SendVenue(ctx context.Context, chatID any, latitude, longitude float64, title, address string, opts Params) (*Response, error) {
	return c.call(ctx, "sendVenue", Params{
		"chat_id":   chatID,
		"latitude":  latitude,
		"longitude": longitude,
		"title":     title,
		"address":   address,
	}, opts)
}

func (c *Client) SendContact(ctx context.Context, chatID any, phoneNumber, firstName string, opts Params) (*Response, error) {
	return c.call(ctx, "sendContact", Params{"chat_id": chatID, "phone_number": phoneNumber, "first_name": firstName}, opts)
}

func (c *Client) AnswerInlineQuery(ctx context.Context, inlineQueryID string, results []any, opts Params) (*Response, error) {
	return c.call(ctx, "answerInlineQuery", Params{"inline_query_id": inlineQueryID, "results": results}, opts)
}

func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackQueryID string, opts Params) (*Response, error) {
	return c.call(ctx, "answerCallbackQuery", Params{"callback_query_id": callbackQueryID}, opts)
}

// SetStickerSetThumbnail sets a sticker set's thumbnail. thumbnail is a
// string (file_id or URL), an InputFile, or nil to drop the thumbnail.
func (c *Client) SetStickerSetThumbnail(ctx context.Context, name string, userID int64, format string, thumbnail any, opts Params) (*Response, error) {
	required := Params{"name": name, "user_id": userID, "format": format}
	var files map[string]InputFile
	switch th := thumbnail.(type) {
	case nil:
	case string:
		required["thumbnail"] = th
	case InputFile:
		files = map[string]InputFile{"thumbnail": th}
	case *InputFile:
		if th != nil {
			files = map[string]InputFile{"thumbnail": *th}
		}
	default:
		return nil, errors.Errorf("setStickerSetThumbnail: unsupported thumbnail type %T", thumbnail)
	}
	return c.upload(ctx, "setStickerSetThumbnail", required, opts, files)
}

// ReplaceStickerInSet swaps oldSticker for sticker, an InputSticker object.
func (c *Client) ReplaceStickerInSet(ctx context.Context, userID int64, name, oldSticker string, sticker Params, opts Params) (*Response, error) {
	return c.call(ctx, "replaceStickerInSet", Params{"user_id": userID, "name": name, "old_sticker": oldSticker, "sticker": sticker}, opts)
}

// Media senders take either a string (file_id or URL) or an InputFile.

func (c *Client) SendPhoto(ctx context.Context, chatID, photo any, opts Params) (*Response, error) {
	return c.sendMedia(ctx, "sendPhoto", "photo", chatID, photo, opts)
}

func (c *Client) SendAudio(ctx context.Context, chatID, audio any, opts Params) (*Response, error) {
	return c.sendMedia(ctx, "sendAudio", "audio", chatID, audio, opts)
}

func (c *Client) SendDocument(ctx context.Context, chatID, document any, opts Params) (*Response, error) {
	return c.sendMedia(ctx, "sendDocument", "document", chatID, document, opts)
}

func (c *Client) SendVideo(ctx context.Context, chatID, video any, opts Params) (*Response, error) {
	return c.sendMedia(ctx, "sendVideo", "video", chatID, video, opts)
}

func (c *Client) SendAnimation(ctx context.Context, chatID, animation any, opts Params) (*Response, error) {
	return c.sendMedia(ctx, "sendAnimation", "animation", chatID, animation, opts)
}

func (c *Client) SendVoice(ctx context.Context, chatID, voice any, opts Params) (*Response, error) {
	return c.sendMedia(ctx, "sendVoice", "voice", chatID, voice, opts)
}

func (c *Client) SendVideoNote(ctx context.Context, chatID, videoNote any, opts Params) (*Response, error) {
	return c.sendMedia(ctx, "sendVideoNote", "video_note", chatID, videoNote, opts)
}

func (c *Client) SendSticker(ctx context.Context, chatID, sticker any, opts Params) (*Response, error) {
	return c.sendMedia(ctx, "sendSticker", "sticker", chatID, sticker, opts)
}

// SendMediaGroup sends an album. Items refer to uploads as "attach://<name>",
// where name is a key of files.
func (c *Client) SendMediaGroup(ctx context.Context, chatID any, media []Params, files map[string]InputFile, opts Params) (*Response, error) {
	return c.upload(ctx, "sendMediaGroup", Params{"chat_id": chatID, "media": media}, opts, files)
}

func (c *Client) sendMedia(ctx context.Context, method, field string, chatID, media any, opts Params) (*Response, error) {
	required := Params{"chat_id": chatID}
	var files map[string]InputFile

	switch m := media.(type) {
	case InputFile:
		files = map[string]InputFile{field: m}
	case *InputFile:
		if m == nil {
			return nil, errors.Errorf("%s: nil %s", method, field)
		}
		files = map[string]InputFile{field: *m}
	case string:
		required[field] = m
	default:
		return nil, errors.Errorf("%s: unsupported %s type %T", method, field, media)
	}

	if thumb, ok := opts["thumbnail"].(InputFile); ok {
		if files == nil {
			files = make(map[string]InputFile)
		}
		files["thumbnail"] = thumb
		opts = without(opts, "thumbnail")
	}

	return c.upload(ctx, method, required, opts, files)
}

func without(p Params, key string) Params {
	out := make(Params, len(p))
	for k, v := range p {
		if k != key {
			out[k] = v
		}
	}
	return out
}
