package bot

import (
	"github.com/jdelaire/tgrambot/core"
	"github.com/jdelaire/tgrambot/core/filters"
)

// Command matches /name and /name@<this bot>, but not commands addressed
// to other bots in the same chat.
func (b *Bot) Command(name string) core.Filter {
	return filters.CommandFor(name, b.me.String("username"))
}

// On registers h for updates of type t. filter may be nil.
func (b *Bot) On(t core.UpdateType, filter core.Filter, h core.Handler) error {
	return b.registry.Register(t, filter, h)
}

func (b *Bot) OnMessage(filter core.Filter, h core.Handler) error {
	return b.On(core.Message, filter, h)
}

func (b *Bot) OnEditedMessage(filter core.Filter, h core.Handler) error {
	return b.On(core.EditedMessage, filter, h)
}

func (b *Bot) OnChannelPost(filter core.Filter, h core.Handler) error {
	return b.On(core.ChannelPost, filter, h)
}

func (b *Bot) OnEditedChannelPost(filter core.Filter, h core.Handler) error {
	return b.On(core.EditedChannelPost, filter, h)
}

func (b *Bot) OnInlineQuery(filter core.Filter, h core.Handler) error {
	return b.On(core.InlineQuery, filter, h)
}

func (b *Bot) OnChosenInlineResult(filter core.Filter, h core.Handler) error {
	return b.On(core.ChosenInlineResult, filter, h)
}

func (b *Bot) OnCallbackQuery(filter core.Filter, h core.Handler) error {
	return b.On(core.CallbackQuery, filter, h)
}

func (b *Bot) OnShippingQuery(filter core.Filter, h core.Handler) error {
	return b.On(core.ShippingQuery, filter, h)
}

func (b *Bot) OnPreCheckoutQuery(filter core.Filter, h core.Handler) error {
	return b.On(core.PreCheckoutQuery, filter, h)
}

func (b *Bot) OnPoll(filter core.Filter, h core.Handler) error {
	return b.On(core.Poll, filter, h)
}

func (b *Bot) OnPollAnswer(filter core.Filter, h core.Handler) error {
	return b.On(core.PollAnswer, filter, h)
}

func (b *Bot) OnMyChatMember(filter core.Filter, h core.Handler) error {
	return b.On(core.MyChatMember, filter, h)
}

func (b *Bot) OnChatMember(filter core.Filter, h core.Handler) error {
	return b.On(core.ChatMember, filter, h)
}

func (b *Bot) OnChatJoinRequest(filter core.Filter, h core.Handler) error {
	return b.On(core.ChatJoinRequest, filter, h)
}

func (b *Bot) OnMessageReaction(filter core.Filter, h core.Handler) error {
	return b.On(core.MessageReaction, filter, h)
}

func (b *Bot) OnMessageReactionCount(filter core.Filter, h core.Handler) error {
	return b.On(core.MessageReactionCount, filter, h)
}

func (b *Bot) OnChatBoost(filter core.Filter, h core.Handler) error {
	return b.On(core.ChatBoost, filter, h)
}

func (b *Bot) OnRemovedChatBoost(filter core.Filter, h core.Handler) error {
	return b.On(core.RemovedChatBoost, filter, h)
}

func (b *Bot) OnBusinessConnection(filter core.Filter, h core.Handler) error {
	return b.On(core.BusinessConnection, filter, h)
}

func (b *Bot) OnBusinessMessage(filter core.Filter, h core.Handler) error {
	return b.On(core.BusinessMessage, filter, h)
}

func (b *Bot) OnEditedBusinessMessage(filter core.Filter, h core.Handler) error {
	return b.On(core.EditedBusinessMessage, filter, h)
}

func (b *Bot) OnDeletedBusinessMessages(filter core.Filter, h core.Handler) error {
	return b.On(core.DeletedBusinessMessages, filter, h)
}
