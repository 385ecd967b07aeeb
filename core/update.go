package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// UpdateType names the kind of event an update carries.
type UpdateType string

const (
	Message                 UpdateType = "message"
	EditedMessage           UpdateType = "edited_message"
	ChannelPost             UpdateType = "channel_post"
	EditedChannelPost       UpdateType = "edited_channel_post"
	InlineQuery             UpdateType = "inline_query"
	ChosenInlineResult      UpdateType = "chosen_inline_result"
	CallbackQuery           UpdateType = "callback_query"
	ShippingQuery           UpdateType = "shipping_query"
	PreCheckoutQuery        UpdateType = "pre_checkout_query"
	Poll                    UpdateType = "poll"
	PollAnswer              UpdateType = "poll_answer"
	MyChatMember            UpdateType = "my_chat_member"
	ChatMember              UpdateType = "chat_member"
	ChatJoinRequest         UpdateType = "chat_join_request"
	MessageReaction         UpdateType = "message_reaction"
	MessageReactionCount    UpdateType = "message_reaction_count"
	ChatBoost               UpdateType = "chat_boost"
	RemovedChatBoost        UpdateType = "removed_chat_boost"
	BusinessConnection      UpdateType = "business_connection"
	BusinessMessage         UpdateType = "business_message"
	EditedBusinessMessage   UpdateType = "edited_business_message"
	DeletedBusinessMessages UpdateType = "deleted_business_messages"
)

// UpdateTypes lists every update type the registry accepts, in protocol order.
var UpdateTypes = []UpdateType{
	Message, EditedMessage, ChannelPost, EditedChannelPost, InlineQuery,
	ChosenInlineResult, CallbackQuery, ShippingQuery, PreCheckoutQuery, Poll,
	PollAnswer, MyChatMember, ChatMember, ChatJoinRequest, MessageReaction,
	MessageReactionCount, ChatBoost, RemovedChatBoost, BusinessConnection,
	BusinessMessage, EditedBusinessMessage, DeletedBusinessMessages,
}

var knownTypes = func() map[UpdateType]bool {
	m := make(map[UpdateType]bool, len(UpdateTypes))
	for _, t := range UpdateTypes {
		m[t] = true
	}
	return m
}()

// Known reports whether t is one of UpdateTypes.
func (t UpdateType) Known() bool {
	return knownTypes[t]
}

func (t UpdateType) String() string { return string(t) }

var (
	ErrMalformedEnvelope = errors.New("malformed update envelope")
	ErrAmbiguousEnvelope = fmt.Errorf("%w: more than one update type present", ErrMalformedEnvelope)
	ErrUnknownUpdateType = errors.New("unknown update type")
)

// Envelope is one raw update as delivered by getUpdates or a webhook call:
// an update_id plus exactly one key naming the update type.
type Envelope map[string]any

// ParseEnvelope decodes a JSON update. Numbers are kept as json.Number.
func ParseEnvelope(data []byte) (Envelope, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode update: %w", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level is %T", ErrMalformedEnvelope, v)
	}
	return Envelope(m), nil
}

// UpdateID returns the update_id field, if present and numeric.
func (e Envelope) UpdateID() (int64, bool) {
	switch n := e["update_id"].(type) {
	case json.Number:
		id, err := n.Int64()
		return id, err == nil
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}

// Classify returns the update type of e and its payload: the single
// top-level key whose value is an object. Envelopes with none or with
// several such keys are malformed.
func Classify(e Envelope) (UpdateType, map[string]any, error) {
	var found []string
	for k, v := range e {
		if _, ok := v.(map[string]any); ok {
			found = append(found, k)
		}
	}

	switch len(found) {
	case 0:
		return "", nil, fmt.Errorf("%w: no update type key", ErrMalformedEnvelope)
	case 1:
		return UpdateType(found[0]), e[found[0]].(map[string]any), nil
	default:
		sort.Strings(found)
		return "", nil, fmt.Errorf("%w: %v", ErrAmbiguousEnvelope, found)
	}
}
