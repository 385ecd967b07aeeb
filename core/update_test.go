package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifySingleKey(t *testing.T) {
	for _, ut := range UpdateTypes {
		env := Envelope{"update_id": 1.0, string(ut): map[string]any{"id": "x"}}
		got, payload, err := Classify(env)
		require.NoError(t, err)
		assert.Equal(t, ut, got)
		assert.Equal(t, "x", payload["id"])
	}
}

func TestClassifyDoesNotAssumeKnownNames(t *testing.T) {
	got, _, err := Classify(Envelope{"update_id": 3.0, "brand_new_thing": map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, UpdateType("brand_new_thing"), got)
	assert.False(t, got.Known())
}

func TestClassifyMalformed(t *testing.T) {
	_, _, err := Classify(Envelope{"update_id": 3.0, "message": "not an object"})
	assert.ErrorIs(t, err, ErrMalformedEnvelope)

	_, _, err = Classify(Envelope{})
	assert.ErrorIs(t, err, ErrMalformedEnvelope)
}

func TestClassifyAmbiguous(t *testing.T) {
	_, _, err := Classify(Envelope{
		"update_id":      3.0,
		"message":        map[string]any{},
		"edited_message": map[string]any{},
	})
	assert.ErrorIs(t, err, ErrAmbiguousEnvelope)
	assert.True(t, errors.Is(err, ErrMalformedEnvelope))
}

func TestParseEnvelope(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"update_id": 10, "message": {"chat": {"id": 1}, "text": "hi"}}`))
	require.NoError(t, err)

	id, ok := env.UpdateID()
	require.True(t, ok)
	assert.Equal(t, int64(10), id)

	ut, payload, err := Classify(env)
	require.NoError(t, err)
	assert.Equal(t, Message, ut)
	assert.Equal(t, "hi", payload["text"])
}

func TestParseEnvelopeRejectsNonObject(t *testing.T) {
	_, err := ParseEnvelope([]byte(`[1]`))
	assert.ErrorIs(t, err, ErrMalformedEnvelope)

	_, err = ParseEnvelope([]byte(`{`))
	assert.Error(t, err)
}

func TestUpdateIDMissing(t *testing.T) {
	_, ok := Envelope{"message": map[string]any{}}.UpdateID()
	assert.False(t, ok)
}
