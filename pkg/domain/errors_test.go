package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("boom")
	re := NewRemoteError(KindRateLimited, "quota", cause)
	wrapped := fmt.Errorf("画像生成エラー: %w", re)

	assert.Equal(t, KindRateLimited, KindOf(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, KindUnknown, KindOf(cause))
	assert.Contains(t, re.Error(), "rate_limited")
}

func TestRequestValidate(t *testing.T) {
	t.Run("concept が空の PromptRequest は不正", func(t *testing.T) {
		err := PromptRequest{DurationSeconds: 10}.Validate()
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("duration が 0 の PromptRequest は不正", func(t *testing.T) {
		err := PromptRequest{Concept: "droplet"}.Validate()
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("未知の解像度は不正", func(t *testing.T) {
		err := ImageRequest{Prompt: "frame", Size: "8K"}.Validate()
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("LiveConnectRequest は常に有効", func(t *testing.T) {
		assert.NoError(t, LiveConnectRequest{}.Validate())
	})
}

func TestConversation_AppendOnly(t *testing.T) {
	var c Conversation
	c.Append(ChatMessage{Role: RoleUser, Text: "hi"})
	c.Append(ChatMessage{Role: RoleModel, Text: "hello"})

	msgs := c.Messages()
	msgs[0].Text = "changed"

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "hi", c.Messages()[0].Text, "コピーを書き換えても履歴は変わらないのだ")
}
