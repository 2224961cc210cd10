package domain

// Role はチャットメッセージの発話者です。
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ChatMessage はチャット履歴の1件です。
type ChatMessage struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Conversation は追記専用のチャット履歴です。削除や編集の操作は持ちません。
type Conversation struct {
	messages []ChatMessage
}

// Append は末尾にメッセージを追加します。
func (c *Conversation) Append(msgs ...ChatMessage) {
	c.messages = append(c.messages, msgs...)
}

// Messages は履歴のコピーを返します。
func (c *Conversation) Messages() []ChatMessage {
	out := make([]ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len は履歴の件数を返します。
func (c *Conversation) Len() int {
	return len(c.messages)
}
